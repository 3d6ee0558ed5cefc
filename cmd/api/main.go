// Command api runs the dispatch scheduling API server.
package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/apexhvac/dispatch-ai-platform/internal/api/router"
	"github.com/apexhvac/dispatch-ai-platform/internal/appointments"
	"github.com/apexhvac/dispatch-ai-platform/internal/audit"
	appconfig "github.com/apexhvac/dispatch-ai-platform/internal/config"
	"github.com/apexhvac/dispatch-ai-platform/internal/handoff"
	"github.com/apexhvac/dispatch-ai-platform/internal/http/handlers"
	"github.com/apexhvac/dispatch-ai-platform/internal/idempotency"
	"github.com/apexhvac/dispatch-ai-platform/internal/observability/metrics"
	"github.com/apexhvac/dispatch-ai-platform/internal/odoo"
	"github.com/apexhvac/dispatch-ai-platform/internal/roster"
	"github.com/apexhvac/dispatch-ai-platform/internal/scheduling"
	"github.com/apexhvac/dispatch-ai-platform/internal/triage"
	"github.com/apexhvac/dispatch-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dispatch-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rules, err := scheduling.NewRules(
		cfg.BusinessTimezone,
		cfg.BusinessOpenHour,
		cfg.BusinessCloseHour,
		cfg.OperatingWeekdays,
		cfg.AppointmentBuffer,
		cfg.TravelBase,
		cfg.TravelInflationPct,
	)
	if err != nil {
		logger.Error("build scheduling rules", "error", err)
		os.Exit(1)
	}

	directory, err := roster.LoadFile(cfg.RosterPath)
	if err != nil {
		logger.Error("load technician roster", "error", err, "path", cfg.RosterPath)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	schedulingMetrics := metrics.NewSchedulingMetrics(registry)

	odooClient := odoo.NewClient(
		cfg.OdooBaseURL,
		cfg.OdooDatabase,
		cfg.OdooUsername,
		cfg.OdooAPIKey,
		logger,
		odoo.WithTimeout(cfg.OdooTimeout),
		odoo.WithDryRun(cfg.OdooDryRun),
		odoo.WithMetrics(schedulingMetrics),
	)

	var calendar odoo.Calendar = odooClient
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(redisOpts)
		defer func() { _ = redisClient.Close() }()
		calendar = odoo.NewCachedCalendar(odooClient, redisClient, cfg.BusyCacheTTL, logger)
		logger.Info("busy-interval cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.BusyCacheTTL)
	}

	var queue handoff.Queue
	if cfg.UseMemoryQueue {
		queue = handoff.NewMemoryQueue()
		logger.Warn("using in-memory handoff queue; requests are lost on restart")
	} else {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("load AWS config", "error", err)
			os.Exit(1)
		}
		queue = handoff.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.HandoffQueueURL)
	}

	trail := audit.NewTrail(pool)

	manager := appointments.NewManager(
		triage.NewQualifier(triageConfig(cfg)),
		directory,
		scheduling.NewAggregator(rules, calendar, cfg.SearchHorizon, logger,
			scheduling.WithRevalidationReader(odooClient)),
		calendar,
		idempotency.NewStore(pool, cfg.IdempotencyTTL),
		trail,
		handoff.NewService(pool, queue, logger),
		schedulingMetrics,
		logger,
	)

	r := router.New(&router.Config{
		Logger:             logger,
		Scheduling:         handlers.NewSchedulingHandler(manager, logger),
		AdminAudit:         handlers.NewAdminAuditHandler(trail, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func triageConfig(cfg *appconfig.Config) triage.Config {
	tc := triage.DefaultConfig()
	tc.NoHeatBelowF = cfg.NoHeatEmergencyBelowF
	tc.NoCoolAboveF = cfg.NoCoolEmergencyAboveF
	return tc
}

// loadAWSConfig centralizes AWS SDK initialization so LocalStack and
// production share the same wiring.
func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return aws.Config{}, err
	}

	if endpoint := cfg.AWSEndpointOverride; endpoint != "" {
		awsCfg.EndpointResolverWithOptions = aws.EndpointResolverWithOptionsFunc(
			func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
				if service == sqs.ServiceID {
					return aws.Endpoint{
						URL:           endpoint,
						PartitionID:   "aws",
						SigningRegion: cfg.AWSRegion,
					}, nil
				}
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			},
		)
	}

	return awsCfg, nil
}
