package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	// Odoo CRM/calendar backend
	OdooBaseURL   string
	OdooDatabase  string
	OdooUsername  string
	OdooAPIKey    string
	OdooTimeout   time.Duration
	OdooDryRun    bool
	BusyCacheTTL  time.Duration
	SearchHorizon int // days of calendar searched ahead for availability

	// Business scheduling rules
	BusinessTimezone   string
	BusinessOpenHour   int
	BusinessCloseHour  int
	OperatingWeekdays  []time.Weekday
	AppointmentBuffer  time.Duration
	TravelBase         time.Duration
	TravelInflationPct int

	// Emergency triage thresholds (Fahrenheit)
	NoHeatEmergencyBelowF int
	NoCoolEmergencyAboveF int

	// Technician roster
	RosterPath string

	// Idempotency
	IdempotencyTTL time.Duration

	// Handoff queue (SQS or in-memory fallback)
	UseMemoryQueue      bool
	HandoffQueueURL     string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// HTTP surface
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		OdooBaseURL:   getEnv("ODOO_BASE_URL", ""),
		OdooDatabase:  getEnv("ODOO_DATABASE", ""),
		OdooUsername:  getEnv("ODOO_USERNAME", ""),
		OdooAPIKey:    getEnv("ODOO_API_KEY", ""),
		OdooTimeout:   getEnvAsDuration("ODOO_TIMEOUT", 15*time.Second),
		OdooDryRun:    getEnvAsBool("ODOO_DRY_RUN", false),
		BusyCacheTTL:  getEnvAsDuration("BUSY_CACHE_TTL", 60*time.Second),
		SearchHorizon: getEnvAsInt("SEARCH_HORIZON_DAYS", 30),

		BusinessTimezone:   getEnv("BUSINESS_TIMEZONE", "America/Chicago"),
		BusinessOpenHour:   getEnvAsInt("BUSINESS_OPEN_HOUR", 8),
		BusinessCloseHour:  getEnvAsInt("BUSINESS_CLOSE_HOUR", 17),
		OperatingWeekdays:  parseWeekdays(getEnv("OPERATING_WEEKDAYS", "Mon,Tue,Wed,Thu,Fri")),
		AppointmentBuffer:  getEnvAsDuration("APPOINTMENT_BUFFER", 15*time.Minute),
		TravelBase:         getEnvAsDuration("TRAVEL_BASE", 20*time.Minute),
		TravelInflationPct: getEnvAsInt("TRAVEL_INFLATION_PCT", 25),

		NoHeatEmergencyBelowF: getEnvAsInt("NO_HEAT_EMERGENCY_BELOW_F", 55),
		NoCoolEmergencyAboveF: getEnvAsInt("NO_COOL_EMERGENCY_ABOVE_F", 85),

		RosterPath: getEnv("ROSTER_PATH", "roster.json"),

		IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		UseMemoryQueue:      getEnvAsBool("USE_MEMORY_QUEUE", false),
		HandoffQueueURL:     getEnv("HANDOFF_QUEUE_URL", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),
		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),
	}
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekdays(value string) []time.Weekday {
	var days []time.Weekday
	for _, part := range strings.Split(value, ",") {
		key := strings.ToLower(strings.TrimSpace(part))
		if len(key) > 3 {
			key = key[:3]
		}
		if day, ok := weekdayNames[key]; ok {
			days = append(days, day)
		}
	}
	if len(days) == 0 {
		return []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}
	}
	return days
}

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
