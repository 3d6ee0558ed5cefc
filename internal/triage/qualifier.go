// Package triage classifies inbound problem descriptions into emergency and
// routine work so the scheduler can prioritize dispatch.
package triage

import (
	"strconv"
	"strings"
)

// Result is the outcome of qualifying a problem description. It is computed
// per request and never persisted.
type Result struct {
	IsEmergency  bool
	Reason       string
	PriorityRank int // 1 = highest priority
}

const (
	priorityEmergency = 1
	priorityRoutine   = 5
)

// Config holds the keyword tables and temperature thresholds for emergency
// qualification. Loaded once at startup and injected; never mutated.
type Config struct {
	// AlwaysEmergency short-circuits qualification regardless of any other
	// field when one of these phrases appears in the description.
	AlwaysEmergency []string
	// NoHeatPhrases paired with a reported temperature below
	// NoHeatBelowF qualify as an emergency.
	NoHeatPhrases []string
	NoHeatBelowF  int
	// NoCoolPhrases paired with a reported temperature above
	// NoCoolAboveF qualify as an emergency.
	NoCoolPhrases []string
	NoCoolAboveF  int
}

// DefaultConfig returns the standard field-service triage rules.
func DefaultConfig() Config {
	return Config{
		AlwaysEmergency: []string{
			"gas leak",
			"smell gas",
			"carbon monoxide",
			"co alarm",
			"co detector",
			"burning smell",
			"smoke",
			"sparks",
			"flooding",
			"burst pipe",
			"water everywhere",
			"sewage backup",
			"refrigerant leak",
			"server room",
			"data center",
			"walk-in cooler",
			"walk-in freezer",
		},
		NoHeatPhrases: []string{"no heat", "heat is out", "heater not working", "furnace not working", "heat stopped"},
		NoHeatBelowF:  55,
		NoCoolPhrases: []string{"no cooling", "no ac", "no air conditioning", "ac not working", "ac is out", "air conditioner not working"},
		NoCoolAboveF:  85,
	}
}

// Qualifier applies the configured triage rules. It is a pure classifier:
// no side effects, always returns a Result.
type Qualifier struct {
	cfg Config
}

// NewQualifier creates a qualifier with the given rules.
func NewQualifier(cfg Config) *Qualifier {
	return &Qualifier{cfg: cfg}
}

// Qualify classifies a problem description together with the caller's stated
// urgency and an optionally reported indoor temperature. The temperature is
// accepted as free text; anything unparseable is treated as absent.
func (q *Qualifier) Qualify(description, statedUrgency, temperature string) Result {
	desc := strings.ToLower(description)

	for _, keyword := range q.cfg.AlwaysEmergency {
		if strings.Contains(desc, keyword) {
			return Result{
				IsEmergency:  true,
				Reason:       "hazard keyword: " + keyword,
				PriorityRank: priorityEmergency,
			}
		}
	}

	if strings.EqualFold(strings.TrimSpace(statedUrgency), "emergency") {
		return Result{
			IsEmergency:  true,
			Reason:       "caller stated emergency",
			PriorityRank: priorityEmergency,
		}
	}

	if tempF, ok := parseTemperature(temperature); ok {
		if tempF < float64(q.cfg.NoHeatBelowF) && containsAny(desc, q.cfg.NoHeatPhrases) {
			return Result{
				IsEmergency:  true,
				Reason:       "no heat with indoor temperature below threshold",
				PriorityRank: priorityEmergency,
			}
		}
		if tempF > float64(q.cfg.NoCoolAboveF) && containsAny(desc, q.cfg.NoCoolPhrases) {
			return Result{
				IsEmergency:  true,
				Reason:       "no cooling with indoor temperature above threshold",
				PriorityRank: priorityEmergency,
			}
		}
	}

	return Result{
		IsEmergency:  false,
		Reason:       "routine service request",
		PriorityRank: priorityRoutine,
	}
}

func containsAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}

// parseTemperature extracts a Fahrenheit reading from caller-supplied text
// like "48", "48F", "48 degrees". Returns false when nothing numeric is found.
func parseTemperature(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == "" {
		return 0, false
	}
	var numeric strings.Builder
	for _, r := range trimmed {
		if (r >= '0' && r <= '9') || r == '.' || (r == '-' && numeric.Len() == 0) {
			numeric.WriteRune(r)
			continue
		}
		if numeric.Len() > 0 {
			break
		}
	}
	value, err := strconv.ParseFloat(numeric.String(), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
