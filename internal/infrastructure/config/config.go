// Package config loads the process-wide configuration once at startup.
//
// There is no runtime reconfiguration: every field here is read once in
// Load and held for the life of the process, matching the teacher's
// internal/config package but widened from a single DATABASE_DSN knob to
// the provider/threshold/feature-flag surface this domain needs.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ProviderConfig holds the endpoint/model/key triple for one provider tier.
type ProviderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Thresholds collects every numeric knob named in the sandbox validator spec.
type Thresholds struct {
	ViewportChangeRatio float64 // default 0.02
	ElementChangeRatio  float64 // default 0.30
	ModalOpenRatio      float64 // default 0.15
	MinResponsiveRatio  float64 // default 0.70
	MinClickArea        int     // default 400 (20x20)
	MinDimensionPx      int     // default 10
	MaxInputsToTest     int     // default 8
	MaxRepairCycles     int     // default 2
	JSONRepairAttempts  int     // default 1
	ProviderRetryAttempts int   // default 2, passed to provider.RetryingProvider
}

// FeatureFlags gates optional behavior without code branches scattered
// throughout the call sites.
type FeatureFlags struct {
	JSONRepairEnabled            bool
	HTMLRepairEnabled            bool
	CustomLayoutEnabled          bool
	CustomLayoutValidationEnabled bool
}

// Config is the fully resolved, immutable process configuration.
type Config struct {
	Port     string
	LogLevel string
	LogFormat string

	Cheap    ProviderConfig
	Coder    ProviderConfig
	Reasoner ProviderConfig

	Thresholds Thresholds
	Flags      FeatureFlags

	InteractionTimeout time.Duration
	DebugDir           string
	MonitorHistorySize int

	// RoutingOverrideRules is a raw ";"-separated rule list, parsed by
	// router.ParseOverrideRules, letting an operator force a routing
	// complexity for known request shapes without a classification call.
	RoutingOverrideRules string
}

// Load reads .env (if present, dev convenience only, matching the teacher's
// use of godotenv) and then environment variables, falling back to sane
// defaults for everything.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Cheap: ProviderConfig{
			APIKey:  getEnv("CHEAP_API_KEY", ""),
			BaseURL: getEnv("CHEAP_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("CHEAP_MODEL", "gpt-4o-mini"),
		},
		Coder: ProviderConfig{
			APIKey:  getEnv("CODER_API_KEY", ""),
			BaseURL: getEnv("CODER_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("CODER_MODEL", "gpt-4o"),
		},
		Reasoner: ProviderConfig{
			APIKey:  getEnv("REASONER_API_KEY", ""),
			BaseURL: getEnv("REASONER_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("REASONER_MODEL", "o1"),
		},

		Thresholds: Thresholds{
			ViewportChangeRatio: getEnvFloat("VIEWPORT_CHANGE_RATIO", 0.02),
			ElementChangeRatio:  getEnvFloat("ELEMENT_CHANGE_RATIO", 0.30),
			ModalOpenRatio:      getEnvFloat("MODAL_OPEN_RATIO", 0.15),
			MinResponsiveRatio:  getEnvFloat("MIN_RESPONSIVE_RATIO", 0.70),
			MinClickArea:        getEnvInt("MIN_CLICK_AREA", 400),
			MinDimensionPx:      getEnvInt("MIN_DIMENSION_PX", 10),
			MaxInputsToTest:     getEnvInt("MAX_INPUTS_TO_TEST", 8),
			MaxRepairCycles:     getEnvInt("MAX_REPAIR_CYCLES", 2),
			JSONRepairAttempts:  getEnvInt("JSON_REPAIR_ATTEMPTS", 1),
			ProviderRetryAttempts: getEnvInt("PROVIDER_RETRY_ATTEMPTS", 2),
		},
		Flags: FeatureFlags{
			JSONRepairEnabled:             getEnvBool("JSON_REPAIR_ENABLED", true),
			HTMLRepairEnabled:             getEnvBool("HTML_REPAIR_ENABLED", true),
			CustomLayoutEnabled:           getEnvBool("CUSTOM_LAYOUT_ENABLED", true),
			CustomLayoutValidationEnabled: getEnvBool("CUSTOM_LAYOUT_VALIDATION_ENABLED", true),
		},

		InteractionTimeout: time.Duration(getEnvInt("INTERACTION_TIMEOUT_MS", 4000)) * time.Millisecond,
		DebugDir:           getEnv("DEBUG_DIR", ""),
		MonitorHistorySize: getEnvInt("MONITOR_HISTORY_SIZE", 1000),

		RoutingOverrideRules: getEnv("ROUTING_OVERRIDE_RULES", ""),
	}
}

// GetPortInt returns the port as an integer.
func (c *Config) GetPortInt() int {
	p, _ := strconv.Atoi(c.Port)
	return p
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
