package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gosurv/domain/survival"
	"gosurv/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Survival SurvivalConfig
	Report   ReportConfig
	Database DatabaseConfig
	Log      LogConfig
}

// SurvivalConfig holds the simulation and fitting parameters
type SurvivalConfig struct {
	SampleSize   int
	WeibullShape float64
	WeibullScale float64
	CensorRate   float64
	Seed         uint64
	GridPoints   int
	ConfLevel    float64
}

// ReportConfig holds output settings
type ReportConfig struct {
	Dir          string
	PlotFormat   string
	PlotWidthIn  float64
	PlotHeightIn float64
}

// DatabaseConfig holds the optional run archive connection. An empty URL
// disables archiving.
type DatabaseConfig struct {
	URL string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Default report settings
const (
	DefaultReportDir    = "./reports"
	DefaultPlotFormat   = "png"
	DefaultPlotWidthIn  = 7.0
	DefaultPlotHeightIn = 5.0
	DefaultGridPoints   = 200
	DefaultConfLevel    = 0.95
)

// Load reads .env when present, then environment variables, and validates the result
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	config := &Config{
		Survival: loadSurvivalConfig(),
		Report:   loadReportConfig(),
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "console"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadSurvivalConfig() SurvivalConfig {
	return SurvivalConfig{
		SampleSize:   getEnvIntOrDefault("SURV_SAMPLE_SIZE", survival.DefaultSampleSize),
		WeibullShape: getEnvFloatOrDefault("SURV_WEIBULL_SHAPE", survival.DefaultFailureShape),
		WeibullScale: getEnvFloatOrDefault("SURV_WEIBULL_SCALE", survival.DefaultFailureScale),
		CensorRate:   getEnvFloatOrDefault("SURV_CENSOR_RATE", survival.DefaultCensoringRate),
		Seed:         getEnvUint64OrDefault("SURV_SEED", survival.DefaultSeed),
		GridPoints:   getEnvIntOrDefault("SURV_GRID_POINTS", DefaultGridPoints),
		ConfLevel:    getEnvFloatOrDefault("SURV_CONF_LEVEL", DefaultConfLevel),
	}
}

func loadReportConfig() ReportConfig {
	return ReportConfig{
		Dir:          getEnvOrDefault("REPORT_DIR", DefaultReportDir),
		PlotFormat:   strings.ToLower(getEnvOrDefault("REPORT_PLOT_FORMAT", DefaultPlotFormat)),
		PlotWidthIn:  getEnvFloatOrDefault("REPORT_PLOT_WIDTH_IN", DefaultPlotWidthIn),
		PlotHeightIn: getEnvFloatOrDefault("REPORT_PLOT_HEIGHT_IN", DefaultPlotHeightIn),
	}
}

// SampleSpec returns the simulation parameters as a sample specification
func (c *Config) SampleSpec() survival.SampleSpec {
	return survival.SampleSpec{
		Size:          c.Survival.SampleSize,
		FailureShape:  c.Survival.WeibullShape,
		FailureScale:  c.Survival.WeibullScale,
		CensoringRate: c.Survival.CensorRate,
		Seed:          c.Survival.Seed,
	}
}

// ArchiveEnabled reports whether runs should be stored in Postgres
func (c *Config) ArchiveEnabled() bool {
	return c.Database.URL != ""
}

// numericKeys lists every numeric setting with the parser its getter uses
var numericKeys = []struct {
	key   string
	parse func(string) error
}{
	{"SURV_SAMPLE_SIZE", parseInt},
	{"SURV_WEIBULL_SHAPE", parseFloat},
	{"SURV_WEIBULL_SCALE", parseFloat},
	{"SURV_CENSOR_RATE", parseFloat},
	{"SURV_SEED", parseUint64},
	{"SURV_GRID_POINTS", parseInt},
	{"SURV_CONF_LEVEL", parseFloat},
	{"REPORT_PLOT_WIDTH_IN", parseFloat},
	{"REPORT_PLOT_HEIGHT_IN", parseFloat},
}

func parseInt(s string) error    { _, err := strconv.Atoi(s); return err }
func parseUint64(s string) error { _, err := strconv.ParseUint(s, 10, 64); return err }
func parseFloat(s string) error  { _, err := strconv.ParseFloat(s, 64); return err }

func validateConfig(config *Config) error {
	// a set but unparseable value would otherwise fall back to its default
	for _, k := range numericKeys {
		if value := os.Getenv(k.key); value != "" {
			if err := k.parse(value); err != nil {
				return errors.ConfigInvalid(fmt.Sprintf("%s: cannot parse %q", k.key, value))
			}
		}
	}
	return config.Validate()
}

// Validate checks the settings themselves. Commands call it again after
// applying flag overrides.
func (c *Config) Validate() error {
	if err := c.SampleSpec().Validate(); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if c.Survival.GridPoints < 2 {
		return errors.ConfigInvalid(fmt.Sprintf("grid points (SURV_GRID_POINTS, --grid) must be at least 2, got %d", c.Survival.GridPoints))
	}
	if !(c.Survival.ConfLevel > 0 && c.Survival.ConfLevel < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("SURV_CONF_LEVEL must be in (0, 1), got %g", c.Survival.ConfLevel))
	}
	switch c.Report.PlotFormat {
	case "png", "svg":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("REPORT_PLOT_FORMAT must be png or svg, got %q", c.Report.PlotFormat))
	}
	if !positive(c.Report.PlotWidthIn) || !positive(c.Report.PlotHeightIn) {
		return errors.ConfigInvalid("plot dimensions must be positive")
	}
	if c.Report.Dir == "" {
		return errors.ConfigInvalid("REPORT_DIR is required")
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint64OrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
