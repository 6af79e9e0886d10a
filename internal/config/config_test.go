package config

import (
	"testing"

	"gosurv/domain/survival"
	"gosurv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"SURV_SAMPLE_SIZE", "SURV_WEIBULL_SHAPE", "SURV_WEIBULL_SCALE", "SURV_CENSOR_RATE",
		"SURV_SEED", "SURV_GRID_POINTS", "SURV_CONF_LEVEL", "REPORT_DIR", "REPORT_PLOT_FORMAT",
		"REPORT_PLOT_WIDTH_IN", "REPORT_PLOT_HEIGHT_IN", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, survival.DefaultSampleSpec(), cfg.SampleSpec())
	assert.Equal(t, DefaultGridPoints, cfg.Survival.GridPoints)
	assert.Equal(t, DefaultConfLevel, cfg.Survival.ConfLevel)
	assert.Equal(t, DefaultReportDir, cfg.Report.Dir)
	assert.Equal(t, "png", cfg.Report.PlotFormat)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SURV_SAMPLE_SIZE", "500")
	t.Setenv("SURV_SEED", "42")
	t.Setenv("SURV_WEIBULL_SHAPE", "1.5")
	t.Setenv("REPORT_PLOT_FORMAT", "SVG")
	t.Setenv("DATABASE_URL", "postgres://localhost/gosurv")

	cfg, err := FromEnv()
	require.NoError(t, err)

	spec := cfg.SampleSpec()
	assert.Equal(t, 500, spec.Size)
	assert.Equal(t, uint64(42), spec.Seed)
	assert.Equal(t, 1.5, spec.FailureShape)
	assert.Equal(t, "svg", cfg.Report.PlotFormat)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestFromEnv_UnparseableRejected(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SURV_SEED", "abc"},
		{"SURV_SEED", "-1"},
		{"SURV_SAMPLE_SIZE", "1e3"},
		{"SURV_WEIBULL_SHAPE", "two"},
		{"SURV_GRID_POINTS", "200.5"},
		{"SURV_CONF_LEVEL", "95%"},
		{"REPORT_PLOT_HEIGHT_IN", "5in"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestConfig_ValidateAfterOverride(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	cfg.Survival.GridPoints = 0
	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	cfg.Survival.GridPoints = 2
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"negative size", "SURV_SAMPLE_SIZE", "-3"},
		{"zero censor rate", "SURV_CENSOR_RATE", "0"},
		{"single grid point", "SURV_GRID_POINTS", "1"},
		{"confidence out of range", "SURV_CONF_LEVEL", "1.5"},
		{"unknown plot format", "REPORT_PLOT_FORMAT", "gif"},
		{"zero plot width", "REPORT_PLOT_WIDTH_IN", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
