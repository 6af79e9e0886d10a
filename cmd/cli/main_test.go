package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"gosurv/adapters/rng"
	"gosurv/domain/core"
	"gosurv/domain/run"
	"gosurv/domain/survival"
	apperrors "gosurv/internal/errors"

	"github.com/spf13/cobra"
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
	t.Setenv("LOG_LEVEL", "error")
}

func execute(cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestReportCmd_RejectsBadGrid(t *testing.T) {
	for _, grid := range []string{"0", "1", "-5"} {
		t.Run("grid="+grid, func(t *testing.T) {
			clearEnv(t)
			out := t.TempDir()

			err := execute(newReportCmd(), "--grid", grid, "--out", out)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

			entries, err := os.ReadDir(out)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestReportCmd_RejectsBadFormatFlag(t *testing.T) {
	clearEnv(t)

	err := execute(newReportCmd(), "--format", "gif", "--out", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestSampleCmd_RejectsNonPositiveSize(t *testing.T) {
	clearEnv(t)

	err := execute(newSampleCmd(), "--n", "0")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestRunsCmd_RejectsMalformedID(t *testing.T) {
	clearEnv(t)

	err := execute(newRunsCmd(), "--id", "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	// a well-formed id still needs the archive
	err = execute(newRunsCmd(), "--id", core.NewRunID().String())
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func writeManifest(t *testing.T, m *run.RunManifest) string {
	t.Helper()
	data, err := json.MarshalIndent(m, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func recordedManifest(t *testing.T) *run.RunManifest {
	t.Helper()
	ctx := context.Background()
	m := run.NewRunManifest(core.NewRunID(), survival.DefaultSampleSpec(), 200, 0.95)
	pcg := rng.NewPCGAdapter()
	for _, name := range []string{survival.FailureStream, survival.CensoringStream} {
		src, err := pcg.SeededStream(ctx, name, m.Spec.Seed)
		require.NoError(t, err)
		draws := make([]float64, run.StreamCheckDraws)
		for i := range draws {
			draws[i] = src.Float64()
		}
		m.StreamChecks = append(m.StreamChecks, run.StreamCheck{Name: name, Draws: draws})
	}
	return m
}

func TestVerifyCmd(t *testing.T) {
	t.Run("intact manifest", func(t *testing.T) {
		clearEnv(t)
		assert.NoError(t, execute(newVerifyCmd(), writeManifest(t, recordedManifest(t))))
	})

	t.Run("altered draws", func(t *testing.T) {
		clearEnv(t)
		m := recordedManifest(t)
		m.StreamChecks[0].Draws[2] = 0.5

		err := execute(newVerifyCmd(), writeManifest(t, m))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeReplayMismatch, apperrors.GetCode(err))
		assert.ErrorIs(t, err, core.ErrSeedMismatch)
	})

	t.Run("altered seed", func(t *testing.T) {
		clearEnv(t)
		m := recordedManifest(t)
		m.Spec.Seed++

		err := execute(newVerifyCmd(), writeManifest(t, m))
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeReplayMismatch, apperrors.GetCode(err))
		assert.ErrorIs(t, err, core.ErrHashMismatch)
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "manifest.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

		err := execute(newVerifyCmd(), path)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	})
}
