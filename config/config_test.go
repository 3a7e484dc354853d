package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jabr"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "cases", cfg.CaseDir)
	assert.Equal(t, "slsqp", cfg.Backend)
	assert.Equal(t, 500, cfg.SLSQP.MaxIterations)
	assert.Equal(t, "gurobi_cl", cfg.Gurobi.Binary)
	assert.Equal(t, 5*time.Minute, cfg.Mosek.Timeout)

	opts, err := cfg.ModelOptions()
	require.NoError(t, err)
	assert.Equal(t, jabr.ModelOptions{Objective: jabr.ObjectiveLoss}, opts)

	mode, err := cfg.RecoveryMode()
	require.NoError(t, err)
	assert.Equal(t, jabr.Auto, mode)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("JABR_CASE_DIR", "/data/cases")
	t.Setenv("JABR_BACKEND", "mosek")
	t.Setenv("JABR_MOSEK_TIMEOUT", "90s")
	t.Setenv("JABR_ENFORCE_Q_LIMITS", "true")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/data/cases", cfg.CaseDir)
	assert.Equal(t, "mosek", cfg.Backend)
	assert.Equal(t, 90*time.Second, cfg.Mosek.Timeout)
	assert.True(t, cfg.EnforceQLimits)
}

func TestFileAndFlags(t *testing.T) {
	file := filepath.Join(t.TempDir(), "jabr.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
backend: gurobi
objective: jabr
gurobi:
  binary: /opt/gurobi/bin/gurobi_cl
  keep_files: true
`), 0o644))

	v := New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("topology", "auto", "")
	flags.Int("jobs", 4, "")
	require.NoError(t, flags.Parse([]string{"--topology", "mesh"}))
	require.NoError(t, BindFlags(v, flags))

	cfg, err := Load(v, file)
	require.NoError(t, err)

	assert.Equal(t, "gurobi", cfg.Backend)
	assert.Equal(t, "/opt/gurobi/bin/gurobi_cl", cfg.Gurobi.Binary)
	assert.True(t, cfg.Gurobi.KeepFiles)
	assert.Equal(t, "mesh", cfg.Topology)
	assert.Equal(t, 4, cfg.Jobs)

	opts, err := cfg.ModelOptions()
	require.NoError(t, err)
	assert.Equal(t, jabr.ObjectiveJabr, opts.Objective)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	bad := *cfg
	bad.Backend = "cplex"
	bad.Objective = "max"
	bad.Jobs = 0
	err = bad.Validate()
	assert.ErrorIs(t, err, ErrInvalid)
	assert.ErrorContains(t, err, "cplex")
	assert.ErrorContains(t, err, "max")
	assert.ErrorContains(t, err, "jobs")

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
