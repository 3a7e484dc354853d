// Package config loads jabr settings from defaults, an optional YAML file,
// JABR_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"jabr"
	"jabr/logging"
)

const EnvPrefix = "JABR"

var ErrInvalid = errors.New("config: invalid setting")

type Config struct {
	CaseDir        string `mapstructure:"case_dir"`
	Backend        string `mapstructure:"backend"`
	Objective      string `mapstructure:"objective"`
	Topology       string `mapstructure:"topology"`
	EnforceQLimits bool   `mapstructure:"enforce_q_limits"`
	LogLevel       string `mapstructure:"log_level"`
	Jobs           int    `mapstructure:"jobs"`

	SLSQP  SLSQP   `mapstructure:"slsqp"`
	Mosek  Command `mapstructure:"mosek"`
	Gurobi Command `mapstructure:"gurobi"`
}

type SLSQP struct {
	Accuracy      float64 `mapstructure:"accuracy"`
	MaxIterations int     `mapstructure:"max_iterations"`
}

// Command configures an external solver binary.
type Command struct {
	Binary    string        `mapstructure:"binary"`
	WorkDir   string        `mapstructure:"work_dir"`
	Timeout   time.Duration `mapstructure:"timeout"`
	KeepFiles bool          `mapstructure:"keep_files"`
}

// SetDefaults registers every key so environment variables resolve for
// nested settings too.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("case_dir", "cases")
	v.SetDefault("backend", "slsqp")
	v.SetDefault("objective", "loss")
	v.SetDefault("topology", "auto")
	v.SetDefault("enforce_q_limits", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("jobs", 4)

	v.SetDefault("slsqp.accuracy", 1e-10)
	v.SetDefault("slsqp.max_iterations", 500)

	v.SetDefault("mosek.binary", "mosek")
	v.SetDefault("mosek.work_dir", "")
	v.SetDefault("mosek.timeout", 5*time.Minute)
	v.SetDefault("mosek.keep_files", false)

	v.SetDefault("gurobi.binary", "gurobi_cl")
	v.SetDefault("gurobi.work_dir", "")
	v.SetDefault("gurobi.timeout", 5*time.Minute)
	v.SetDefault("gurobi.keep_files", false)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds flags to keys of the same name with dashes turned into
// underscores, so --case-dir sets case_dir.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		key := strings.ReplaceAll(f.Name, "-", "_")
		err = v.BindPFlag(key, f)
	})
	return err
}

// Load reads the optional config file and decodes the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.Backend {
	case "slsqp", "mosek", "gurobi":
	default:
		errs = append(errs, fmt.Errorf("%w: backend %q", ErrInvalid, c.Backend))
	}
	if _, err := jabr.ParseObjective(c.Objective); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if _, err := jabr.ParseTopology(c.Topology); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if c.Jobs <= 0 {
		errs = append(errs, fmt.Errorf("%w: jobs must be positive, got %d", ErrInvalid, c.Jobs))
	}
	if c.SLSQP.Accuracy <= 0 {
		errs = append(errs, fmt.Errorf("%w: slsqp.accuracy must be positive", ErrInvalid))
	}
	if c.SLSQP.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: slsqp.max_iterations must be positive", ErrInvalid))
	}
	for name, cmd := range map[string]Command{"mosek": c.Mosek, "gurobi": c.Gurobi} {
		if cmd.Timeout < 0 {
			errs = append(errs, fmt.Errorf("%w: %s.timeout is negative", ErrInvalid, name))
		}
	}
	return errors.Join(errs...)
}

// ModelOptions returns the packaging options selected by the configuration.
func (c *Config) ModelOptions() (jabr.ModelOptions, error) {
	obj, err := jabr.ParseObjective(c.Objective)
	if err != nil {
		return jabr.ModelOptions{}, err
	}
	return jabr.ModelOptions{Objective: obj, EnforceQLimits: c.EnforceQLimits}, nil
}

func (c *Config) RecoveryMode() (jabr.Topology, error) {
	return jabr.ParseTopology(c.Topology)
}
