package qlinalg

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

/*
Config holds the pool and simulator settings. Seed only applies when Seeded
is true, which DecodeConfig sets whenever a seed was given, including 0.
Without one the simulators seed from the clock.
*/
type Config struct {
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
	Workers           int           `mapstructure:"workers"`
	Threshold         float64       `mapstructure:"threshold"`
	Seed              uint64        `mapstructure:"seed"`
	Seeded            bool          `mapstructure:"-"`
	MaxQubits         int           `mapstructure:"max_qubits"`
	Evaluator         string        `mapstructure:"evaluator"`
	LogLevel          string        `mapstructure:"log_level"`
	ResultTTL         time.Duration `mapstructure:"result_ttl"`
}

func NewConfig() *Config {
	return &Config{
		SchedulingTimeout: 10 * time.Second,
		Workers:           4,
		Threshold:         1e-12,
		MaxQubits:         DefaultMaxQubits,
		Evaluator:         "prefix",
		LogLevel:          "info",
		ResultTTL:         time.Minute,
	}
}

/*
LoadConfig reads a configuration file (any format viper understands) on top
of the defaults. Every key can be overridden from the environment with the
QLINALG_ prefix, e.g. QLINALG_THRESHOLD. An empty path only applies defaults
and environment.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	BindDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	return DecodeConfig(v)
}

// BindDefaults registers the defaults and environment lookup on v.
func BindDefaults(v *viper.Viper) {
	defaults := NewConfig()
	v.SetDefault("scheduling_timeout", defaults.SchedulingTimeout)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("threshold", defaults.Threshold)
	v.SetDefault("max_qubits", defaults.MaxQubits)
	v.SetDefault("evaluator", defaults.Evaluator)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("result_ttl", defaults.ResultTTL)

	v.SetEnvPrefix("qlinalg")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// No default for seed, so IsSet tells an explicit 0 from none at all.
	_ = v.BindEnv("seed")
}

// DecodeConfig builds a Config from an already populated viper instance.
func DecodeConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.Seeded = v.IsSet("seed")

	if cfg.Workers < 1 {
		return nil, errors.Wrapf(ErrInvalidArgs, "workers must be positive, got %d", cfg.Workers)
	}
	if cfg.Threshold < 0 {
		return nil, errors.Wrapf(ErrInvalidArgs, "threshold must not be negative, got %v", cfg.Threshold)
	}
	if cfg.MaxQubits < 1 || cfg.MaxQubits > MaxQubits {
		return nil, errors.Wrapf(ErrInvalidArgs, "max_qubits must be in [1, %d], got %d", MaxQubits, cfg.MaxQubits)
	}
	return cfg, nil
}

// SimulatorOptions turns the configuration into simulator options.
func (cfg *Config) SimulatorOptions() ([]SimulatorOption, error) {
	ev, err := NewEvaluator(cfg.Evaluator)
	if err != nil {
		return nil, err
	}

	opts := []SimulatorOption{WithEvaluator(ev), WithMaxQubits(cfg.MaxQubits)}
	if cfg.Seeded {
		opts = append(opts, WithSeed(cfg.Seed))
	}
	return opts, nil
}
