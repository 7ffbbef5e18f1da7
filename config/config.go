// Package config loads medcost settings from an optional YAML file and
// MEDCOST_ prefixed environment variables, e.g. MEDCOST_SERVER_ADDR=:9000.
package config

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ezoic/medcost/insurance"
	medErrors "github.com/ezoic/medcost/pkg/errors"
	"github.com/ezoic/medcost/pkg/currency"
	"github.com/ezoic/medcost/pkg/log"
	"github.com/ezoic/medcost/sklearn/model_selection"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "MEDCOST"

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Models struct {
	Dir string `mapstructure:"dir"`
}

type Server struct {
	Addr     string `mapstructure:"addr"`
	Mode     string `mapstructure:"mode"`
	Currency string `mapstructure:"currency"`
}

type Training struct {
	Dataset  string  `mapstructure:"dataset"`
	Target   string  `mapstructure:"target"`
	TestSize float64 `mapstructure:"test_size"`
	Seed     uint64  `mapstructure:"seed"`
	PlotDir  string  `mapstructure:"plot_dir"`
}

// Config is the full configuration tree.
type Config struct {
	Log      Log      `mapstructure:"log"`
	Models   Models   `mapstructure:"models"`
	Server   Server   `mapstructure:"server"`
	Training Training `mapstructure:"training"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", string(log.FormatText))
	v.SetDefault("models.dir", "models")
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.currency", currency.USD.Code())
	v.SetDefault("training.dataset", "data/insurance.csv")
	v.SetDefault("training.target", insurance.TargetColumn)
	v.SetDefault("training.test_size", model_selection.DefaultTestSize)
	v.SetDefault("training.seed", model_selection.DefaultSeed)
	v.SetDefault("training.plot_dir", "")
}

// Load reads path (skipped when empty), the environment and the flags of fs
// that were set explicitly, then validates. Flags are bound by name, so a flag
// named "models.dir" overrides the models.dir key. Precedence, highest first:
// flag, environment, file, default.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, medErrors.Wrap(err, "bind flags")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, medErrors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, medErrors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks every setting that would otherwise fail late.
func (c *Config) Validate() error {
	if !log.ValidLevel(c.Log.Level) {
		return medErrors.NewValidationError("log.level", "unknown level", c.Log.Level)
	}
	switch log.Format(c.Log.Format) {
	case log.FormatText, log.FormatJSON:
	default:
		return medErrors.NewValidationError("log.format", "must be text or json", c.Log.Format)
	}
	if strings.TrimSpace(c.Models.Dir) == "" {
		return medErrors.NewValidationError("models.dir", "must not be empty", c.Models.Dir)
	}
	if c.Server.Addr == "" {
		return medErrors.NewValidationError("server.addr", "must not be empty", c.Server.Addr)
	}
	switch c.Server.Mode {
	case "release", "debug", "test":
	default:
		return medErrors.NewValidationError("server.mode", "must be release, debug or test", c.Server.Mode)
	}
	if _, err := currency.NewCurrency(c.Server.Currency); err != nil {
		return medErrors.NewValidationError("server.currency", err.Error(), c.Server.Currency)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return medErrors.NewValidationError("training.test_size", "must be in (0, 1)", c.Training.TestSize)
	}
	if c.Training.Target == "" {
		return medErrors.NewValidationError("training.target", "must not be empty", c.Training.Target)
	}
	return nil
}

// Currency returns the configured server currency.
func (c *Config) Currency() currency.Currency {
	return currency.MustCurrency(c.Server.Currency)
}

// SplitOptions converts the training section to preprocessing options.
func (c *Config) SplitOptions() insurance.Options {
	opts := insurance.DefaultOptions()
	opts.Target = c.Training.Target
	opts.TestSize = c.Training.TestSize
	opts.Seed = c.Training.Seed
	return opts
}

// SetupLogging applies the log section to the global logger.
func (c *Config) SetupLogging() {
	log.Configure(os.Stderr, log.Format(c.Log.Format), c.Log.Level)
}
