package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config carries the settings shared by the CLI and the server.
type Config struct {
	DBPath     string `mapstructure:"db_path"`
	Port       string `mapstructure:"port"`
	OutputPath string `mapstructure:"output_path"`
	UserID     string `mapstructure:"user_id"`
}

// Build loads configuration in precedence order: defaults, then an optional
// config file (config.yaml by default), then FUNNELIO_* environment
// variables (a .env file is honored when present), then explicit flags.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetDefault("db_path", "./data/funnelio.db")
	v.SetDefault("port", "3000")
	v.SetDefault("output_path", "")
	v.SetDefault("user_id", "default")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("funnelio")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An absent default config file is fine; a malformed or explicitly
		// requested one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if flags != nil {
		for key, flagName := range map[string]string{
			"db_path":     "db",
			"port":        "port",
			"output_path": "out",
			"user_id":     "user",
		} {
			if f := flags.Lookup(flagName); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
