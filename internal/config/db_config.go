package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type DBConfig struct {
	// postgres:// urls and key=value dsns select postgres, anything else is a sqlite file path.
	ConnectionString string `mapstructure:"connection_string"`
	// Zero keeps the driver default.
	MaxOpenConns int `mapstructure:"max_open_conns"`
}

func (config DBConfig) validate() error {
	if config.ConnectionString == "" {
		return fmt.Errorf("missing variable: db connection string")
	}
	if config.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must not be negative")
	}
	return nil
}

func (config DBConfig) bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("db.connection_string", "DB_CONNECTION_STRING"); err != nil {
		return err
	}
	return v.BindEnv("db.max_open_conns", "DB_MAX_OPEN_CONNS")
}
