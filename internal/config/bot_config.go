package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type BotConfig struct {
	Token string `mapstructure:"token"`
	// Long polling timeout in seconds.
	PollTimeout int `mapstructure:"poll_timeout"`
}

func (config BotConfig) validate() error {
	if config.Token == "" {
		return fmt.Errorf("missing variable: token")
	}
	if config.PollTimeout <= 0 {
		return fmt.Errorf("poll_timeout must be greater than zero")
	}
	return nil
}

func (config BotConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("bot.token", "TOKEN")
}
