package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type RetentionConfig struct {
	SnapshotDays int    `mapstructure:"snapshot_days"`
	Schedule     string `mapstructure:"schedule"`
}

func (config RetentionConfig) validate() error {
	if config.SnapshotDays <= 0 {
		return fmt.Errorf("snapshot_days must be greater than zero")
	}
	if config.Schedule == "" {
		return fmt.Errorf("missing variable: schedule")
	}
	return nil
}

func (config RetentionConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("retention.snapshot_days", "SNAPSHOT_RETENTION_DAYS")
}
