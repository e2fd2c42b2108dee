package config

import (
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func (config CacheConfig) validate() error {
	if config.TTL <= 0 {
		return fmt.Errorf("ttl must be positive")
	}
	return nil
}

func (config CacheConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return v.BindEnv("cache.ttl", "CACHE_TTL")
}
