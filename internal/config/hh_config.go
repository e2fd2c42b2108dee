package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"time"
)

// HHConfig configures the upstream vacancy search client and the page fetch loop.
type HHConfig struct {
	BaseURL              string        `mapstructure:"base_url"`
	UserAgent            string        `mapstructure:"user_agent"`
	MaxRequestsPerSecond float32       `mapstructure:"max_requests_per_second"`
	PageSize             int           `mapstructure:"page_size"`
	MaxPages             int           `mapstructure:"max_pages"`
	RetryAttempts        int           `mapstructure:"retry_attempts"`
	RetryDelay           time.Duration `mapstructure:"retry_delay"`
	PageDelay            time.Duration `mapstructure:"page_delay"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	NameOnly             bool          `mapstructure:"name_only"`
}

func (config HHConfig) validate() error {
	var errs []error

	if config.BaseURL == "" {
		errs = append(errs, fmt.Errorf("missing variable: base_url"))
	}
	if config.PageSize < 1 || config.PageSize > 100 {
		errs = append(errs, fmt.Errorf("page_size must be between 1 and 100"))
	}
	if config.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max_pages must be non-negative"))
	}
	if config.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retry_attempts must be positive"))
	}
	if config.MaxRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("max_requests_per_second must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}
	return nil
}

func (config HHConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"hh.base_url":                "HH_BASE_URL",
		"hh.max_requests_per_second": "HH_MAX_REQUESTS_PER_SECOND",
	})
}
