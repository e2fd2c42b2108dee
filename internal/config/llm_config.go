package config

import (
	"errors"
	"fmt"
	"github.com/spf13/viper"
	"time"
)

type llmProvider string

const (
	ProviderOpenAI llmProvider = "openai"
	ProviderGemini llmProvider = "gemini"
)

// LLMConfig holds process-wide generation defaults. Users may override model, base url and api key
// in their profile; an empty api key here only disables the default generator.
type LLMConfig struct {
	Provider             llmProvider   `mapstructure:"provider"`
	APIKey               string        `mapstructure:"api_key"`
	BaseURL              string        `mapstructure:"base_url"`
	Model                string        `mapstructure:"model"`
	Temperature          float64       `mapstructure:"temperature"`
	CVMaxTokens          int           `mapstructure:"cv_max_tokens"`
	CoverLetterMaxTokens int           `mapstructure:"cover_letter_max_tokens"`
	MaxRequestsPerMinute float32       `mapstructure:"max_requests_per_minute"`
	MaxRequestsPerDay    float32       `mapstructure:"max_requests_per_day"`
	Timeout              time.Duration `mapstructure:"timeout"`
}

func (config LLMConfig) validate() error {
	var errs []error

	if config.Provider != ProviderOpenAI && config.Provider != ProviderGemini {
		errs = append(errs, fmt.Errorf("unknown provider %q", config.Provider))
	}
	if config.Model == "" {
		errs = append(errs, fmt.Errorf("missing variable: model"))
	}
	if config.CVMaxTokens <= 0 || config.CoverLetterMaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max tokens must be positive"))
	}
	if config.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("multiple errors occurred: %w", errors.Join(errs...))
	}
	return nil
}

func (config LLMConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"llm.provider": "LLM_PROVIDER",
		"llm.api_key":  "LLM_API_KEY",
		"llm.base_url": "LLM_API_URL",
		"llm.model":    "LLM_MODEL",
	})
}
