package config

import (
	"github.com/spf13/viper"
	"time"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.log_level", LevelInfo)
	v.SetDefault("logger.output_file", "./logs/bot.log")

	v.SetDefault("bot.poll_timeout", 60)

	v.SetDefault("hh.base_url", "https://api.hh.ru")
	v.SetDefault("hh.user_agent", "hh-search-bot/1.0")
	v.SetDefault("hh.max_requests_per_second", 5)
	v.SetDefault("hh.page_size", 100)
	v.SetDefault("hh.max_pages", 0)
	v.SetDefault("hh.retry_attempts", 3)
	v.SetDefault("hh.retry_delay", 2*time.Second)
	v.SetDefault("hh.page_delay", 500*time.Millisecond)
	v.SetDefault("hh.request_timeout", 30*time.Second)
	v.SetDefault("hh.name_only", true)

	v.SetDefault("cache.ttl", 30*time.Minute)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.cv_max_tokens", 1500)
	v.SetDefault("llm.cover_letter_max_tokens", 800)
	v.SetDefault("llm.timeout", 2*time.Minute)

	v.SetDefault("retention.snapshot_days", 30)
	v.SetDefault("retention.schedule", "0 3 * * *")
}
