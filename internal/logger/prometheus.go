package logger

import (
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	log "github.com/sirupsen/logrus"
)

// prometheusHook counts errors and typed warnings by error_type and level.
type prometheusHook struct{}

func (h *prometheusHook) Fire(entry *log.Entry) error {
	errorType, ok := entry.Data[ErrorTypeField].(string)
	if !ok {
		if entry.Level == log.WarnLevel {
			return nil
		}
		errorType = "unknown"
	}

	metrics.ErrorsCounter.WithLabelValues(errorType, entry.Level.String()).Inc()
	return nil
}

func (h *prometheusHook) Levels() []log.Level {
	return []log.Level{
		log.WarnLevel,
		log.ErrorLevel,
		log.FatalLevel,
		log.PanicLevel,
	}
}

func addPrometheusHook() {
	log.AddHook(&prometheusHook{})
}
