package main

import (
	"context"
	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/hh-search-bot/internal/bot"
	"github.com/maxaizer/hh-search-bot/internal/cache"
	"github.com/maxaizer/hh-search-bot/internal/clients/hh"
	"github.com/maxaizer/hh-search-bot/internal/clients/llm"
	"github.com/maxaizer/hh-search-bot/internal/config"
	"github.com/maxaizer/hh-search-bot/internal/domain/events"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	"github.com/maxaizer/hh-search-bot/internal/repositories"
	"github.com/maxaizer/hh-search-bot/internal/services"
	log "github.com/sirupsen/logrus"
	"os/signal"
	"syscall"
)

const metricsAddr = ":8080"

func newHHClient(cfg config.HHConfig) *hh.Client {
	client := hh.NewClient()
	client.SetBaseURL(cfg.BaseURL)
	client.SetUserAgent(cfg.UserAgent)
	client.SetRateLimit(cfg.MaxRequestsPerSecond)
	return client
}

// newLLMClient returns a client without a default generator when no api key is configured;
// users can still generate with their own keys.
func newLLMClient(ctx context.Context, cfg config.LLMConfig) *llm.Client {

	var generator llm.Generator
	if cfg.APIKey != "" {
		var err error
		switch cfg.Provider {
		case config.ProviderGemini:
			generator, err = llm.NewGeminiGenerator(ctx, cfg.APIKey, llm.GeminiModel(cfg.Model))
		default:
			generator, err = llm.NewOpenAIGenerator(cfg.APIKey, cfg.BaseURL, cfg.Model)
		}
		if err != nil {
			log.Fatalf("can't create %s generator: %v", cfg.Provider, err)
		}
	} else {
		log.Warn("llm api key is not set, generation is available only with user keys")
	}

	client := llm.NewClient(generator, cfg.APIKey, cfg.BaseURL)
	client.SetMinuteRateLimit(cfg.MaxRequestsPerMinute)
	client.SetDayRateLimit(cfg.MaxRequestsPerDay)
	return client
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(ctx, cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(ctx, metricsAddr)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	if cfg.DB.MaxOpenConns > 0 {
		if err = dbContext.SetMaxOpenConns(cfg.DB.MaxOpenConns); err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("can't limit db connections: %v", err)
		}
	}

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	hhClient := newHHClient(cfg.HH)
	if err = dbContext.PopulateAreas(ctx, hhClient); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeHhApi).Errorf("can't load areas, city filter is unavailable: %v", err)
	}

	users := repositories.NewUsersRepository(dbContext.DB)
	vacancies := repositories.NewVacanciesRepository(dbContext.DB)
	snapshots := repositories.NewSnapshotsRepository(dbContext.DB)
	documents := repositories.NewDocumentsRepository(dbContext.DB)
	areas := repositories.NewCachedAreas(repositories.NewAreasRepository(dbContext.DB))

	results := cache.NewResultCache[models.Vacancy](cfg.Cache.TTL)
	bus := EventBus.New()
	err = bus.Subscribe(events.SnapshotsPurgedTopic, func(event events.SnapshotsPurged) {
		results.Invalidate(event.UserID, event.Query)
	})
	if err != nil {
		log.Fatalf("can't subscribe to purged snapshots: %v", err)
	}

	fetcher := services.NewFetchAggregator(hhClient, services.FetchSettings{
		RetryAttempts:  cfg.HH.RetryAttempts,
		RetryDelay:     cfg.HH.RetryDelay,
		PageDelay:      cfg.HH.PageDelay,
		RequestTimeout: cfg.HH.RequestTimeout,
	})
	searchService := services.NewSearchService(fetcher, vacancies, snapshots, users, results, services.SearchSettings{
		FetchPageSize: cfg.HH.PageSize,
		MaxPages:      cfg.HH.MaxPages,
		NameOnly:      cfg.HH.NameOnly,
	})
	documentService := services.NewDocumentService(newLLMClient(ctx, cfg.LLM), documents, vacancies, users,
		services.DocumentSettings{
			Temperature:          cfg.LLM.Temperature,
			CVMaxTokens:          cfg.LLM.CVMaxTokens,
			CoverLetterMaxTokens: cfg.LLM.CoverLetterMaxTokens,
			Timeout:              cfg.LLM.Timeout,
		})

	cleaner, err := services.NewSnapshotsCleaner(snapshots, bus, cfg.Retention.SnapshotDays)
	if err != nil {
		log.Fatalf("can't create snapshots cleaner: %v", err)
	}
	if err = cleaner.Start(cfg.Retention.Schedule); err != nil {
		log.Fatalf("can't start snapshots cleaner: %v", err)
	}
	defer cleaner.Stop()

	tgbot, err := bot.NewBot(cfg.Bot.Token,
		bot.Repositories{Users: users, Areas: areas, Data: repositories.NewBotStateRepository(dbContext.DB)},
		bot.Services{Search: searchService, Documents: documentService})
	if err != nil {
		log.Fatalf("can't create bot: %v", err)
	}
	tgbot.SetPollTimeout(cfg.Bot.PollTimeout)
	go tgbot.Run()

	<-ctx.Done()

	log.Info("Shutting down services...")
	tgbot.Stop()
	log.Info("Services stopped.")
}
