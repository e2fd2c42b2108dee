package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/maxaizer/hh-search-bot/internal/clients/hh"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	"github.com/maxaizer/hh-search-bot/internal/retry"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"time"
)

var errNoResponse = errors.New("upstream returned no response")

type vacancySearcher interface {
	SearchVacancies(ctx context.Context, parameters hh.SearchParameters) (*hh.SearchPage, error)
}

type FetchSettings struct {
	RetryAttempts  int
	RetryDelay     time.Duration
	PageDelay      time.Duration
	RequestTimeout time.Duration
}

type FetchRequest struct {
	Query    string
	PageSize int
	// MaxPages of 0 means no limit besides the upstream page count.
	MaxPages int
	AreaID   string
	Filters  models.SearchFilters
	NameOnly bool
}

// FetchResult holds the concatenated pages in upstream order. Found and Pages come from the first page.
// Failed is set when pagination stopped because a page could not be fetched.
type FetchResult struct {
	Items        []models.Vacancy
	Found        int
	Pages        int
	PagesFetched int
	ResponseTime time.Duration
	Failed       bool
}

// FetchAggregator pulls all pages of a search with bounded retries per page.
type FetchAggregator struct {
	client         vacancySearcher
	retryPolicy    retry.Policy
	pageDelay      time.Duration
	requestTimeout time.Duration
	// sleep replaces both the page pacer and the retry timer when set.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewFetchAggregator(client vacancySearcher, settings FetchSettings) *FetchAggregator {
	return &FetchAggregator{
		client: client,
		retryPolicy: retry.Policy{
			MaxAttempts: settings.RetryAttempts,
			Delay:       retry.Linear(settings.RetryDelay),
		},
		pageDelay:      settings.PageDelay,
		requestTimeout: settings.RequestTimeout,
	}
}

// SetSleeper replaces the sleep used for retry and inter-page delays.
func (f *FetchAggregator) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	f.sleep = sleep
	f.retryPolicy.Sleep = sleep
}

// Fetch never fails: a page that cannot be fetched stops pagination and the items gathered so far are returned.
func (f *FetchAggregator) Fetch(ctx context.Context, request FetchRequest) FetchResult {

	start := time.Now()
	fields := log.Fields{"request_id": uuid.NewString(), "query": request.Query}
	result := FetchResult{Items: make([]models.Vacancy, 0)}
	pacer := f.newPacer()

	for page := 0; ; page++ {
		if request.MaxPages > 0 && page >= request.MaxPages {
			break
		}

		params := searchParameters(request, page)
		if err := params.Validate(); err != nil {
			if errors.Is(err, hh.ErrTooDeepPagination) {
				log.WithFields(fields).Warnf("too deep pagination, page: %d, per page: %d", page, request.PageSize)
			} else {
				log.WithFields(fields).Errorf("invalid search parameters: %v", err)
				result.Failed = true
			}
			break
		}

		if pacer != nil {
			pacer.Allow()
		}
		response, err := f.fetchPage(ctx, params, fields)
		if err != nil {
			log.WithFields(fields).WithField(logger.ErrorTypeField, logger.ErrorTypeHhApi).
				Errorf("failed to fetch page %d, returning %d items: %v", page, len(result.Items), err)
			result.Failed = true
			break
		}

		if page == 0 {
			result.Found = response.Found
			result.Pages = response.Pages
		}
		result.PagesFetched++

		if len(response.Items) == 0 {
			break
		}

		for _, item := range response.Items {
			result.Items = append(result.Items, ExtractVacancy(item))
		}

		if result.Pages > 0 && page >= result.Pages-1 {
			break
		}
		if request.MaxPages > 0 && page+1 >= request.MaxPages {
			break
		}

		if err = f.pause(ctx, pacer); err != nil {
			log.WithFields(fields).Warnf("fetch interrupted after page %d: %v", page, err)
			result.Failed = true
			break
		}
	}

	result.ResponseTime = time.Since(start)
	metrics.FetchDuration.Observe(result.ResponseTime.Seconds())

	log.WithFields(fields).Infof("fetched %d of %d vacancies in %d pages", len(result.Items), result.Found, result.PagesFetched)
	return result
}

// newPacer spaces page requests at least pageDelay apart, start to start.
func (f *FetchAggregator) newPacer() *rate.Limiter {
	if f.pageDelay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(f.pageDelay), 1)
}

func (f *FetchAggregator) pause(ctx context.Context, pacer *rate.Limiter) error {
	if f.sleep != nil {
		return f.sleep(ctx, f.pageDelay)
	}
	if pacer == nil {
		return ctx.Err()
	}
	return pacer.Wait(ctx)
}

func (f *FetchAggregator) fetchPage(ctx context.Context, params hh.SearchParameters, fields log.Fields) (*hh.SearchPage, error) {

	var response *hh.SearchPage
	err := f.retryPolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		callCtx := ctx
		if f.requestTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, f.requestTimeout)
			defer cancel()
		}

		page, err := f.client.SearchVacancies(callCtx, params)
		if err == nil && page == nil {
			err = errNoResponse
		}
		if err != nil {
			metrics.UpstreamRequestsCounter.WithLabelValues("failed").Inc()
			log.WithFields(fields).Warnf("failed to fetch page %d (attempt %d/%d): %v",
				params.Page, attempt, f.retryPolicy.MaxAttempts, err)
			return err
		}

		metrics.UpstreamRequestsCounter.WithLabelValues("ok").Inc()
		response = page
		return nil
	})

	return response, err
}

func searchParameters(request FetchRequest, page int) hh.SearchParameters {
	params := hh.SearchParameters{
		Text:       request.Query,
		NameOnly:   request.NameOnly,
		AreaID:     request.AreaID,
		Experience: hh.Experience(request.Filters.Experience),
		Employment: hh.Employment(request.Filters.Employment),
		MinSalary:  request.Filters.MinSalary,
		Period:     request.Filters.FreshnessDays,
		Page:       page,
		PerPage:    request.PageSize,
	}
	if request.Filters.RemoteOnly {
		params.Schedules = []hh.Schedule{hh.Remote}
	}
	return params
}
