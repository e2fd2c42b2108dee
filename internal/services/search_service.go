package services

import (
	"context"
	"encoding/json"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	"github.com/maxaizer/hh-search-bot/internal/pagination"
	"github.com/maxaizer/hh-search-bot/internal/repositories"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"strings"
)

// VacanciesPerPage is the number of vacancies shown on one result page.
const VacanciesPerPage = 8

var (
	ErrEmptyQuery          = errors.New("empty search query")
	ErrNoMatches           = errors.New("no vacancies match the query")
	ErrUpstreamUnavailable = errors.New("vacancy search is unavailable")
	ErrNoSnapshot          = errors.New("no stored search for the query")
)

type fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) FetchResult
}

type vacancyStore interface {
	UpsertBatch(ctx context.Context, records []models.Vacancy) (map[string]models.Vacancy, repositories.UpsertStats, error)
	GetByID(ctx context.Context, id uint) (*models.Vacancy, error)
}

type snapshotStore interface {
	Create(ctx context.Context, snapshot *models.SearchSnapshot, vacancyIDs []uint) error
	Latest(ctx context.Context, userID int64, query string) (*models.SearchSnapshot, error)
	LatestAny(ctx context.Context, userID int64) (*models.SearchSnapshot, error)
	Vacancies(ctx context.Context, snapshotID uint) ([]models.Vacancy, error)
}

type userStore interface {
	GetOrDefault(ctx context.Context, id int64) (models.User, error)
}

type resultCache interface {
	Get(userID int64, query string) ([]models.Vacancy, int, bool)
	Set(userID int64, query string, items []models.Vacancy, totalFound int)
}

type SearchSettings struct {
	FetchPageSize int
	MaxPages      int
	NameOnly      bool
	PageSize      int
}

// SearchPage is one rendered page of a search. Offset is the number of vacancies on previous pages.
// Partial reports that upstream failed before all pages were fetched; Stored reports whether the
// results were persisted.
type SearchPage struct {
	Query      string
	Items      []models.Vacancy
	Page       int
	TotalPages int
	TotalFound int
	Fetched    int
	Offset     int
	Layout     []pagination.Button
	Partial    bool
	Stored     bool
}

type SearchService struct {
	fetcher   fetcher
	vacancies vacancyStore
	snapshots snapshotStore
	users     userStore
	cache     resultCache
	settings  SearchSettings
}

func NewSearchService(fetcher fetcher, vacancies vacancyStore, snapshots snapshotStore, users userStore,
	cache resultCache, settings SearchSettings) *SearchService {

	if settings.PageSize <= 0 {
		settings.PageSize = VacanciesPerPage
	}

	return &SearchService{
		fetcher:   fetcher,
		vacancies: vacancies,
		snapshots: snapshots,
		users:     users,
		cache:     cache,
		settings:  settings,
	}
}

type searchParams struct {
	Query    string               `json:"query"`
	PageSize int                  `json:"per_page"`
	MaxPages int                  `json:"max_pages,omitempty"`
	AreaID   string               `json:"area,omitempty"`
	NameOnly bool                 `json:"name_only"`
	Filters  models.SearchFilters `json:"filters"`
}

// Search fetches every page of the query, stores the results as a new snapshot and returns the first page.
func (s *SearchService) Search(ctx context.Context, userID int64, query string) (*SearchPage, error) {

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	user, err := s.users.GetOrDefault(ctx, userID)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to load user %d, searching without filters: %v", userID, err)
		user = models.User{ID: userID}
	}

	request := FetchRequest{
		Query:    query,
		PageSize: s.settings.FetchPageSize,
		MaxPages: s.settings.MaxPages,
		AreaID:   user.AreaID,
		Filters:  user.Filters,
		NameOnly: s.settings.NameOnly,
	}
	result := s.fetcher.Fetch(ctx, request)

	if len(result.Items) == 0 && result.Failed {
		metrics.SearchesCounter.WithLabelValues("upstream_unavailable").Inc()
		return nil, ErrUpstreamUnavailable
	}

	records := lo.UniqBy(lo.Filter(result.Items, func(v models.Vacancy, _ int) bool { return v.ExternalID != "" }),
		func(v models.Vacancy) string { return v.ExternalID })

	items, stored := s.store(ctx, userID, request, result, records)
	if stored && len(items) > 0 {
		s.cacheSet(userID, query, items, result.Found)
	} else {
		items = records
	}

	if len(items) == 0 {
		metrics.SearchesCounter.WithLabelValues("no_matches").Inc()
		return nil, ErrNoMatches
	}

	if result.Failed {
		metrics.SearchesCounter.WithLabelValues("partial").Inc()
	} else {
		metrics.SearchesCounter.WithLabelValues("ok").Inc()
	}

	page, err := s.page(query, items, result.Found, 0)
	if err != nil {
		return nil, err
	}
	page.Partial = result.Failed
	page.Stored = stored
	return page, nil
}

// store persists records and links them to a new snapshot in fetch order. It returns the stored
// records carrying database ids. Vacancies stay upserted even when the snapshot cannot be created.
func (s *SearchService) store(ctx context.Context, userID int64, request FetchRequest, result FetchResult,
	records []models.Vacancy) ([]models.Vacancy, bool) {

	stored, stats, err := s.vacancies.UpsertBatch(ctx, records)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to store vacancies: %v", err)
		return nil, false
	}

	ordered := make([]models.Vacancy, 0, len(records))
	for _, record := range records {
		if vacancy, ok := stored[record.ExternalID]; ok {
			ordered = append(ordered, vacancy)
		}
	}

	params, err := json.Marshal(searchParams{
		Query:    request.Query,
		PageSize: request.PageSize,
		MaxPages: request.MaxPages,
		AreaID:   request.AreaID,
		NameOnly: request.NameOnly,
		Filters:  request.Filters,
	})
	if err != nil {
		log.Errorf("failed to serialize search parameters: %v", err)
	}

	snapshot := &models.SearchSnapshot{
		UserID:         userID,
		QueryText:      request.Query,
		SearchParams:   datatypes.JSON(params),
		ResultsCount:   len(ordered),
		TotalFound:     result.Found,
		ResponseTimeMs: result.ResponseTime.Milliseconds(),
	}

	ids := lo.Map(ordered, func(v models.Vacancy, _ int) uint { return v.ID })
	if err = s.snapshots.Create(ctx, snapshot, ids); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to store search snapshot: %v", err)
		return ordered, false
	}

	log.Infof("stored snapshot %d for user %d: %d vacancies, %d inserted, %d updated",
		snapshot.ID, userID, len(ordered), stats.Inserted, stats.Updated)
	return ordered, true
}

// GetPage returns a page of the cached result set, reloading it from the latest snapshot on a cache miss.
func (s *SearchService) GetPage(ctx context.Context, userID int64, query string, page int) (*SearchPage, error) {

	items, total, err := s.results(ctx, userID, query)
	if err != nil {
		return nil, err
	}

	result, err := s.page(query, items, total, page)
	if err != nil {
		return nil, err
	}
	result.Stored = true
	return result, nil
}

// LatestQuery returns the query text of the most recent search of the user.
func (s *SearchService) LatestQuery(ctx context.Context, userID int64) (string, error) {
	snapshot, err := s.snapshots.LatestAny(ctx, userID)
	if err != nil {
		return "", err
	}
	if snapshot == nil {
		return "", ErrNoSnapshot
	}
	return snapshot.QueryText, nil
}

// Vacancy returns a stored vacancy by its database id or nil.
func (s *SearchService) Vacancy(ctx context.Context, id uint) (*models.Vacancy, error) {
	return s.vacancies.GetByID(ctx, id)
}

func (s *SearchService) results(ctx context.Context, userID int64, query string) ([]models.Vacancy, int, error) {

	if items, total, ok := s.cacheGet(userID, query); ok {
		return items, total, nil
	}

	snapshot, err := s.snapshots.Latest(ctx, userID, query)
	if err != nil {
		return nil, 0, err
	}
	if snapshot == nil {
		return nil, 0, ErrNoSnapshot
	}

	items, err := s.snapshots.Vacancies(ctx, snapshot.ID)
	if err != nil {
		return nil, 0, err
	}

	s.cacheSet(userID, query, items, snapshot.TotalFound)
	return items, snapshot.TotalFound, nil
}

func (s *SearchService) page(query string, items []models.Vacancy, total int, page int) (*SearchPage, error) {

	pageItems, err := pagination.Slice(items, page, s.settings.PageSize)
	if err != nil {
		return nil, err
	}

	totalPages := pagination.TotalPages(len(items), s.settings.PageSize)
	return &SearchPage{
		Query:      query,
		Items:      pageItems,
		Page:       page,
		TotalPages: totalPages,
		TotalFound: total,
		Fetched:    len(items),
		Offset:     page * s.settings.PageSize,
		Layout:     pagination.Layout(page, totalPages),
	}, nil
}

// cacheGet treats any failure of the cache as a miss.
func (s *SearchService) cacheGet(userID int64, query string) (items []models.Vacancy, total int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Errorf("result cache lookup failed: %v", r)
			items, total, ok = nil, 0, false
		}
		if ok {
			metrics.ResultCacheLookups.WithLabelValues("hit").Inc()
		} else {
			metrics.ResultCacheLookups.WithLabelValues("miss").Inc()
		}
	}()

	return s.cache.Get(userID, query)
}

func (s *SearchService) cacheSet(userID int64, query string, items []models.Vacancy, total int) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeCache).Errorf("result cache update failed: %v", r)
		}
	}()

	s.cache.Set(userID, query, items, total)
}
