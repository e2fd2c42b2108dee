package services

import (
	"context"
	"fmt"
	"github.com/maxaizer/hh-search-bot/internal/clients/llm"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"strings"
	"time"
)

type DocumentAction string

const (
	ActionGenerate   DocumentAction = "generate"
	ActionRegenerate DocumentAction = "regenerate"
	ActionSend       DocumentAction = "send"
)

func (a DocumentAction) Valid() bool {
	return a == ActionGenerate || a == ActionRegenerate || a == ActionSend
}

var (
	ErrNoCachedDocument = errors.New("document was not generated yet")
	ErrEmptyGeneration  = errors.New("generated document is empty")
	ErrGeneration       = errors.New("document generation failed")
	ErrUnknownVacancy   = errors.New("vacancy not found")
	ErrUnknownAction    = errors.New("unknown document action")
	// ErrNotStored comes with a usable text: the document was generated but could not be saved.
	ErrNotStored = errors.New("generated document was not saved")
)

type completer interface {
	Complete(ctx context.Context, request llm.Request, overrides llm.Overrides) (string, error)
}

type documentStore interface {
	Get(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType) (*models.Document, error)
	Upsert(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType, text string) (*models.Document, error)
}

type vacancyGetter interface {
	GetByID(ctx context.Context, id uint) (*models.Vacancy, error)
}

type DocumentSettings struct {
	Temperature          float64
	CVMaxTokens          int
	CoverLetterMaxTokens int
	Timeout              time.Duration
}

// DocumentService serves generated documents from the store and generates missing ones.
// Generations for the same user, vacancy and type are collapsed into one collaborator call.
type DocumentService struct {
	generator completer
	documents documentStore
	vacancies vacancyGetter
	users     userStore
	settings  DocumentSettings
	inflight  singleflight.Group
}

func NewDocumentService(generator completer, documents documentStore, vacancies vacancyGetter, users userStore,
	settings DocumentSettings) *DocumentService {
	return &DocumentService{
		generator: generator,
		documents: documents,
		vacancies: vacancies,
		users:     users,
		settings:  settings,
	}
}

// Resolve returns the document text. send never generates, generate serves the stored text when
// present, regenerate always generates and overwrites the stored text in place. Concurrent generate and
// regenerate calls for the same user, vacancy and type share one generation. On ErrNotStored the text is
// returned along with the error.
func (s *DocumentService) Resolve(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType,
	action DocumentAction) (string, error) {

	if !docType.Valid() {
		return "", fmt.Errorf("unknown document type %d", docType)
	}
	if !action.Valid() {
		return "", errors.Wrap(ErrUnknownAction, string(action))
	}

	if action != ActionRegenerate {
		document, err := s.documents.Get(ctx, userID, vacancyID, docType)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to load %s for user %d: %v", docType, userID, err)
			return "", err
		}
		if document != nil {
			metrics.DocumentsCounter.WithLabelValues(docType.String(), "cached").Inc()
			return document.Text, nil
		}
		if action == ActionSend {
			return "", ErrNoCachedDocument
		}
	}

	key := fmt.Sprintf("%d:%d:%d", userID, vacancyID, docType)
	text, err, shared := s.inflight.Do(key, func() (interface{}, error) {
		if action == ActionGenerate {
			// a flight for the same key may have stored the document after the lookup above
			document, err := s.documents.Get(ctx, userID, vacancyID, docType)
			if err == nil && document != nil {
				return document.Text, nil
			}
		}
		return s.generate(ctx, userID, vacancyID, docType)
	})
	if shared {
		log.Debugf("%s joined in-flight generation %s", action, key)
	}
	if err != nil && !errors.Is(err, ErrNotStored) {
		return "", err
	}
	return text.(string), err
}

func (s *DocumentService) generate(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType) (string, error) {

	// callers joining the flight must not lose the result when the first caller goes away
	ctx = context.WithoutCancel(ctx)
	if s.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.settings.Timeout)
		defer cancel()
	}

	vacancy, err := s.vacancies.GetByID(ctx, vacancyID)
	if err != nil {
		return "", err
	}
	if vacancy == nil {
		return "", ErrUnknownVacancy
	}

	user, err := s.users.GetOrDefault(ctx, userID)
	if err != nil {
		return "", err
	}

	request := llm.Request{
		Messages:    documentMessages(docType, user, *vacancy),
		MaxTokens:   s.maxTokens(docType),
		Temperature: s.settings.Temperature,
	}
	overrides := llm.Overrides{Model: user.LLMModel, BaseURL: user.LLMBaseURL, APIKey: user.LLMAPIKey}

	start := time.Now()
	text, err := s.generator.Complete(ctx, request, overrides)
	metrics.GenerationDuration.WithLabelValues(docType.String()).Observe(time.Since(start).Seconds())

	if errors.Is(err, llm.ErrEmptyResponse) {
		text, err = "", nil
	}
	if err != nil {
		metrics.DocumentsCounter.WithLabelValues(docType.String(), "failed").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).Errorf("failed to generate %s for user %d, vacancy %d: %v",
			docType, userID, vacancyID, err)
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if docType == models.DocumentCoverLetter {
		text = sanitizeCoverLetter(text)
	}
	if strings.TrimSpace(text) == "" {
		metrics.DocumentsCounter.WithLabelValues(docType.String(), "empty").Inc()
		log.Warnf("empty %s generated for user %d, vacancy %d", docType, userID, vacancyID)
		return "", ErrEmptyGeneration
	}
	text = strings.TrimSpace(text)

	if _, err = s.documents.Upsert(ctx, userID, vacancyID, docType, text); err != nil {
		metrics.DocumentsCounter.WithLabelValues(docType.String(), "not_stored").Inc()
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("failed to store %s for user %d: %v", docType, userID, err)
		return text, fmt.Errorf("%w: %w", ErrNotStored, err)
	}

	metrics.DocumentsCounter.WithLabelValues(docType.String(), "generated").Inc()
	return text, nil
}

func (s *DocumentService) maxTokens(docType models.DocumentType) int {
	if docType == models.DocumentCoverLetter {
		return s.settings.CoverLetterMaxTokens
	}
	return s.settings.CVMaxTokens
}
