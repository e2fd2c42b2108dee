package llm

import (
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/hh-search-bot/internal/retry"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"time"
)

// GeneratorFactory builds an OpenAI compatible generator for an override endpoint.
type GeneratorFactory func(apiKey, baseURL, model string) (Generator, error)

// Client routes requests to the default generator or to a generator built from user overrides.
type Client struct {
	defaultGenerator  Generator
	defaultAPIKey     string
	defaultBaseURL    string
	factory           GeneratorFactory
	generators        *gocache.Cache
	validate          *validator.Validate
	retryPolicy       retry.Policy
	minuteRateLimiter *rate.Limiter
	dayRateLimiter    *rate.Limiter
}

// NewClient accepts a nil default generator; requests without overrides then fail with ErrUnavailable.
func NewClient(defaultGenerator Generator, defaultAPIKey, defaultBaseURL string) *Client {
	return &Client{
		defaultGenerator: defaultGenerator,
		defaultAPIKey:    defaultAPIKey,
		defaultBaseURL:   defaultBaseURL,
		factory: func(apiKey, baseURL, model string) (Generator, error) {
			return NewOpenAIGenerator(apiKey, baseURL, model)
		},
		generators: gocache.New(30*time.Minute, time.Hour),
		validate:   validator.New(),
		retryPolicy: retry.Policy{
			MaxAttempts: 3,
			Delay:       retry.Constant(2 * time.Second),
			Retryable:   isTransient,
		},
	}
}

func (c *Client) SetGeneratorFactory(factory GeneratorFactory) {
	c.factory = factory
}

func (c *Client) SetRetryPolicy(policy retry.Policy) {
	c.retryPolicy = policy
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	c.minuteRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) SetDayRateLimit(maxRequestsPerDay float32) {
	c.dayRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerDay/86400), int(maxRequestsPerDay))
}

func (c *Client) Complete(ctx context.Context, request Request, overrides Overrides) (string, error) {

	generator, limited, err := c.resolve(overrides)
	if err != nil {
		return "", err
	}

	if overrides.Model != "" {
		request.Model = overrides.Model
	}

	var response string
	err = c.retryPolicy.Do(ctx, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			log.Warnf("llm request failed, retrying (attempt %d)", attempt)
		}
		if limited {
			if err := c.wait(ctx); err != nil {
				return err
			}
		}

		var genErr error
		response, genErr = generator.Generate(ctx, request)
		return genErr
	})

	return response, err
}

func (c *Client) resolve(overrides Overrides) (Generator, bool, error) {

	if err := c.validate.Struct(overrides); err != nil {
		return nil, false, errors.Wrap(ErrInvalidOverrides, err.Error())
	}

	if !overrides.needsOwnGenerator() {
		if c.defaultGenerator == nil {
			return nil, false, ErrUnavailable
		}
		return c.defaultGenerator, true, nil
	}

	apiKey := overrides.APIKey
	if apiKey == "" {
		apiKey = c.defaultAPIKey
	}
	baseURL := overrides.BaseURL
	if baseURL == "" {
		baseURL = c.defaultBaseURL
	}
	if apiKey == "" {
		return nil, false, ErrUnavailable
	}

	key := fmt.Sprintf("%s|%s", baseURL, apiKey)
	if cached, found := c.generators.Get(key); found {
		return cached.(Generator), false, nil
	}

	generator, err := c.factory(apiKey, baseURL, overrides.Model)
	if err != nil {
		return nil, false, errors.Wrap(ErrInvalidOverrides, err.Error())
	}

	c.generators.SetDefault(key, generator)
	return generator, false, nil
}

func (c *Client) wait(ctx context.Context) error {
	for _, limiter := range []*rate.Limiter{c.minuteRateLimiter, c.dayRateLimiter} {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}
