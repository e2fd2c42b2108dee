package hh

import (
	"context"
	"encoding/json"
	"fmt"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"strings"
)

const defaultBaseURL = "https://api.hh.ru"

type searchResponse struct {
	Items   []json.RawMessage `json:"items"`
	Found   int               `json:"found"`
	Pages   int               `json:"pages"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

// SearchPage is one page of the vacancy search. Found and Pages are the upstream totals.
type SearchPage struct {
	Items   []Vacancy
	Found   int
	Pages   int
	Page    int
	PerPage int
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Client struct {
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
	baseURL     string
	userAgent   string
}

func NewClient() *Client {
	return &Client{httpClient: &http.Client{}, baseURL: defaultBaseURL}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetUserAgent sets the HH-User-Agent header required by the api.
func (c *Client) SetUserAgent(userAgent string) {
	c.userAgent = userAgent
}

func (c *Client) SearchVacancies(ctx context.Context, parameters SearchParameters) (*SearchPage, error) {

	if err := parameters.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	body, err := c.sendRequest(ctx, http.MethodGet, c.baseURL+"/vacancies?"+parameters.ToUrlParams().Encode())
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %w", err)
	}

	page := &SearchPage{
		Items:   make([]Vacancy, 0, len(response.Items)),
		Found:   response.Found,
		Pages:   response.Pages,
		Page:    response.Page,
		PerPage: response.PerPage,
	}

	for i, raw := range response.Items {
		var vacancy Vacancy
		if err := json.Unmarshal(raw, &vacancy); err != nil {
			log.Warnf("skipping malformed vacancy #%d on page %d: %v", i, parameters.Page, err)
			continue
		}
		page.Items = append(page.Items, vacancy)
	}

	return page, nil
}

func (c *Client) GetVacancy(ctx context.Context, id string) (Vacancy, error) {

	body, err := c.sendRequest(ctx, http.MethodGet, c.baseURL+"/vacancies/"+id)
	if err != nil {
		return Vacancy{}, err
	}

	var vacancy Vacancy
	if err := json.Unmarshal(body, &vacancy); err != nil {
		return Vacancy{}, fmt.Errorf("error decoding JSON response: %w", err)
	}

	return vacancy, nil
}

// GetAreas returns the area tree: countries with nested regions and cities.
func (c *Client) GetAreas(ctx context.Context) ([]Area, error) {

	body, err := c.sendRequest(ctx, http.MethodGet, c.baseURL+"/areas")
	if err != nil {
		return nil, err
	}

	var areas []Area
	if err = json.Unmarshal(body, &areas); err != nil {
		return nil, fmt.Errorf("error decoding JSON response: %w", err)
	}

	return areas, nil
}

func (c *Client) sendRequest(ctx context.Context, method string, url string) ([]byte, error) {

	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("HH-User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	return c.handleResponse(resp)
}

func (c *Client) handleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %v, body: %v", e.StatusCode, e.Body)
}
