package llm

import (
	"context"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"
)

var (
	ErrUnavailable      = errors.New("text generation is not configured")
	ErrInvalidOverrides = errors.New("invalid llm overrides")
	ErrEmptyResponse    = errors.New("empty response")
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is a chat style completion request. Zero MaxTokens, Temperature or Model mean generator defaults.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Model       string
}

type Generator interface {
	Generate(ctx context.Context, request Request) (string, error)
}

// Overrides are per-user settings taking precedence over process defaults.
type Overrides struct {
	Model   string `validate:"omitempty,max=128"`
	BaseURL string `validate:"omitempty,url"`
	APIKey  string `validate:"omitempty,max=512"`
}

func (o Overrides) needsOwnGenerator() bool {
	return o.APIKey != "" || o.BaseURL != ""
}

// statusPattern matches the status in langchaingo openai errors, e.g. "API returned unexpected status code: 503".
var statusPattern = regexp.MustCompile(`status code: (\d{3})\b`)

// isTransient reports whether a failed generation may succeed on retry: 429 and 5xx responses, timeouts and
// dropped connections.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}

	msg := err.Error()
	if match := statusPattern.FindStringSubmatch(msg); match != nil {
		code, _ := strconv.Atoi(match[1])
		return transientStatus(code)
	}

	msg = strings.ToLower(msg)
	return strings.Contains(msg, "rate limit") || strings.Contains(msg, "connection reset")
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
