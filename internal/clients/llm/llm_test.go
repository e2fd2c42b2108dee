package llm

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
	"io"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "i/o timeout" }
func (timeoutError) Timeout() bool { return true }
func (timeoutError) Temporary() bool { return true }

func Test_IsTransient_StatusBearingErrors_ShouldClassifyByCode(t *testing.T) {

	assert := assert.New(t)

	assert.True(isTransient(&googleapi.Error{Code: 429}))
	assert.True(isTransient(fmt.Errorf("send message: %w", &googleapi.Error{Code: 503})))
	assert.False(isTransient(&googleapi.Error{Code: 400, Message: "quota 429 exceeded"}))
	assert.True(isTransient(fmt.Errorf("API returned unexpected status code: 502: bad gateway")))
	assert.False(isTransient(fmt.Errorf("API returned unexpected status code: 401: invalid key")))
}

func Test_IsTransient_NetworkFailures_ShouldRetry(t *testing.T) {

	assert := assert.New(t)

	assert.True(isTransient(fmt.Errorf("post: %w", timeoutError{})))
	assert.True(isTransient(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
	assert.True(isTransient(fmt.Errorf("read: %w", syscall.ECONNRESET)))
	assert.True(isTransient(fmt.Errorf("Rate limit reached for requests")))
}

func Test_IsTransient_IncidentalDigits_ShouldNotRetry(t *testing.T) {

	assert := assert.New(t)

	assert.False(isTransient(fmt.Errorf("model gpt-429-preview does not exist")))
	assert.False(isTransient(fmt.Errorf("request 5001 rejected: invalid api key")))
	assert.False(isTransient(ErrEmptyResponse))
	assert.False(isTransient(context.Canceled))
	assert.False(isTransient(nil))
}
