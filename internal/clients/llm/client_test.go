package llm

import (
	"context"
	"errors"
	"github.com/maxaizer/hh-search-bot/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/api/googleapi"
	"testing"
	"time"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, request Request) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func newTestClient(defaultGenerator Generator) *Client {
	client := NewClient(defaultGenerator, "default-key", "https://api.openai.com/v1")
	client.SetRetryPolicy(retry.Policy{MaxAttempts: 3, Delay: retry.Constant(time.Second), Retryable: isTransient, Sleep: noSleep})
	return client
}

var request = Request{Messages: []Message{{Role: RoleUser, Content: "hello"}}, MaxTokens: 100}

func Test_Client_WithoutOverrides_ShouldUseDefaultGenerator(t *testing.T) {

	assert := assert.New(t)
	generator := &mockGenerator{}
	generator.On("Generate", mock.Anything, request).Return("answer", nil).Once()

	client := newTestClient(generator)
	client.SetGeneratorFactory(func(string, string, string) (Generator, error) {
		t.Fatal("factory must not be called")
		return nil, nil
	})

	response, err := client.Complete(context.Background(), request, Overrides{})

	assert.NoError(err)
	assert.Equal("answer", response)
	generator.AssertExpectations(t)
}

func Test_Client_ModelOverrideOnly_ShouldPassModelToDefaultGenerator(t *testing.T) {

	generator := &mockGenerator{}
	generator.On("Generate", mock.Anything, mock.MatchedBy(func(r Request) bool {
		return r.Model == "gpt-4o"
	})).Return("answer", nil).Once()

	_, err := newTestClient(generator).Complete(context.Background(), request, Overrides{Model: "gpt-4o"})

	assert.NoError(t, err)
	generator.AssertExpectations(t)
}

func Test_Client_BaseURLOverride_ShouldBuildGeneratorWithDefaultKeyOnce(t *testing.T) {

	assert := assert.New(t)
	custom := &mockGenerator{}
	custom.On("Generate", mock.Anything, mock.Anything).Return("custom", nil).Twice()

	client := newTestClient(nil)
	built := 0
	client.SetGeneratorFactory(func(apiKey, baseURL, model string) (Generator, error) {
		built++
		assert.Equal("default-key", apiKey)
		assert.Equal("http://localhost:11434/v1", baseURL)
		return custom, nil
	})

	overrides := Overrides{BaseURL: "http://localhost:11434/v1"}
	for i := 0; i < 2; i++ {
		response, err := client.Complete(context.Background(), request, overrides)
		assert.NoError(err)
		assert.Equal("custom", response)
	}

	assert.Equal(1, built)
	custom.AssertExpectations(t)
}

func Test_Client_MalformedBaseURL_ShouldFailWithInvalidOverrides(t *testing.T) {

	_, err := newTestClient(&mockGenerator{}).Complete(context.Background(), request, Overrides{BaseURL: "not a url"})

	assert.ErrorIs(t, err, ErrInvalidOverrides)
}

func Test_Client_NoDefaultGenerator_ShouldBeUnavailable(t *testing.T) {

	_, err := newTestClient(nil).Complete(context.Background(), request, Overrides{})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func Test_Client_TransientError_ShouldRetry(t *testing.T) {

	assert := assert.New(t)
	generator := &mockGenerator{}
	generator.On("Generate", mock.Anything, mock.Anything).Return("", &googleapi.Error{Code: 500, Message: "internal"}).Once()
	generator.On("Generate", mock.Anything, mock.Anything).Return("answer", nil).Once()

	response, err := newTestClient(generator).Complete(context.Background(), request, Overrides{})

	assert.NoError(err)
	assert.Equal("answer", response)
	generator.AssertNumberOfCalls(t, "Generate", 2)
}

func Test_Client_PermanentError_ShouldNotRetry(t *testing.T) {

	generator := &mockGenerator{}
	generator.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("invalid api key")).Once()

	_, err := newTestClient(generator).Complete(context.Background(), request, Overrides{})

	assert.Error(t, err)
	generator.AssertNumberOfCalls(t, "Generate", 1)
}

func Test_Client_EmptyResponse_ShouldNotRetry(t *testing.T) {

	generator := &mockGenerator{}
	generator.On("Generate", mock.Anything, mock.Anything).Return("", ErrEmptyResponse).Once()

	_, err := newTestClient(generator).Complete(context.Background(), request, Overrides{})

	assert.ErrorIs(t, err, ErrEmptyResponse)
	generator.AssertNumberOfCalls(t, "Generate", 1)
}
