package llm

import (
	"context"
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func Test_OpenAIGenerator_Generate_ShouldSendMessagesAndReturnContent(t *testing.T) {

	assert := assert.New(t)

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("/chat/completions", r.URL.Path)
		assert.Equal("Bearer secret", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"test-model",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"Dear hiring manager"},"finish_reason":"stop"}],` +
			`"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`))
	}))
	defer server.Close()

	generator, err := NewOpenAIGenerator("secret", server.URL, "test-model")
	require.NoError(t, err)

	response, err := generator.Generate(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "You write cover letters."},
			{Role: RoleUser, Content: "Write one."},
		},
		MaxTokens: 64,
	})

	require.NoError(t, err)
	assert.Equal("Dear hiring manager", response)
	assert.Equal("test-model", received["model"])
	assert.Len(received["messages"], 2)
}
