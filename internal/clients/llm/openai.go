package llm

import (
	"context"
	"fmt"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"strings"
)

// OpenAIGenerator talks to any OpenAI compatible chat completions endpoint.
type OpenAIGenerator struct {
	model llms.Model
}

func NewOpenAIGenerator(apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	options := []openai.Option{openai.WithToken(apiKey)}
	if baseURL != "" {
		options = append(options, openai.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if model != "" {
		options = append(options, openai.WithModel(model))
	}

	client, err := openai.New(options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &OpenAIGenerator{model: client}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, request Request) (string, error) {

	messages := make([]llms.MessageContent, 0, len(request.Messages))
	for _, message := range request.Messages {
		messages = append(messages, llms.TextParts(chatMessageType(message.Role), message.Content))
	}

	var options []llms.CallOption
	if request.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(request.MaxTokens))
	}
	if request.Temperature > 0 {
		options = append(options, llms.WithTemperature(request.Temperature))
	}
	if request.Model != "" {
		options = append(options, llms.WithModel(request.Model))
	}

	response, err := g.model.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", err
	}

	if len(response.Choices) == 0 || strings.TrimSpace(response.Choices[0].Content) == "" {
		return "", ErrEmptyResponse
	}

	return response.Choices[0].Content, nil
}

func chatMessageType(role Role) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}
