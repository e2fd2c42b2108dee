package llm

import (
	"context"
	"fmt"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"strings"
)

type GeminiModel string

const (
	//GeminiFlash is fastest multimodal model with great performance for diverse, repetitive tasks
	GeminiFlash GeminiModel = "gemini-1.5-flash"
	//GeminiFlash8b is the smallest model for lower intelligence use cases
	GeminiFlash8b GeminiModel = "gemini-1.5-flash-8b"
	//GeminiPro is next-generation model with a breakthrough 2 million context window
	GeminiPro GeminiModel = "gemini-1.5-pro"
)

type GeminiGenerator struct {
	client *genai.Client
	model  GeminiModel
}

func NewGeminiGenerator(ctx context.Context, apiKey string, model GeminiModel) (*GeminiGenerator, error) {

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) Generate(ctx context.Context, request Request) (string, error) {

	name := string(g.model)
	if request.Model != "" {
		name = request.Model
	}

	model := g.client.GenerativeModel(name)
	if request.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(request.MaxTokens))
	}
	if request.Temperature > 0 {
		model.SetTemperature(float32(request.Temperature))
	}

	var system []genai.Part
	var history []*genai.Content
	for _, message := range request.Messages {
		switch message.Role {
		case RoleSystem:
			system = append(system, genai.Text(message.Content))
		case RoleAssistant:
			history = append(history, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(message.Content)}})
		default:
			history = append(history, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(message.Content)}})
		}
	}

	if len(history) == 0 {
		return "", fmt.Errorf("request has no user message")
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}

	session := model.StartChat()
	session.History = history[:len(history)-1]

	response, err := session.SendMessage(ctx, history[len(history)-1].Parts...)
	if err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			text.WriteString(string(textPart))
		}
	}

	if strings.TrimSpace(text.String()) == "" {
		return "", ErrEmptyResponse
	}

	return text.String(), nil
}
