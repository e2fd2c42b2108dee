package bot

import (
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/clients/llm"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	log "github.com/sirupsen/logrus"
)

const llmCommandName = "llm"

// llmCommand collects per-user generation overrides. Skipped steps keep the stored value,
// "-" clears it. Inputs are checked against the validate tags of llm.Overrides.
type llmCommand struct {
	api                  apiInterface
	chatID               int64
	users                userRepository
	validate             *validator.Validate
	inputHandlers        []inputHandler
	curHandlerIndex      int
	model                *string
	baseURL              *string
	apiKey               *string
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newLLMCommand(api apiInterface, chatID int64, users userRepository) *llmCommand {

	cmd := &llmCommand{api: api, chatID: chatID, users: users, validate: validator.New()}
	next := func() { cmd.curHandlerIndex++ }

	model := newTextInput(chatID, "Укажите модель, например \"gpt-4o-mini\" (\"-\" - модель по умолчанию).",
		func(input string) { cmd.model = clearable(input); next() })
	model.AllowSkip(next)
	model.AddValidation(cmd.fieldValidation("Model", "Слишком длинное название модели."))

	baseURL := newTextInput(chatID, "Укажите адрес OpenAI-совместимого API, например \"https://api.openai.com/v1\" "+
		"(\"-\" - адрес по умолчанию).",
		func(input string) { cmd.baseURL = clearable(input); next() })
	baseURL.AllowSkip(next)
	baseURL.AddValidation(cmd.fieldValidation("BaseURL", "Введите корректный адрес."))

	apiKey := newTextInput(chatID, "Укажите API ключ (\"-\" - ключ по умолчанию).",
		func(input string) { cmd.apiKey = clearable(input); next() })
	apiKey.AllowSkip(next)
	apiKey.AddValidation(cmd.fieldValidation("APIKey", "Слишком длинный ключ."))

	cmd.inputHandlers = []inputHandler{model, baseURL, apiKey}
	return cmd
}

func clearable(input string) *string {
	if input == clearInput {
		input = ""
	}
	return &input
}

// fieldValidation checks the input against the validate tag of the corresponding Overrides field.
func (c *llmCommand) fieldValidation(field string, errorMessage string) validation {
	return validation{
		function: func(input string) bool {
			if input == clearInput {
				return true
			}
			var overrides llm.Overrides
			switch field {
			case "Model":
				overrides.Model = input
			case "BaseURL":
				overrides.BaseURL = input
			case "APIKey":
				overrides.APIKey = input
			}
			return c.validate.StructPartial(overrides, field) == nil
		},
		errorMessage: errorMessage,
	}
}

func (c *llmCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *llmCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

type llmCommandState struct {
	CurHandlerIndex int
	Model           *string
	BaseURL         *string
}

// SaveState leaves the api key out of the persisted bot state, so the key step is asked again.
func (c *llmCommand) SaveState() ([]byte, error) {
	return json.Marshal(llmCommandState{
		CurHandlerIndex: min(c.curHandlerIndex, len(c.inputHandlers)-1),
		Model:           c.model,
		BaseURL:         c.baseURL,
	})
}

func (c *llmCommand) LoadState(data []byte) error {

	var state llmCommandState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	c.curHandlerIndex = state.CurHandlerIndex
	c.model = state.Model
	c.baseURL = state.BaseURL
	return nil
}

func (c *llmCommand) Run() {
	_, _ = sendWithLogError(c.api, c.inputHandlers[0].InitMessage())
}

func (c *llmCommand) OnUserInput(input string) {

	previousIndex := c.curHandlerIndex
	msg := c.inputHandlers[c.curHandlerIndex].HandleInput(input)

	if previousIndex == c.curHandlerIndex {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if c.curHandlerIndex < len(c.inputHandlers) {
		_, _ = sendWithLogError(c.api, c.inputHandlers[c.curHandlerIndex].InitMessage())
		return
	}

	c.saveOverrides()
	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *llmCommand) saveOverrides() {

	msg := botApi.NewMessage(c.chatID, "Настройки генерации сохранены!")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	ctx := context.Background()
	user, err := c.users.GetOrDefault(ctx, c.chatID)
	if err == nil {
		setIfChanged(&user.LLMModel, c.model)
		setIfChanged(&user.LLMBaseURL, c.baseURL)
		setIfChanged(&user.LLMAPIKey, c.apiKey)
		err = c.users.Save(ctx, user)
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
		msg.Text = "Внутренняя ошибка!"
	}

	_, _ = sendWithLogError(c.api, msg)
}

func setIfChanged(field *string, value *string) {
	if value != nil {
		*field = *value
	}
}
