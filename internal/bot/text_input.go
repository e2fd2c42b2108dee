package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"strings"
)

const (
	skipInput  = "Пропустить"
	clearInput = "-"
)

type validation struct {
	function     func(input string) bool
	errorMessage string
}

type textInput struct {
	chatID      int64
	initMessage string
	onFinish    func(input string)
	validations []validation
	skippable   bool
	onSkip      func()
}

func newTextInput(chatID int64, initMessage string, onFinish func(input string)) *textInput {
	return &textInput{chatID: chatID, initMessage: initMessage, onFinish: onFinish}
}

func (a *textInput) AddValidation(validation validation) {
	a.validations = append(a.validations, validation)
}

// AllowSkip adds a skip button; onSkip is called instead of onFinish when it is pressed.
func (a *textInput) AllowSkip(onSkip func()) {
	a.skippable = true
	a.onSkip = onSkip
}

func (a *textInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, a.initMessage)
	if a.skippable {
		msg.ReplyMarkup = keyboardWithSkip()
	} else {
		msg.ReplyMarkup = keyboardWithExit()
	}
	return msg
}

func (a *textInput) HandleInput(input string) botApi.Chattable {

	input = strings.TrimSpace(input)
	if a.skippable && input == skipInput {
		a.onSkip()
		return nil
	}

	for _, _validation := range a.validations {
		if !_validation.function(input) {
			return botApi.NewMessage(a.chatID, _validation.errorMessage)
		}
	}

	a.onFinish(input)
	return nil
}

func maxLength(limit int, errorMessage string) validation {
	return validation{
		function:     func(input string) bool { return input != "" && len([]rune(input)) <= limit },
		errorMessage: errorMessage,
	}
}

func keyboardWithSkip() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(skipInput),
			botApi.NewKeyboardButton(backToMenuCommandName),
		),
	)
}
