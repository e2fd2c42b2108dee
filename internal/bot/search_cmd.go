package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	searchCommandName = "search"
	searchButton      = "Поиск вакансий"
	maxQueryLength    = 200
)

// searchCommand asks for a query when /search comes without arguments.
type searchCommand struct {
	api                  apiInterface
	input                *textInput
	query                string
	onQuery              func(query string)
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newSearchCommand(api apiInterface, chatID int64, onQuery func(query string)) *searchCommand {

	cmd := &searchCommand{api: api, onQuery: onQuery}
	cmd.input = newTextInput(chatID, "Введите запрос для поиска. Например, \"Go разработчик\" или \"Golang OR Go\".",
		func(query string) { cmd.query = query })
	cmd.input.AddValidation(maxLength(maxQueryLength, "Запрос должен быть непустым и не длиннее 200 символов."))
	return cmd
}

func (c *searchCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *searchCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *searchCommand) Run() {
	_, _ = sendWithLogError(c.api, c.input.InitMessage())
}

func (c *searchCommand) OnUserInput(input string) {

	if msg := c.input.HandleInput(input); msg != nil {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if c.finishCallback != nil {
		c.finishCallback()
	}
	c.onQuery(c.query)
}
