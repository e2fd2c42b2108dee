package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	log "github.com/sirupsen/logrus"
)

const (
	resumeCommandName = "resume"
	skillsCommandName = "skills"
	promptCommandName = "prompt"
	cityCommandName   = "city"

	maxResumeLength = 4000
	maxSkillsLength = 500
	maxPromptLength = 1000
)

// profileCommand edits one field of the user profile with a single input.
type profileCommand struct {
	api                  apiInterface
	chatID               int64
	users                userRepository
	input                inputHandler
	apply                func(user *models.User)
	finished             bool
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newProfileCommand(api apiInterface, chatID int64, name string, users userRepository, areas areaRepository) *profileCommand {

	cmd := &profileCommand{api: api, chatID: chatID, users: users}
	onText := func(set func(user *models.User, value string)) func(string) {
		return func(value string) {
			cmd.apply = func(user *models.User) { set(user, value) }
			cmd.finished = true
		}
	}

	switch name {
	case resumeCommandName:
		input := newTextInput(chatID, "Отправьте текст вашего резюме: опыт, проекты, образование.",
			onText(func(user *models.User, value string) { user.Resume = value }))
		input.AddValidation(maxLength(maxResumeLength, "Резюме должно быть непустым и не длиннее 4000 символов."))
		cmd.input = input
	case skillsCommandName:
		input := newTextInput(chatID, "Перечислите ключевые навыки через запятую. Например, \"Go, PostgreSQL, Kafka\".",
			onText(func(user *models.User, value string) { user.Skills = value }))
		input.AddValidation(maxLength(maxSkillsLength, "Список навыков должен быть непустым и не длиннее 500 символов."))
		cmd.input = input
	case promptCommandName:
		input := newTextInput(chatID, "Опишите пожелания к генерируемым документам в свободной форме "+
			"(\"-\" - очистить).",
			onText(func(user *models.User, value string) {
				if value == clearInput {
					value = ""
				}
				user.Prompt = value
			}))
		input.AddValidation(maxLength(maxPromptLength, "Пожелание должно быть непустым и не длиннее 1000 символов."))
		cmd.input = input
	case cityCommandName:
		cmd.input = newAreaInput(chatID, areas, func(areaID string) {
			cmd.apply = func(user *models.User) { user.AreaID = areaID }
			cmd.finished = true
		})
	}

	return cmd
}

func (c *profileCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *profileCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

func (c *profileCommand) Run() {
	_, _ = sendWithLogError(c.api, c.input.InitMessage())
}

func (c *profileCommand) OnUserInput(input string) {

	msg := c.input.HandleInput(input)
	if !c.finished {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	c.saveProfile()
	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *profileCommand) saveProfile() {

	msg := botApi.NewMessage(c.chatID, "Профиль обновлён!")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	ctx := context.Background()
	user, err := c.users.GetOrDefault(ctx, c.chatID)
	if err == nil {
		c.apply(&user)
		err = c.users.Save(ctx, user)
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
		msg.Text = "Внутренняя ошибка!"
	}

	_, _ = sendWithLogError(c.api, msg)
}
