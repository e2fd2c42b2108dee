package bot

import (
	"context"
	"encoding/json"
	"github.com/go-playground/validator/v10"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	log "github.com/sirupsen/logrus"
	"strconv"
)

const (
	filtersCommandName = "filters"
	filtersButton      = "Фильтры поиска"
	maxFreshnessDays   = 30
)

// filtersCommand asks for every search filter in turn and saves them to the user profile.
type filtersCommand struct {
	api                  apiInterface
	chatID               int64
	users                userRepository
	validate             *validator.Validate
	inputHandlers        []inputHandler
	curHandlerIndex      int
	filters              models.SearchFilters
	finishCallback       func()
	finalMessageKeyboard *botApi.ReplyKeyboardMarkup
}

func newFiltersCommand(api apiInterface, chatID int64, users userRepository) *filtersCommand {

	cmd := &filtersCommand{api: api, chatID: chatID, users: users, validate: validator.New()}

	salary := newSalaryInput(chatID, func(input string) {
		if salary, _ := strconv.Atoi(input); salary > 0 {
			cmd.filters.MinSalary = &salary
		} else {
			cmd.filters.MinSalary = nil
		}
		cmd.curHandlerIndex++
	})

	experience := newExperienceInput(chatID, func(experience models.Experience) {
		cmd.filters.Experience = experience
		cmd.curHandlerIndex++
	})

	remote := newRemoteInput(chatID, func(remoteOnly bool) {
		cmd.filters.RemoteOnly = remoteOnly
		cmd.curHandlerIndex++
	})

	freshness := newFreshnessInput(chatID, func(input string) {
		cmd.filters.FreshnessDays, _ = strconv.Atoi(input)
		cmd.curHandlerIndex++
	})

	cmd.inputHandlers = []inputHandler{salary, experience, remote, freshness}
	return cmd
}

func (c *filtersCommand) WithFinishCallback(callback func()) {
	c.finishCallback = callback
}

func (c *filtersCommand) WithKeyboardOnFinalMessage(keyboard botApi.ReplyKeyboardMarkup) {
	c.finalMessageKeyboard = &keyboard
}

type filtersCommandState struct {
	CurHandlerIndex int
	Filters         models.SearchFilters
}

func (c *filtersCommand) SaveState() ([]byte, error) {
	return json.Marshal(filtersCommandState{CurHandlerIndex: c.curHandlerIndex, Filters: c.filters})
}

func (c *filtersCommand) LoadState(data []byte) error {

	var state filtersCommandState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}

	c.curHandlerIndex = state.CurHandlerIndex
	c.filters = state.Filters
	return nil
}

func (c *filtersCommand) Run() {
	_, _ = sendWithLogError(c.api, c.inputHandlers[0].InitMessage())
}

func (c *filtersCommand) OnUserInput(input string) {

	if c.curHandlerIndex >= len(c.inputHandlers) {
		c.finish()
		return
	}

	previousIndex := c.curHandlerIndex
	msg := c.inputHandlers[c.curHandlerIndex].HandleInput(input)

	handlerChanged := previousIndex != c.curHandlerIndex
	allHandlersFinished := c.curHandlerIndex >= len(c.inputHandlers)

	if !handlerChanged {
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	if !allHandlersFinished {
		_, _ = sendWithLogError(c.api, c.inputHandlers[c.curHandlerIndex].InitMessage())
		return
	}

	c.saveFilters()
	c.finish()
}

func (c *filtersCommand) finish() {
	if c.finishCallback != nil {
		c.finishCallback()
	}
}

func (c *filtersCommand) saveFilters() {

	msg := botApi.NewMessage(c.chatID, "")
	if c.finalMessageKeyboard != nil {
		msg.ReplyMarkup = c.finalMessageKeyboard
	}

	if err := c.validate.Struct(c.filters); err != nil {
		log.Errorf("invalid filters from user %d: %v", c.chatID, err)
		msg.Text = "Некорректные фильтры, попробуйте ещё раз."
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	ctx := context.Background()
	user, err := c.users.GetOrDefault(ctx, c.chatID)
	if err == nil {
		user.Filters = c.filters
		err = c.users.Save(ctx, user)
	}
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
		msg.Text = "Внутренняя ошибка!"
		_, _ = sendWithLogError(c.api, msg)
		return
	}

	msg.Text = "Фильтры сохранены!\n" + filtersToText(c.filters)
	_, _ = sendWithLogError(c.api, msg)
}

func newSalaryInput(chatID int64, onFinish func(input string)) *textInput {
	input := newTextInput(chatID, "Укажите минимальную зарплату в рублях (0 - не важно).", onFinish)
	input.AddValidation(validation{
		function: func(input string) bool {
			salary, err := strconv.Atoi(input)
			return err == nil && salary >= 0
		},
		errorMessage: "Введите неотрицательное число",
	})
	return input
}

func newFreshnessInput(chatID int64, onFinish func(input string)) *textInput {
	input := newTextInput(chatID, "Вакансии за сколько последних дней показывать? (от 0 до 30, 0 - за всё время)",
		onFinish)
	input.AddValidation(validation{
		function: func(input string) bool {
			days, err := strconv.Atoi(input)
			return err == nil && days >= 0 && days <= maxFreshnessDays
		},
		errorMessage: "Введите число от 0 до 30",
	})
	return input
}
