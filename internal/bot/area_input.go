package bot

import (
	"context"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	log "github.com/sirupsen/logrus"
)

const anyAreaInput = "Не указывать"

type areaInput struct {
	chatID   int64
	onFinish func(areaID string)
	areas    areaRepository
}

func newAreaInput(chatID int64, areaRepo areaRepository, onFinish func(areaID string)) *areaInput {
	return &areaInput{chatID: chatID, areas: areaRepo, onFinish: onFinish}
}

func (a *areaInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, "Введите город или регион поиска.")
	msg.ReplyMarkup = areaKeyboard()
	return msg
}

func (a *areaInput) HandleInput(input string) botApi.Chattable {

	if input == anyAreaInput {
		a.onFinish("")
		return nil
	}

	areaID, err := a.areas.GetIdByName(context.Background(), input)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
		return botApi.NewMessage(a.chatID, "Внутренняя ошибка.")
	}
	if areaID == "" {
		return botApi.NewMessage(a.chatID, "Регион не найден.")
	}

	a.onFinish(areaID)
	return nil
}

func areaKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton("Москва"),
			botApi.NewKeyboardButton("Санкт-Петербург"),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton("Новосибирск"),
			botApi.NewKeyboardButton("Екатеринбург"),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(anyAreaInput),
			botApi.NewKeyboardButton(backToMenuCommandName),
		),
	)
}
