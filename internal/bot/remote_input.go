package bot

import (
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	remoteOnlyAnswer  = "Только удалённая работа"
	anyScheduleAnswer = "Любой график"
)

type remoteInput struct {
	chatID   int64
	onFinish func(remoteOnly bool)
}

func newRemoteInput(chatID int64, onFinish func(remoteOnly bool)) *remoteInput {
	return &remoteInput{chatID: chatID, onFinish: onFinish}
}

func (a *remoteInput) InitMessage() botApi.Chattable {
	msg := botApi.NewMessage(a.chatID, "Искать только удалённую работу?")
	msg.ReplyMarkup = botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(remoteOnlyAnswer),
			botApi.NewKeyboardButton(anyScheduleAnswer),
		),
	)
	return msg
}

func (a *remoteInput) HandleInput(input string) botApi.Chattable {

	switch input {
	case remoteOnlyAnswer:
		a.onFinish(true)
	case anyScheduleAnswer:
		a.onFinish(false)
	default:
		return botApi.NewMessage(a.chatID, "Неверный ввод.")
	}
	return nil
}
