package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/clients/llm"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/logger"
	"github.com/maxaizer/hh-search-bot/internal/pagination"
	"github.com/maxaizer/hh-search-bot/internal/services"
	log "github.com/sirupsen/logrus"
	"strings"
	"sync"
)

type Repositories struct {
	Users userRepository
	Areas areaRepository
	Data  dataRepository
}

type Services struct {
	Search    searchService
	Documents documentService
}

type dataRepository interface {
	Save(ctx context.Context, id string, data []byte) error
	LoadAndRemove(ctx context.Context, id string) ([]byte, error)
}

type userRepository interface {
	GetOrDefault(ctx context.Context, id int64) (models.User, error)
	Save(ctx context.Context, user models.User) error
}

type areaRepository interface {
	GetIdByName(ctx context.Context, name string) (string, error)
}

type searchService interface {
	Search(ctx context.Context, userID int64, query string) (*services.SearchPage, error)
	GetPage(ctx context.Context, userID int64, query string, page int) (*services.SearchPage, error)
	LatestQuery(ctx context.Context, userID int64) (string, error)
	Vacancy(ctx context.Context, id uint) (*models.Vacancy, error)
}

type documentService interface {
	Resolve(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType,
		action services.DocumentAction) (string, error)
}

type Bot struct {
	client       *botApi.BotAPI
	api          apiInterface
	mu           sync.Mutex
	userContexts map[int64]*userContext
	pollTimeout  int
	repositories Repositories
	services     Services
}

const (
	backToMenuCommandName = "В главное меню"
	startCommandName      = "start"
	lastSearchCommandName = "last"
	lastSearchButton      = "Последний поиск"
	profileCommandName    = "profile"
	profileButton         = "Профиль"
	userContextsDataID    = "user_contexts"
	defaultPollTimeout    = 60
)

var buttonCommands = map[string]string{
	searchButton:          searchCommandName,
	lastSearchButton:      lastSearchCommandName,
	profileButton:         profileCommandName,
	filtersButton:         filtersCommandName,
	backToMenuCommandName: backToMenuCommandName,
}

func NewBot(token string, repositories Repositories, svc Services) (*Bot, error) {

	client, err := botApi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("Authorized on account %s", client.Self.UserName)

	err = botApi.SetLogger(log.StandardLogger())
	if err != nil {
		return nil, err
	}

	createdBot, err := newBot(client, repositories, svc)
	if err != nil {
		return nil, err
	}
	createdBot.client = client
	return createdBot, nil
}

func newBot(api apiInterface, repositories Repositories, svc Services) (*Bot, error) {

	if repositories.Users == nil {
		return nil, errors.New("user repository is nil")
	}

	if repositories.Areas == nil {
		return nil, errors.New("area repository is nil")
	}

	if repositories.Data == nil {
		return nil, errors.New("data repository is nil")
	}

	if svc.Search == nil || svc.Documents == nil {
		return nil, errors.New("services are not set")
	}

	return &Bot{api: api, userContexts: make(map[int64]*userContext), pollTimeout: defaultPollTimeout,
		repositories: repositories, services: svc}, nil
}

// SetPollTimeout sets the long polling timeout in seconds.
func (b *Bot) SetPollTimeout(seconds int) {
	if seconds > 0 {
		b.pollTimeout = seconds
	}
}

func (b *Bot) Run() {

	err := b.loadUserContexts()
	if err != nil {
		log.Errorf("Error loading user contexts: %v", err)
	}

	updateConfig := botApi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout

	updates := b.client.GetUpdatesChan(updateConfig)

	for update := range updates {

		switch {
		case update.Message != nil:
			if update.Message.Chat.IsGroup() || update.Message.Chat.IsSuperGroup() {
				continue
			}
			go b.handleMessage(update.Message)
		case update.CallbackQuery != nil:
			go b.handleCallback(update.CallbackQuery)
		}
	}
}

func (b *Bot) Stop() {
	if b.client != nil {
		b.client.StopReceivingUpdates()
	}

	err := b.saveUserContexts()
	if err != nil {
		log.Errorf("Error saving user contexts: %v", err)
	}
}

func (b *Bot) handleMessage(message *botApi.Message) {

	cmd := message.Command()
	if cmd == "" {
		cmd = buttonCommands[message.Text]
	}

	if cmd != "" {
		b.handleCommand(message.From, message.Chat, cmd, message.CommandArguments())
	} else {
		b.handleInput(message.From, message.Chat, message.Text)
	}
}

func (b *Bot) handleCommand(user *botApi.User, chat *botApi.Chat, command string, args string) {

	var response botApi.Chattable

	switch command {
	case startCommandName:
		b.resetUserContext(user.ID)
		messageResponse := botApi.NewMessage(chat.ID, "Привет! Я ищу вакансии на hh.ru и помогаю с откликом: "+
			"адаптирую резюме и пишу сопроводительные письма.\n\n"+
			"Заполните профиль (/resume, /skills, /city), настройте фильтры и отправьте /search <запрос>.")
		messageResponse.ReplyMarkup = defaultReplyKeyboard()
		response = messageResponse
	case searchCommandName:
		if query := strings.TrimSpace(args); query != "" {
			b.resetUserContext(user.ID)
			b.search(chat.ID, user.ID, query)
			return
		}
		b.runCommand(user.ID, chat.ID, command)
	case lastSearchCommandName:
		b.resetUserContext(user.ID)
		b.showLatestSearch(chat.ID, user.ID)
	case profileCommandName:
		b.resetUserContext(user.ID)
		profile, err := b.repositories.Users.GetOrDefault(context.Background(), user.ID)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
			response = botApi.NewMessage(chat.ID, "Внутренняя ошибка!")
		} else {
			response = botApi.NewMessage(chat.ID, profileText(profile))
		}
	case filtersCommandName, resumeCommandName, skillsCommandName, promptCommandName, cityCommandName, llmCommandName:
		b.runCommand(user.ID, chat.ID, command)
	case backToMenuCommandName:
		b.resetUserContext(user.ID)
		messageResponse := botApi.NewMessage(chat.ID, "Вы были успешно перенесены в главное меню")
		messageResponse.ReplyMarkup = defaultReplyKeyboard()
		response = messageResponse
	default:
		response = botApi.NewMessage(chat.ID, "Неизвестная команда!")
	}

	if response == nil {
		return
	}

	_, _ = sendWithLogError(b.api, response)
}

func (b *Bot) runCommand(userID int64, chatID int64, name string) {

	cmd, err := b.createCommand(name, chatID)
	if err != nil {
		log.Errorf("couldn't create %s: %v", name, err)
		_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, "Внутренняя ошибка!"))
		return
	}

	b.mu.Lock()
	ctx := newUserContext(chatID)
	b.userContexts[userID] = ctx
	b.mu.Unlock()

	ctx.RunCommand(cmd, name)
}

// createCommand is also used to rebuild commands after restart, so chatID doubles as the user id:
// only private chats are served.
func (b *Bot) createCommand(name string, chatID int64) (command, error) {

	switch name {
	case searchCommandName:
		return newSearchCommand(b.api, chatID, func(query string) { b.search(chatID, chatID, query) }), nil
	case filtersCommandName:
		return newFiltersCommand(b.api, chatID, b.repositories.Users), nil
	case resumeCommandName, skillsCommandName, promptCommandName, cityCommandName:
		return newProfileCommand(b.api, chatID, name, b.repositories.Users, b.repositories.Areas), nil
	case llmCommandName:
		return newLLMCommand(b.api, chatID, b.repositories.Users), nil
	default:
		return nil, fmt.Errorf("unknown command: %v", name)
	}
}

func (b *Bot) handleInput(user *botApi.User, chat *botApi.Chat, input string) {

	b.mu.Lock()
	ctx := b.userContexts[user.ID]
	b.mu.Unlock()

	if ctx == nil || !ctx.HasRunningCommand() {
		_, _ = sendWithLogError(b.api, botApi.NewMessage(chat.ID, "Ожидается команда."))
		return
	}

	ctx.OnUserInput(input)
}

func (b *Bot) resetUserContext(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.userContexts, userID)
}

func (b *Bot) search(chatID int64, userID int64, query string) {

	progress := botApi.NewMessage(chatID, "Ищу вакансии по запросу \""+query+"\"...")
	progress.ReplyMarkup = defaultReplyKeyboard()
	_, _ = sendWithLogError(b.api, progress)

	page, err := b.services.Search.Search(context.Background(), userID, query)
	if err != nil {
		b.sendSearchError(chatID, err)
		return
	}

	msg := botApi.NewMessage(chatID, searchPageText(page))
	msg.ReplyMarkup = searchPageKeyboard(page)
	_, _ = sendWithLogError(b.api, msg)
}

func (b *Bot) showLatestSearch(chatID int64, userID int64) {

	ctx := context.Background()
	query, err := b.services.Search.LatestQuery(ctx, userID)
	if err != nil {
		b.sendSearchError(chatID, err)
		return
	}

	page, err := b.services.Search.GetPage(ctx, userID, query, 0)
	if err != nil {
		b.sendSearchError(chatID, err)
		return
	}

	msg := botApi.NewMessage(chatID, searchPageText(page))
	msg.ReplyMarkup = searchPageKeyboard(page)
	_, _ = sendWithLogError(b.api, msg)
}

func (b *Bot) sendSearchError(chatID int64, err error) {

	var text string
	switch {
	case errors.Is(err, services.ErrEmptyQuery):
		text = "Введите запрос, например: /search golang"
	case errors.Is(err, services.ErrNoMatches):
		text = "По вашему запросу ничего не найдено."
	case errors.Is(err, services.ErrUpstreamUnavailable):
		text = "hh.ru сейчас недоступен, попробуйте позже."
	case errors.Is(err, services.ErrNoSnapshot):
		text = "Результаты поиска не найдены или устарели, выполните поиск заново."
	case errors.Is(err, pagination.ErrPageOutOfRange):
		text = "Такой страницы нет."
	default:
		log.Errorf("search failed: %v", err)
		text = "Внутренняя ошибка!"
	}

	_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, text))
}

func (b *Bot) handleCallback(query *botApi.CallbackQuery) {

	data, err := parseCallback(query.Data)
	if err != nil || query.Message == nil {
		requestWithLogError(b.api, botApi.NewCallback(query.ID, "Некорректный запрос"))
		return
	}

	chatID := query.Message.Chat.ID
	userID := query.From.ID
	ctx := context.Background()

	switch data.kind {
	case callbackNoop:
		requestWithLogError(b.api, botApi.NewCallback(query.ID, ""))

	case callbackPage:
		requestWithLogError(b.api, botApi.NewCallback(query.ID, ""))
		searchQuery := data.query
		if searchQuery == "" {
			if searchQuery, err = b.services.Search.LatestQuery(ctx, userID); err != nil {
				b.sendSearchError(chatID, err)
				return
			}
		}

		page, err := b.services.Search.GetPage(ctx, userID, searchQuery, data.page)
		if err != nil {
			b.sendSearchError(chatID, err)
			return
		}
		edit := botApi.NewEditMessageTextAndMarkup(chatID, query.Message.MessageID, searchPageText(page), searchPageKeyboard(page))
		requestWithLogError(b.api, edit)

	case callbackVacancy:
		requestWithLogError(b.api, botApi.NewCallback(query.ID, ""))
		vacancy, err := b.services.Search.Vacancy(ctx, data.vacancyID)
		if err != nil || vacancy == nil {
			if err != nil {
				log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Error(err)
			}
			_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, "Вакансия не найдена."))
			return
		}
		msg := botApi.NewMessage(chatID, vacancyText(*vacancy))
		msg.ReplyMarkup = vacancyKeyboard(*vacancy)
		_, _ = sendWithLogError(b.api, msg)

	case callbackDocument:
		b.handleDocument(query, chatID, userID, data)
	}
}

func (b *Bot) handleDocument(query *botApi.CallbackQuery, chatID int64, userID int64, data callbackData) {

	if data.action == services.ActionSend {
		requestWithLogError(b.api, botApi.NewCallback(query.ID, ""))
	} else {
		requestWithLogError(b.api, botApi.NewCallback(query.ID, "Генерирую, это может занять до минуты..."))
	}

	text, err := b.services.Documents.Resolve(context.Background(), userID, data.vacancyID, data.docType, data.action)
	if err != nil && (text == "" || !errors.Is(err, services.ErrNotStored)) {
		_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, documentErrorText(err)))
		return
	}

	for i, chunk := range splitMessage(documentTitle(data.docType) + "\n\n" + text) {
		if i > 0 {
			chunk = strings.TrimLeft(chunk, "\n")
		}
		_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, chunk))
	}

	if err != nil {
		_, _ = sendWithLogError(b.api, botApi.NewMessage(chatID, documentErrorText(err)))
	}
}

func documentErrorText(err error) string {
	switch {
	case errors.Is(err, services.ErrNoCachedDocument):
		return "Документ ещё не сгенерирован. Сначала нажмите кнопку генерации."
	case errors.Is(err, services.ErrEmptyGeneration):
		return "Модель вернула пустой ответ, попробуйте сгенерировать ещё раз."
	case errors.Is(err, llm.ErrUnavailable):
		return "Генерация недоступна: укажите свой API ключ через /llm."
	case errors.Is(err, llm.ErrInvalidOverrides):
		return "Некорректные настройки генерации, проверьте их через /llm."
	case errors.Is(err, services.ErrUnknownVacancy):
		return "Вакансия не найдена."
	case errors.Is(err, services.ErrNotStored):
		return "Документ не сохранился, кнопка отправки покажет его только после повторной генерации."
	case errors.Is(err, services.ErrGeneration):
		return "Не удалось сгенерировать документ, попробуйте позже."
	default:
		log.Errorf("document request failed: %v", err)
		return "Внутренняя ошибка!"
	}
}

func (b *Bot) saveUserContexts() error {
	b.mu.Lock()
	data, err := json.Marshal(b.userContexts)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.repositories.Data.Save(context.Background(), userContextsDataID, data)
}

func (b *Bot) loadUserContexts() error {
	data, err := b.repositories.Data.LoadAndRemove(context.Background(), userContextsDataID)
	if err != nil || len(data) == 0 {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err = json.Unmarshal(data, &b.userContexts); err != nil {
		return err
	}

	var errs []error
	for i, ctx := range b.userContexts {

		if ctx.curCommandName == "" {
			delete(b.userContexts, i)
			continue
		}

		cmd, err := b.createCommand(ctx.curCommandName, ctx.chatID)
		if err != nil {
			errs = append(errs, err)
			delete(b.userContexts, i)
			continue
		}

		saveableCmd, ok := cmd.(saveable)
		if !ok {
			ctx.ResumeCommand(cmd)
			continue
		}

		err = saveableCmd.LoadState(ctx.curCommandState)
		if err != nil {
			errs = append(errs, err)
			delete(b.userContexts, i)
			continue
		}

		ctx.ResumeCommand(cmd)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func defaultReplyKeyboard() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(searchButton),
			botApi.NewKeyboardButton(lastSearchButton),
		),
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(profileButton),
			botApi.NewKeyboardButton(filtersButton),
		),
	)
}

func keyboardWithExit() botApi.ReplyKeyboardMarkup {
	return botApi.NewReplyKeyboard(
		botApi.NewKeyboardButtonRow(
			botApi.NewKeyboardButton(backToMenuCommandName),
		),
	)
}
