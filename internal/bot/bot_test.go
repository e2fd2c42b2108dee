package bot

import (
	"context"
	"errors"
	"fmt"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/pagination"
	"github.com/maxaizer/hh-search-bot/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"strings"
	"sync"
	"testing"
)

type mockApi struct {
	mu           sync.Mutex
	SentMessages []botApi.Chattable
	Requests     []botApi.Chattable
}

func (m *mockApi) Send(chattable botApi.Chattable) (botApi.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentMessages = append(m.SentMessages, chattable)
	return botApi.Message{}, nil
}

func (m *mockApi) Request(chattable botApi.Chattable) (*botApi.APIResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Requests = append(m.Requests, chattable)
	return &botApi.APIResponse{Ok: true}, nil
}

func (m *mockApi) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.SentMessages) == 0 {
		return ""
	}
	if msg, ok := m.SentMessages[len(m.SentMessages)-1].(botApi.MessageConfig); ok {
		return msg.Text
	}
	return ""
}

type mockUserRepo struct {
	mu    sync.Mutex
	Users map[int64]models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{Users: map[int64]models.User{}}
}

func (m *mockUserRepo) GetOrDefault(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return models.User{ID: id}, nil
}

func (m *mockUserRepo) Save(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.ID] = user
	return nil
}

type mockAreaRepo struct {
	Areas []models.Area
}

func (m *mockAreaRepo) GetIdByName(_ context.Context, name string) (string, error) {
	for _, area := range m.Areas {
		if area.NormalizedName == models.NormalizeAreaName(name) {
			return area.ID, nil
		}
	}
	return "", nil
}

type mockDataRepo struct {
	data map[string][]byte
}

func (m *mockDataRepo) Save(_ context.Context, id string, data []byte) error {
	m.data[id] = data
	return nil
}

func (m *mockDataRepo) LoadAndRemove(_ context.Context, id string) ([]byte, error) {
	data := m.data[id]
	delete(m.data, id)
	return data, nil
}

type mockSearchService struct {
	mock.Mock
}

func (m *mockSearchService) Search(ctx context.Context, userID int64, query string) (*services.SearchPage, error) {
	args := m.Called(ctx, userID, query)
	page, _ := args.Get(0).(*services.SearchPage)
	return page, args.Error(1)
}

func (m *mockSearchService) GetPage(ctx context.Context, userID int64, query string, page int) (*services.SearchPage, error) {
	args := m.Called(ctx, userID, query, page)
	result, _ := args.Get(0).(*services.SearchPage)
	return result, args.Error(1)
}

func (m *mockSearchService) LatestQuery(ctx context.Context, userID int64) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockSearchService) Vacancy(ctx context.Context, id uint) (*models.Vacancy, error) {
	args := m.Called(ctx, id)
	vacancy, _ := args.Get(0).(*models.Vacancy)
	return vacancy, args.Error(1)
}

type mockDocumentService struct {
	mock.Mock
}

func (m *mockDocumentService) Resolve(ctx context.Context, userID int64, vacancyID uint, docType models.DocumentType,
	action services.DocumentAction) (string, error) {
	args := m.Called(ctx, userID, vacancyID, docType, action)
	return args.String(0), args.Error(1)
}

type testBot struct {
	*Bot
	api       *mockApi
	users     *mockUserRepo
	data      *mockDataRepo
	search    *mockSearchService
	documents *mockDocumentService
}

func newTestBot(t *testing.T) *testBot {
	tb := &testBot{
		api:       &mockApi{},
		users:     newMockUserRepo(),
		data:      &mockDataRepo{data: map[string][]byte{}},
		search:    &mockSearchService{},
		documents: &mockDocumentService{},
	}
	areas := &mockAreaRepo{Areas: []models.Area{models.NewArea("1", "Москва")}}

	var err error
	tb.Bot, err = newBot(tb.api, Repositories{Users: tb.users, Areas: areas, Data: tb.data},
		Services{Search: tb.search, Documents: tb.documents})
	require.NoError(t, err)
	return tb
}

func commandMessage(userID int64, text string) *botApi.Message {
	name, _, _ := strings.Cut(text, " ")
	return &botApi.Message{
		Text:     text,
		From:     &botApi.User{ID: userID},
		Chat:     &botApi.Chat{ID: userID, Type: "private"},
		Entities: []botApi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}
}

func textMessage(userID int64, text string) *botApi.Message {
	return &botApi.Message{Text: text, From: &botApi.User{ID: userID}, Chat: &botApi.Chat{ID: userID, Type: "private"}}
}

func simulateUserInput(cmd command, inputs []string) {
	for _, input := range inputs {
		cmd.OnUserInput(input)
	}
}

func testPage(query string, page, totalPages int) *services.SearchPage {
	items := make([]models.Vacancy, 0, services.VacanciesPerPage)
	for i := 0; i < services.VacanciesPerPage; i++ {
		title := "vacancy"
		items = append(items, models.Vacancy{ID: uint(page*services.VacanciesPerPage + i + 1), Title: &title})
	}
	return &services.SearchPage{
		Query:      query,
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		TotalFound: totalPages * services.VacanciesPerPage,
		Fetched:    totalPages * services.VacanciesPerPage,
		Offset:     page * services.VacanciesPerPage,
		Layout:     pagination.Layout(page, totalPages),
		Stored:     true,
	}
}

func Test_ParseCallback_WhenBuiltByHelpers_ShouldRoundTrip(t *testing.T) {

	assert := assert.New(t)

	data, err := parseCallback(pageCallback(3, "go: backend"))
	assert.NoError(err)
	assert.Equal(callbackData{kind: callbackPage, page: 3, query: "go: backend"}, data)

	data, err = parseCallback(vacancyCallback(42))
	assert.NoError(err)
	assert.Equal(callbackData{kind: callbackVacancy, vacancyID: 42}, data)

	data, err = parseCallback(documentCallback(models.DocumentCoverLetter, 42, services.ActionRegenerate))
	assert.NoError(err)
	assert.Equal(callbackData{kind: callbackDocument, vacancyID: 42, docType: models.DocumentCoverLetter,
		action: services.ActionRegenerate}, data)
}

func Test_PageCallback_WhenQueryTooLong_ShouldFallBackToLatestQuery(t *testing.T) {

	callback := pageCallback(1, strings.Repeat("разработчик ", 10))

	assert.Equal(t, "page:1:", callback)
	data, err := parseCallback(callback)
	assert.NoError(t, err)
	assert.Empty(t, data.query)
}

func Test_ParseCallback_WhenMalformed_ShouldFail(t *testing.T) {
	for _, data := range []string{"", "page", "page:x:go", "page:-1:go", "vac:0", "vac:abc",
		"doc:3:1:generate", "doc:1:1:delete", "doc:1:1", "unknown:1"} {
		_, err := parseCallback(data)
		assert.ErrorIs(t, err, errInvalidCallback, data)
	}
}

func Test_SearchPageKeyboard_ShouldNumberVacanciesAndRenderPagination(t *testing.T) {

	assert := assert.New(t)

	keyboard := searchPageKeyboard(testPage("go", 1, 3))

	require.Len(t, keyboard.InlineKeyboard, 3)
	first := keyboard.InlineKeyboard[0][0]
	assert.Equal("9", first.Text)
	assert.Equal("vac:9", *first.CallbackData)

	pages := keyboard.InlineKeyboard[2]
	labels := make([]string, 0, len(pages))
	for _, button := range pages {
		labels = append(labels, button.Text)
	}
	assert.Equal([]string{"◀️", "1", "• 2 •", "3", "▶️"}, labels)
	assert.Equal("page:0:go", *pages[0].CallbackData)
	assert.Equal(noopCallbackData, *pages[2].CallbackData)
}

func Test_SearchPageKeyboard_WhenNotStored_ShouldOmitPagination(t *testing.T) {

	page := testPage("go", 0, 3)
	page.Stored = false

	keyboard := searchPageKeyboard(page)

	assert.Len(t, keyboard.InlineKeyboard, 2)
}

func Test_FiltersCmd_WhenValidData_ShouldSaveFilters(t *testing.T) {

	assert := assert.New(t)
	users := newMockUserRepo()
	finished := false

	cmd := newFiltersCommand(&mockApi{}, 1, users)
	cmd.WithFinishCallback(func() { finished = true })

	cmd.Run()
	simulateUserInput(cmd, []string{"150000", string(between1and3), remoteOnlyAnswer, "7"})

	assert.True(finished)
	filters := users.Users[1].Filters
	require.NotNil(t, filters.MinSalary)
	assert.Equal(150000, *filters.MinSalary)
	assert.Equal(models.Between1and3, filters.Experience)
	assert.True(filters.RemoteOnly)
	assert.Equal(7, filters.FreshnessDays)
}

func Test_FiltersCmd_WhenInvalidInput_ShouldWaitForValid(t *testing.T) {

	assert := assert.New(t)
	users := newMockUserRepo()
	finished := false

	cmd := newFiltersCommand(&mockApi{}, 1, users)
	cmd.WithFinishCallback(func() { finished = true })

	cmd.Run()
	simulateUserInput(cmd, []string{"много", "-5", "0"})
	simulateUserInput(cmd, []string{"justRandomExperience", string(anyExperience)})
	simulateUserInput(cmd, []string{"да", anyScheduleAnswer})
	simulateUserInput(cmd, []string{"31", "0"})

	assert.True(finished)
	filters := users.Users[1].Filters
	assert.Nil(filters.MinSalary)
	assert.Empty(filters.Experience)
	assert.False(filters.RemoteOnly)
	assert.Zero(filters.FreshnessDays)
}

func Test_ProfileCmd_Resume_ShouldKeepOtherFields(t *testing.T) {

	assert := assert.New(t)
	users := newMockUserRepo()
	users.Users[1] = models.User{ID: 1, Skills: "Go"}
	finished := false

	cmd := newProfileCommand(&mockApi{}, 1, resumeCommandName, users, &mockAreaRepo{})
	cmd.WithFinishCallback(func() { finished = true })

	cmd.Run()
	cmd.OnUserInput("")
	assert.False(finished)
	cmd.OnUserInput("Пять лет backend разработки")

	assert.True(finished)
	assert.Equal("Пять лет backend разработки", users.Users[1].Resume)
	assert.Equal("Go", users.Users[1].Skills)
}

func Test_ProfileCmd_City_WhenUnknown_ShouldWaitForValid(t *testing.T) {

	assert := assert.New(t)
	users := newMockUserRepo()
	areas := &mockAreaRepo{Areas: []models.Area{models.NewArea("2", "Санкт-Петербург")}}
	finished := false

	cmd := newProfileCommand(&mockApi{}, 1, cityCommandName, users, areas)
	cmd.WithFinishCallback(func() { finished = true })

	cmd.Run()
	cmd.OnUserInput("Атлантида")
	assert.False(finished)
	cmd.OnUserInput("санкт-петербург")

	assert.True(finished)
	assert.Equal("2", users.Users[1].AreaID)
}

func Test_LLMCmd_SkipSetAndClear_ShouldUpdateOnlyChangedFields(t *testing.T) {

	assert := assert.New(t)
	users := newMockUserRepo()
	users.Users[1] = models.User{ID: 1, LLMModel: "gpt-4o", LLMAPIKey: "old-key"}
	finished := false

	cmd := newLLMCommand(&mockApi{}, 1, users)
	cmd.WithFinishCallback(func() { finished = true })

	cmd.Run()
	cmd.OnUserInput(skipInput)
	cmd.OnUserInput("not a url")
	cmd.OnUserInput("https://llm.example.com/v1")
	cmd.OnUserInput(clearInput)

	assert.True(finished)
	user := users.Users[1]
	assert.Equal("gpt-4o", user.LLMModel)
	assert.Equal("https://llm.example.com/v1", user.LLMBaseURL)
	assert.Empty(user.LLMAPIKey)
}

func Test_LLMCmd_SaveState_ShouldNotPersistApiKey(t *testing.T) {

	cmd := newLLMCommand(&mockApi{}, 1, newMockUserRepo())
	cmd.Run()
	simulateUserInput(cmd, []string{"gpt-4o-mini", skipInput})
	cmd.apiKey = clearable("secret-key")

	state, err := cmd.SaveState()

	require.NoError(t, err)
	assert.NotContains(t, string(state), "secret-key")
	assert.Contains(t, string(state), "gpt-4o-mini")
}

func Test_Bot_SearchWithArguments_ShouldSendFirstPage(t *testing.T) {

	assert := assert.New(t)
	tb := newTestBot(t)
	tb.search.On("Search", mock.Anything, int64(1), "golang").Return(testPage("golang", 0, 2), nil).Once()

	tb.handleMessage(commandMessage(1, "/search golang"))

	tb.search.AssertExpectations(t)
	require.Len(t, tb.api.SentMessages, 2)
	msg := tb.api.SentMessages[1].(botApi.MessageConfig)
	assert.Contains(msg.Text, "\"golang\"")
	assert.Contains(msg.Text, "1. vacancy")
	assert.IsType(botApi.InlineKeyboardMarkup{}, msg.ReplyMarkup)
}

func Test_Bot_SearchWithoutArguments_ShouldAskForQuery(t *testing.T) {

	tb := newTestBot(t)
	tb.search.On("Search", mock.Anything, int64(1), "go developer").Return(nil, services.ErrNoMatches).Once()

	tb.handleMessage(commandMessage(1, "/search"))
	tb.handleMessage(textMessage(1, "go developer"))

	tb.search.AssertExpectations(t)
	assert.Equal(t, "По вашему запросу ничего не найдено.", tb.api.lastText())
	assert.False(t, tb.userContexts[1].HasRunningCommand())
}

func Test_Bot_SearchButton_ShouldStartSearchCommand(t *testing.T) {

	tb := newTestBot(t)

	tb.handleMessage(textMessage(1, searchButton))

	require.NotNil(t, tb.userContexts[1])
	assert.Equal(t, searchCommandName, tb.userContexts[1].curCommandName)
}

func Test_Bot_UpstreamUnavailable_ShouldReportDistinctly(t *testing.T) {

	tb := newTestBot(t)
	tb.search.On("Search", mock.Anything, int64(1), "go").Return(nil, services.ErrUpstreamUnavailable).Once()

	tb.handleMessage(commandMessage(1, "/search go"))

	assert.Equal(t, "hh.ru сейчас недоступен, попробуйте позже.", tb.api.lastText())
}

func Test_Bot_PageCallback_WithoutQuery_ShouldUseLatestAndEditMessage(t *testing.T) {

	assert := assert.New(t)
	tb := newTestBot(t)
	tb.search.On("LatestQuery", mock.Anything, int64(1)).Return("golang", nil).Once()
	tb.search.On("GetPage", mock.Anything, int64(1), "golang", 1).Return(testPage("golang", 1, 2), nil).Once()

	tb.handleCallback(&botApi.CallbackQuery{
		ID:      "cb",
		From:    &botApi.User{ID: 1},
		Message: &botApi.Message{MessageID: 10, Chat: &botApi.Chat{ID: 1}},
		Data:    "page:1:",
	})

	tb.search.AssertExpectations(t)
	require.Len(t, tb.api.Requests, 2)
	edit, ok := tb.api.Requests[1].(botApi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(10, edit.MessageID)
	assert.Contains(edit.Text, "Страница 2 из 2")
}

func Test_Bot_DocumentSendWithoutCache_ShouldReportNotGenerated(t *testing.T) {

	tb := newTestBot(t)
	tb.documents.On("Resolve", mock.Anything, int64(1), uint(5), models.DocumentCV, services.ActionSend).
		Return("", services.ErrNoCachedDocument).Once()

	tb.handleCallback(&botApi.CallbackQuery{
		ID:      "cb",
		From:    &botApi.User{ID: 1},
		Message: &botApi.Message{MessageID: 10, Chat: &botApi.Chat{ID: 1}},
		Data:    documentCallback(models.DocumentCV, 5, services.ActionSend),
	})

	tb.documents.AssertExpectations(t)
	assert.Equal(t, documentErrorText(services.ErrNoCachedDocument), tb.api.lastText())
}

func Test_Bot_DocumentGenerate_ShouldSendTitledText(t *testing.T) {

	tb := newTestBot(t)
	tb.documents.On("Resolve", mock.Anything, int64(1), uint(5), models.DocumentCoverLetter, services.ActionGenerate).
		Return("Здравствуйте!", nil).Once()

	tb.handleCallback(&botApi.CallbackQuery{
		ID:      "cb",
		From:    &botApi.User{ID: 1},
		Message: &botApi.Message{MessageID: 10, Chat: &botApi.Chat{ID: 1}},
		Data:    documentCallback(models.DocumentCoverLetter, 5, services.ActionGenerate),
	})

	assert.Equal(t, "Сопроводительное письмо\n\nЗдравствуйте!", tb.api.lastText())
}

func Test_Bot_DocumentNotStored_ShouldSendTextAndWarning(t *testing.T) {

	assert := assert.New(t)
	tb := newTestBot(t)
	notStored := fmt.Errorf("%w: %w", services.ErrNotStored, errors.New("database is locked"))
	tb.documents.On("Resolve", mock.Anything, int64(1), uint(5), models.DocumentCV, services.ActionGenerate).
		Return("Резюме", notStored).Once()

	tb.handleCallback(&botApi.CallbackQuery{
		ID:      "cb",
		From:    &botApi.User{ID: 1},
		Message: &botApi.Message{MessageID: 10, Chat: &botApi.Chat{ID: 1}},
		Data:    documentCallback(models.DocumentCV, 5, services.ActionGenerate),
	})

	tb.api.mu.Lock()
	sent := len(tb.api.SentMessages)
	first := tb.api.SentMessages[0].(botApi.MessageConfig).Text
	tb.api.mu.Unlock()

	assert.Equal(2, sent)
	assert.Equal(documentTitle(models.DocumentCV)+"\n\nРезюме", first)
	assert.Equal(documentErrorText(notStored), tb.api.lastText())
}

func Test_Bot_DocumentErrors_ShouldBeDistinct(t *testing.T) {

	generation := documentErrorText(errors.Join(services.ErrGeneration, errors.New("timeout")))
	notGenerated := documentErrorText(services.ErrNoCachedDocument)
	empty := documentErrorText(services.ErrEmptyGeneration)
	notStored := documentErrorText(services.ErrNotStored)

	assert.NotEqual(t, generation, notGenerated)
	assert.NotEqual(t, generation, empty)
	assert.NotEqual(t, notGenerated, empty)
	assert.NotEqual(t, generation, notStored)
}

func Test_Bot_SaveAndLoadUserContexts_ShouldResumeRunningCommand(t *testing.T) {

	assert := assert.New(t)
	tb := newTestBot(t)

	tb.handleMessage(commandMessage(1, "/filters"))
	tb.handleMessage(textMessage(1, "100000"))
	tb.Stop()

	restarted, err := newBot(tb.api, tb.repositories, tb.services)
	require.NoError(t, err)
	require.NoError(t, restarted.loadUserContexts())

	for _, input := range []string{string(noExperience), anyScheduleAnswer, "3"} {
		restarted.handleMessage(textMessage(1, input))
	}

	filters := tb.users.Users[1].Filters
	require.NotNil(t, filters.MinSalary)
	assert.Equal(100000, *filters.MinSalary)
	assert.Equal(models.NoExperience, filters.Experience)
	assert.Equal(3, filters.FreshnessDays)
}

func Test_SplitMessage_ShouldKeepEveryRune(t *testing.T) {

	text := strings.Repeat("строка текста\n", 700)

	chunks := splitMessage(text)

	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), maxMessageLength)
	}
}
