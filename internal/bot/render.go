package bot

import (
	"fmt"
	botApi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"github.com/maxaizer/hh-search-bot/internal/pagination"
	"github.com/maxaizer/hh-search-bot/internal/services"
	"github.com/samber/lo"
	"strconv"
	"strings"
)

const (
	maxMessageLength      = 4000
	vacancyButtonsPerRow  = 4
	maxDetailsFieldLength = 1500
)

func searchPageText(page *services.SearchPage) string {

	var text strings.Builder
	fmt.Fprintf(&text, "Результаты по запросу \"%s\": найдено %d, загружено %d.\n", page.Query, page.TotalFound, page.Fetched)
	if page.Partial {
		text.WriteString("⚠️ hh.ru ответил не на все запросы, список может быть неполным.\n")
	}
	if !page.Stored {
		text.WriteString("⚠️ Не удалось сохранить результаты, листание страниц недоступно.\n")
	}
	fmt.Fprintf(&text, "Страница %d из %d\n\n", page.Page+1, page.TotalPages)

	for i, vacancy := range page.Items {
		fmt.Fprintf(&text, "%d. %s\n", page.Offset+i+1, vacancyHeadline(vacancy))
	}
	return text.String()
}

func vacancyHeadline(vacancy models.Vacancy) string {
	line := vacancy.TitleOr("Без названия") + " - " + vacancy.CompanyOr("компания не указана")
	if location := vacancy.LocationOr(""); location != "" {
		line += ", " + location
	}
	if salary := salaryText(vacancy); salary != "" {
		line += ", " + salary
	}
	return line
}

func searchPageKeyboard(page *services.SearchPage) botApi.InlineKeyboardMarkup {

	var rows [][]botApi.InlineKeyboardButton

	var buttons []botApi.InlineKeyboardButton
	for i, vacancy := range page.Items {
		if vacancy.ID == 0 {
			continue
		}
		number := strconv.Itoa(page.Offset + i + 1)
		buttons = append(buttons, botApi.NewInlineKeyboardButtonData(number, vacancyCallback(vacancy.ID)))
	}
	rows = append(rows, lo.Chunk(buttons, vacancyButtonsPerRow)...)

	if page.Stored && page.TotalPages > 1 {
		rows = append(rows, paginationRow(page.Layout, page.Query))
	}

	return botApi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func paginationRow(layout []pagination.Button, query string) []botApi.InlineKeyboardButton {
	return lo.Map(layout, func(button pagination.Button, _ int) botApi.InlineKeyboardButton {
		data := noopCallbackData
		if button.Kind != pagination.KindEllipsis && !button.Current {
			data = pageCallback(button.Page, query)
		}
		return botApi.NewInlineKeyboardButtonData(button.Label(), data)
	})
}

func vacancyText(vacancy models.Vacancy) string {

	var text strings.Builder
	text.WriteString(vacancy.TitleOr("Без названия") + "\n")
	text.WriteString("Компания: " + vacancy.CompanyOr("не указана") + "\n")
	text.WriteString("Город: " + vacancy.LocationOr("не указан") + "\n")
	if salary := salaryText(vacancy); salary != "" {
		text.WriteString("Зарплата: " + salary + "\n")
	}
	writeField(&text, "Опыт", vacancy.Experience)
	writeField(&text, "Занятость", vacancy.EmploymentType)
	writeField(&text, "График", vacancy.Schedule)
	writeField(&text, "Требования", vacancy.Description)
	writeField(&text, "Обязанности", vacancy.Requirements)
	return text.String()
}

func writeField(text *strings.Builder, label string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	field := []rune(strings.TrimSpace(*value))
	if len(field) > maxDetailsFieldLength {
		field = append(field[:maxDetailsFieldLength], '…')
	}
	text.WriteString("\n" + label + ": " + string(field) + "\n")
}

func salaryText(vacancy models.Vacancy) string {

	currency := ""
	if vacancy.SalaryCurrency != nil {
		currency = " " + *vacancy.SalaryCurrency
	}

	switch {
	case vacancy.SalaryFrom != nil && vacancy.SalaryTo != nil:
		return fmt.Sprintf("%d-%d%s", *vacancy.SalaryFrom, *vacancy.SalaryTo, currency)
	case vacancy.SalaryFrom != nil:
		return fmt.Sprintf("от %d%s", *vacancy.SalaryFrom, currency)
	case vacancy.SalaryTo != nil:
		return fmt.Sprintf("до %d%s", *vacancy.SalaryTo, currency)
	}
	return ""
}

func vacancyKeyboard(vacancy models.Vacancy) botApi.InlineKeyboardMarkup {

	rows := [][]botApi.InlineKeyboardButton{
		botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData("📄 Резюме", documentCallback(models.DocumentCV, vacancy.ID, services.ActionGenerate)),
			botApi.NewInlineKeyboardButtonData("✉️ Письмо", documentCallback(models.DocumentCoverLetter, vacancy.ID, services.ActionGenerate)),
		),
		botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData("🔄 Резюме", documentCallback(models.DocumentCV, vacancy.ID, services.ActionRegenerate)),
			botApi.NewInlineKeyboardButtonData("🔄 Письмо", documentCallback(models.DocumentCoverLetter, vacancy.ID, services.ActionRegenerate)),
		),
		botApi.NewInlineKeyboardRow(
			botApi.NewInlineKeyboardButtonData("📤 Резюме", documentCallback(models.DocumentCV, vacancy.ID, services.ActionSend)),
			botApi.NewInlineKeyboardButtonData("📤 Письмо", documentCallback(models.DocumentCoverLetter, vacancy.ID, services.ActionSend)),
		),
	}

	if vacancy.Url != nil && *vacancy.Url != "" {
		rows = append(rows, botApi.NewInlineKeyboardRow(botApi.NewInlineKeyboardButtonURL("Открыть на hh.ru", *vacancy.Url)))
	}
	return botApi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func documentTitle(docType models.DocumentType) string {
	if docType == models.DocumentCoverLetter {
		return "Сопроводительное письмо"
	}
	return "Резюме"
}

func profileText(user models.User) string {

	var text strings.Builder
	text.WriteString("Ваш профиль\n\n")
	text.WriteString("Резюме: " + lo.Ternary(user.Resume == "", "не заполнено", "заполнено") + "\n")
	text.WriteString("Навыки: " + lo.Ternary(len(user.SkillList()) == 0, "не указаны", strings.Join(user.SkillList(), ", ")) + "\n")
	text.WriteString("Пожелания к документам: " + lo.Ternary(user.Prompt == "", "нет", user.Prompt) + "\n")
	text.WriteString("Регион: " + lo.Ternary(user.AreaID == "", "любой", user.AreaID) + "\n")
	text.WriteString("Модель: " + lo.Ternary(user.LLMModel == "", "по умолчанию", user.LLMModel) + "\n")
	text.WriteString("\nФильтры: " + filtersToText(user.Filters) + "\n")
	text.WriteString("\n/resume /skills /prompt /city /filters /llm")
	return text.String()
}

func filtersToText(filters models.SearchFilters) string {

	parts := []string{experienceToText(filters.Experience)}
	if filters.MinSalary != nil {
		parts = append(parts, fmt.Sprintf("зарплата от %d", *filters.MinSalary))
	}
	if filters.RemoteOnly {
		parts = append(parts, "только удалёнка")
	}
	if filters.FreshnessDays > 0 {
		parts = append(parts, fmt.Sprintf("за последние %d дн.", filters.FreshnessDays))
	}
	if filters.Employment != "" {
		parts = append(parts, "занятость: "+string(filters.Employment))
	}
	return strings.Join(parts, ", ")
}

// splitMessage cuts text into chunks Telegram accepts, preferring line breaks.
func splitMessage(text string) []string {

	runes := []rune(text)
	var chunks []string
	for len(runes) > maxMessageLength {
		cut := maxMessageLength
		if i := lastIndexOf(runes[:maxMessageLength], '\n'); i > maxMessageLength/2 {
			cut = i + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func lastIndexOf(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
