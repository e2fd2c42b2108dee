package services

import (
	"fmt"
	"github.com/maxaizer/hh-search-bot/internal/clients/llm"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"regexp"
	"strings"
)

func documentMessages(docType models.DocumentType, user models.User, vacancy models.Vacancy) []llm.Message {

	var system string
	switch docType {
	case models.DocumentCoverLetter:
		system = "Ты помогаешь соискателю откликнуться на вакансию. Напиши короткое сопроводительное письмо " +
			"на русском языке: 3-5 абзацев, без markdown, без заголовков и без подписи с контактами. " +
			"Опирайся только на опыт из резюме, ничего не выдумывай."
	default:
		system = "Ты карьерный консультант. Адаптируй резюме соискателя под вакансию: выдели релевантный опыт " +
			"и навыки, сохрани факты из исходного резюме и ничего не выдумывай. Ответ на русском языке, " +
			"простой текст с короткими разделами."
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: documentRequest(user, vacancy)},
	}
}

func documentRequest(user models.User, vacancy models.Vacancy) string {

	var request strings.Builder

	request.WriteString("Вакансия: " + vacancy.TitleOr("без названия") + "\n")
	request.WriteString("Компания: " + vacancy.CompanyOr("не указана") + "\n")
	request.WriteString("Город: " + vacancy.LocationOr("не указан") + "\n")
	if salary := formatSalary(vacancy); salary != "" {
		request.WriteString("Зарплата: " + salary + "\n")
	}
	writeOptional(&request, "Описание", vacancy.Description)
	writeOptional(&request, "Обязанности", vacancy.Requirements)
	writeOptional(&request, "Опыт", vacancy.Experience)
	writeOptional(&request, "Занятость", vacancy.EmploymentType)

	request.WriteString("\nРезюме соискателя:\n")
	if resume := strings.TrimSpace(user.Resume); resume != "" {
		request.WriteString(resume + "\n")
	} else {
		request.WriteString("не заполнено\n")
	}

	if skills := user.SkillList(); len(skills) > 0 {
		request.WriteString("Навыки: " + strings.Join(skills, ", ") + "\n")
	}

	if prompt := strings.TrimSpace(user.Prompt); prompt != "" {
		request.WriteString("\nДополнительные пожелания соискателя: " + prompt + "\n")
	}

	return request.String()
}

func writeOptional(request *strings.Builder, label string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	request.WriteString(label + ": " + strings.TrimSpace(*value) + "\n")
}

func formatSalary(vacancy models.Vacancy) string {

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

var (
	codeFenceRegex  = regexp.MustCompile("(?m)^\\s*```[a-zA-Z]*\\s*$")
	headingRegex    = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	emphasisRegex   = regexp.MustCompile(`\*\*|__`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// sanitizeCoverLetter strips markdown a model tends to add to plain text letters.
func sanitizeCoverLetter(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = codeFenceRegex.ReplaceAllString(text, "")
	text = headingRegex.ReplaceAllString(text, "")
	text = emphasisRegex.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	text = strings.Join(lines, "\n")

	text = blankLinesRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
