package services

import (
	"github.com/maxaizer/hh-search-bot/internal/clients/hh"
	"github.com/maxaizer/hh-search-bot/internal/domain/models"
	"regexp"
	"strings"
)

// notAvailable is the upstream placeholder for a missing value.
const notAvailable = "N/A"

var highlightTags = regexp.MustCompile(`</?highlighttext>`)

// ExtractVacancy converts an upstream listing into the canonical record. Absent, blank and "N/A" values become nil.
func ExtractVacancy(vacancy hh.Vacancy) models.Vacancy {

	employer, _ := vacancy.Employer.Get()
	area, _ := vacancy.Area.Get()
	snippet, _ := vacancy.Snippet.Get()
	salary, _ := vacancy.Salary.Get()
	employment, _ := vacancy.Employment.Get()
	experience, _ := vacancy.Experience.Get()
	schedule, _ := vacancy.Schedule.Get()

	return models.Vacancy{
		ExternalID:     strings.TrimSpace(vacancy.ID.String()),
		Title:          optionalText(vacancy.Name),
		Company:        optionalText(employer.Name),
		Location:       optionalText(area.Name),
		Url:            optionalText(vacancy.AlternateURL),
		Description:    optionalText(snippet.Requirement),
		Requirements:   optionalText(snippet.Responsibility),
		SalaryFrom:     salary.From.Ptr(),
		SalaryTo:       salary.To.Ptr(),
		SalaryCurrency: optionalText(salary.Currency),
		EmploymentType: refID(employment),
		Experience:     refID(experience),
		Schedule:       refID(schedule),
	}
}

func optionalText(value hh.Optional[string]) *string {
	str, ok := value.Get()
	if !ok {
		return nil
	}
	return normalize(highlightTags.ReplaceAllString(str, ""))
}

func refID(ref hh.NamedRef) *string {
	value, ok := ref.ID.Get()
	if !ok {
		return nil
	}
	return normalize(value.String())
}

func normalize(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" || value == notAvailable {
		return nil
	}
	return &value
}
