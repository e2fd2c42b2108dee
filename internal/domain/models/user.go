package models

import (
	"github.com/samber/lo"
	"strings"
)

type Experience string

const (
	NoExperience Experience = "noExperience"
	Between1and3 Experience = "between1And3"
	Between3and6 Experience = "between3And6"
	MoreThan6    Experience = "moreThan6"
)

type Employment string

const (
	FullEmployment Employment = "full"
	PartEmployment Employment = "part"
	ProjectWork    Employment = "project"
	Internship     Employment = "probation"
)

// SearchFilters are applied to every search of the user.
type SearchFilters struct {
	MinSalary     *int       `validate:"omitempty,gt=0"`
	RemoteOnly    bool
	FreshnessDays int        `validate:"gte=0,lte=30"`
	Employment    Employment `validate:"omitempty,oneof=full part project probation volunteer"`
	Experience    Experience `validate:"omitempty,oneof=noExperience between1And3 between3And6 moreThan6"`
}

// User is keyed by the telegram user id.
type User struct {
	ID         int64 `gorm:"primaryKey;autoIncrement:false"`
	Resume     string
	Skills     string
	Prompt     string
	AreaID     string
	LLMModel   string
	LLMBaseURL string
	LLMAPIKey  string
	Filters    SearchFilters `gorm:"embedded;embeddedPrefix:filter_"`
}

func (u User) SkillList() []string {
	skills := lo.Map(strings.Split(u.Skills, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Compact(skills)
}
