package models

import "time"

// Vacancy is the canonical record of one upstream listing. One row per ExternalID.
// Nil fields were absent upstream.
type Vacancy struct {
	ID             uint   `gorm:"primaryKey"`
	ExternalID     string `gorm:"uniqueIndex;not null"`
	Title          *string
	Company        *string
	Location       *string
	SalaryFrom     *int
	SalaryTo       *int
	SalaryCurrency *string
	Description    *string
	Requirements   *string
	EmploymentType *string
	Experience     *string
	Schedule       *string
	Url            *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (v Vacancy) TitleOr(fallback string) string {
	return valueOr(v.Title, fallback)
}

func (v Vacancy) CompanyOr(fallback string) string {
	return valueOr(v.Company, fallback)
}

func (v Vacancy) LocationOr(fallback string) string {
	return valueOr(v.Location, fallback)
}

func valueOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
