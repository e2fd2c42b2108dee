package models

import (
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"testing"
)

func Test_User_SkillList_ShouldTrimAndDropEmpty(t *testing.T) {

	user := User{Skills: " Go, PostgreSQL,, Kafka ,"}

	assert.Equal(t, []string{"Go", "PostgreSQL", "Kafka"}, user.SkillList())
	assert.Empty(t, User{}.SkillList())
}

func Test_NormalizeAreaName_ShouldIgnoreCaseYoAndPunctuation(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(NormalizeAreaName("Санкт-Петербург"), NormalizeAreaName("санкт петербург"))
	assert.Equal(NormalizeAreaName("Орёл"), NormalizeAreaName("орел"))
	assert.Equal(NormalizeAreaName("Йошкар-Ола"), NormalizeAreaName("иошкар-ола"))
}

func Test_Vacancy_Fallbacks_ShouldApplyToNilAndEmpty(t *testing.T) {

	empty := ""
	title := "Go developer"
	vacancy := Vacancy{Title: &title, Company: &empty}

	assert.Equal(t, "Go developer", vacancy.TitleOr("-"))
	assert.Equal(t, "-", vacancy.CompanyOr("-"))
	assert.Equal(t, "-", vacancy.LocationOr("-"))
}

func Test_SearchFilters_Validation_ShouldRejectOutOfRangeValues(t *testing.T) {

	validate := validator.New()
	salary := -1

	assert.NoError(t, validate.Struct(SearchFilters{FreshnessDays: 30, Experience: Between3and6}))
	assert.Error(t, validate.Struct(SearchFilters{FreshnessDays: 31}))
	assert.Error(t, validate.Struct(SearchFilters{MinSalary: &salary}))
	assert.Error(t, validate.Struct(SearchFilters{Employment: "forever"}))
}

func Test_DocumentType_Valid_ShouldAcceptKnownTypesOnly(t *testing.T) {

	assert.True(t, DocumentCV.Valid())
	assert.True(t, DocumentCoverLetter.Valid())
	assert.False(t, DocumentType(0).Valid())
	assert.Equal(t, "cover_letter", DocumentCoverLetter.String())
}
