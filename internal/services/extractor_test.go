package services

import (
	"encoding/json"
	"github.com/maxaizer/hh-search-bot/internal/clients/hh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func decodeVacancy(t *testing.T, payload string) hh.Vacancy {
	var vacancy hh.Vacancy
	require.NoError(t, json.Unmarshal([]byte(payload), &vacancy))
	return vacancy
}

func Test_ExtractVacancy_FullPayload_ShouldMapAllFields(t *testing.T) {

	assert := assert.New(t)

	vacancy := ExtractVacancy(decodeVacancy(t, `{
		"id": "107958774",
		"name": "Golang developer",
		"alternate_url": "https://hh.ru/vacancy/107958774",
		"employer": {"name": "Яндекс"},
		"area": {"name": "Москва"},
		"snippet": {"requirement": "Знание <highlighttext>Go</highlighttext>", "responsibility": "Писать код"},
		"salary": {"from": 100000, "to": 200000, "currency": "RUR"},
		"employment": {"id": "full"},
		"experience": {"id": "between1And3"},
		"schedule": {"id": "remote"}
	}`))

	assert.Equal("107958774", vacancy.ExternalID)
	assert.Equal("Golang developer", *vacancy.Title)
	assert.Equal("Яндекс", *vacancy.Company)
	assert.Equal("Москва", *vacancy.Location)
	assert.Equal("https://hh.ru/vacancy/107958774", *vacancy.Url)
	assert.Equal("Знание Go", *vacancy.Description)
	assert.Equal("Писать код", *vacancy.Requirements)
	assert.Equal(100000, *vacancy.SalaryFrom)
	assert.Equal(200000, *vacancy.SalaryTo)
	assert.Equal("RUR", *vacancy.SalaryCurrency)
	assert.Equal("full", *vacancy.EmploymentType)
	assert.Equal("between1And3", *vacancy.Experience)
	assert.Equal("remote", *vacancy.Schedule)
}

func Test_ExtractVacancy_MissingAndSentinelFields_ShouldBeNil(t *testing.T) {

	assert := assert.New(t)

	vacancy := ExtractVacancy(decodeVacancy(t, `{
		"id": 42,
		"name": "N/A",
		"employer": null,
		"area": "Москва",
		"snippet": {"requirement": "  ", "responsibility": null},
		"salary": {"from": null, "to": 150000, "currency": "N/A"},
		"experience": {"name": "Без опыта"}
	}`))

	assert.Equal("42", vacancy.ExternalID)
	assert.Nil(vacancy.Title)
	assert.Nil(vacancy.Company)
	assert.Nil(vacancy.Location)
	assert.Nil(vacancy.Url)
	assert.Nil(vacancy.Description)
	assert.Nil(vacancy.Requirements)
	assert.Nil(vacancy.SalaryFrom)
	assert.Equal(150000, *vacancy.SalaryTo)
	assert.Nil(vacancy.SalaryCurrency)
	assert.Nil(vacancy.EmploymentType)
	assert.Nil(vacancy.Experience)
	assert.Nil(vacancy.Schedule)
}

func Test_ExtractVacancy_EmptyPayload_ShouldNotPanic(t *testing.T) {

	vacancy := ExtractVacancy(hh.Vacancy{})

	assert.Empty(t, vacancy.ExternalID)
	assert.Nil(t, vacancy.Title)
}
