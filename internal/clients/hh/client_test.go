package hh

import (
	"bytes"
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"os"
	"testing"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func fileResponse(path string) (*http.Response, error) {
	file, err := os.ReadFile(path)

	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBuffer(file)),
	}, err
}

func Test_HHClient_SearchVacancies_ShouldDecodeLeniently(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://api.hh.ru/vacancies?area=1&experience=between1And3&"+
			"only_with_salary=true&page=0&per_page=100&salary=100000&schedule=remote&text=name%3Agolang" &&
			req.Header.Get("HH-User-Agent") == "test-agent"
	})).Return(fileResponse("testdata/search_vacancies.json"))

	client := NewClient()
	client.SetHTTPClient(mockClient)
	client.SetUserAgent("test-agent")

	salary := 100000
	page, err := client.SearchVacancies(context.Background(), SearchParameters{
		Text:       "golang",
		NameOnly:   true,
		AreaID:     "1",
		Experience: Between1and3,
		Schedules:  []Schedule{Remote},
		MinSalary:  &salary,
		PerPage:    100,
	})
	require.NoError(err)

	assert.Equal(250, page.Found)
	assert.Equal(3, page.Pages)
	require.Len(page.Items, 3)

	first := page.Items[0]
	assert.Equal(FlexibleID("107958774"), first.ID)
	assert.Equal("Яндекс", first.Employer.Value.Name.Value)
	assert.Equal(120000, *first.Salary.Value.From.Ptr())
	assert.True(first.PublishedAt.Valid)

	second := page.Items[1]
	assert.Equal(FlexibleID("108122273"), second.ID)
	assert.False(second.Employer.Valid)
	assert.False(second.Salary.Valid)
	assert.False(second.Experience.Valid)
	assert.False(second.Schedule.Valid)
	assert.False(second.PublishedAt.Valid)
	assert.Equal(FlexibleID("2"), second.Area.Value.ID.Value)
	assert.False(second.Snippet.Value.Requirement.Valid)

	assert.Equal(FlexibleID("108444291"), page.Items[2].ID)
	assert.False(page.Items[2].Snippet.Valid)
}

func Test_HHClient_SearchVacancies_WhenStatusNotOK_ShouldReturnStatusError(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(&http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(bytes.NewBufferString("bad gateway")),
	}, nil)

	client := NewClient()
	client.SetHTTPClient(mockClient)

	_, err := client.SearchVacancies(context.Background(), SearchParameters{Text: "go", PerPage: 10})

	var statusErr *StatusError
	assert.ErrorAs(err, &statusErr)
	assert.Equal(http.StatusBadGateway, statusErr.StatusCode)
}

func Test_HHClient_SearchVacancies_TooDeepPage_ShouldFailWithoutRequest(t *testing.T) {

	mockClient := &mockHTTPClient{}
	client := NewClient()
	client.SetHTTPClient(mockClient)

	_, err := client.SearchVacancies(context.Background(), SearchParameters{Text: "go", Page: 20, PerPage: 100})

	assert.ErrorIs(t, err, ErrTooDeepPagination)
	mockClient.AssertNotCalled(t, "Do", mock.Anything)
}

func Test_HHClient_GetAreas_ShouldDecodeTree(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://api.hh.ru/areas"
	})).Return(fileResponse("testdata/areas.json"))

	client := NewClient()
	client.SetHTTPClient(mockClient)

	areas, err := client.GetAreas(context.Background())
	assert.NoError(err)
	assert.Len(areas, 2)
	assert.Len(areas[0].Areas, 3)
	assert.Len(FlattenAreas(areas), 7)
}

func Test_SearchParameters_ToUrlParams_WithoutOptionalFilters_ShouldOmitThem(t *testing.T) {

	params := SearchParameters{Text: "golang", Page: 1, PerPage: 20}.ToUrlParams()

	assert.Equal(t, "page=1&per_page=20&text=golang", params.Encode())
}
