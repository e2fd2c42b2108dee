package hh

import (
	"fmt"
	"github.com/pkg/errors"
	"net/url"
	"strconv"
	"time"
)

var ErrTooDeepPagination = errors.New("too deep pagination")

// maxResults is the deepest item the api returns for one query.
const maxResults = 2000

type Experience string

const (
	NoExperience Experience = "noExperience"
	Between1and3 Experience = "between1And3"
	Between3and6 Experience = "between3And6"
	MoreThan6    Experience = "moreThan6"
)

type Schedule string

const (
	FullDay  Schedule = "fullDay"
	Flexible Schedule = "flexible"
	Remote   Schedule = "remote"
)

type Employment string

type SearchParameters struct {
	Text                   string
	NameOnly               bool
	AreaID                 string
	Experience             Experience
	Employment             Employment
	Schedules              []Schedule
	MinSalary              *int
	OrderByPublicationTime bool
	DateFrom               time.Time
	Period                 int
	Page                   int
	PerPage                int
}

func (s SearchParameters) Validate() error {

	if s.Period != 0 && !s.DateFrom.IsZero() {
		return fmt.Errorf("can't use both period and dateFrom")
	}

	if s.Page < 0 {
		return fmt.Errorf("page must be non-negative")
	}

	if s.PerPage < 1 || s.PerPage > 100 {
		return fmt.Errorf("per page must be between 1 and 100")
	}

	if s.MinSalary != nil && *s.MinSalary <= 0 {
		return fmt.Errorf("min salary must be positive")
	}

	if (s.Page+1)*s.PerPage > maxResults {
		return ErrTooDeepPagination
	}

	return nil
}

func (s SearchParameters) ToUrlParams() url.Values {

	params := url.Values{}

	text := s.Text
	if s.NameOnly && text != "" {
		text = "name:" + text
	}
	params.Add("text", text)

	if s.Experience != "" {
		params.Add("experience", string(s.Experience))
	}
	if s.Employment != "" {
		params.Add("employment", string(s.Employment))
	}
	for _, schedule := range s.Schedules {
		params.Add("schedule", string(schedule))
	}

	if s.AreaID != "" {
		params.Add("area", s.AreaID)
	}

	if s.MinSalary != nil {
		params.Add("salary", strconv.Itoa(*s.MinSalary))
		params.Add("only_with_salary", "true")
	}

	params.Add("page", strconv.Itoa(s.Page))
	params.Add("per_page", strconv.Itoa(s.PerPage))

	if s.OrderByPublicationTime {
		params.Add("order_by", "publication_time")
	}

	if s.Period != 0 {
		params.Add("period", strconv.Itoa(s.Period))
	}

	if !s.DateFrom.IsZero() {
		params.Add("date_from", s.DateFrom.Format(timeLayout))
	}

	return params
}
