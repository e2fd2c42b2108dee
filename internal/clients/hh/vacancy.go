package hh

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const timeLayout = "2006-01-02T15:04:05-0700"

// Vacancy is one listing as returned by the search endpoint. Nested fields are decoded leniently:
// a missing, null or malformed field leaves the Optional unset instead of failing the whole item.
type Vacancy struct {
	ID           FlexibleID           `json:"id"`
	Name         Optional[string]     `json:"name"`
	AlternateURL Optional[string]     `json:"alternate_url"`
	Employer     Optional[NamedRef]   `json:"employer"`
	Area         Optional[NamedRef]   `json:"area"`
	Snippet      Optional[Snippet]    `json:"snippet"`
	Salary       Optional[Salary]     `json:"salary"`
	Employment   Optional[NamedRef]   `json:"employment"`
	Experience   Optional[NamedRef]   `json:"experience"`
	Schedule     Optional[NamedRef]   `json:"schedule"`
	PublishedAt  Optional[CustomTime] `json:"published_at"`
	Description  Optional[string]     `json:"description"`
	KeySkills    Optional[[]KeySkill] `json:"key_skills"`
}

type NamedRef struct {
	ID   Optional[FlexibleID] `json:"id"`
	Name Optional[string]     `json:"name"`
}

type Snippet struct {
	Requirement    Optional[string] `json:"requirement"`
	Responsibility Optional[string] `json:"responsibility"`
}

type Salary struct {
	From     Optional[int]    `json:"from"`
	To       Optional[int]    `json:"to"`
	Currency Optional[string] `json:"currency"`
}

type KeySkill struct {
	Name string `json:"name"`
}

type Optional[T any] struct {
	Value T
	Valid bool
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	var zero T
	o.Value, o.Valid = zero, false

	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}

	var value T
	if err := json.Unmarshal(b, &value); err != nil {
		return nil
	}

	o.Value, o.Valid = value, true
	return nil
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// Ptr returns nil for an unset value.
func (o Optional[T]) Ptr() *T {
	if !o.Valid {
		return nil
	}
	value := o.Value
	return &value
}

// FlexibleID accepts both string and numeric ids.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*id = FlexibleID(str)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(b, &number); err != nil {
		return fmt.Errorf("id must be a string or a number: %s", string(b))
	}
	if _, err := strconv.ParseInt(number.String(), 10, 64); err != nil {
		return fmt.Errorf("id must be an integer: %s", number)
	}
	*id = FlexibleID(number.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}

type CustomTime struct {
	time.Time
}

func (dt *CustomTime) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}

	t, err := time.Parse(timeLayout, str)
	if err != nil {
		return fmt.Errorf("parsing time %s: %v", str, err)
	}
	dt.Time = t
	return nil
}
