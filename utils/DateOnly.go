package utils

import (
	"encoding/json"
	"strings"
	"time"
)

const dateOnlyLayout = "2006-01-02"

// DateOnly is a calendar date exchanged as "2006-01-02" in JSON.
type DateOnly time.Time

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "" || s == "null" {
		*d = DateOnly(time.Time{})
		return nil
	}
	t, err := time.Parse(dateOnlyLayout, s)
	if err != nil {
		return err
	}
	*d = DateOnly(t)
	return nil
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d).Format(dateOnlyLayout))
}

func (d DateOnly) Time() time.Time {
	return time.Time(d)
}

func (d DateOnly) IsZero() bool {
	return time.Time(d).IsZero()
}

// ParseDateOnly parses a "2006-01-02" query value.
func ParseDateOnly(value string) (time.Time, error) {
	return time.Parse(dateOnlyLayout, strings.TrimSpace(value))
}
