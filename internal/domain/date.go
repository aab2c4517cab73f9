package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02"}

// ParseDate accepts an RFC 3339 timestamp or a bare calendar date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", value)
}

// Date is a client-supplied date such as a birth date or a departure. It
// decodes from either layout ParseDate accepts and encodes as RFC 3339.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	t, err := ParseDate(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}
