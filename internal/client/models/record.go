// Package models defines the blog's content types as the store returns them.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Store timestamp layouts.
const (
	DateTimeLayout = "2006-01-02 15:04:05.000Z"
	DateLayout     = "2006-01-02"
)

var dateLayouts = []string{DateTimeLayout, "2006-01-02 15:04:05Z", "2006-01-02 15:04:05", time.RFC3339Nano, DateLayout}

func parseStoreTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", s)
}

// Record carries the system fields every stored record has.
type Record struct {
	ID             string   `json:"id"`
	CollectionID   string   `json:"collectionId"`
	CollectionName string   `json:"collectionName"`
	Created        DateTime `json:"created"`
	Updated        DateTime `json:"updated"`
}

// DateTime is a store timestamp. An empty string decodes to the zero time.
type DateTime struct {
	time.Time
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(d.UTC().Format(DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseStoreTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Date is a calendar date, sent to the store as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD and the store's timestamp forms.
func ParseDate(s string) (Date, error) {
	t, err := parseStoreTime(strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
