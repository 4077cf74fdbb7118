package core

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in URLs, forms and the API.
const DateLayout = "2006-01-02"

// Date is a calendar date. The wrapped time is midnight in the location the
// date was built in.
type Date struct {
	time.Time
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return NewDateIn(year, month, day, time.UTC)
}

// NewDateIn creates a Date at midnight in loc. Out-of-range days normalize the
// way time.Date does, so day 0 of a month is the last day of the previous one.
func NewDateIn(year, month, day int, loc *time.Location) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location())}
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp. For timestamps the
// calendar date as written is kept, without zone conversion.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, errors.New("empty date")
	}
	if len(s) > len(DateLayout) {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			y, m, d := ts.Date()
			return NewDate(y, int(m), d), nil
		}
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String returns YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	y, m, day := d.Date()
	return Date{Time: time.Date(y, m, day+n, 0, 0, 0, 0, d.Location())}
}

// Before reports whether d is an earlier calendar day than o.
func (d Date) Before(o Date) bool { return d.String() < o.String() }

// After reports whether d is a later calendar day than o.
func (d Date) After(o Date) bool { return d.String() > o.String() }

// SameDay compares calendar dates ignoring location.
func (d Date) SameDay(o Date) bool { return d.String() == o.String() }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.String())), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
