// Package daterange turns named range presets into concrete calendar ranges.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"opsdesk/internal/core"
)

type Preset string

const (
	Today     Preset = "today"
	ThisWeek  Preset = "thisWeek"
	ThisMonth Preset = "thisMonth"
	Custom    Preset = "custom"
)

var (
	ErrUnknownPreset   = errors.New("unknown date range preset")
	ErrInvertedRange   = errors.New("start date is after end date")
	ErrIncompleteRange = errors.New("custom range needs both start and end")
)

// Range is an inclusive span of calendar dates.
type Range struct {
	Start core.Date
	End   core.Date
}

// Presets lists the canonical presets in display order.
func Presets() []Preset {
	return []Preset{Today, ThisWeek, ThisMonth, Custom}
}

// ParsePreset accepts canonical camelCase names and their snake_case aliases.
func ParsePreset(s string) (Preset, error) {
	switch strings.TrimSpace(s) {
	case "today":
		return Today, nil
	case "thisWeek", "this_week":
		return ThisWeek, nil
	case "thisMonth", "this_month":
		return ThisMonth, nil
	case "custom":
		return Custom, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Label is the human-readable name of the preset.
func (p Preset) Label() string {
	switch p {
	case Today:
		return "Today"
	case ThisWeek:
		return "This week"
	case ThisMonth:
		return "This month"
	case Custom:
		return "Custom"
	}
	return string(p)
}

// Resolve computes the range for preset relative to anchor. Dates are
// calendar days in anchor's location. For Custom the caller's range is
// returned unchanged once it is complete and ordered.
func Resolve(p Preset, anchor time.Time, custom Range) (Range, error) {
	today := core.DateOf(anchor)
	switch p {
	case Today:
		return Range{Start: today, End: today}, nil
	case ThisWeek:
		// Monday-based offset: Sunday (0) maps to 6, Monday (1) to 0.
		offset := (int(anchor.Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return Range{Start: start, End: start.AddDays(6)}, nil
	case ThisMonth:
		y, m, _ := anchor.Date()
		loc := anchor.Location()
		return Range{
			Start: core.NewDateIn(y, int(m), 1, loc),
			End:   core.NewDateIn(y, int(m)+1, 0, loc),
		}, nil
	case Custom:
		if err := custom.Validate(); err != nil {
			return Range{}, err
		}
		return custom, nil
	}
	return Range{}, fmt.Errorf("%w: %q", ErrUnknownPreset, string(p))
}

// Validate checks that both bounds are set and start <= end.
func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrIncompleteRange
	}
	if r.Start.After(r.End) {
		return ErrInvertedRange
	}
	return nil
}

// Contains reports whether d falls within the range, bounds included.
func (r Range) Contains(d core.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days is the number of calendar days covered.
func (r Range) Days() int {
	if r.Start.IsZero() || r.End.IsZero() {
		return 0
	}
	n := 0
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		n++
	}
	return n
}

// String renders "start to end", or a single date for one-day ranges.
func (r Range) String() string {
	if r.Start.SameDay(r.End) {
		return r.Start.String()
	}
	return r.Start.String() + " to " + r.End.String()
}
