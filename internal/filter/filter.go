// Package filter is the URL view state of list pages. A ListFilter parses from
// and encodes to query parameters so filtered pages are bookmarkable and
// survive back navigation.
package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
)

// Query parameter names.
const (
	ParamPreset        = "range"
	ParamStart         = "start"
	ParamEnd           = "end"
	ParamStatus        = "status"
	ParamCategory      = "category"
	ParamPaymentType   = "paymentType"
	ParamChecklistType = "checklistType"
	ParamPage          = "page"
)

// ListFilter holds every filter a list page may use. Pages ignore fields that
// do not apply to them. Page is 1-based.
type ListFilter struct {
	Preset        daterange.Preset
	Start         core.Date
	End           core.Date
	Status        string
	Category      string
	PaymentType   string
	ChecklistType string
	Page          int
}

// Parse reads a filter from query values. It never fails: unknown presets
// are dropped, malformed dates are dropped and invalid pages become 1.
func Parse(v url.Values) ListFilter {
	f := ListFilter{Page: 1}
	if p, err := daterange.ParsePreset(v.Get(ParamPreset)); err == nil {
		f.Preset = p
	}
	if d, ok := parseDay(v.Get(ParamStart)); ok {
		f.Start = d
	}
	if d, ok := parseDay(v.Get(ParamEnd)); ok {
		f.End = d
	}
	f.Status = strings.TrimSpace(v.Get(ParamStatus))
	f.Category = strings.TrimSpace(v.Get(ParamCategory))
	f.PaymentType = strings.TrimSpace(v.Get(ParamPaymentType))
	f.ChecklistType = strings.TrimSpace(v.Get(ParamChecklistType))
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(ParamPage))); err == nil && n > 0 {
		f.Page = n
	}
	return f
}

// parseDay only accepts YYYY-MM-DD; timestamps are not valid view state.
func parseDay(s string) (core.Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) != len(core.DateLayout) {
		return core.Date{}, false
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, false
	}
	return d, true
}

// Encode writes non-empty fields. Page 1 is the default and is omitted.
func (f ListFilter) Encode() url.Values {
	v := url.Values{}
	if f.Preset != "" {
		v.Set(ParamPreset, string(f.Preset))
	}
	if !f.Start.IsZero() {
		v.Set(ParamStart, f.Start.String())
	}
	if !f.End.IsZero() {
		v.Set(ParamEnd, f.End.String())
	}
	setIf(v, ParamStatus, f.Status)
	setIf(v, ParamCategory, f.Category)
	setIf(v, ParamPaymentType, f.PaymentType)
	setIf(v, ParamChecklistType, f.ChecklistType)
	if f.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(f.Page))
	}
	return v
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// QueryString is Encode as a "?..." suffix, or "" when the filter is empty.
func (f ListFilter) QueryString() string {
	enc := f.Encode().Encode()
	if enc == "" {
		return ""
	}
	return "?" + enc
}

// WithPage returns a copy pointing at page n (minimum 1).
func (f ListFilter) WithPage(n int) ListFilter {
	if n < 1 {
		n = 1
	}
	f.Page = n
	return f
}

// WithPreset returns a copy with the preset replaced. Custom bounds are kept
// only for the custom preset.
func (f ListFilter) WithPreset(p daterange.Preset) ListFilter {
	f.Preset = p
	if p != daterange.Custom {
		f.Start, f.End = core.Date{}, core.Date{}
	}
	f.Page = 1
	return f
}

// Normalize drops custom bounds that the preset does not use and clamps the
// page. Parse(f.Normalize().Encode()) == f.Normalize() for any f whose dates
// are calendar days in UTC.
func (f ListFilter) Normalize() ListFilter {
	if f.Preset != daterange.Custom && f.Preset != "" {
		f.Start, f.End = core.Date{}, core.Date{}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

// HasRange reports whether the filter restricts dates.
func (f ListFilter) HasRange() bool {
	return f.Preset != "" || (!f.Start.IsZero() && !f.End.IsZero())
}

// Resolve turns the preset into a concrete range anchored at now. With no
// preset but explicit bounds, the bounds are treated as a custom range.
// With neither, def is used.
func (f ListFilter) Resolve(now time.Time, def daterange.Preset) (daterange.Range, error) {
	preset := f.Preset
	if preset == "" {
		if !f.Start.IsZero() || !f.End.IsZero() {
			preset = daterange.Custom
		} else {
			preset = def
		}
	}
	return daterange.Resolve(preset, now, daterange.Range{Start: f.Start, End: f.End})
}

// APIQuery maps the filter to the backend's list parameters. Dates are sent
// only when a range applies.
func (f ListFilter) APIQuery(now time.Time, def daterange.Preset) (url.Values, error) {
	q := url.Values{}
	if f.HasRange() || def != "" {
		r, err := f.Resolve(now, def)
		if err != nil {
			return nil, err
		}
		q.Set("startDate", r.Start.String())
		q.Set("endDate", r.End.String())
	}
	setIf(q, "status", f.Status)
	setIf(q, "category", f.Category)
	setIf(q, "paymentType", f.PaymentType)
	setIf(q, "checklistType", f.ChecklistType)
	if f.Page > 1 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q, nil
}
