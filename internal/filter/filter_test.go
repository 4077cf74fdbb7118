package filter

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
)

func same(a, b ListFilter) bool {
	return a.Preset == b.Preset &&
		a.Start.String() == b.Start.String() &&
		a.End.String() == b.End.String() &&
		a.Status == b.Status &&
		a.Category == b.Category &&
		a.PaymentType == b.PaymentType &&
		a.ChecklistType == b.ChecklistType &&
		a.Page == b.Page
}

func TestRoundTrip(t *testing.T) {
	cases := []ListFilter{
		{Page: 1},
		{Preset: daterange.Today, Page: 1},
		{Preset: daterange.ThisWeek, Status: "open", Page: 3},
		{Preset: daterange.Custom, Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31), Page: 1},
		{Preset: daterange.ThisMonth, Category: "c1", PaymentType: "cash", Page: 2},
		{ChecklistType: "daily", Status: "in_progress", Page: 10},
		{Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 2, 29), Status: "a b&c", Page: 1},
	}
	for i, f := range cases {
		f = f.Normalize()
		got := Parse(f.Encode())
		if !same(got, f) {
			t.Fatalf("case %d: round trip changed filter\n got  %+v\n want %+v", i, got, f)
		}
		q, err := url.ParseQuery(f.Encode().Encode())
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if !same(Parse(q), f) {
			t.Fatalf("case %d: round trip through query string changed filter", i)
		}
	}
}

func TestParseTolerant(t *testing.T) {
	v := url.Values{}
	v.Set(ParamPreset, "lastYear")
	v.Set(ParamStart, "2024-13-01")
	v.Set(ParamEnd, "2024-01-05T10:00:00Z")
	v.Set(ParamPage, "-2")
	f := Parse(v)
	if f.Preset != "" || !f.Start.IsZero() || !f.End.IsZero() || f.Page != 1 {
		t.Fatalf("expected invalid values dropped, got %+v", f)
	}

	v = url.Values{}
	v.Set(ParamPreset, "this_month")
	v.Set(ParamPage, "abc")
	f = Parse(v)
	if f.Preset != daterange.ThisMonth || f.Page != 1 {
		t.Fatalf("unexpected %+v", f)
	}
}

func TestQueryString(t *testing.T) {
	if got := (ListFilter{Page: 1}).QueryString(); got != "" {
		t.Fatalf("empty filter should encode to nothing, got %q", got)
	}
	f := ListFilter{Preset: daterange.ThisWeek, Status: "closed", Page: 2}
	if got := f.QueryString(); got != "?page=2&range=thisWeek&status=closed" {
		t.Fatalf("got %q", got)
	}
	if got := f.WithPage(1).QueryString(); got != "?range=thisWeek&status=closed" {
		t.Fatalf("page 1 should be omitted, got %q", got)
	}
}

func TestWithPreset(t *testing.T) {
	f := ListFilter{Preset: daterange.Custom, Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 2), Page: 4}
	g := f.WithPreset(daterange.Today)
	if !g.Start.IsZero() || !g.End.IsZero() || g.Page != 1 {
		t.Fatalf("switching preset should reset bounds and page: %+v", g)
	}
}

func TestAPIQuery(t *testing.T) {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	f := ListFilter{Preset: daterange.ThisWeek, Status: "open", Category: "c1", Page: 2}
	q, err := f.APIQuery(now, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{
		"startDate": "2024-01-08",
		"endDate":   "2024-01-14",
		"status":    "open",
		"category":  "c1",
		"page":      "2",
	}
	for k, v := range want {
		if q.Get(k) != v {
			t.Fatalf("%s = %q, want %q", k, q.Get(k), v)
		}
	}

	q, err = (ListFilter{Page: 1}).APIQuery(now, "")
	if err != nil || q.Get("startDate") != "" {
		t.Fatalf("no range expected without preset or default: %v %v", q, err)
	}

	q, err = (ListFilter{Page: 1}).APIQuery(now, daterange.Today)
	if err != nil || q.Get("startDate") != "2024-01-10" || q.Get("endDate") != "2024-01-10" {
		t.Fatalf("default preset should apply: %v %v", q, err)
	}
}

func TestResolveInvertedCustom(t *testing.T) {
	f := ListFilter{Preset: daterange.Custom, Start: core.NewDate(2024, 2, 1), End: core.NewDate(2024, 1, 1)}
	if _, err := f.Resolve(time.Now(), ""); !errors.Is(err, daterange.ErrInvertedRange) {
		t.Fatalf("expected ErrInvertedRange, got %v", err)
	}
	bare := ListFilter{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 3)}
	r, err := bare.Resolve(time.Now(), daterange.Today)
	if err != nil || r.Days() != 3 {
		t.Fatalf("bounds without preset should act as custom: %v %v", r, err)
	}
}
