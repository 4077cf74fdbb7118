package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-03-09", "2025-03-09", true},
		{"2025-03-09T23:30:00.000Z", "2025-03-09", true},
		{"2025-03-09T01:00:00+02:00", "2025-03-09", true},
		{"09/03/2025", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		d, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || d.String() != tc.want {
				t.Fatalf("%q: got %q err=%v", tc.in, d.String(), err)
			}
		} else if err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
		E Date `json:"e"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-02-29T10:00:00Z","e":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.D.String() != "2024-02-29" || !v.E.IsZero() {
		t.Fatalf("unexpected: %q %q", v.D, v.E)
	}
	out, _ := json.Marshal(v)
	if string(out) != `{"d":"2024-02-29","e":null}` {
		t.Fatalf("marshal: %s", out)
	}
}

func TestDateAddDays(t *testing.T) {
	if got := NewDate(2024, 2, 28).AddDays(2).String(); got != "2024-03-01" {
		t.Fatalf("got %s", got)
	}
	if !NewDate(2024, 1, 1).Before(NewDate(2024, 1, 2)) {
		t.Fatalf("expected before")
	}
}

func TestRefUnmarshal(t *testing.T) {
	var v struct {
		A Ref[Category] `json:"a"`
		B Ref[Category] `json:"b"`
		C Ref[Category] `json:"c"`
	}
	in := `{"a":"cat1","b":{"_id":"cat2","name":"Food"},"c":null}`
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.A.ID != "cat1" || v.A.Populated() {
		t.Fatalf("raw id ref: %+v", v.A)
	}
	if v.B.ID != "cat2" || !v.B.Populated() || v.B.Value.Name != "Food" {
		t.Fatalf("populated ref: %+v", v.B)
	}
	if !v.C.IsZero() {
		t.Fatalf("null ref should be zero")
	}
	if err := json.Unmarshal([]byte(`{"a":42}`), &v); err == nil {
		t.Fatalf("expected error for numeric ref")
	}
}

func TestRefMarshal(t *testing.T) {
	out, _ := json.Marshal(RefID[User]("u1"))
	if string(out) != `"u1"` {
		t.Fatalf("got %s", out)
	}
	out, _ = json.Marshal(Ref[User]{})
	if string(out) != "null" {
		t.Fatalf("got %s", out)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:        NewDate(2025, 1, 1),
		Description: "ok",
		Amount:      Money{Cents: 100},
		Category:    RefID[Category]("c1"),
		PaymentType: PaymentCash,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Expense)
		want   error
	}{
		{func(e *Expense) { e.Amount = Money{} }, ErrInvalidAmount},
		{func(e *Expense) { e.Amount = Money{Cents: -100} }, ErrNegativeAmount},
		{func(e *Expense) { e.Description = "  " }, ErrEmptyDescription},
		{func(e *Expense) { e.Description = strings.Repeat("a", 201) }, ErrDescriptionTooLong},
		{func(e *Expense) { e.Category = Ref[Category]{} }, ErrEmptyCategory},
		{func(e *Expense) { e.PaymentType = "card" }, ErrInvalidPaymentType},
	}
	for i, tc := range cases {
		e := good
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}

	e := good
	e.Description = strings.Repeat("é", 200)
	if err := e.Validate(); err != nil {
		t.Fatalf("200 runes should be accepted, got %v", err)
	}
}

func TestCouponValidate(t *testing.T) {
	cases := []struct {
		c    Coupon
		want error
	}{
		{Coupon{Code: "SAVE10", Type: DiscountPercentage, Value: 10}, nil},
		{Coupon{Code: "FIVE", Type: DiscountFixed, Value: 150}, nil},
		{Coupon{Code: " ", Type: DiscountPercentage, Value: 10}, ErrEmptyCouponCode},
		{Coupon{Code: "BIG", Type: DiscountPercentage, Value: 101}, ErrPercentageTooHigh},
		{Coupon{Code: "ZERO", Type: DiscountFixed, Value: 0}, ErrInvalidAmount},
		{Coupon{Code: "X", Type: "bogo", Value: 1}, ErrInvalidDiscountType},
	}
	for i, tc := range cases {
		if err := tc.c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestRawMaterial(t *testing.T) {
	r := RawMaterial{Name: "Flour", Unit: "kg", UnitCost: Money{Cents: 0}, Stock: 2, MinStock: 5}
	if err := r.Validate(); err != nil {
		t.Fatalf("zero unit cost should be allowed: %v", err)
	}
	if !r.LowStock() {
		t.Fatalf("expected low stock")
	}
	r.UnitCost = Money{Cents: -1}
	if err := r.Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestCartItemValidate(t *testing.T) {
	for _, q := range []int{0, 100, -1} {
		if err := (CartItem{Quantity: q}).Validate(); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("quantity %d: expected error", q)
		}
	}
	it := CartItem{Quantity: 3, Price: Money{Cents: 250}}
	if it.Validate() != nil || it.LineTotal().Cents != 750 {
		t.Fatalf("unexpected line: %+v", it)
	}
}

func TestTaskGenerationRequestValidate(t *testing.T) {
	ok := TaskGenerationRequest{ChecklistType: ChecklistDaily, StartDate: NewDate(2025, 1, 1), EndDate: NewDate(2025, 1, 7)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected ok: %v", err)
	}
	bad := ok
	bad.ChecklistType = "hourly"
	if !errors.Is(bad.Validate(), ErrInvalidChecklist) {
		t.Fatalf("expected ErrInvalidChecklist")
	}
	inv := ok
	inv.StartDate, inv.EndDate = inv.EndDate, inv.StartDate
	if !errors.Is(inv.Validate(), ErrInvertedDates) {
		t.Fatalf("expected ErrInvertedDates")
	}
}

func TestFormatPercent(t *testing.T) {
	cases := map[float64]string{8: "8", 7.5: "7.5", 12.344: "12.34", 0: "0"}
	for in, want := range cases {
		if got := FormatPercent(in); got != want {
			t.Fatalf("FormatPercent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestUserFullName(t *testing.T) {
	if got := (User{FirstName: " Ana ", LastName: ""}).FullName(); got != "Ana" {
		t.Fatalf("got %q", got)
	}
}
