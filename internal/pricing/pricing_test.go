package pricing

import (
	"encoding/json"
	"errors"
	"testing"

	"opsdesk/internal/core"
)

func cents(c int64) core.Money { return core.Money{Cents: c} }

func kinds(s Summary) []LineKind {
	out := make([]LineKind, 0, len(s.Lines))
	for _, l := range s.Lines {
		out = append(out, l.Kind)
	}
	return out
}

func find(s Summary, k LineKind) (Line, bool) {
	for _, l := range s.Lines {
		if l.Kind == k {
			return l, true
		}
	}
	return Line{}, false
}

func TestProjectFullBreakdown(t *testing.T) {
	raw := `{
		"subtotal": 500,
		"couponDiscount": 50,
		"amountAfterCoupon": 450,
		"taxRate": 0.08,
		"taxAmount": 36,
		"shippingCost": 10,
		"automaticDiscounts": [
			{"discount": {"name": "Happy hour", "type": "percentage", "value": 4}, "discountAmount": 20}
		],
		"totalAutomaticDiscount": 20,
		"finalTotal": 476,
		"appliedCoupon": {"coupon": {"code": "SAVE10"}}
	}`
	var b core.PricingBreakdown
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}

	s := Project(b)
	want := []LineKind{KindSubtotal, KindCoupon, KindAfterCoupon, KindTax, KindShipping, KindAutoDiscount, KindTotalSavings, KindFinalTotal}
	got := kinds(s)
	if len(got) != len(want) {
		t.Fatalf("lines = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %s, want %s", i, got[i], want[i])
		}
	}

	if l, _ := find(s, KindTotalSavings); l.Amount.Cents != 7000 {
		t.Fatalf("total savings = %d, want 7000", l.Amount.Cents)
	}
	if l, _ := find(s, KindCoupon); l.Amount.Cents != -5000 || l.Label != "Coupon (SAVE10)" {
		t.Fatalf("coupon line = %+v", l)
	}
	if l, _ := find(s, KindTax); l.Label != "Tax (8%)" {
		t.Fatalf("tax label = %q", l.Label)
	}
	if l, _ := find(s, KindAutoDiscount); l.Amount.Cents != -2000 || l.Label != "Happy hour" {
		t.Fatalf("auto discount line = %+v", l)
	}
	if s.Total.Cents != 47600 {
		t.Fatalf("total = %d", s.Total.Cents)
	}
	if s.Notice.Kind != NoticeAutoAndCoupon {
		t.Fatalf("notice = %s", s.Notice.Kind)
	}
	if err := CheckTotals(b); err != nil {
		t.Fatalf("consistent breakdown flagged: %v", err)
	}
}

func TestProjectMinimal(t *testing.T) {
	b := core.PricingBreakdown{Subtotal: cents(1000), AmountAfterCoupon: cents(1000), FinalTotal: cents(1000)}
	s := Project(b)
	got := kinds(s)
	if len(got) != 2 || got[0] != KindSubtotal || got[1] != KindFinalTotal {
		t.Fatalf("expected only subtotal and total, got %v", got)
	}
	if s.Notice.Kind != NoticeNone {
		t.Fatalf("expected no-discount notice, got %s", s.Notice.Kind)
	}
}

func TestProjectTaxLabel(t *testing.T) {
	b := core.PricingBreakdown{Subtotal: cents(1000), TaxRate: 0.075, TaxAmount: cents(75), FinalTotal: cents(1075)}
	l, ok := find(Project(b), KindTax)
	if !ok || l.Label != "Tax (7.5%)" {
		t.Fatalf("tax line = %+v", l)
	}
}

func TestTotalSavingsOnlyWhenPositive(t *testing.T) {
	b := core.PricingBreakdown{Subtotal: cents(1000), FinalTotal: cents(1000)}
	if _, ok := find(Project(b), KindTotalSavings); ok {
		t.Fatalf("savings line must be absent when nothing was saved")
	}
	b.CouponDiscount = cents(100)
	b.FinalTotal = cents(900)
	if _, ok := find(Project(b), KindTotalSavings); !ok {
		t.Fatalf("savings line expected for coupon only")
	}
	if TotalSavings(b).Cents != 100 {
		t.Fatalf("savings = %d", TotalSavings(b).Cents)
	}
}

func TestSelectNotice(t *testing.T) {
	auto := []core.AppliedDiscount{{Discount: core.DiscountRule{Name: "Bulk"}, DiscountAmount: cents(100)}}
	cases := []struct {
		name string
		b    core.PricingBreakdown
		want NoticeKind
	}{
		{"none", core.PricingBreakdown{}, NoticeNone},
		{"auto list only", core.PricingBreakdown{AutomaticDiscounts: auto}, NoticeAutoDiscounts},
		{"auto total only", core.PricingBreakdown{TotalAutomaticDiscount: cents(100)}, NoticeAutoDiscounts},
		{"coupon only", core.PricingBreakdown{CouponDiscount: cents(100)}, NoticeCouponOnly},
		{"both", core.PricingBreakdown{AutomaticDiscounts: auto, TotalAutomaticDiscount: cents(100), CouponDiscount: cents(100)}, NoticeAutoAndCoupon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := SelectNotice(tc.b)
			if n.Kind != tc.want {
				t.Fatalf("got %s, want %s", n.Kind, tc.want)
			}
			if n.Message == "" || n.Type == "" {
				t.Fatalf("notice must carry a type and message: %+v", n)
			}
		})
	}
}

func TestCheckTotals(t *testing.T) {
	b := core.PricingBreakdown{
		Subtotal:               cents(10000),
		CouponDiscount:         cents(1000),
		TotalAutomaticDiscount: cents(500),
		TaxAmount:              cents(680),
		ShippingCost:           cents(500),
		FinalTotal:             cents(9680),
	}
	if err := CheckTotals(b); err != nil {
		t.Fatalf("unexpected mismatch: %v", err)
	}
	b.FinalTotal = cents(9681)
	if err := CheckTotals(b); err != nil {
		t.Fatalf("one cent of rounding must be tolerated: %v", err)
	}
	b.FinalTotal = cents(9700)
	if err := CheckTotals(b); !errors.Is(err, ErrTotalMismatch) {
		t.Fatalf("expected ErrTotalMismatch, got %v", err)
	}
}
