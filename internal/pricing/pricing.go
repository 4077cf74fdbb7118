// Package pricing turns the backend's order pricing breakdown into display
// lines and picks the notice shown alongside them. All figures come from the
// backend; nothing here recomputes a total for display.
package pricing

import (
	"errors"
	"fmt"

	"opsdesk/internal/core"
)

// LineKind identifies a summary line so templates can style it.
type LineKind string

const (
	KindSubtotal     LineKind = "subtotal"
	KindCoupon       LineKind = "coupon"
	KindAfterCoupon  LineKind = "after_coupon"
	KindTax          LineKind = "tax"
	KindShipping     LineKind = "shipping"
	KindAutoDiscount LineKind = "auto_discount"
	KindTotalSavings LineKind = "savings"
	KindFinalTotal   LineKind = "total"
)

var ErrTotalMismatch = errors.New("final total does not match its components")

// Line is one row of the summary. Discounts carry negative amounts.
type Line struct {
	Kind   LineKind
	Label  string
	Amount core.Money
}

// Summary is the ordered projection of a breakdown.
type Summary struct {
	Lines   []Line
	Savings core.Money
	Total   core.Money
	Notice  Notice
}

// Project builds the display lines in their fixed order:
// subtotal, coupon, amount after coupon, tax, shipping, automatic
// discounts, total savings, final total. Optional lines appear only when
// their amount is positive.
func Project(b core.PricingBreakdown) Summary {
	lines := make([]Line, 0, 8+len(b.AutomaticDiscounts))
	lines = append(lines, Line{Kind: KindSubtotal, Label: "Subtotal", Amount: b.Subtotal})

	if b.CouponDiscount.IsPositive() {
		label := "Coupon discount"
		if code := b.CouponCode(); code != "" {
			label = fmt.Sprintf("Coupon (%s)", code)
		}
		lines = append(lines,
			Line{Kind: KindCoupon, Label: label, Amount: b.CouponDiscount.Neg()},
			Line{Kind: KindAfterCoupon, Label: "Amount after coupon", Amount: b.AmountAfterCoupon},
		)
	}

	if b.TaxAmount.IsPositive() {
		lines = append(lines, Line{
			Kind:   KindTax,
			Label:  fmt.Sprintf("Tax (%s%%)", core.FormatPercent(b.TaxRate*100)),
			Amount: b.TaxAmount,
		})
	}

	if b.ShippingCost.IsPositive() {
		lines = append(lines, Line{Kind: KindShipping, Label: "Shipping", Amount: b.ShippingCost})
	}

	for _, d := range b.AutomaticDiscounts {
		label := d.Discount.Name
		if label == "" {
			label = "Automatic discount"
		}
		lines = append(lines, Line{Kind: KindAutoDiscount, Label: label, Amount: d.DiscountAmount.Neg()})
	}

	savings := TotalSavings(b)
	if savings.IsPositive() {
		lines = append(lines, Line{Kind: KindTotalSavings, Label: "Total savings", Amount: savings})
	}

	lines = append(lines, Line{Kind: KindFinalTotal, Label: "Total", Amount: b.FinalTotal})

	return Summary{
		Lines:   lines,
		Savings: savings,
		Total:   b.FinalTotal,
		Notice:  SelectNotice(b),
	}
}

// TotalSavings is the automatic discount total plus the coupon discount.
func TotalSavings(b core.PricingBreakdown) core.Money {
	return b.TotalAutomaticDiscount.Add(b.CouponDiscount)
}

// CheckTotals recomputes the final total from its components and reports a
// mismatch larger than one cent.
func CheckTotals(b core.PricingBreakdown) error {
	expected := b.Subtotal.
		Sub(b.CouponDiscount).
		Sub(b.TotalAutomaticDiscount).
		Add(b.TaxAmount).
		Add(b.ShippingCost)
	diff := expected.Cents - b.FinalTotal.Cents
	if diff > 1 || diff < -1 {
		return fmt.Errorf("%w: expected %s, backend sent %s", ErrTotalMismatch, expected, b.FinalTotal)
	}
	return nil
}
