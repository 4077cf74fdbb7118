package pricing

import "opsdesk/internal/core"

// NoticeKind is the decision-table outcome for which discounts applied.
type NoticeKind string

const (
	NoticeNone          NoticeKind = "none"
	NoticeAutoDiscounts NoticeKind = "auto"
	NoticeAutoAndCoupon NoticeKind = "auto_and_coupon"
	NoticeCouponOnly    NoticeKind = "coupon"
)

// Notice is the toast shown after a recalculation.
type Notice struct {
	Kind    NoticeKind
	Type    string // toast type: success or info
	Message string
}

// SelectNotice chooses the notice from which discount fields are non-zero.
// Automatic discounts count as present when the list is non-empty or the
// total is positive.
func SelectNotice(b core.PricingBreakdown) Notice {
	auto := len(b.AutomaticDiscounts) > 0 || b.TotalAutomaticDiscount.IsPositive()
	coupon := b.CouponDiscount.IsPositive()

	switch {
	case auto && coupon:
		return Notice{Kind: NoticeAutoAndCoupon, Type: "success", Message: "Automatic discounts and your coupon were applied"}
	case auto:
		return Notice{Kind: NoticeAutoDiscounts, Type: "success", Message: "Automatic discounts were applied to your order"}
	case coupon:
		return Notice{Kind: NoticeCouponOnly, Type: "success", Message: "Your coupon was applied"}
	default:
		return Notice{Kind: NoticeNone, Type: "info", Message: "No discounts apply to this order"}
	}
}
