package core

type (
	DiscountRule struct {
		Name  string       `json:"name"`
		Type  DiscountType `json:"type"`
		Value float64      `json:"value"`
	}

	AppliedDiscount struct {
		Discount       DiscountRule `json:"discount"`
		DiscountAmount Money        `json:"discountAmount"`
	}

	AppliedCoupon struct {
		Coupon struct {
			Code string `json:"code"`
		} `json:"coupon"`
	}

	// PricingBreakdown is the response of POST /orders/calculate, decoded as-is.
	// TaxRate is a fraction (0.08 for 8%).
	PricingBreakdown struct {
		Subtotal               Money             `json:"subtotal"`
		CouponDiscount         Money             `json:"couponDiscount"`
		AmountAfterCoupon      Money             `json:"amountAfterCoupon"`
		TaxRate                float64           `json:"taxRate"`
		TaxAmount              Money             `json:"taxAmount"`
		ShippingCost           Money             `json:"shippingCost"`
		AutomaticDiscounts     []AppliedDiscount `json:"automaticDiscounts"`
		TotalAutomaticDiscount Money             `json:"totalAutomaticDiscount"`
		FinalTotal             Money             `json:"finalTotal"`
		AppliedCoupon          *AppliedCoupon    `json:"appliedCoupon,omitempty"`
	}
)

// CouponCode returns the applied coupon code or "".
func (b PricingBreakdown) CouponCode() string {
	if b.AppliedCoupon == nil {
		return ""
	}
	return b.AppliedCoupon.Coupon.Code
}
