package core

import (
	"strings"
	"time"
)

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// MaxCartQuantity caps a single cart line.
const MaxCartQuantity = 99

type (
	DiscountType string
	OrderStatus  string

	Coupon struct {
		ID             string       `json:"_id,omitempty"`
		Code           string       `json:"code"`
		Description    string       `json:"description,omitempty"`
		Type           DiscountType `json:"type"`
		Value          float64      `json:"value"`
		MinOrderAmount Money        `json:"minOrderAmount"`
		MaxUses        int          `json:"maxUses,omitempty"`
		UsedCount      int          `json:"usedCount,omitempty"`
		ExpiresAt      Date         `json:"expiresAt"`
		Active         bool         `json:"isActive"`
	}

	// Discount is an automatic discount rule applied by the backend at checkout.
	Discount struct {
		ID             string       `json:"_id,omitempty"`
		Name           string       `json:"name"`
		Description    string       `json:"description,omitempty"`
		Type           DiscountType `json:"type"`
		Value          float64      `json:"value"`
		MinOrderAmount Money        `json:"minOrderAmount"`
		StartDate      Date         `json:"startDate"`
		EndDate        Date         `json:"endDate"`
		Active         bool         `json:"isActive"`
	}

	// Settings are the store-wide pricing parameters. TaxRate is a fraction.
	Settings struct {
		TaxRate               float64 `json:"taxRate"`
		ShippingCost          Money   `json:"shippingCost"`
		FreeShippingThreshold Money   `json:"freeShippingThreshold"`
		Currency              string  `json:"currency,omitempty"`
		StoreName             string  `json:"storeName,omitempty"`
	}

	Product struct {
		ID          string `json:"_id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Price       Money  `json:"price"`
		Category    string `json:"category,omitempty"`
		ImageURL    string `json:"image,omitempty"`
		Stock       int    `json:"stock"`
		Active      bool   `json:"isActive"`
	}

	CartItem struct {
		ProductID string `json:"productId"`
		Name      string `json:"name"`
		Price     Money  `json:"price"`
		Quantity  int    `json:"quantity"`
	}

	OrderItem struct {
		Product  Ref[Product] `json:"product"`
		Name     string       `json:"name,omitempty"`
		Price    Money        `json:"price"`
		Quantity int          `json:"quantity"`
	}

	Order struct {
		ID              string      `json:"_id"`
		OrderNumber     string      `json:"orderNumber,omitempty"`
		Customer        Ref[User]   `json:"user"`
		Items           []OrderItem `json:"items"`
		Subtotal        Money       `json:"subtotal"`
		Discount        Money       `json:"discount"`
		Tax             Money       `json:"tax"`
		ShippingCost    Money       `json:"shippingCost"`
		Total           Money       `json:"total"`
		CouponCode      string      `json:"couponCode,omitempty"`
		Status          OrderStatus `json:"status"`
		ShippingAddress string      `json:"shippingAddress,omitempty"`
		Notes           string      `json:"notes,omitempty"`
		CreatedAt       time.Time   `json:"createdAt"`
	}

	// OrderLine is an item as sent to /orders and /orders/calculate.
	OrderLine struct {
		Product  string `json:"product"`
		Quantity int    `json:"quantity"`
	}

	CalculateRequest struct {
		Items      []OrderLine `json:"items"`
		CouponCode string      `json:"couponCode,omitempty"`
	}

	CreateOrderRequest struct {
		Items           []OrderLine `json:"items"`
		CouponCode      string      `json:"couponCode,omitempty"`
		ShippingAddress string      `json:"shippingAddress"`
		Notes           string      `json:"notes,omitempty"`
	}
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercentage || t == DiscountFixed
}

// OrderStatuses lists the statuses an admin can move an order to, in workflow order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderConfirmed, OrderPreparing, OrderShipped, OrderDelivered, OrderCancelled}
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses() {
		if s == v {
			return true
		}
	}
	return false
}

func validateDiscountValue(t DiscountType, v float64) error {
	if !t.Valid() {
		return ErrInvalidDiscountType
	}
	if v <= 0 {
		return ErrInvalidAmount
	}
	if t == DiscountPercentage && v > 100 {
		return ErrPercentageTooHigh
	}
	return nil
}

func (c Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return ErrEmptyCouponCode
	}
	if c.MinOrderAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	return validateDiscountValue(c.Type, c.Value)
}

// Expired reports whether the coupon's expiry date lies before today.
func (c Coupon) Expired(today Date) bool {
	return !c.ExpiresAt.IsZero() && c.ExpiresAt.Before(today)
}

// ValueLabel renders "10%" for percentage and the amount for fixed values.
func ValueLabel(t DiscountType, v float64, symbol string) string {
	if t == DiscountPercentage {
		return FormatPercent(v) + "%"
	}
	return FromMajor(v).Format(symbol)
}

func (d Discount) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return ErrEmptyName
	}
	if d.MinOrderAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	if !d.StartDate.IsZero() && !d.EndDate.IsZero() && d.EndDate.Before(d.StartDate) {
		return ErrInvertedDates
	}
	return validateDiscountValue(d.Type, d.Value)
}

func (s Settings) Validate() error {
	if s.TaxRate < 0 || s.TaxRate > 1 {
		return ErrInvalidTaxRate
	}
	if s.ShippingCost.Cents < 0 || s.FreeShippingThreshold.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// TaxPercent is the tax rate as a percentage for forms.
func (s Settings) TaxPercent() string {
	return FormatPercent(s.TaxRate * 100)
}

func (c CartItem) Validate() error {
	if c.Quantity < 1 || c.Quantity > MaxCartQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

func (c CartItem) LineTotal() Money {
	return Money{Cents: c.Price.Cents * int64(c.Quantity)}
}

// CartLines converts cart items to backend order lines.
func CartLines(items []CartItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{Product: it.ProductID, Quantity: it.Quantity})
	}
	return lines
}

// ItemCount sums the quantities of all cart lines.
func ItemCount(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func (i OrderItem) DisplayName() string {
	if i.Product.Value != nil && i.Product.Value.Name != "" {
		return i.Product.Value.Name
	}
	if i.Name != "" {
		return i.Name
	}
	return i.Product.ID
}

func (i OrderItem) LineTotal() Money {
	return Money{Cents: i.Price.Cents * int64(i.Quantity)}
}
