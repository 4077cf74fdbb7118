package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	PaymentCash   PaymentType = "cash"
	PaymentOnline PaymentType = "online"
)

// MaxDescriptionLen bounds expense descriptions, counted in runes.
const MaxDescriptionLen = 200

type (
	PaymentType string

	Category struct {
		ID          string `json:"_id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}

	User struct {
		ID        string `json:"_id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email,omitempty"`
		Role      string `json:"role,omitempty"`
	}

	Expense struct {
		ID          string        `json:"_id,omitempty"`
		Description string        `json:"description"`
		Amount      Money         `json:"amount"`
		Date        Date          `json:"date"`
		PaymentType PaymentType   `json:"paymentType"`
		Category    Ref[Category] `json:"category"`
		PaidBy      Ref[User]     `json:"paidBy"`
		Notes       string        `json:"notes,omitempty"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrNegativeAmount      = errors.New("amount cannot be negative")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("category is required")
	ErrInvalidPaymentType  = errors.New("payment type must be cash or online")
	ErrEmptyName           = errors.New("name is required")
	ErrEmptyCouponCode     = errors.New("coupon code is required")
	ErrPercentageTooHigh   = errors.New("percentage cannot exceed 100")
	ErrInvalidDiscountType = errors.New("discount type must be percentage or fixed")
	ErrInvalidQuantity     = errors.New("quantity must be between 1 and 99")
	ErrInvalidChecklist    = errors.New("invalid checklist type")
	ErrInvalidTaskStatus   = errors.New("invalid task status")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
)

func (p PaymentType) Valid() bool {
	return p == PaymentCash || p == PaymentOnline
}

// FullName is "firstName lastName" trimmed; one missing part leaves no stray space.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		if e.Amount.Cents < 0 {
			return ErrNegativeAmount
		}
		return err
	}
	if strings.TrimSpace(e.Description) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if e.Category.IsZero() {
		return ErrEmptyCategory
	}
	if !e.PaymentType.Valid() {
		return ErrInvalidPaymentType
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// CashboxSession is one opening-to-closing shift of the register.
type CashboxSession struct {
	ID             string     `json:"_id"`
	OpenedBy       Ref[User]  `json:"openedBy"`
	ClosedBy       Ref[User]  `json:"closedBy"`
	OpenedAt       time.Time  `json:"openedAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	OpeningBalance Money      `json:"openingBalance"`
	ClosingBalance Money      `json:"closingBalance"`
	ExpectedCash   Money      `json:"expectedCash"`
	CashSales      Money      `json:"cashSales"`
	OnlineSales    Money      `json:"onlineSales"`
	Difference     Money      `json:"difference"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
}

// IsOpen reports whether the session has not been closed yet.
func (s CashboxSession) IsOpen() bool {
	return s.Status == "open" || (s.Status == "" && s.ClosedAt == nil)
}

// CashboxSummary is the backend's aggregate over a date range.
type CashboxSummary struct {
	TotalSessions   int   `json:"totalSessions"`
	OpenSessions    int   `json:"openSessions"`
	TotalCashSales  Money `json:"totalCashSales"`
	TotalOnline     Money `json:"totalOnlineSales"`
	TotalSales      Money `json:"totalSales"`
	TotalExpenses   Money `json:"totalExpenses"`
	TotalDifference Money `json:"totalDifference"`
	NetIncome       Money `json:"netIncome"`
}
