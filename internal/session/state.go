// Package session keeps per-visitor state between page loads: the cart, the
// coupon carried from cart to checkout and a one-shot flash notice.
package session

import (
	"errors"
	"strings"

	"opsdesk/internal/core"
)

// ErrEmptyCart is returned when an order is attempted with nothing in the cart.
var ErrEmptyCart = errors.New("your cart is empty")

// Flash is a notice shown once on the next rendered page.
type Flash struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type State struct {
	Cart       []core.CartItem `json:"cart,omitempty"`
	CouponCode string          `json:"couponCode,omitempty"`
	Flash      *Flash          `json:"flash,omitempty"`
}

// AddItem merges item into the cart. Quantities of the same product add up
// and the merged line must stay within the cart limit.
func (s *State) AddItem(item core.CartItem) error {
	if item.ProductID == "" {
		return core.ErrInvalidQuantity
	}
	if err := item.Validate(); err != nil {
		return err
	}
	for i := range s.Cart {
		if s.Cart[i].ProductID != item.ProductID {
			continue
		}
		merged := s.Cart[i]
		merged.Quantity += item.Quantity
		if err := merged.Validate(); err != nil {
			return err
		}
		s.Cart[i] = merged
		return nil
	}
	s.Cart = append(s.Cart, item)
	return nil
}

// SetQuantity replaces the quantity of a line; zero removes it.
func (s *State) SetQuantity(productID string, qty int) error {
	if qty == 0 {
		s.RemoveItem(productID)
		return nil
	}
	for i := range s.Cart {
		if s.Cart[i].ProductID == productID {
			updated := s.Cart[i]
			updated.Quantity = qty
			if err := updated.Validate(); err != nil {
				return err
			}
			s.Cart[i] = updated
			return nil
		}
	}
	return core.ErrInvalidQuantity
}

// RemoveItem drops the line for productID. Removing the last line also
// forgets the coupon.
func (s *State) RemoveItem(productID string) {
	out := s.Cart[:0]
	for _, it := range s.Cart {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	s.Cart = out
	if len(s.Cart) == 0 {
		s.CouponCode = ""
	}
}

func (s *State) ClearCart() {
	s.Cart = nil
	s.CouponCode = ""
}

func (s *State) ApplyCoupon(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return core.ErrEmptyCouponCode
	}
	s.CouponCode = code
	return nil
}

func (s *State) ItemCount() int {
	return core.ItemCount(s.Cart)
}

// Subtotal is the client-side sum shown in the cart badge. Checkout always
// uses the backend's calculation.
func (s *State) Subtotal() core.Money {
	var total core.Money
	for _, it := range s.Cart {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderLines is the cart as backend order lines. An empty cart is an error.
func (s *State) OrderLines() ([]core.OrderLine, error) {
	if len(s.Cart) == 0 {
		return nil, ErrEmptyCart
	}
	return core.CartLines(s.Cart), nil
}

func (s *State) SetFlash(kind, message string) {
	s.Flash = &Flash{Type: kind, Message: message}
}

// PopFlash returns the pending flash and clears it.
func (s *State) PopFlash() *Flash {
	f := s.Flash
	s.Flash = nil
	return f
}

func (s *State) empty() bool {
	return len(s.Cart) == 0 && s.CouponCode == "" && s.Flash == nil
}
