package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	applog "opsdesk/internal/log"
	"opsdesk/internal/pricing"
	"opsdesk/internal/session"
)

type shopData struct {
	Products []core.Product
}

type cartData struct {
	Items      []core.CartItem
	CouponCode string
	Summary    *pricing.Summary
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	var data shopData
	v := view{Title: "Shop", Nav: "shop", Data: &data}
	products, err := s.products(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Product list load failed", err)
		v.Error = userMessage(err)
	}
	for _, p := range products {
		if p.Active {
			data.Products = append(data.Products, p)
		}
	}
	s.render(w, r, nil, "shop", v, nil)
}

// quote asks the backend to price the cart. An empty cart has no quote.
func (s *Server) quote(ctx context.Context, st *session.State) (*pricing.Summary, error) {
	if len(st.Cart) == 0 {
		return nil, nil
	}
	b, err := s.api.CalculateOrder(ctx, core.CalculateRequest{
		Items:      core.CartLines(st.Cart),
		CouponCode: st.CouponCode,
	})
	if err != nil {
		return nil, err
	}
	if s.cfg.PricingAssertions {
		if err := pricing.CheckTotals(b); err != nil {
			s.log(ctx).WithComponent(applog.ComponentPricing).WarnContextErr(ctx, "Pricing breakdown inconsistent", err)
		}
	}
	sum := pricing.Project(b)
	return &sum, nil
}

// renderCart prices the cart and renders it. htmx callers also get the
// discount notice and the new badge count.
func (s *Server) renderCart(w http.ResponseWriter, r *http.Request, sess *session.Session, name, title string) {
	data := cartData{Items: sess.Cart, CouponCode: sess.CouponCode}
	v := view{Title: title, Nav: "cart", Data: &data}
	resp := NewHTMXResponse().TriggerCartUpdated(sess.ItemCount())

	sum, err := s.quote(r.Context(), &sess.State)
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Cart pricing failed", err)
		v.Error = userMessage(err)
	}
	data.Summary = sum
	if sum != nil && isHTMX(r) {
		resp.TriggerNotice(NotificationType(sum.Notice.Type), sum.Notice.Message)
	}
	s.render(w, r, sess, name, v, resp)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.renderCart(w, r, s.sessions.Load(r), "cart", "Your cart")
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	back := backTo(r, "/shop")
	var form cartItemForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	p, ok, err := s.product(ctx, form.ProductID)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	if !ok || !p.Active {
		s.fail(w, r, back, invalid(errors.New("that product is not available")))
		return
	}
	if p.Stock < form.Quantity {
		s.fail(w, r, back, invalid(fmt.Errorf("only %d of %s left in stock", p.Stock, p.Name)))
		return
	}

	sess := s.sessions.Load(r)
	if err := sess.AddItem(core.CartItem{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: form.Quantity}); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.saveSession(w, r, sess)
	s.log(ctx).InfoContext(ctx, "Cart item added",
		applog.FieldResourceID, p.ID,
		"quantity", form.Quantity)

	msg := fmt.Sprintf("%s added to your cart", p.Name)
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerCartUpdated(sess.ItemCount()).
			TriggerSuccessNotification(msg).
			Write(w)
		return
	}
	s.redirectWithFlash(w, r, sess, back, NotificationSuccess, msg)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	sess.RemoveItem(r.PathValue("productID"))
	s.saveSession(w, r, sess)
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, sess, "/cart", NotificationInfo, "Item removed from your cart")
		return
	}
	s.renderCart(w, r, sess, "cart", "Your cart")
}

// handleApplyCoupon stores the code and reprices. A code the backend rejects
// is forgotten again so the cart stays priceable.
func (s *Server) handleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var form couponCodeForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/cart", err)
		return
	}
	sess := s.sessions.Load(r)
	if err := sess.ApplyCoupon(form.Code); err != nil {
		s.fail(w, r, "/cart", err)
		return
	}
	if _, err := s.quote(r.Context(), &sess.State); err != nil {
		if status := api.StatusOf(err); status < 400 || status >= 500 {
			s.fail(w, r, "/cart", err)
			return
		}
		sess.CouponCode = ""
		msg := userMessage(err)
		if isHTMX(r) {
			s.saveSession(w, r, sess)
			ErrorResponse(errorStatus(err), msg).TriggerErrorNotification(msg).Write(w)
			return
		}
		s.redirectWithFlash(w, r, sess, "/cart", NotificationError, msg)
		return
	}
	s.saveSession(w, r, sess)
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, sess, "/cart", NotificationSuccess, "Coupon "+sess.CouponCode+" applied")
		return
	}
	s.renderCart(w, r, sess, "cart", "Your cart")
}

func (s *Server) handleRemoveCoupon(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	sess.CouponCode = ""
	s.saveSession(w, r, sess)
	if !isHTMX(r) {
		s.redirectWithFlash(w, r, sess, "/cart", NotificationInfo, "Coupon removed")
		return
	}
	s.renderCart(w, r, sess, "cart", "Your cart")
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if len(sess.Cart) == 0 {
		s.redirectWithFlash(w, r, sess, "/cart", NotificationInfo, sentence(session.ErrEmptyCart.Error()))
		return
	}
	s.renderCart(w, r, sess, "checkout", "Checkout")
}

// handlePlaceOrder creates the order from the session cart. The cart is
// cleared only once the backend has accepted the order.
func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var form checkoutForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/checkout", err)
		return
	}
	sess := s.sessions.Load(r)
	lines, err := sess.OrderLines()
	if err != nil {
		s.fail(w, r, "/cart", err)
		return
	}
	order, err := s.api.CreateOrder(ctx, core.CreateOrderRequest{
		Items:           lines,
		CouponCode:      sess.CouponCode,
		ShippingAddress: form.ShippingAddress,
		Notes:           form.Notes,
	})
	if err != nil {
		s.fail(w, r, "/checkout", err)
		return
	}
	sess.ClearCart()
	s.record(ctx, audit.ActionCreate, audit.ResourceOrder, order.ID,
		fmt.Sprintf("%s total %s", order.OrderNumber, order.Total.Format(s.cfg.CurrencySymbol)))

	to := "/orders/" + order.ID
	msg := "Thank you, your order was placed"
	if isHTMX(r) {
		sess.SetFlash(string(NotificationSuccess), msg)
		s.saveSession(w, r, sess)
		NewHTMXResponse().Redirect(to).TriggerCartUpdated(0).Write(w)
		return
	}
	s.redirectWithFlash(w, r, sess, to, NotificationSuccess, msg)
}
