package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"opsdesk/internal/audit"
	"opsdesk/internal/cache"
	"opsdesk/internal/core"
)

type couponsData struct {
	Coupons []core.Coupon
	Today   core.Date
}

type discountsData struct {
	Discounts []core.Discount
}

type settingsData struct {
	Settings core.Settings
}

// parseNumber reads a decimal with either separator.
func parseNumber(label, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, invalid(fmt.Errorf("%s must be a number", label))
	}
	return v, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, invalid(err)
	}
	return d, nil
}

func (s *Server) handleCoupons(w http.ResponseWriter, r *http.Request) {
	data := couponsData{Today: core.DateOf(s.now())}
	v := view{Title: "Coupons", Nav: "coupons", Data: &data}
	coupons, err := s.api.Coupons(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Coupon list load failed", err)
		v.Error = userMessage(err)
	}
	data.Coupons = coupons
	s.render(w, r, nil, "coupons", v, nil)
}

func parseCoupon(f couponForm) (core.Coupon, error) {
	value, err := parseNumber("value", f.Value)
	if err != nil {
		return core.Coupon{}, err
	}
	minOrder, err := core.ParseMoneyAllowZero(f.MinOrderAmount)
	if err != nil {
		return core.Coupon{}, invalid(err)
	}
	expires, err := parseOptionalDate(f.ExpiresAt)
	if err != nil {
		return core.Coupon{}, err
	}
	c := core.Coupon{
		Code:           strings.ToUpper(f.Code),
		Description:    f.Description,
		Type:           core.DiscountType(f.Type),
		Value:          value,
		MinOrderAmount: minOrder,
		ExpiresAt:      expires,
		Active:         true,
	}
	if f.MaxUses != "" {
		c.MaxUses, _ = strconv.Atoi(f.MaxUses)
	}
	if err := c.Validate(); err != nil {
		return core.Coupon{}, invalid(err)
	}
	return c, nil
}

func (s *Server) handleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	var form couponForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	c, err := parseCoupon(form)
	if err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	created, err := s.api.CreateCoupon(r.Context(), c)
	if err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	s.record(r.Context(), audit.ActionCreate, audit.ResourceCoupon, created.ID,
		fmt.Sprintf("%s (%s)", c.Code, core.ValueLabel(c.Type, c.Value, s.cfg.CurrencySymbol)))
	s.done(w, r, audit.ResourceCoupon, "/coupons", fmt.Sprintf("Coupon %s created", c.Code))
}

// toggleAction reads the requested state of a toggle form.
func toggleAction(r *http.Request) (bool, string, error) {
	var form toggleForm
	if err := decodeForm(r, &form); err != nil {
		return false, "", err
	}
	if form.Active == "true" {
		return true, audit.ActionActivate, nil
	}
	return false, audit.ActionDeactivate, nil
}

func (s *Server) handleToggleCoupon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	active, action, err := toggleAction(r)
	if err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	if err := s.api.SetCouponActive(r.Context(), id, active); err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	s.record(r.Context(), action, audit.ResourceCoupon, id, "")
	s.done(w, r, audit.ResourceCoupon, "/coupons", "Coupon "+action+"d")
}

func (s *Server) handleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.api.DeleteCoupon(r.Context(), id); err != nil {
		s.fail(w, r, "/coupons", err)
		return
	}
	s.record(r.Context(), audit.ActionDelete, audit.ResourceCoupon, id, "")
	s.done(w, r, audit.ResourceCoupon, "/coupons", "Coupon deleted")
}

func (s *Server) handleDiscounts(w http.ResponseWriter, r *http.Request) {
	var data discountsData
	v := view{Title: "Automatic discounts", Nav: "discounts", Data: &data}
	discounts, err := s.api.Discounts(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Discount list load failed", err)
		v.Error = userMessage(err)
	}
	data.Discounts = discounts
	s.render(w, r, nil, "discounts", v, nil)
}

func parseDiscount(f discountForm) (core.Discount, error) {
	value, err := parseNumber("value", f.Value)
	if err != nil {
		return core.Discount{}, err
	}
	minOrder, err := core.ParseMoneyAllowZero(f.MinOrderAmount)
	if err != nil {
		return core.Discount{}, invalid(err)
	}
	start, err := parseOptionalDate(f.StartDate)
	if err != nil {
		return core.Discount{}, err
	}
	end, err := parseOptionalDate(f.EndDate)
	if err != nil {
		return core.Discount{}, err
	}
	d := core.Discount{
		Name:           f.Name,
		Description:    f.Description,
		Type:           core.DiscountType(f.Type),
		Value:          value,
		MinOrderAmount: minOrder,
		StartDate:      start,
		EndDate:        end,
		Active:         true,
	}
	if err := d.Validate(); err != nil {
		return core.Discount{}, invalid(err)
	}
	return d, nil
}

func (s *Server) handleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var form discountForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	d, err := parseDiscount(form)
	if err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	created, err := s.api.CreateDiscount(r.Context(), d)
	if err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	s.record(r.Context(), audit.ActionCreate, audit.ResourceDiscount, created.ID,
		fmt.Sprintf("%s (%s)", d.Name, core.ValueLabel(d.Type, d.Value, s.cfg.CurrencySymbol)))
	s.done(w, r, audit.ResourceDiscount, "/discounts", fmt.Sprintf("Discount %q created", d.Name))
}

func (s *Server) handleToggleDiscount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	active, action, err := toggleAction(r)
	if err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	if err := s.api.SetDiscountActive(r.Context(), id, active); err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	s.record(r.Context(), action, audit.ResourceDiscount, id, "")
	s.done(w, r, audit.ResourceDiscount, "/discounts", "Discount "+action+"d")
}

func (s *Server) handleDeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.api.DeleteDiscount(r.Context(), id); err != nil {
		s.fail(w, r, "/discounts", err)
		return
	}
	s.record(r.Context(), audit.ActionDelete, audit.ResourceDiscount, id, "")
	s.done(w, r, audit.ResourceDiscount, "/discounts", "Discount deleted")
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var data settingsData
	v := view{Title: "Store settings", Nav: "settings", Data: &data}
	st, err := s.settings(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Settings load failed", err)
		v.Error = userMessage(err)
	}
	data.Settings = st
	s.render(w, r, nil, "settings", v, nil)
}

// handleUpdateSettings takes the tax rate as a percentage and stores it as a
// fraction.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var form settingsForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/settings", err)
		return
	}
	pct, err := parseNumber("tax rate", form.TaxPercent)
	if err != nil {
		s.fail(w, r, "/settings", err)
		return
	}
	shipping, err := core.ParseMoneyAllowZero(form.ShippingCost)
	if err != nil {
		s.fail(w, r, "/settings", invalid(err))
		return
	}
	threshold, err := core.ParseMoneyAllowZero(form.FreeShippingThreshold)
	if err != nil {
		s.fail(w, r, "/settings", invalid(err))
		return
	}

	ctx := r.Context()
	st, err := s.settings(ctx)
	if err != nil {
		s.fail(w, r, "/settings", err)
		return
	}
	st.TaxRate = pct / 100
	st.ShippingCost = shipping
	st.FreeShippingThreshold = threshold
	if err := st.Validate(); err != nil {
		s.fail(w, r, "/settings", invalid(err))
		return
	}
	if _, err := s.api.UpdateSettings(ctx, st); err != nil {
		s.fail(w, r, "/settings", err)
		return
	}
	s.settingsCache.DeletePrefix(cache.Prefix(cacheSettings))
	s.record(ctx, audit.ActionUpdate, audit.ResourceSettings, "",
		fmt.Sprintf("tax %s%%, shipping %s, free over %s", st.TaxPercent(),
			shipping.Format(s.cfg.CurrencySymbol), threshold.Format(s.cfg.CurrencySymbol)))
	s.done(w, r, audit.ResourceSettings, "/settings", "Settings saved")
}
