package http

import (
	"net/http"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	"opsdesk/internal/filter"
	applog "opsdesk/internal/log"
)

type adminOrdersData struct {
	Filter filter.ListFilter
	Range  daterange.Range
	Page   api.Page[core.Order]
}

type myOrdersData struct {
	Orders []core.Order
}

type orderData struct {
	Order core.Order
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	f := filter.Parse(r.URL.Query()).Normalize()
	data := adminOrdersData{Filter: f}
	v := view{Title: "Orders", Nav: "orders", Data: &data}

	rng, err := f.Resolve(s.now(), daterange.ThisMonth)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "admin_orders", v, nil)
		return
	}
	data.Range = rng
	q, err := f.APIQuery(s.now(), daterange.ThisMonth)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "admin_orders", v, nil)
		return
	}
	if data.Page, err = s.api.Orders(r.Context(), q); err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Order list load failed", err)
		v.Error = userMessage(err)
	}
	s.render(w, r, nil, "admin_orders", v, nil)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := backTo(r, "/admin/orders")
	var form orderStatusForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	status := core.OrderStatus(form.Status)
	if err := s.api.UpdateOrderStatus(r.Context(), id, status); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionStatus, audit.ResourceOrder, id, string(status))
	s.done(w, r, audit.ResourceOrder, back, "Order marked "+string(status))
}

// handleMyOrders lists the visitor's own orders, newest first as the
// backend returns them.
func (s *Server) handleMyOrders(w http.ResponseWriter, r *http.Request) {
	var data myOrdersData
	v := view{Title: "My orders", Nav: "orders", Data: &data}
	orders, err := s.api.MyOrders(r.Context())
	if err != nil {
		s.log(r.Context()).WarnContextErr(r.Context(), "Customer order list load failed", err)
		v.Error = userMessage(err)
	}
	data.Orders = orders
	s.render(w, r, nil, "my_orders", v, nil)
}

func (s *Server) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	o, err := s.api.Order(ctx, id)
	if err != nil {
		s.log(ctx).WarnContextErr(ctx, "Order load failed", err, applog.FieldResourceID, id)
		s.redirectAway(w, r, "/orders", err)
		return
	}
	title := "Order " + o.OrderNumber
	if o.OrderNumber == "" {
		title = "Order"
	}
	s.render(w, r, nil, "order", view{Title: title, Nav: "orders", Data: &orderData{Order: o}}, nil)
}
