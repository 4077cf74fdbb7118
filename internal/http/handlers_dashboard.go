package http

import (
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	"opsdesk/internal/filter"
)

const recentAuditEvents = 10

type dashboardData struct {
	Today        core.Date
	Summary      core.CashboxSummary
	OpenSessions []core.CashboxSession
	LowStock     []core.RawMaterial
	Scheduler    core.SchedulerStatus
	AuditEnabled bool
	Recent       []audit.Event
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	today := core.DateOf(s.now())
	data := dashboardData{Today: today, AuditEnabled: s.auditLog != nil}
	v := view{Title: "Dashboard", Nav: "dashboard", Data: &data}

	day := url.Values{"startDate": {today.String()}, "endDate": {today.String()}}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Summary, err = s.api.CashboxSummary(gctx, day)
		return err
	})
	g.Go(func() error {
		page, err := s.api.CashboxSessions(gctx, url.Values{"status": {"open"}})
		data.OpenSessions = page.Items
		return err
	})
	g.Go(func() error {
		materials, err := s.api.RawMaterials(gctx)
		for _, m := range materials {
			if m.LowStock() {
				data.LowStock = append(data.LowStock, m)
			}
		}
		return err
	})
	g.Go(func() error {
		var err error
		data.Scheduler, err = s.api.SchedulerStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).WarnContextErr(ctx, "Dashboard load failed", err)
		v.Error = userMessage(err)
	}

	if s.auditLog != nil {
		events, err := s.auditLog.Recent(ctx, recentAuditEvents)
		if err != nil {
			s.log(ctx).WarnContextErr(ctx, "Failed to read audit log", err)
		}
		data.Recent = events
	}

	s.render(w, r, nil, "dashboard", v, nil)
}

type cashboxData struct {
	Filter   filter.ListFilter
	Range    daterange.Range
	Summary  core.CashboxSummary
	Sessions api.Page[core.CashboxSession]
}

// handleCashbox lists register sessions and their summary for the filter's
// range. The summary covers the whole range, the list one page of it.
func (s *Server) handleCashbox(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := filter.Parse(r.URL.Query()).Normalize()
	data := cashboxData{Filter: f}
	v := view{Title: "Cashbox", Nav: "cashbox", Data: &data}

	rng, err := f.Resolve(s.now(), daterange.Today)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "cashbox", v, nil)
		return
	}
	data.Range = rng
	q, err := f.APIQuery(s.now(), daterange.Today)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "cashbox", v, nil)
		return
	}
	span := url.Values{"startDate": {rng.Start.String()}, "endDate": {rng.End.String()}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Summary, err = s.api.CashboxSummary(gctx, span)
		return err
	})
	g.Go(func() error {
		var err error
		data.Sessions, err = s.api.CashboxSessions(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).WarnContextErr(ctx, "Cashbox load failed", err)
		v.Error = userMessage(err)
	}
	s.render(w, r, nil, "cashbox", v, nil)
}
