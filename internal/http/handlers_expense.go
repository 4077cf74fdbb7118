package http

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"opsdesk/internal/aggregate"
	"opsdesk/internal/api"
	"opsdesk/internal/audit"
	"opsdesk/internal/cache"
	"opsdesk/internal/core"
	"opsdesk/internal/daterange"
	"opsdesk/internal/filter"
	applog "opsdesk/internal/log"
	"opsdesk/internal/sheets"
)

// maxExpensePages bounds how many backend pages feed one summary.
const maxExpensePages = 50

type expenseRow struct {
	core.Expense
	CategoryName string
	PaidByName   string
}

type expensesData struct {
	Filter        filter.ListFilter
	Range         daterange.Range
	Page          api.Page[core.Expense]
	Rows          []expenseRow
	Summary       aggregate.Summary
	Categories    []core.Category
	ExportEnabled bool
}

type expenseFormData struct {
	Expense    core.Expense
	Action     string
	Categories []core.Category
	Users      []core.User
}

// collectExpenses fetches every page of the expense list for q.
func (s *Server) collectExpenses(ctx context.Context, q url.Values) ([]core.Expense, error) {
	q = cloneValues(q)
	var all []core.Expense
	for n := 1; n <= maxExpensePages; n++ {
		q.Set("page", strconv.Itoa(n))
		page, err := s.api.Expenses(ctx, q)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasNext() {
			return all, nil
		}
	}
	s.log(ctx).WarnContext(ctx, "Expense summary truncated", "pages", maxExpensePages)
	return all, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// expenseReport loads everything one summary needs: all expenses in the
// filter's range and the lookup tables to name them.
func (s *Server) expenseReport(ctx context.Context, q url.Values) ([]core.Expense, []core.Category, []core.User, error) {
	var (
		expenses   []core.Expense
		categories []core.Category
		users      []core.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.collectExpenses(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return expenses, categories, users, nil
}

// handleExpenses lists one page of expenses and summarizes the whole range.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f := filter.Parse(r.URL.Query()).Normalize()
	data := expensesData{Filter: f, ExportEnabled: s.exporter != nil}
	v := view{Title: "Expenses", Nav: "expenses", Data: &data}

	rng, err := f.Resolve(s.now(), daterange.ThisMonth)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "expenses", v, nil)
		return
	}
	data.Range = rng
	q, err := f.APIQuery(s.now(), daterange.ThisMonth)
	if err != nil {
		v.Error = userMessage(err)
		s.render(w, r, nil, "expenses", v, nil)
		return
	}

	var all []core.Expense
	var users []core.User
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Page, err = s.api.Expenses(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		all, data.Categories, users, err = s.expenseReport(gctx, withoutPage(q))
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).WarnContextErr(ctx, "Expense list load failed", err, applog.FieldRange, rng.String())
		v.Error = userMessage(err)
		s.render(w, r, nil, "expenses", v, nil)
		return
	}

	data.Summary = aggregate.Summarize(all, data.Categories, users)
	data.Rows = expenseRows(data.Page.Items, data.Categories, users)
	s.render(w, r, nil, "expenses", v, nil)
}

func withoutPage(q url.Values) url.Values {
	out := cloneValues(q)
	out.Del("page")
	return out
}

func expenseRows(expenses []core.Expense, categories []core.Category, users []core.User) []expenseRow {
	catNames := make(map[string]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = c.Name
	}
	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.FullName()
	}
	rows := make([]expenseRow, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, expenseRow{
			Expense:      e,
			CategoryName: aggregate.CategoryName(e.Category, catNames),
			PaidByName:   aggregate.UserName(e.PaidBy, userNames),
		})
	}
	return rows
}

func (s *Server) expenseLookups(ctx context.Context) ([]core.Category, []core.User, error) {
	var (
		categories []core.Category
		users      []core.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.users(gctx)
		return err
	})
	err := g.Wait()
	return categories, users, err
}

func (s *Server) handleNewExpense(w http.ResponseWriter, r *http.Request) {
	data := expenseFormData{
		Expense: core.Expense{Date: core.DateOf(s.now()), PaymentType: core.PaymentCash},
		Action:  "/expenses",
	}
	v := view{Title: "New expense", Nav: "expenses", Data: &data}
	var err error
	data.Categories, data.Users, err = s.expenseLookups(r.Context())
	if err != nil {
		v.Error = userMessage(err)
	}
	s.render(w, r, nil, "expense_form", v, nil)
}

// handleEditExpense shows the form for an existing expense. A load failure
// sends the user back to the list.
func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	data := expenseFormData{Action: "/expenses/" + url.PathEscape(id)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Expense, err = s.api.Expense(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		data.Categories, data.Users, err = s.expenseLookups(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log(ctx).WarnContextErr(ctx, "Expense load failed", err, applog.FieldResourceID, id)
		s.redirectAway(w, r, "/expenses", err)
		return
	}
	s.render(w, r, nil, "expense_form", view{Title: "Edit expense", Nav: "expenses", Data: &data}, nil)
}

// redirectAway leaves a detail page that could not be loaded.
func (s *Server) redirectAway(w http.ResponseWriter, r *http.Request, to string, err error) {
	msg := userMessage(err)
	if isHTMX(r) {
		sess := s.sessions.Load(r)
		sess.SetFlash(string(NotificationError), msg)
		s.saveSession(w, r, sess)
		NewHTMXResponse().Redirect(to).Write(w)
		return
	}
	s.redirectWithFlash(w, r, nil, to, NotificationError, msg)
}

// parseExpense turns the form into a validated expense.
func parseExpense(f expenseForm) (core.Expense, error) {
	amount, err := core.ParseMoney(f.Amount)
	if err != nil {
		return core.Expense{}, invalid(err)
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Expense{}, invalid(err)
	}
	e := core.Expense{
		Description: f.Description,
		Amount:      amount,
		Date:        date,
		PaymentType: core.PaymentType(f.PaymentType),
		Category:    core.RefID[core.Category](f.Category),
		Notes:       f.Notes,
	}
	if f.PaidBy != "" {
		e.PaidBy = core.RefID[core.User](f.PaidBy)
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, invalid(err)
	}
	return e, nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var form expenseForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, "/expenses/new", err)
		return
	}
	e, err := parseExpense(form)
	if err != nil {
		s.fail(w, r, "/expenses/new", err)
		return
	}
	created, err := s.api.CreateExpense(r.Context(), e)
	if err != nil {
		s.fail(w, r, "/expenses/new", err)
		return
	}
	s.record(r.Context(), audit.ActionCreate, audit.ResourceExpense, created.ID,
		fmt.Sprintf("%s %s", e.Description, e.Amount.Format(s.cfg.CurrencySymbol)))
	s.done(w, r, audit.ResourceExpense, "/expenses", "Expense saved")
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := "/expenses/" + url.PathEscape(id) + "/edit"
	var form expenseForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	e, err := parseExpense(form)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	if _, err := s.api.UpdateExpense(r.Context(), id, e); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionUpdate, audit.ResourceExpense, id,
		fmt.Sprintf("%s %s", e.Description, e.Amount.Format(s.cfg.CurrencySymbol)))
	s.done(w, r, audit.ResourceExpense, "/expenses", "Expense updated")
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	back := backTo(r, "/expenses")
	if err := s.api.DeleteExpense(r.Context(), id); err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.record(r.Context(), audit.ActionDelete, audit.ResourceExpense, id, "")
	s.done(w, r, audit.ResourceExpense, back, "Expense deleted")
}

// handleExportExpenses writes the summary of the filter in the query string
// to the configured spreadsheet.
func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		NotFoundError("Spreadsheet export is not configured.").Write(w)
		return
	}
	ctx := r.Context()
	f := filter.Parse(r.URL.Query()).Normalize()
	back := "/expenses" + f.QueryString()

	rng, err := f.Resolve(s.now(), daterange.ThisMonth)
	if err != nil {
		s.fail(w, r, back, invalid(err))
		return
	}
	q, err := f.APIQuery(s.now(), daterange.ThisMonth)
	if err != nil {
		s.fail(w, r, back, invalid(err))
		return
	}
	expenses, categories, users, err := s.expenseReport(ctx, withoutPage(q))
	if err != nil {
		s.fail(w, r, back, err)
		return
	}

	report := sheets.Report{
		Range:       rng,
		Summary:     aggregate.Summarize(expenses, categories, users),
		GeneratedAt: s.now(),
	}
	res, err := s.exporter.ExportSummary(ctx, report)
	if err != nil {
		s.log(ctx).WithComponent(applog.ComponentSheets).ErrorContextErr(ctx, "Expense export failed", err,
			applog.FieldRange, rng.String())
		s.fail(w, r, back, fmt.Errorf("export expenses: %w", err))
		return
	}

	s.record(ctx, audit.ActionExport, audit.ResourceExpense, "",
		fmt.Sprintf("%d expenses for %s", report.Summary.Count, rng))
	msg := fmt.Sprintf("Exported %d expenses for %s", report.Summary.Count, rng)
	if isHTMX(r) {
		NewHTMXResponse().
			TriggerExportDone(res.URL).
			TriggerSuccessNotification(msg).
			Write(w)
		return
	}
	s.redirectWithFlash(w, r, nil, back, NotificationSuccess, msg)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	back := backTo(r, "/expenses/new")
	var form categoryForm
	if err := decodeForm(r, &form); err != nil {
		s.fail(w, r, back, err)
		return
	}
	c := core.Category{Name: form.Name, Description: form.Description}
	if err := c.Validate(); err != nil {
		s.fail(w, r, back, invalid(err))
		return
	}
	created, err := s.api.CreateExpenseCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, back, err)
		return
	}
	s.categoryCache.DeletePrefix(cache.Prefix(cacheCategories))
	s.record(r.Context(), audit.ActionCreate, audit.ResourceCategory, created.ID, c.Name)
	s.done(w, r, audit.ResourceCategory, back, fmt.Sprintf("Category %q created", c.Name))
}
