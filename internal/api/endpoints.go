package api

import (
	"context"
	"net/url"

	"opsdesk/internal/core"
)

func idPath(prefix, id string) string {
	return prefix + "/" + url.PathEscape(id)
}

// Cashbox

func (c *Client) CashboxSessions(ctx context.Context, q url.Values) (Page[core.CashboxSession], error) {
	return listOf[core.CashboxSession](ctx, c, "/cashbox/sessions", q)
}

func (c *Client) CashboxSummary(ctx context.Context, q url.Values) (core.CashboxSummary, error) {
	var s core.CashboxSummary
	err := c.Get(ctx, "/cashbox/summary", q, &s)
	return s, err
}

// Coupons and automatic discounts

func (c *Client) Coupons(ctx context.Context) ([]core.Coupon, error) {
	return allOf[core.Coupon](ctx, c, "/coupons", nil)
}

func (c *Client) CreateCoupon(ctx context.Context, in core.Coupon) (core.Coupon, error) {
	var out core.Coupon
	err := c.Post(ctx, "/coupons", in, &out)
	return out, err
}

func (c *Client) SetCouponActive(ctx context.Context, id string, active bool) error {
	return c.Patch(ctx, idPath("/coupons", id), map[string]bool{"isActive": active}, nil)
}

func (c *Client) DeleteCoupon(ctx context.Context, id string) error {
	return c.Delete(ctx, idPath("/coupons", id), nil)
}

func (c *Client) Discounts(ctx context.Context) ([]core.Discount, error) {
	return allOf[core.Discount](ctx, c, "/discounts", nil)
}

func (c *Client) CreateDiscount(ctx context.Context, in core.Discount) (core.Discount, error) {
	var out core.Discount
	err := c.Post(ctx, "/discounts", in, &out)
	return out, err
}

func (c *Client) SetDiscountActive(ctx context.Context, id string, active bool) error {
	return c.Patch(ctx, idPath("/discounts", id), map[string]bool{"isActive": active}, nil)
}

func (c *Client) DeleteDiscount(ctx context.Context, id string) error {
	return c.Delete(ctx, idPath("/discounts", id), nil)
}

// Settings

func (c *Client) Settings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := c.Get(ctx, "/settings", nil, &s)
	return s, err
}

func (c *Client) UpdateSettings(ctx context.Context, s core.Settings) (core.Settings, error) {
	var out core.Settings
	err := c.Put(ctx, "/settings", s, &out)
	return out, err
}

// Expenses

func (c *Client) Expenses(ctx context.Context, q url.Values) (Page[core.Expense], error) {
	return listOf[core.Expense](ctx, c, "/expenses", q)
}

func (c *Client) Expense(ctx context.Context, id string) (core.Expense, error) {
	var e core.Expense
	err := c.Get(ctx, idPath("/expenses", id), nil, &e)
	return e, err
}

func (c *Client) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := c.Post(ctx, "/expenses", e, &out)
	return out, err
}

func (c *Client) UpdateExpense(ctx context.Context, id string, e core.Expense) (core.Expense, error) {
	var out core.Expense
	err := c.Put(ctx, idPath("/expenses", id), e, &out)
	return out, err
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.Delete(ctx, idPath("/expenses", id), nil)
}

func (c *Client) ExpenseCategories(ctx context.Context) ([]core.Category, error) {
	return allOf[core.Category](ctx, c, "/expense-categories", nil)
}

func (c *Client) CreateExpenseCategory(ctx context.Context, cat core.Category) (core.Category, error) {
	var out core.Category
	err := c.Post(ctx, "/expense-categories", cat, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]core.User, error) {
	return allOf[core.User](ctx, c, "/users", nil)
}

// Inventory

func (c *Client) RawMaterials(ctx context.Context) ([]core.RawMaterial, error) {
	return allOf[core.RawMaterial](ctx, c, "/raw-materials", nil)
}

func (c *Client) CreateRawMaterial(ctx context.Context, m core.RawMaterial) (core.RawMaterial, error) {
	var out core.RawMaterial
	err := c.Post(ctx, "/raw-materials", m, &out)
	return out, err
}

func (c *Client) DeleteRawMaterial(ctx context.Context, id string) error {
	return c.Delete(ctx, idPath("/raw-materials", id), nil)
}

func (c *Client) Recipes(ctx context.Context) ([]core.Recipe, error) {
	return allOf[core.Recipe](ctx, c, "/recipes", nil)
}

func (c *Client) Recipe(ctx context.Context, id string) (core.Recipe, error) {
	var r core.Recipe
	err := c.Get(ctx, idPath("/recipes", id), nil, &r)
	return r, err
}

func (c *Client) RecipeCost(ctx context.Context, id string) (core.RecipeCost, error) {
	var rc core.RecipeCost
	err := c.Get(ctx, idPath("/recipes", id)+"/cost", nil, &rc)
	return rc, err
}

// Tasks

func (c *Client) Tasks(ctx context.Context, q url.Values) (Page[core.Task], error) {
	return listOf[core.Task](ctx, c, "/tasks", q)
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status core.TaskStatus) error {
	return c.Patch(ctx, idPath("/tasks", id), map[string]core.TaskStatus{"status": status}, nil)
}

func (c *Client) GenerateTasks(ctx context.Context, req core.TaskGenerationRequest) (core.TaskGenerationResult, error) {
	var out core.TaskGenerationResult
	err := c.Post(ctx, "/tasks/generate-date-range", req, &out)
	return out, err
}

func (c *Client) SchedulerStatus(ctx context.Context) (core.SchedulerStatus, error) {
	var s core.SchedulerStatus
	err := c.Get(ctx, "/tasks/scheduler/status", nil, &s)
	return s, err
}

func (c *Client) StartScheduler(ctx context.Context) error {
	return c.Post(ctx, "/tasks/scheduler/start", nil, nil)
}

func (c *Client) StopScheduler(ctx context.Context) error {
	return c.Post(ctx, "/tasks/scheduler/stop", nil, nil)
}

// Orders and storefront

func (c *Client) Orders(ctx context.Context, q url.Values) (Page[core.Order], error) {
	return listOf[core.Order](ctx, c, "/orders", q)
}

func (c *Client) MyOrders(ctx context.Context) ([]core.Order, error) {
	return allOf[core.Order](ctx, c, "/orders/my-orders", nil)
}

func (c *Client) Order(ctx context.Context, id string) (core.Order, error) {
	var o core.Order
	err := c.Get(ctx, idPath("/orders", id), nil, &o)
	return o, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status core.OrderStatus) error {
	return c.Patch(ctx, idPath("/orders", id), map[string]core.OrderStatus{"status": status}, nil)
}

func (c *Client) CalculateOrder(ctx context.Context, req core.CalculateRequest) (core.PricingBreakdown, error) {
	var b core.PricingBreakdown
	err := c.Post(ctx, "/orders/calculate", req, &b)
	return b, err
}

func (c *Client) CreateOrder(ctx context.Context, req core.CreateOrderRequest) (core.Order, error) {
	var o core.Order
	err := c.Post(ctx, "/orders", req, &o)
	return o, err
}

func (c *Client) Products(ctx context.Context) ([]core.Product, error) {
	return allOf[core.Product](ctx, c, "/products", nil)
}
