package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	ChecklistDaily   ChecklistType = "daily"
	ChecklistWeekly  ChecklistType = "weekly"
	ChecklistMonthly ChecklistType = "monthly"
	ChecklistCustom  ChecklistType = "custom"
)

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskSkipped    TaskStatus = "skipped"
)

var (
	ErrInvertedDates  = errors.New("end date must not be before start date")
	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 100 percent")
	ErrEmptyUnit      = errors.New("unit is required")
)

type (
	ChecklistType string
	TaskStatus    string

	RawMaterial struct {
		ID       string  `json:"_id,omitempty"`
		Name     string  `json:"name"`
		Unit     string  `json:"unit"`
		UnitCost Money   `json:"unitCost"`
		Stock    float64 `json:"currentStock"`
		MinStock float64 `json:"minimumStock"`
		Supplier string  `json:"supplier,omitempty"`
	}

	RecipeIngredient struct {
		RawMaterial Ref[RawMaterial] `json:"rawMaterial"`
		Quantity    float64          `json:"quantity"`
		Unit        string           `json:"unit,omitempty"`
	}

	Recipe struct {
		ID          string             `json:"_id"`
		Name        string             `json:"name"`
		Description string             `json:"description,omitempty"`
		Product     Ref[Product]       `json:"product"`
		Ingredients []RecipeIngredient `json:"ingredients"`
		Yield       float64            `json:"yield,omitempty"`
	}

	RecipeCostLine struct {
		Name     string  `json:"name"`
		Quantity float64 `json:"quantity"`
		Unit     string  `json:"unit"`
		UnitCost Money   `json:"unitCost"`
		Cost     Money   `json:"cost"`
	}

	// RecipeCost is the backend's cost breakdown of a recipe.
	RecipeCost struct {
		RecipeID    string           `json:"recipeId"`
		Ingredients []RecipeCostLine `json:"ingredients"`
		TotalCost   Money            `json:"totalCost"`
		CostPerUnit Money            `json:"costPerUnit"`
		SalePrice   Money            `json:"salePrice"`
		Margin      float64          `json:"margin"`
	}

	Task struct {
		ID            string        `json:"_id"`
		Title         string        `json:"title"`
		Description   string        `json:"description,omitempty"`
		ChecklistType ChecklistType `json:"checklistType"`
		Status        TaskStatus    `json:"status"`
		DueDate       Date          `json:"dueDate"`
		AssignedTo    Ref[User]     `json:"assignedTo"`
		Priority      string        `json:"priority,omitempty"`
	}

	TaskGenerationRequest struct {
		ChecklistType ChecklistType `json:"checklistType"`
		StartDate     Date          `json:"startDate"`
		EndDate       Date          `json:"endDate"`
	}

	TaskGenerationResult struct {
		Created int    `json:"created"`
		Skipped int    `json:"skipped"`
		Message string `json:"message"`
	}

	SchedulerStatus struct {
		Running        bool   `json:"isRunning"`
		NextRun        string `json:"nextRun,omitempty"`
		LastRun        string `json:"lastRun,omitempty"`
		CronExpression string `json:"cronExpression,omitempty"`
	}
)

func (r RawMaterial) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(r.Unit) == "" {
		return ErrEmptyUnit
	}
	if r.UnitCost.Cents < 0 || r.Stock < 0 || r.MinStock < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// LowStock reports whether current stock is at or below the minimum.
func (r RawMaterial) LowStock() bool {
	return r.MinStock > 0 && r.Stock <= r.MinStock
}

// IngredientName returns the raw material name when populated, else its id.
func (i RecipeIngredient) IngredientName() string {
	if i.RawMaterial.Value != nil {
		return i.RawMaterial.Value.Name
	}
	return i.RawMaterial.ID
}

func ChecklistTypes() []ChecklistType {
	return []ChecklistType{ChecklistDaily, ChecklistWeekly, ChecklistMonthly, ChecklistCustom}
}

func (c ChecklistType) Valid() bool {
	switch c {
	case ChecklistDaily, ChecklistWeekly, ChecklistMonthly, ChecklistCustom:
		return true
	}
	return false
}

func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskSkipped}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskSkipped:
		return true
	}
	return false
}

func (r TaskGenerationRequest) Validate() error {
	if !r.ChecklistType.Valid() {
		return ErrInvalidChecklist
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return errors.New("start and end date are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return ErrInvertedDates
	}
	return nil
}

// FormatPercent renders v with at most two decimals and no trailing zeros:
// 8 -> "8", 7.5 -> "7.5".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
