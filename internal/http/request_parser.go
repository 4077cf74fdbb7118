// Package http provides HTTP server and handler implementations.
//
// This file decodes and validates the admin and storefront forms. Fields are
// bound by their `form` tag and checked with go-playground/validator before
// any backend request is made.

package http

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	return v
}

// ValidationError is a failure caught before any request was sent.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

type expenseForm struct {
	Description string `form:"description" validate:"required,max=200"`
	Amount      string `form:"amount" validate:"required"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	PaymentType string `form:"paymentType" validate:"required,oneof=cash online"`
	Category    string `form:"category" validate:"required"`
	PaidBy      string `form:"paidBy"`
	Notes       string `form:"notes" validate:"max=500"`
}

type categoryForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Description string `form:"description" validate:"max=300"`
}

type couponForm struct {
	Code           string `form:"code" validate:"required,max=40"`
	Description    string `form:"description" validate:"max=200"`
	Type           string `form:"type" validate:"required,oneof=percentage fixed"`
	Value          string `form:"value" validate:"required"`
	MinOrderAmount string `form:"minOrderAmount"`
	MaxUses        string `form:"maxUses" validate:"omitempty,number"`
	ExpiresAt      string `form:"expiresAt" validate:"omitempty,datetime=2006-01-02"`
}

type discountForm struct {
	Name           string `form:"name" validate:"required,max=100"`
	Description    string `form:"description" validate:"max=200"`
	Type           string `form:"type" validate:"required,oneof=percentage fixed"`
	Value          string `form:"value" validate:"required"`
	MinOrderAmount string `form:"minOrderAmount"`
	StartDate      string `form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `form:"endDate" validate:"omitempty,datetime=2006-01-02"`
}

type toggleForm struct {
	Active string `form:"active" validate:"required,oneof=true false"`
}

type settingsForm struct {
	TaxPercent            string `form:"taxPercent" validate:"required,numeric"`
	ShippingCost          string `form:"shippingCost"`
	FreeShippingThreshold string `form:"freeShippingThreshold"`
}

type rawMaterialForm struct {
	Name     string `form:"name" validate:"required,max=100"`
	Unit     string `form:"unit" validate:"required,max=20"`
	UnitCost string `form:"unitCost"`
	Stock    string `form:"currentStock" validate:"omitempty,numeric"`
	MinStock string `form:"minimumStock" validate:"omitempty,numeric"`
	Supplier string `form:"supplier" validate:"max=100"`
}

type taskStatusForm struct {
	Status string `form:"status" validate:"required,oneof=pending in_progress completed skipped"`
}

type generateTasksForm struct {
	ChecklistType string `form:"checklistType" validate:"required,oneof=daily weekly monthly custom"`
	Range         string `form:"range" validate:"required"`
	Start         string `form:"start" validate:"omitempty,datetime=2006-01-02"`
	End           string `form:"end" validate:"omitempty,datetime=2006-01-02"`
}

type orderStatusForm struct {
	Status string `form:"status" validate:"required,oneof=pending confirmed preparing shipped delivered cancelled"`
}

type cartItemForm struct {
	ProductID string `form:"productId" validate:"required,max=64"`
	Quantity  int    `form:"quantity" validate:"min=1,max=99"`
}

type couponCodeForm struct {
	Code string `form:"code" validate:"required,max=40"`
}

type checkoutForm struct {
	ShippingAddress string `form:"shippingAddress" validate:"required,max=300"`
	Notes           string `form:"notes" validate:"max=500"`
}

// decodeForm parses the request form into dst, a pointer to a struct whose
// string and int fields carry `form` tags, then validates it. Every failure
// is a *ValidationError.
func decodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return invalid(errors.New("the request could not be read"))
	}
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := field.Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		raw := sanitizeInput(r.PostForm.Get(name))
		switch field.Type.Kind() {
		case reflect.String:
			rv.Field(i).SetString(raw)
		case reflect.Int:
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return invalid(fmt.Errorf("%s must be a whole number", fieldLabel(name)))
			}
			rv.Field(i).SetInt(int64(n))
		}
	}
	if err := validate.Struct(dst); err != nil {
		return invalid(translateValidation(err))
	}
	return nil
}

// translateValidation reports the first failed rule as a sentence.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", label)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Errorf("%s must be at most %s characters", label, fe.Param())
		}
		return fmt.Errorf("%s must be at most %s", label, fe.Param())
	case "min":
		return fmt.Errorf("%s must be at least %s", label, fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Errorf("%s must be a date (YYYY-MM-DD)", label)
	case "numeric", "number":
		return fmt.Errorf("%s must be a number", label)
	default:
		return fmt.Errorf("%s is invalid", label)
	}
}

var fieldLabels = map[string]string{
	"paymentType":           "payment type",
	"paidBy":                "paid by",
	"minOrderAmount":        "minimum order amount",
	"maxUses":               "maximum uses",
	"expiresAt":             "expiry date",
	"startDate":             "start date",
	"endDate":               "end date",
	"taxPercent":            "tax rate",
	"shippingCost":          "shipping cost",
	"freeShippingThreshold": "free shipping threshold",
	"unitCost":              "unit cost",
	"currentStock":          "current stock",
	"minimumStock":          "minimum stock",
	"checklistType":         "checklist type",
	"productId":             "product",
	"code":                  "coupon code",
	"shippingAddress":       "shipping address",
}

func fieldLabel(name string) string {
	if l, ok := fieldLabels[name]; ok {
		return l
	}
	return name
}

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
