// Package aggregate groups expense lists into the totals shown in the expense
// summary tables and exported to spreadsheets.
package aggregate

import (
	"sort"

	"opsdesk/internal/core"
)

const (
	// UnknownType buckets expenses without a payment type.
	UnknownType = "unknown"
	// UnknownName labels categories and users that cannot be resolved.
	UnknownName = "Unknown"
)

// Row is a named total.
type Row struct {
	Name   string
	Amount core.Money
}

// Summary bundles every aggregation over one expense list.
type Summary struct {
	Count      int
	Total      core.Money
	ByType     []Row
	ByCategory []Row
	ByUser     []Row
}

// TotalAmount sums all expense amounts.
func TotalAmount(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// AmountByType sums amounts per payment type. Missing types go to UnknownType.
func AmountByType(expenses []core.Expense) map[string]core.Money {
	out := make(map[string]core.Money)
	for _, e := range expenses {
		key := string(e.PaymentType)
		if key == "" {
			key = UnknownType
		}
		out[key] = out[key].Add(e.Amount)
	}
	return out
}

// AmountByCategory sums amounts per resolved category name, largest first.
// Equal amounts keep their first-appearance order.
func AmountByCategory(expenses []core.Expense, categories []core.Category) []Row {
	byID := make(map[string]string, len(categories))
	for _, c := range categories {
		byID[c.ID] = c.Name
	}
	return group(expenses, func(e core.Expense) string {
		return CategoryName(e.Category, byID)
	})
}

// AmountByUser sums amounts per payer full name, largest first.
// Equal amounts keep their first-appearance order.
func AmountByUser(expenses []core.Expense, users []core.User) []Row {
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.FullName()
	}
	return group(expenses, func(e core.Expense) string {
		return UserName(e.PaidBy, byID)
	})
}

// Summarize runs every aggregation. ByType is ordered like the other tables.
func Summarize(expenses []core.Expense, categories []core.Category, users []core.User) Summary {
	return Summary{
		Count:      len(expenses),
		Total:      TotalAmount(expenses),
		ByType:     group(expenses, func(e core.Expense) string { return typeKey(e.PaymentType) }),
		ByCategory: AmountByCategory(expenses, categories),
		ByUser:     AmountByUser(expenses, users),
	}
}

// CategoryName resolves a category reference: a populated object is used
// as is, a raw id is looked up, anything else is UnknownName.
func CategoryName(ref core.Ref[core.Category], byID map[string]string) string {
	if ref.Value != nil && ref.Value.Name != "" {
		return ref.Value.Name
	}
	if name, ok := byID[ref.ID]; ok && name != "" {
		return name
	}
	return UnknownName
}

// UserName resolves a user reference to "firstName lastName".
func UserName(ref core.Ref[core.User], byID map[string]string) string {
	if ref.Value != nil {
		if name := ref.Value.FullName(); name != "" {
			return name
		}
	}
	if name, ok := byID[ref.ID]; ok && name != "" {
		return name
	}
	return UnknownName
}

func typeKey(p core.PaymentType) string {
	if p == "" {
		return UnknownType
	}
	return string(p)
}

func group(expenses []core.Expense, key func(core.Expense) string) []Row {
	index := make(map[string]int)
	rows := make([]Row, 0)
	for _, e := range expenses {
		k := key(e)
		i, ok := index[k]
		if !ok {
			i = len(rows)
			index[k] = i
			rows = append(rows, Row{Name: k})
		}
		rows[i].Amount = rows[i].Amount.Add(e.Amount)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.Cents > rows[j].Amount.Cents
	})
	return rows
}
