package aggregate

import (
	"testing"

	"opsdesk/internal/core"
)

func expense(cents int64, pt core.PaymentType, cat core.Ref[core.Category], user core.Ref[core.User]) core.Expense {
	return core.Expense{Amount: core.Money{Cents: cents}, PaymentType: pt, Category: cat, PaidBy: user}
}

var (
	categories = []core.Category{{ID: "c1", Name: "Food"}, {ID: "c2", Name: "Cleaning"}}
	users      = []core.User{{ID: "u1", FirstName: "Ana", LastName: "Diaz"}, {ID: "u2", FirstName: "Bo"}}
)

func sample() []core.Expense {
	return []core.Expense{
		expense(1000, core.PaymentCash, core.RefID[core.Category]("c1"), core.RefID[core.User]("u1")),
		expense(2500, core.PaymentOnline, core.RefTo("c2", core.Category{ID: "c2", Name: "Cleaning"}), core.RefID[core.User]("u2")),
		expense(700, "", core.RefID[core.Category]("missing"), core.RefTo("u9", core.User{FirstName: "Cy", LastName: "Lee "})),
		expense(300, core.PaymentCash, core.RefID[core.Category]("c1"), core.Ref[core.User]{}),
	}
}

func TestEmptyInput(t *testing.T) {
	if got := TotalAmount(nil); !got.IsZero() {
		t.Fatalf("total of nothing = %d", got.Cents)
	}
	if got := AmountByType(nil); len(got) != 0 {
		t.Fatalf("by type of nothing = %v", got)
	}
	if got := AmountByCategory(nil, categories); len(got) != 0 {
		t.Fatalf("by category of nothing = %v", got)
	}
	s := Summarize(nil, nil, nil)
	if s.Count != 0 || !s.Total.IsZero() {
		t.Fatalf("empty summary = %+v", s)
	}
}

func TestAmountByType(t *testing.T) {
	got := AmountByType(sample())
	want := map[string]int64{"cash": 1300, "online": 2500, UnknownType: 700}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for k, v := range want {
		if got[k].Cents != v {
			t.Fatalf("%s = %d, want %d", k, got[k].Cents, v)
		}
	}
}

func TestAmountByCategory(t *testing.T) {
	rows := AmountByCategory(sample(), categories)
	want := []Row{
		{"Cleaning", core.Money{Cents: 2500}},
		{"Food", core.Money{Cents: 1300}},
		{UnknownName, core.Money{Cents: 700}},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %v", rows)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestAmountByUser(t *testing.T) {
	rows := AmountByUser(sample(), users)
	want := []string{"Bo", "Ana Diaz", "Cy Lee", UnknownName}
	if len(rows) != len(want) {
		t.Fatalf("got %v", rows)
	}
	for i, name := range want {
		if rows[i].Name != name {
			t.Fatalf("row %d = %q, want %q", i, rows[i].Name, name)
		}
	}
}

func TestPartitionsSumToTotal(t *testing.T) {
	lists := [][]core.Expense{
		sample(),
		{expense(1, "", core.Ref[core.Category]{}, core.Ref[core.User]{})},
		{expense(999, core.PaymentCash, core.RefID[core.Category]("c2"), core.RefID[core.User]("u1")), expense(1, core.PaymentOnline, core.RefID[core.Category]("c2"), core.RefID[core.User]("u1"))},
	}
	for i, exps := range lists {
		total := TotalAmount(exps).Cents
		s := Summarize(exps, categories, users)
		for name, rows := range map[string][]Row{"type": s.ByType, "category": s.ByCategory, "user": s.ByUser} {
			var sum int64
			for _, r := range rows {
				sum += r.Amount.Cents
			}
			if sum != total {
				t.Fatalf("list %d: %s rows sum to %d, total is %d", i, name, sum, total)
			}
		}
	}
}

func TestUnresolvedCategoryIsUnknown(t *testing.T) {
	name := CategoryName(core.RefID[core.Category]("nope"), map[string]string{"c1": "Food"})
	if name != UnknownName {
		t.Fatalf("got %q", name)
	}
}

func TestTiesKeepFirstAppearance(t *testing.T) {
	exps := []core.Expense{
		expense(500, core.PaymentCash, core.RefID[core.Category]("c2"), core.Ref[core.User]{}),
		expense(500, core.PaymentCash, core.RefID[core.Category]("c1"), core.Ref[core.User]{}),
	}
	rows := AmountByCategory(exps, categories)
	if rows[0].Name != "Cleaning" || rows[1].Name != "Food" {
		t.Fatalf("tie order changed: %v", rows)
	}
}
