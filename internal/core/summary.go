package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the per-category breakdown of a set of expenses.
type Summary struct {
	Total      decimal.Decimal
	ByCategory []CategoryAmount // first-occurrence order
}

// BudgetStatus is the outcome of comparing total spending against a budget.
// When Empty is set no comparison was made and Exceeded is false.
type BudgetStatus struct {
	Total    decimal.Decimal
	Budget   decimal.Decimal
	Exceeded bool
	Empty    bool
}

// Summarize sums all amounts and groups them by category in a single pass.
func Summarize(expenses []Expense) Summary {
	s := Summary{Total: decimal.Zero}
	index := make(map[string]int)
	for _, e := range expenses {
		s.Total = s.Total.Add(e.Amount)
		i, ok := index[e.Category]
		if !ok {
			index[e.Category] = len(s.ByCategory)
			s.ByCategory = append(s.ByCategory, CategoryAmount{Name: e.Category, Amount: e.Amount})
			continue
		}
		s.ByCategory[i].Amount = s.ByCategory[i].Amount.Add(e.Amount)
	}
	return s
}

// CategoryTotals returns the category breakdown as a map.
func (s Summary) CategoryTotals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.ByCategory))
	for _, c := range s.ByCategory {
		out[c.Name] = c.Amount
	}
	return out
}

// CheckBudget compares the total of expenses with budget.
func CheckBudget(budget decimal.Decimal, expenses []Expense) BudgetStatus {
	if len(expenses) == 0 {
		return BudgetStatus{Total: decimal.Zero, Budget: budget, Empty: true}
	}
	total := Summarize(expenses).Total
	return BudgetStatus{
		Total:    total,
		Budget:   budget,
		Exceeded: total.GreaterThan(budget),
	}
}
