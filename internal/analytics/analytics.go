// Package analytics computes reports over one owner's transactions.
//
// Every function is pure: it reads the slice it is given and never
// mutates it. Date filters compare the ISO date strings lexicographically.
// Sorting is stable, so ties keep the order in which they were first met.
package analytics

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"aureum/internal/core"
)

// NoSubcategory labels transactions without a subcategory.
const NoSubcategory = "none"

type Balance struct {
	Balance      core.Money `json:"balance"`
	TotalIncome  core.Money `json:"total_income"`
	TotalExpense core.Money `json:"total_expense"`
	StartDate    string     `json:"start_date,omitempty"`
	EndDate      string     `json:"end_date,omitempty"`
}

type CategoryTotal struct {
	Name       string     `json:"category"`
	Amount     core.Money `json:"amount"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

type MonthlyReport struct {
	Month                int             `json:"month"`
	Year                 int             `json:"year"`
	StartDate            string          `json:"start_date"`
	EndDate              string          `json:"end_date"`
	TotalIncome          core.Money      `json:"total_income"`
	TotalExpense         core.Money      `json:"total_expense"`
	Balance              core.Money      `json:"balance"`
	TopIncomeCategories  []CategoryTotal `json:"top_income_categories"`
	TopExpenseCategories []CategoryTotal `json:"top_expense_categories"`
}

type SubcategoryTotal struct {
	Name    string     `json:"name"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Count   int        `json:"count"`
}

type CategoryReport struct {
	Category         string             `json:"category"`
	TotalIncome      core.Money         `json:"total_income"`
	TotalExpense     core.Money         `json:"total_expense"`
	TransactionCount int                `json:"transaction_count"`
	Subcategories    []SubcategoryTotal `json:"subcategories"`
	StartDate        string             `json:"start_date,omitempty"`
	EndDate          string             `json:"end_date,omitempty"`
}

type Stats struct {
	TotalTransactions     int        `json:"total_transactions"`
	IncomeCount           int        `json:"income_count"`
	ExpenseCount          int        `json:"expense_count"`
	AvgIncome             core.Money `json:"avg_income"`
	AvgExpense            core.Money `json:"avg_expense"`
	UniqueCategoriesCount int        `json:"unique_categories_count"`
	LatestTransactionDate *time.Time `json:"latest_transaction_date"`
}

type SearchPage struct {
	Items []core.Transaction `json:"items"`
	Total int                `json:"total"`
}

// InRange reports whether date falls in [start, end]. Empty bounds are open.
func InRange(date, start, end string) bool {
	if start != "" && date < start {
		return false
	}
	if end != "" && date > end {
		return false
	}
	return true
}

// ComputeBalance sums income and expense inside the optional date range.
func ComputeBalance(txs []core.Transaction, start, end string) Balance {
	b := Balance{StartDate: start, EndDate: end}
	for _, t := range txs {
		if !InRange(t.Date, start, end) {
			continue
		}
		switch t.Type {
		case core.Income:
			b.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			b.TotalExpense.Cents += t.Amount.Cents
		}
	}
	b.Balance.Cents = b.TotalIncome.Cents - b.TotalExpense.Cents
	return b
}

// LastDay returns the last day of month. February has 29 days in every
// year divisible by 4, century years included.
func LastDay(month, year int) int {
	switch month {
	case 2:
		if year%4 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// MonthWindow returns the first and last ISO dates of month.
func MonthWindow(month, year int) (string, string) {
	return fmt.Sprintf("%04d-%02d-01", year, month),
		fmt.Sprintf("%04d-%02d-%02d", year, month, LastDay(month, year))
}

// MonthlyAnalysis reports totals and per-category breakdowns for one month.
func MonthlyAnalysis(txs []core.Transaction, month, year int) MonthlyReport {
	start, end := MonthWindow(month, year)
	r := MonthlyReport{Month: month, Year: year, StartDate: start, EndDate: end}

	var income, expense []core.Transaction
	for _, t := range txs {
		if !InRange(t.Date, start, end) {
			continue
		}
		switch t.Type {
		case core.Income:
			income = append(income, t)
			r.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			expense = append(expense, t)
			r.TotalExpense.Cents += t.Amount.Cents
		}
	}
	r.Balance.Cents = r.TotalIncome.Cents - r.TotalExpense.Cents
	r.TopIncomeCategories = byCategory(income, r.TotalIncome)
	r.TopExpenseCategories = byCategory(expense, r.TotalExpense)
	return r
}

func byCategory(txs []core.Transaction, total core.Money) []CategoryTotal {
	out := []CategoryTotal{}
	index := map[string]int{}
	for _, t := range txs {
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Name: t.Category})
		}
		out[i].Amount.Cents += t.Amount.Cents
		out[i].Count++
	}
	for i := range out {
		if total.Cents > 0 {
			out[i].Percentage = float64(out[i].Amount.Cents) / float64(total.Cents) * 100
		}
	}
	slices.SortStableFunc(out, func(a, b CategoryTotal) int {
		return cmpDesc(a.Amount.Cents, b.Amount.Cents)
	})
	return out
}

// CategoryAnalysis reports one category split by subcategory.
func CategoryAnalysis(txs []core.Transaction, category, start, end string) CategoryReport {
	r := CategoryReport{Category: category, StartDate: start, EndDate: end, Subcategories: []SubcategoryTotal{}}
	index := map[string]int{}
	for _, t := range txs {
		if t.Category != category || !InRange(t.Date, start, end) {
			continue
		}
		r.TransactionCount++

		name := t.Subcategory
		if name == "" {
			name = NoSubcategory
		}
		i, ok := index[name]
		if !ok {
			i = len(r.Subcategories)
			index[name] = i
			r.Subcategories = append(r.Subcategories, SubcategoryTotal{Name: name})
		}
		sub := &r.Subcategories[i]
		sub.Count++
		switch t.Type {
		case core.Income:
			r.TotalIncome.Cents += t.Amount.Cents
			sub.Income.Cents += t.Amount.Cents
		case core.Expense:
			r.TotalExpense.Cents += t.Amount.Cents
			sub.Expense.Cents += t.Amount.Cents
		}
	}
	slices.SortStableFunc(r.Subcategories, func(a, b SubcategoryTotal) int {
		return cmpDesc(a.Income.Cents+a.Expense.Cents, b.Income.Cents+b.Expense.Cents)
	})
	return r
}

// GeneralStats counts and averages all transactions.
func GeneralStats(txs []core.Transaction) Stats {
	var (
		s               Stats
		income, expense core.Money
		categories      = map[string]struct{}{}
	)
	for i := range txs {
		t := txs[i]
		s.TotalTransactions++
		switch t.Type {
		case core.Income:
			s.IncomeCount++
			income.Cents += t.Amount.Cents
		case core.Expense:
			s.ExpenseCount++
			expense.Cents += t.Amount.Cents
		}
		categories[t.Category] = struct{}{}
		if s.LatestTransactionDate == nil || t.CreatedAt.After(*s.LatestTransactionDate) {
			latest := t.CreatedAt
			s.LatestTransactionDate = &latest
		}
	}
	s.AvgIncome = income.Avg(s.IncomeCount)
	s.AvgExpense = expense.Avg(s.ExpenseCount)
	s.UniqueCategoriesCount = len(categories)
	return s
}

// Search matches query case-insensitively against category, subcategory
// and detail and returns the [skip, skip+limit) slice of the matches.
func Search(txs []core.Transaction, query string, skip, limit int) SearchPage {
	q := strings.ToLower(query)
	var matches []core.Transaction
	for _, t := range txs {
		if strings.Contains(strings.ToLower(t.Category), q) ||
			(t.Subcategory != "" && strings.Contains(strings.ToLower(t.Subcategory), q)) ||
			strings.Contains(strings.ToLower(t.Detail), q) {
			matches = append(matches, t)
		}
	}
	return SearchPage{Items: Page(matches, skip, limit), Total: len(matches)}
}

// Page returns items[skip:skip+limit] clamped to bounds, never nil.
func Page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) || limit <= 0 {
		return []T{}
	}
	end := min(skip+limit, len(items))
	return slices.Clone(items[skip:end])
}

func cmpDesc(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
