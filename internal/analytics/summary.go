package analytics

import (
	"aureum/internal/core"
)

// UserSummary is the headline view of a user's finances.
type UserSummary struct {
	TotalIncome           core.Money `json:"total_income"`
	TotalExpense          core.Money `json:"total_expense"`
	Balance               core.Money `json:"balance"`
	TransactionsCount     int        `json:"transactions_count"`
	TopIncomeCategory     string     `json:"top_income_category,omitempty"`
	TopExpenseCategory    string     `json:"top_expense_category,omitempty"`
	MonthlyAverageIncome  core.Money `json:"monthly_average_income"`
	MonthlyAverageExpense core.Money `json:"monthly_average_expense"`
	SavingsRate           float64    `json:"savings_rate"`
}

// Summarize builds a UserSummary. Monthly averages divide by the number of
// distinct YYYY-MM months that hold at least one transaction.
func Summarize(txs []core.Transaction) UserSummary {
	var (
		s       UserSummary
		income  []core.Transaction
		expense []core.Transaction
		months  = map[string]struct{}{}
	)
	for _, t := range txs {
		s.TransactionsCount++
		if len(t.Date) >= 7 {
			months[t.Date[:7]] = struct{}{}
		}
		switch t.Type {
		case core.Income:
			income = append(income, t)
			s.TotalIncome.Cents += t.Amount.Cents
		case core.Expense:
			expense = append(expense, t)
			s.TotalExpense.Cents += t.Amount.Cents
		}
	}
	s.Balance.Cents = s.TotalIncome.Cents - s.TotalExpense.Cents

	if top := byCategory(income, s.TotalIncome); len(top) > 0 {
		s.TopIncomeCategory = top[0].Name
	}
	if top := byCategory(expense, s.TotalExpense); len(top) > 0 {
		s.TopExpenseCategory = top[0].Name
	}

	s.MonthlyAverageIncome = s.TotalIncome.Avg(len(months))
	s.MonthlyAverageExpense = s.TotalExpense.Avg(len(months))
	if s.TotalIncome.Cents > 0 {
		s.SavingsRate = float64(s.Balance.Cents) / float64(s.TotalIncome.Cents) * 100
	}
	return s
}
