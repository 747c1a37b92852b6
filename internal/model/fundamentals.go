package model

import "time"

// Dividend is one row of a company's dividend payment history.
type Dividend struct {
	Ticker                 string
	ExerciseDate           time.Time
	CashYear               int
	CashDividendPercentage float64 // percent, already scaled by 100
	IssueMethod            string
}

// FinancialRatio is one reporting period of vendor-computed ratios.
// Values keeps every numeric field the vendor returned, keyed by its JSON name.
type FinancialRatio struct {
	Ticker  string
	Year    int
	Quarter int
	Values  map[string]float64
}

// StatementKind names a quarterly financial statement.
type StatementKind string

const (
	IncomeStatement StatementKind = "incomestatement"
	BalanceSheet    StatementKind = "balancesheet"
	CashFlow        StatementKind = "cashflow"
)

// StatementKinds lists every statement in fetch order.
var StatementKinds = []StatementKind{IncomeStatement, BalanceSheet, CashFlow}

// FinancialStatement is one reporting period of a statement. Values keeps
// every numeric line item keyed by its JSON name.
type FinancialStatement struct {
	Ticker  string
	Kind    StatementKind
	Year    int
	Quarter int
	Values  map[string]float64
}
