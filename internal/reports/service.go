// Package reports builds the transaction register and credit/debit summary.
package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/councilbooks/councilbooks/internal/transactions"
)

// Report types.
const (
	TypeRegister = "register"
	TypeSummary  = "summary"
)

const dateLayout = "2006-01-02"

// RegisterRow is one line of the transaction register.
type RegisterRow struct {
	ID             int64   `json:"id"`
	Date           string  `json:"date"`
	Type           string  `json:"tx_type"`
	BankName       string  `json:"bank_display_name"`
	ContractorName string  `json:"contractor_display_name"`
	Particular     string  `json:"particular"`
	Account        string  `json:"account"`
	Amount         float64 `json:"amount"`
}

// Register is the full register report.
type Register struct {
	From  string        `json:"from,omitempty"`
	To    string        `json:"to,omitempty"`
	Rows  []RegisterRow `json:"rows"`
	Total float64       `json:"total"`
}

// Summary aggregates credits against debits.
type Summary struct {
	From        string  `json:"from,omitempty"`
	To          string  `json:"to,omitempty"`
	CreditCount int     `json:"credit_count"`
	DebitCount  int     `json:"debit_count"`
	TotalCredit float64 `json:"total_credit"`
	TotalDebit  float64 `json:"total_debit"`
	Net         float64 `json:"net"`
}

// TransactionSource supplies the rows both reports are built from.
type TransactionSource interface {
	List(ctx context.Context, filter transactions.Filter) ([]transactions.Transaction, error)
}

// Service computes reports, caching results in Redis.
type Service struct {
	source TransactionSource
	cache  *Cache
}

// NewService builds a Service instance.
func NewService(source TransactionSource, cache *Cache) *Service {
	return &Service{source: source, cache: cache}
}

// Period bounds a report. Zero values mean unbounded.
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) filter() transactions.Filter {
	return transactions.Filter{From: p.From, To: p.To}
}

func (p Period) labels() (string, string) {
	var from, to string
	if !p.From.IsZero() {
		from = p.From.Format(dateLayout)
	}
	if !p.To.IsZero() {
		to = p.To.Format(dateLayout)
	}
	return from, to
}

func (p Period) cacheToken() string {
	from, to := p.labels()
	if from == "" {
		from = "-"
	}
	if to == "" {
		to = "-"
	}
	return from + ":" + to
}

// BuildRegister produces the transaction register for the period.
func (s *Service) BuildRegister(ctx context.Context, period Period) (*Register, error) {
	key, err := s.cache.BuildKey(ctx, "reports", TypeRegister, period.cacheToken())
	if err != nil {
		return nil, err
	}
	var register Register
	loader := func(ctx context.Context) (any, error) {
		return s.computeRegister(ctx, period)
	}
	if err := s.cache.FetchJSON(ctx, key, &register, loader); err != nil {
		return nil, err
	}
	return &register, nil
}

// BuildSummary produces the credit/debit summary for the period.
func (s *Service) BuildSummary(ctx context.Context, period Period) (*Summary, error) {
	key, err := s.cache.BuildKey(ctx, "reports", TypeSummary, period.cacheToken())
	if err != nil {
		return nil, err
	}
	var summary Summary
	loader := func(ctx context.Context) (any, error) {
		return s.computeSummary(ctx, period)
	}
	if err := s.cache.FetchJSON(ctx, key, &summary, loader); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *Service) computeRegister(ctx context.Context, period Period) (*Register, error) {
	txs, err := s.source.List(ctx, period.filter())
	if err != nil {
		return nil, err
	}
	from, to := period.labels()
	register := &Register{From: from, To: to, Rows: make([]RegisterRow, 0, len(txs))}
	for _, t := range txs {
		register.Rows = append(register.Rows, RegisterRow{
			ID:             t.ID,
			Date:           t.Date.Format(dateLayout),
			Type:           t.Type,
			BankName:       t.BankDisplayName,
			ContractorName: t.ContractorDisplayName,
			Particular:     t.Particular,
			Account:        t.Account,
			Amount:         t.Amount,
		})
		if t.Type == transactions.TypeCredit {
			register.Total += t.Amount
		} else {
			register.Total -= t.Amount
		}
	}
	return register, nil
}

func (s *Service) computeSummary(ctx context.Context, period Period) (*Summary, error) {
	txs, err := s.source.List(ctx, period.filter())
	if err != nil {
		return nil, err
	}
	from, to := period.labels()
	summary := &Summary{From: from, To: to}
	for _, t := range txs {
		if t.Type == transactions.TypeCredit {
			summary.CreditCount++
			summary.TotalCredit += t.Amount
		} else {
			summary.DebitCount++
			summary.TotalDebit += t.Amount
		}
	}
	summary.Net = summary.TotalCredit - summary.TotalDebit
	return summary, nil
}

// amountPrinter groups digits the way council ledgers are read aloud.
var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an amount with thousands separators for CSV and PDF
// output. JSON responses carry the raw number.
func FormatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

// ParsePeriod reads from/to query values. Empty strings leave the bound open.
func ParsePeriod(fromRaw, toRaw string) (Period, error) {
	var period Period
	if fromRaw != "" {
		from, err := time.Parse(dateLayout, fromRaw)
		if err != nil {
			return Period{}, fmt.Errorf("invalid from date %q", fromRaw)
		}
		period.From = from
	}
	if toRaw != "" {
		to, err := time.Parse(dateLayout, toRaw)
		if err != nil {
			return Period{}, fmt.Errorf("invalid to date %q", toRaw)
		}
		period.To = to
	}
	return period, nil
}
