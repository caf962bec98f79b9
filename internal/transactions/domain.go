// Package transactions manages the council cash book.
package transactions

import "time"

// Transaction types.
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// Transaction is a single cash book entry. BankDisplayName and
// ContractorDisplayName are snapshots taken at write time so history stays
// readable after the referenced row is deleted.
type Transaction struct {
	ID                    int64
	Type                  string
	BankAccountID         *int64
	BankDisplayName       string
	ContractorID          *int64
	ContractorDisplayName string
	Date                  time.Time
	Amount                float64
	Account               string
	Particular            string
	Remark                string
	UpdatedBy             int64
	UpdatedAt             time.Time
}

// ValidType reports whether t is a known transaction type.
func ValidType(t string) bool {
	return t == TypeCredit || t == TypeDebit
}
