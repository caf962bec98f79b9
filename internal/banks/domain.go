// Package banks manages council bank accounts.
package banks

import (
	"strings"
	"time"
)

// BankAccount is a council-held bank account. AccountNo is carried as a
// string: account numbers exceed int64 range and leading zeros matter.
type BankAccount struct {
	ID          int64
	AccountName string
	AccountNo   string
	IFSC        string
	BankName    string
	SchemeName  string
	ManagerName string
	Contact     string
	Address     string
	Remark      string
	Status      string
	UpdatedBy   int64
	UpdatedAt   time.Time
}

// DisplayName returns the label snapshotted onto transactions. Prefers the
// account name, then the number, then the bank name.
func (b BankAccount) DisplayName() string {
	if name := strings.TrimSpace(b.AccountName); name != "" {
		return name
	}
	if no := strings.TrimSpace(b.AccountNo); no != "" {
		return no
	}
	return strings.TrimSpace(b.BankName)
}
