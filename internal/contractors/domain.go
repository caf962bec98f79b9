// Package contractors manages the contractor register.
package contractors

import (
	"strings"
	"time"
)

// Contractor is a registered works contractor.
type Contractor struct {
	ID        int64
	Name      string
	Address   string
	ContactNo string
	PAN       string
	TAN       string
	GST       string
	BankAC    string
	IFSC      string
	Bank      string
	Remark    string
	Status    string
	UpdatedBy int64
	UpdatedAt time.Time
}

// DisplayName returns the label snapshotted onto transactions.
func (c Contractor) DisplayName() string {
	return strings.TrimSpace(c.Name)
}
