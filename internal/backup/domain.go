// Package backup dumps and restores the council's business tables.
package backup

import "time"

// Actions accepted by the backup endpoint.
const (
	ActionBackup  = "backup"
	ActionRestore = "restore"
)

// businessTables lists the tables included in a dump, in restore order:
// referenced tables come before tables that point at them.
var businessTables = []string{
	"settings",
	"bank_accounts",
	"contractors",
	"transactions",
}

// Log is one row of backup_logs.
type Log struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}

// Archive is the on-disk dump format.
type Archive struct {
	CreatedAt time.Time                   `json:"created_at"`
	Tables    map[string][]map[string]any `json:"tables"`
}
