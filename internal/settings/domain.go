// Package settings manages council-wide configuration rows.
package settings

import "time"

// Setting holds the council letterhead and notice configuration. The table
// normally carries a single row but the API treats it as a small collection.
type Setting struct {
	ID             int64
	CouncilName    string
	DistrictName   string
	Session        string
	ImagePath      string
	NoticeDate111  string
	IssueDate      string
	RenewalDate    string
	AssessmentYear string
	NoticeDate120  string
	Age            int
	UpdatedAt      time.Time
}
