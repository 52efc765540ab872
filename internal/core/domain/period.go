package domain

import "time"

// PeriodStatus indicates whether an accounting period accepts postings.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod is a date range with a posting status. A posting whose
// date falls inside a CLOSED period is rejected. Dates not covered by any
// period are treated as open; period administration lives outside the engine.
type AccountingPeriod struct {
	PeriodID  string       `json:"periodID"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	Status    PeriodStatus `json:"status"`
}

// Contains reports whether d falls inside the period (inclusive bounds).
func (p AccountingPeriod) Contains(d time.Time) bool {
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}
