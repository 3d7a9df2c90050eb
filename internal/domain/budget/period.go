package budget

import (
	"time"
)

// BudgetPeriod represents the recurrence cycle of a budget
type BudgetPeriod string

const (
	PeriodDaily     BudgetPeriod = "DAILY"
	PeriodWeekly    BudgetPeriod = "WEEKLY"
	PeriodMonthly   BudgetPeriod = "MONTHLY"
	PeriodQuarterly BudgetPeriod = "QUARTERLY"
	PeriodYearly    BudgetPeriod = "YEARLY"
	PeriodCustom    BudgetPeriod = "CUSTOM"
)

// IsValid checks if the period is a valid BudgetPeriod
func (p BudgetPeriod) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodCustom:
		return true
	}
	return false
}

// String returns the string representation of BudgetPeriod
func (p BudgetPeriod) String() string {
	return string(p)
}

// EndDate derives the inclusive last day of the period starting at startDate.
// CUSTOM periods have no derived end; the user supplies one explicitly.
func (p BudgetPeriod) EndDate(startDate time.Time) *time.Time {
	var end time.Time
	switch p {
	case PeriodDaily:
		end = startDate
	case PeriodWeekly:
		end = startDate.AddDate(0, 0, 6)
	case PeriodMonthly:
		// Last day of the start date's month
		end = time.Date(startDate.Year(), startDate.Month(), 1, 0, 0, 0, 0, startDate.Location()).
			AddDate(0, 1, -1)
	case PeriodQuarterly:
		end = startDate.AddDate(0, 3, -1)
	case PeriodYearly:
		// Last day of the start date's year
		end = time.Date(startDate.Year(), time.December, 31, 0, 0, 0, 0, startDate.Location())
	default:
		return nil
	}
	return &end
}

// NextStart returns the start of the following period, or nil for CUSTOM
func (p BudgetPeriod) NextStart(currentStart time.Time) *time.Time {
	var next time.Time
	switch p {
	case PeriodDaily:
		next = currentStart.AddDate(0, 0, 1)
	case PeriodWeekly:
		next = currentStart.AddDate(0, 0, 7)
	case PeriodMonthly:
		next = currentStart.AddDate(0, 1, 0)
	case PeriodQuarterly:
		next = currentStart.AddDate(0, 3, 0)
	case PeriodYearly:
		next = currentStart.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}
