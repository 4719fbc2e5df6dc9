package core

import (
	"fmt"
	"strings"
	"time"
)

// RecurrencePattern is how often a recurring contribution falls due.
type RecurrencePattern string

const (
	Weekly    RecurrencePattern = "weekly"
	Monthly   RecurrencePattern = "monthly"
	Quarterly RecurrencePattern = "quarterly"
	Yearly    RecurrencePattern = "yearly"
)

type recurrenceRule struct {
	days, months, years int
	perYear             int
}

var recurrenceRules = map[RecurrencePattern]recurrenceRule{
	Weekly:    {days: 7, perYear: 52},
	Monthly:   {months: 1, perYear: 12},
	Quarterly: {months: 3, perYear: 4},
	Yearly:    {years: 1, perYear: 1},
}

func RecurrencePatterns() []RecurrencePattern {
	return []RecurrencePattern{Weekly, Monthly, Quarterly, Yearly}
}

// ParseRecurrencePattern accepts a pattern name in any letter case. An empty
// string yields the empty pattern (not recurring).
func ParseRecurrencePattern(s string) (RecurrencePattern, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	p := RecurrencePattern(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPattern, s)
	}
	return p, nil
}

func (p RecurrencePattern) Valid() bool {
	_, ok := recurrenceRules[p]
	return ok
}

func (p RecurrencePattern) OccurrencesPerYear() int {
	return recurrenceRules[p].perYear
}

// NextDate returns the next occurrence after base. Month based patterns keep
// the day of month when the target month has it and clamp to the month's last
// day otherwise (Jan 31 monthly -> Feb 28/29).
func (p RecurrencePattern) NextDate(base Date) Date {
	r, ok := recurrenceRules[p]
	if !ok {
		return base
	}
	if r.days > 0 {
		return base.AddDays(r.days)
	}
	return addMonths(base, r.months+12*r.years)
}

func addMonths(base Date, n int) Date {
	y, m, d := base.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return NewDate(first.Year(), int(first.Month()), d)
}
