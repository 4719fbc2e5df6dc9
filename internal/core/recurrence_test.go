package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecurrenceNextDate(t *testing.T) {
	cases := []struct {
		name    string
		pattern RecurrencePattern
		base    Date
		want    Date
	}{
		{"weekly", Weekly, NewDate(2025, 1, 1), NewDate(2025, 1, 8)},
		{"weekly across year", Weekly, NewDate(2024, 12, 28), NewDate(2025, 1, 4)},
		{"monthly", Monthly, NewDate(2025, 1, 15), NewDate(2025, 2, 15)},
		{"monthly clamps", Monthly, NewDate(2025, 1, 31), NewDate(2025, 2, 28)},
		{"monthly clamps leap", Monthly, NewDate(2024, 1, 31), NewDate(2024, 2, 29)},
		{"monthly december", Monthly, NewDate(2024, 12, 31), NewDate(2025, 1, 31)},
		{"quarterly", Quarterly, NewDate(2025, 1, 10), NewDate(2025, 4, 10)},
		{"quarterly clamps", Quarterly, NewDate(2025, 11, 30), NewDate(2026, 2, 28)},
		{"yearly", Yearly, NewDate(2025, 3, 1), NewDate(2026, 3, 1)},
		{"yearly leap day", Yearly, NewDate(2024, 2, 29), NewDate(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.pattern.NextDate(tc.base)
			assert.Equal(t, tc.want.String(), got.String())
		})
	}
}

func TestRecurrenceNextDateIsStrictlyLaterAndDeterministic(t *testing.T) {
	for _, p := range RecurrencePatterns() {
		for d := NewDate(2023, 1, 1); d.Year() < 2025; d = d.AddDays(1) {
			first := p.NextDate(d)
			second := p.NextDate(d)
			if !first.After(d) {
				t.Fatalf("%s: next of %s is %s", p, d, first)
			}
			if !first.Equal(second) {
				t.Fatalf("%s: non deterministic for %s", p, d)
			}
		}
	}
}

func TestOccurrencesPerYear(t *testing.T) {
	assert.Equal(t, 52, Weekly.OccurrencesPerYear())
	assert.Equal(t, 12, Monthly.OccurrencesPerYear())
	assert.Equal(t, 4, Quarterly.OccurrencesPerYear())
	assert.Equal(t, 1, Yearly.OccurrencesPerYear())
}

func TestParseRecurrencePattern(t *testing.T) {
	p, err := ParseRecurrencePattern("MONTHLY")
	assert.NoError(t, err)
	assert.Equal(t, Monthly, p)

	p, err = ParseRecurrencePattern("")
	assert.NoError(t, err)
	assert.Equal(t, RecurrencePattern(""), p)

	_, err = ParseRecurrencePattern("daily")
	assert.ErrorIs(t, err, ErrInvalidPattern)
}
