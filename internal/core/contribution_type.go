package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContributionType categorises contributions and carries the recurrence rule
// the scheduler follows.
type ContributionType struct {
	eventRecorder

	ID uuid.UUID
	// TeamID is set on types derived from a team's template. uuid.Nil
	// types are shared by every team.
	TeamID      uuid.UUID
	Name        string
	Description string
	Recurring   bool
	Pattern     RecurrencePattern
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AppliesTo reports whether members of teamID can be charged this type.
func (t *ContributionType) AppliesTo(teamID uuid.UUID) bool {
	return t.TeamID == uuid.Nil || t.TeamID == teamID
}

// validateRecurrence enforces recurring <=> pattern set.
func validateRecurrence(recurring bool, pattern RecurrencePattern) error {
	if recurring && pattern == "" {
		return fmt.Errorf("%w: recurring requires a recurrence pattern", ErrInvalidConfiguration)
	}
	if !recurring && pattern != "" {
		return fmt.Errorf("%w: recurrence pattern %q set on a one-off", ErrInvalidConfiguration, pattern)
	}
	if pattern != "" && !pattern.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfiguration, ErrInvalidPattern, pattern)
	}
	return nil
}

func NewContributionType(name, description string, recurring bool, pattern RecurrencePattern, now time.Time) (*ContributionType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if err := validateRecurrence(recurring, pattern); err != nil {
		return nil, err
	}
	t := &ContributionType{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Recurring:   recurring,
		Pattern:     pattern,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.record(EventContributionTypeCreated, t.ID, now, map[string]any{"name": t.Name})
	return t, nil
}

// Update replaces the type's settings. The receiver is left untouched on error.
func (t *ContributionType) Update(name, description string, recurring bool, pattern RecurrencePattern, now time.Time) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if err := validateRecurrence(recurring, pattern); err != nil {
		return err
	}
	t.Name = name
	t.Description = strings.TrimSpace(description)
	t.Recurring = recurring
	t.Pattern = pattern
	t.UpdatedAt = now
	t.record(EventContributionTypeUpdated, t.ID, now, map[string]any{"name": t.Name})
	return nil
}

// CalculateNextDueDate returns false for one-off types.
func (t *ContributionType) CalculateNextDueDate(base Date) (Date, bool) {
	if !t.Recurring {
		return Date{}, false
	}
	return t.Pattern.NextDate(base), true
}

// Activate and Deactivate record no event.
func (t *ContributionType) Activate(now time.Time) {
	t.Active = true
	t.UpdatedAt = now
}

func (t *ContributionType) Deactivate(now time.Time) {
	t.Active = false
	t.UpdatedAt = now
}
