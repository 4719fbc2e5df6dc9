package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultDueDays = 30
	MaxDueDays     = 365
)

// TemplateParams are the editable fields of a ContributionTemplate.
// DueDays 0 means unset.
type TemplateParams struct {
	Name        string
	Description string
	Amount      Money
	Recurring   bool
	Pattern     RecurrencePattern
	DueDays     int
}

func (p TemplateParams) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if err := p.Amount.Validate(); err != nil {
		return fmt.Errorf("template amount: %w", err)
	}
	if err := validateRecurrence(p.Recurring, p.Pattern); err != nil {
		return err
	}
	if p.DueDays < 0 || p.DueDays > MaxDueDays {
		return fmt.Errorf("%w: due days %d outside 1..%d", ErrInvalidConfiguration, p.DueDays, MaxDueDays)
	}
	return nil
}

// ContributionTemplate is a team-scoped blueprint for bulk-creating
// contributions.
type ContributionTemplate struct {
	eventRecorder

	ID          uuid.UUID
	TeamID      uuid.UUID
	Name        string
	Description string
	Amount      Money
	Recurring   bool
	Pattern     RecurrencePattern
	DueDays     int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewContributionTemplate(teamID uuid.UUID, p TemplateParams, now time.Time) (*ContributionTemplate, error) {
	if teamID == uuid.Nil {
		return nil, fmt.Errorf("%w: team", ErrMissingReference)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	t := &ContributionTemplate{
		ID:        uuid.New(),
		TeamID:    teamID,
		Active:    true,
		CreatedAt: now,
	}
	t.apply(p, now)
	return t, nil
}

func (t *ContributionTemplate) Update(p TemplateParams, now time.Time) error {
	if err := p.validate(); err != nil {
		return err
	}
	t.apply(p, now)
	return nil
}

func (t *ContributionTemplate) apply(p TemplateParams, now time.Time) {
	t.Name = strings.TrimSpace(p.Name)
	t.Description = strings.TrimSpace(p.Description)
	t.Amount = p.Amount
	t.Recurring = p.Recurring
	t.Pattern = p.Pattern
	t.DueDays = p.DueDays
	t.UpdatedAt = now
}

// DueDate is the due date of contributions created on day today.
func (t *ContributionTemplate) DueDate(today Date) Date {
	days := t.DueDays
	if days == 0 {
		days = DefaultDueDays
	}
	return today.AddDays(days)
}

// TemplateApplication is the unsaved result of applying a template.
type TemplateApplication struct {
	Type          *ContributionType
	Contributions []*Contribution
}

// ApplyToUsers derives a contribution type from the template and creates one
// contribution per member. Existing contributions are not consulted, so
// applying twice charges members twice.
func (t *ContributionTemplate) ApplyToUsers(members []TeamUser, now time.Time) (TemplateApplication, error) {
	ct, err := NewContributionType(t.Name, t.Description, t.Recurring, t.Pattern, now)
	if err != nil {
		return TemplateApplication{}, fmt.Errorf("derive contribution type: %w", err)
	}
	ct.TeamID = t.TeamID

	due := t.DueDate(DateOf(now))
	out := TemplateApplication{Type: ct, Contributions: make([]*Contribution, 0, len(members))}
	for _, m := range members {
		c, err := NewContribution(m.ID, ct.ID, t.Name, t.Amount, due, now)
		if err != nil {
			return TemplateApplication{}, fmt.Errorf("member %s: %w", m.ID, err)
		}
		out.Contributions = append(out.Contributions, c)
	}

	t.record(EventTemplateApplied, t.ID, now, map[string]any{
		"teamId":      t.TeamID.String(),
		"typeId":      ct.ID.String(),
		"memberCount": len(members),
	})
	return out, nil
}
