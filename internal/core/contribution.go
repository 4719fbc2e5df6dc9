package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Contribution is one member's obligation to pay Amount by DueDate.
type Contribution struct {
	eventRecorder

	ID          uuid.UUID
	TeamUserID  uuid.UUID
	TypeID      uuid.UUID
	Description string
	Amount      Money
	DueDate     Date
	PaidAt      *time.Time
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewContribution(teamUserID, typeID uuid.UUID, description string, amount Money, dueDate Date, now time.Time) (*Contribution, error) {
	if teamUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: team user", ErrMissingReference)
	}
	if typeID == uuid.Nil {
		return nil, fmt.Errorf("%w: contribution type", ErrMissingReference)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrEmptyDescription
	}
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	if err := dueDate.Validate(); err != nil {
		return nil, err
	}
	c := &Contribution{
		ID:          uuid.New(),
		TeamUserID:  teamUserID,
		TypeID:      typeID,
		Description: description,
		Amount:      amount,
		DueDate:     dueDate,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.record(EventContributionCreated, c.ID, now, map[string]any{
		"teamUserId": teamUserID.String(),
		"typeId":     typeID.String(),
		"amount":     amount.Minor,
		"currency":   string(amount.Currency),
		"dueDate":    dueDate.String(),
	})
	return c, nil
}

func (c *Contribution) IsPaid() bool { return c.PaidAt != nil }

// IsOverdue reports an unpaid contribution whose due date is before today.
func (c *Contribution) IsOverdue(now time.Time) bool {
	return !c.IsPaid() && c.DueDate.Before(DateOf(now))
}

func (c *Contribution) Pay(now time.Time) error {
	if c.IsPaid() {
		return fmt.Errorf("%w: %s", ErrAlreadyPaid, c.ID)
	}
	return c.PayAt(now, now)
}

// PayAt marks the contribution paid at paidAt, which may lie in the past
// (imports). It fails on a paid contribution like Pay.
func (c *Contribution) PayAt(paidAt, now time.Time) error {
	if c.IsPaid() {
		return fmt.Errorf("%w: %s", ErrAlreadyPaid, c.ID)
	}
	at := paidAt.UTC()
	c.PaidAt = &at
	c.UpdatedAt = now
	c.record(EventContributionPaid, c.ID, now, map[string]any{
		"amount":   c.Amount.Minor,
		"currency": string(c.Amount.Currency),
		"paidAt":   at.Format(time.RFC3339),
	})
	return nil
}

func (c *Contribution) UpdateDueDate(d Date, now time.Time) error {
	if c.IsPaid() {
		return fmt.Errorf("%w: due date of %s is fixed", ErrAlreadyPaid, c.ID)
	}
	if err := d.Validate(); err != nil {
		return err
	}
	c.DueDate = d
	c.UpdatedAt = now
	return nil
}

// Amend changes description and amount of an unpaid contribution.
func (c *Contribution) Amend(description string, amount Money, now time.Time) error {
	if c.IsPaid() {
		return fmt.Errorf("%w: %s", ErrAlreadyPaid, c.ID)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return ErrEmptyDescription
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	c.Description = description
	c.Amount = amount
	c.UpdatedAt = now
	return nil
}

// Settle aligns the paid state with the payments summary: a settled unpaid
// contribution becomes paid, an unsettled paid one is reopened. It returns
// whether the state changed.
func (c *Contribution) Settle(s PaymentSummary, now time.Time) bool {
	switch {
	case s.Settled && !c.IsPaid():
		_ = c.PayAt(now, now)
		return true
	case !s.Settled && c.IsPaid():
		c.PaidAt = nil
		c.UpdatedAt = now
		c.record(EventContributionReopened, c.ID, now, map[string]any{
			"paid":        s.Total.Minor,
			"outstanding": s.Outstanding.Minor,
		})
		return true
	}
	return false
}

// Activate and Deactivate set the flag without checking the current state.
func (c *Contribution) Activate(now time.Time) {
	c.Active = true
	c.UpdatedAt = now
}

func (c *Contribution) Deactivate(now time.Time) {
	c.Active = false
	c.UpdatedAt = now
}
