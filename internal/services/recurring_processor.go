package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"teamfin/internal/core"
)

// RecurringProcessor creates the next contribution of every active recurring
// type for every active member once it falls due.
type RecurringProcessor struct {
	Deps
	// Amount is charged for generated contributions. Recurring types carry
	// no amount of their own.
	Amount core.Money
}

// NewRecurringProcessor creates a new recurring contribution processor
func NewRecurringProcessor(d Deps, amount core.Money) *RecurringProcessor {
	return &RecurringProcessor{Deps: d, Amount: amount}
}

// ProcessDueContributions creates every contribution due on or before now and
// returns how many were created. A member whose contribution cannot be
// created is logged and skipped.
func (p *RecurringProcessor) ProcessDueContributions(ctx context.Context, now time.Time) (int, error) {
	if p.Store == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	if err := p.Amount.Validate(); err != nil {
		return 0, fmt.Errorf("recurring amount: %w", err)
	}

	types, err := p.Store.ListActiveRecurringTypes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get active recurring types: %w", err)
	}
	members, err := p.Store.ListActiveTeamUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get active memberships: %w", err)
	}

	today := core.DateOf(now)
	slog.InfoContext(ctx, "Processing recurring contributions",
		"recurring_types", len(types),
		"members", len(members),
		"processing_date", today.String())

	processed := 0
	for _, t := range types {
		for _, m := range members {
			if !t.AppliesTo(m.TeamID) {
				continue
			}
			due, isDue, err := p.nextDueDate(ctx, t, m, today)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to determine next due date",
					"type_id", t.ID,
					"team_user_id", m.ID,
					"error", err)
				continue
			}
			if !isDue {
				continue
			}

			c, err := core.NewContribution(m.ID, t.ID, Description(t, due), p.Amount, due, now)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to build recurring contribution",
					"type_id", t.ID,
					"team_user_id", m.ID,
					"error", err)
				continue
			}
			if err := p.Store.SaveContribution(ctx, c); err != nil {
				slog.ErrorContext(ctx, "Failed to save recurring contribution",
					"type_id", t.ID,
					"team_user_id", m.ID,
					"error", err)
				continue
			}
			publish(ctx, p.Publisher, c.PullEvents())

			processed++
			slog.InfoContext(ctx, "Created recurring contribution",
				"contribution_id", c.ID,
				"type_id", t.ID,
				"team_user_id", m.ID,
				"due_date", due.String(),
				"pattern", t.Pattern)
		}
	}

	slog.InfoContext(ctx, "Recurring contribution processing complete",
		"processed", processed,
		"total_checked", len(types)*len(members))

	return processed, nil
}

// nextDueDate decides whether member m owes a new contribution of type t.
// Without a previous contribution the first one is due today; otherwise the
// pattern's next date after the latest due date must not lie in the future.
func (p *RecurringProcessor) nextDueDate(ctx context.Context, t *core.ContributionType, m core.TeamUser, today core.Date) (core.Date, bool, error) {
	last, err := p.Store.LatestContribution(ctx, m.ID, t.ID)
	if errors.Is(err, core.ErrNotFound) {
		return today, true, nil
	}
	if err != nil {
		return core.Date{}, false, err
	}
	next, ok := t.CalculateNextDueDate(last.DueDate)
	if !ok {
		return core.Date{}, false, nil
	}
	return next, !next.After(today), nil
}

// Description names a generated contribution, e.g. "Membership Fee June 2025".
func Description(t *core.ContributionType, due core.Date) string {
	return fmt.Sprintf("%s %s %d", t.Name, due.Month(), due.Year())
}
