package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

// ContributionService manages single contributions.
type ContributionService struct {
	Deps
}

func NewContributionService(d Deps) *ContributionService {
	return &ContributionService{Deps: d}
}

type CreateContributionInput struct {
	TeamUserID  uuid.UUID
	TypeID      uuid.UUID
	Description string
	Amount      core.Money
	DueDate     core.Date
}

// ContributionQuery filters List. Overdue is evaluated against today.
type ContributionQuery struct {
	TeamID     uuid.UUID
	TeamUserID uuid.UUID
	TypeID     uuid.UUID
	Unpaid     bool
	Overdue    bool
}

func (s *ContributionService) Create(ctx context.Context, in CreateContributionInput) (*core.Contribution, error) {
	if err := s.checkReferences(ctx, s.Store, in.TeamUserID, in.TypeID); err != nil {
		return nil, err
	}
	c, err := core.NewContribution(in.TeamUserID, in.TypeID, in.Description, in.Amount, in.DueDate, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveContribution(ctx, c); err != nil {
		return nil, fmt.Errorf("save contribution: %w", err)
	}

	slog.InfoContext(ctx, "Contribution created",
		"contribution_id", c.ID,
		"team_user_id", c.TeamUserID,
		"amount_minor", c.Amount.Minor,
		"currency", c.Amount.Currency,
		"due_date", c.DueDate.String())

	publish(ctx, s.Publisher, c.PullEvents())
	return c, nil
}

func (s *ContributionService) checkReferences(ctx context.Context, store storage.Store, teamUserID, typeID uuid.UUID) error {
	if teamUserID != uuid.Nil {
		if _, err := store.GetTeamUser(ctx, teamUserID); err != nil {
			return err
		}
	}
	if typeID != uuid.Nil {
		if _, err := store.GetType(ctx, typeID); err != nil {
			return err
		}
	}
	return nil
}

func (s *ContributionService) Get(ctx context.Context, id uuid.UUID) (*core.Contribution, error) {
	return s.Store.GetContribution(ctx, id)
}

func (s *ContributionService) List(ctx context.Context, q ContributionQuery) ([]*core.Contribution, error) {
	f := storage.ContributionFilter{
		TeamID:     q.TeamID,
		TeamUserID: q.TeamUserID,
		TypeID:     q.TypeID,
		UnpaidOnly: q.Unpaid,
	}
	if q.Overdue {
		f.OverdueOn = core.DateOf(s.now())
	}
	return s.Store.ListContributions(ctx, f)
}

// mutate loads a contribution, applies fn and saves it in one transaction.
func (s *ContributionService) mutate(ctx context.Context, id uuid.UUID, fn func(c *core.Contribution) error) (*core.Contribution, error) {
	var out *core.Contribution
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		c, err := tx.GetContribution(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}
		if err := tx.SaveContribution(ctx, c); err != nil {
			return fmt.Errorf("save contribution: %w", err)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Publisher, out.PullEvents())
	return out, nil
}

// Update amends description and amount of an unpaid contribution.
func (s *ContributionService) Update(ctx context.Context, id uuid.UUID, description string, amount core.Money) (*core.Contribution, error) {
	return s.mutate(ctx, id, func(c *core.Contribution) error {
		return c.Amend(description, amount, s.now())
	})
}

func (s *ContributionService) UpdateDueDate(ctx context.Context, id uuid.UUID, due core.Date) (*core.Contribution, error) {
	return s.mutate(ctx, id, func(c *core.Contribution) error {
		return c.UpdateDueDate(due, s.now())
	})
}

func (s *ContributionService) Pay(ctx context.Context, id uuid.UUID) (*core.Contribution, error) {
	c, err := s.mutate(ctx, id, func(c *core.Contribution) error {
		return c.Pay(s.now())
	})
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Contribution paid", "contribution_id", id)
	return c, nil
}

func (s *ContributionService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*core.Contribution, error) {
	return s.mutate(ctx, id, func(c *core.Contribution) error {
		if active {
			c.Activate(s.now())
		} else {
			c.Deactivate(s.now())
		}
		return nil
	})
}

// Delete removes the contribution together with its payments.
func (s *ContributionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Store.DeleteContribution(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Contribution deleted", "contribution_id", id)
	return nil
}
