package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

// TypeService manages contribution types.
type TypeService struct {
	Deps
}

func NewTypeService(d Deps) *TypeService {
	return &TypeService{Deps: d}
}

type TypeInput struct {
	Name        string
	Description string
	Recurring   bool
	Pattern     core.RecurrencePattern
}

func (s *TypeService) Create(ctx context.Context, in TypeInput) (*core.ContributionType, error) {
	t, err := core.NewContributionType(in.Name, in.Description, in.Recurring, in.Pattern, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveType(ctx, t); err != nil {
		return nil, fmt.Errorf("save contribution type: %w", err)
	}
	slog.InfoContext(ctx, "Contribution type created",
		"type_id", t.ID,
		"name", t.Name,
		"recurring", t.Recurring,
		"pattern", t.Pattern)
	publish(ctx, s.Publisher, t.PullEvents())
	return t, nil
}

func (s *TypeService) Get(ctx context.Context, id uuid.UUID) (*core.ContributionType, error) {
	return s.Store.GetType(ctx, id)
}

func (s *TypeService) List(ctx context.Context) ([]*core.ContributionType, error) {
	return s.Store.ListTypes(ctx)
}

func (s *TypeService) mutate(ctx context.Context, id uuid.UUID, fn func(t *core.ContributionType) error) (*core.ContributionType, error) {
	var out *core.ContributionType
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		t, err := tx.GetType(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
		if err := tx.SaveType(ctx, t); err != nil {
			return fmt.Errorf("save contribution type: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Publisher, out.PullEvents())
	return out, nil
}

func (s *TypeService) Update(ctx context.Context, id uuid.UUID, in TypeInput) (*core.ContributionType, error) {
	return s.mutate(ctx, id, func(t *core.ContributionType) error {
		return t.Update(in.Name, in.Description, in.Recurring, in.Pattern, s.now())
	})
}

func (s *TypeService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*core.ContributionType, error) {
	return s.mutate(ctx, id, func(t *core.ContributionType) error {
		if active {
			t.Activate(s.now())
		} else {
			t.Deactivate(s.now())
		}
		return nil
	})
}

// Delete fails with core.ErrInUse while contributions reference the type.
func (s *TypeService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.Store.DeleteType(ctx, id)
}

// NextDueDate returns false for one-off types.
func (s *TypeService) NextDueDate(ctx context.Context, id uuid.UUID, base core.Date) (core.Date, bool, error) {
	t, err := s.Store.GetType(ctx, id)
	if err != nil {
		return core.Date{}, false, err
	}
	next, ok := t.CalculateNextDueDate(base)
	return next, ok, nil
}
