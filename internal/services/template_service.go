package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

// TemplateService manages contribution templates and their application to
// team members.
type TemplateService struct {
	Deps
}

func NewTemplateService(d Deps) *TemplateService {
	return &TemplateService{Deps: d}
}

func (s *TemplateService) Create(ctx context.Context, teamID uuid.UUID, p core.TemplateParams) (*core.ContributionTemplate, error) {
	if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	t, err := core.NewContributionTemplate(teamID, p, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("save contribution template: %w", err)
	}
	slog.InfoContext(ctx, "Contribution template created",
		"template_id", t.ID,
		"team_id", teamID,
		"amount", t.Amount.Format())
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*core.ContributionTemplate, error) {
	return s.Store.GetTemplate(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, teamID uuid.UUID) ([]*core.ContributionTemplate, error) {
	if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.Store.ListTemplates(ctx, teamID)
}

func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, p core.TemplateParams) (*core.ContributionTemplate, error) {
	var out *core.ContributionTemplate
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		t, err := tx.GetTemplate(ctx, id)
		if err != nil {
			return err
		}
		if err := t.Update(p, s.now()); err != nil {
			return err
		}
		out = t
		return tx.SaveTemplate(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.Store.DeleteTemplate(ctx, id)
}

// Apply creates one contribution per member from the template. An empty
// teamUserIDs applies it to every active member of the template's team.
// The derived type and all contributions are saved in one transaction.
func (s *TemplateService) Apply(ctx context.Context, id uuid.UUID, teamUserIDs []uuid.UUID) (core.TemplateApplication, error) {
	var (
		tmpl *core.ContributionTemplate
		app  core.TemplateApplication
	)
	err := s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		var err error
		if tmpl, err = tx.GetTemplate(ctx, id); err != nil {
			return err
		}
		if !tmpl.Active {
			return fmt.Errorf("%w: template %s is inactive", core.ErrInvalidConfiguration, id)
		}
		members, err := s.members(ctx, tx, tmpl.TeamID, teamUserIDs)
		if err != nil {
			return err
		}
		if app, err = tmpl.ApplyToUsers(members, s.now()); err != nil {
			return err
		}
		if err := tx.SaveType(ctx, app.Type); err != nil {
			return fmt.Errorf("save derived type: %w", err)
		}
		for _, c := range app.Contributions {
			if err := tx.SaveContribution(ctx, c); err != nil {
				return fmt.Errorf("save contribution for member %s: %w", c.TeamUserID, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.TemplateApplication{}, err
	}

	events := app.Type.PullEvents()
	for _, c := range app.Contributions {
		events = append(events, c.PullEvents()...)
	}
	events = append(events, tmpl.PullEvents()...)
	publish(ctx, s.Publisher, events)

	slog.InfoContext(ctx, "Contribution template applied",
		"template_id", id,
		"type_id", app.Type.ID,
		"contributions", len(app.Contributions))
	return app, nil
}

func (s *TemplateService) members(ctx context.Context, tx storage.Store, teamID uuid.UUID, ids []uuid.UUID) ([]core.TeamUser, error) {
	if len(ids) == 0 {
		all, err := tx.ListTeamUsers(ctx, teamID)
		if err != nil {
			return nil, err
		}
		active := all[:0]
		for _, tu := range all {
			if tu.Active {
				active = append(active, tu)
			}
		}
		return active, nil
	}

	out := make([]core.TeamUser, 0, len(ids))
	for _, id := range ids {
		tu, err := tx.GetTeamUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if tu.TeamID != teamID {
			return nil, fmt.Errorf("%w: team user %s is not a member of team %s", core.ErrNotFound, id, teamID)
		}
		out = append(out, *tu)
	}
	return out, nil
}
