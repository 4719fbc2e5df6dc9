package storage

import (
	"context"

	"github.com/google/uuid"

	"teamfin/internal/core"
)

// ContributionFilter narrows ListContributions. Zero fields do not filter.
type ContributionFilter struct {
	TeamID     uuid.UUID
	TeamUserID uuid.UUID
	TypeID     uuid.UUID
	UnpaidOnly bool
	// OverdueOn keeps unpaid contributions due before this day.
	OverdueOn core.Date
}

// Ports implemented by the SQLite repository and the in-memory store.
// Lookups of missing rows return an error wrapping core.ErrNotFound.
type (
	TeamRepository interface {
		SaveTeam(ctx context.Context, t *core.Team) error
		GetTeam(ctx context.Context, id uuid.UUID) (*core.Team, error)
		ListTeams(ctx context.Context) ([]*core.Team, error)
	}

	UserRepository interface {
		SaveUser(ctx context.Context, u *core.User) error
		GetUser(ctx context.Context, id uuid.UUID) (*core.User, error)
		GetUserByEmail(ctx context.Context, email string) (*core.User, error)
		ListUsers(ctx context.Context) ([]*core.User, error)
	}

	MembershipRepository interface {
		SaveTeamUser(ctx context.Context, tu *core.TeamUser) error
		GetTeamUser(ctx context.Context, id uuid.UUID) (*core.TeamUser, error)
		ListTeamUsers(ctx context.Context, teamID uuid.UUID) ([]core.TeamUser, error)
		// ListActiveTeamUsers returns active memberships of active teams.
		ListActiveTeamUsers(ctx context.Context) ([]core.TeamUser, error)
	}

	ContributionTypeRepository interface {
		SaveType(ctx context.Context, t *core.ContributionType) error
		GetType(ctx context.Context, id uuid.UUID) (*core.ContributionType, error)
		ListTypes(ctx context.Context) ([]*core.ContributionType, error)
		ListActiveRecurringTypes(ctx context.Context) ([]*core.ContributionType, error)
		DeleteType(ctx context.Context, id uuid.UUID) error
	}

	TemplateRepository interface {
		SaveTemplate(ctx context.Context, t *core.ContributionTemplate) error
		GetTemplate(ctx context.Context, id uuid.UUID) (*core.ContributionTemplate, error)
		ListTemplates(ctx context.Context, teamID uuid.UUID) ([]*core.ContributionTemplate, error)
		DeleteTemplate(ctx context.Context, id uuid.UUID) error
	}

	ContributionRepository interface {
		SaveContribution(ctx context.Context, c *core.Contribution) error
		GetContribution(ctx context.Context, id uuid.UUID) (*core.Contribution, error)
		ListContributions(ctx context.Context, f ContributionFilter) ([]*core.Contribution, error)
		// LatestContribution returns the member's contribution of the type
		// with the latest due date.
		LatestContribution(ctx context.Context, teamUserID, typeID uuid.UUID) (*core.Contribution, error)
		DeleteContribution(ctx context.Context, id uuid.UUID) error
	}

	PaymentRepository interface {
		SavePayment(ctx context.Context, p *core.ContributionPayment) error
		GetPayment(ctx context.Context, id uuid.UUID) (*core.ContributionPayment, error)
		ListPayments(ctx context.Context, contributionID uuid.UUID) ([]core.ContributionPayment, error)
		DeletePayment(ctx context.Context, id uuid.UUID) error
	}

	// Store groups every repository. InTx runs fn against a store bound to
	// one transaction, committed when fn returns nil.
	Store interface {
		TeamRepository
		UserRepository
		MembershipRepository
		ContributionTypeRepository
		TemplateRepository
		ContributionRepository
		PaymentRepository

		InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
