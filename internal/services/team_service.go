package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"teamfin/internal/core"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const minPasswordLength = 8

// TeamService manages teams, users and memberships.
type TeamService struct {
	Deps
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

func NewTeamService(d Deps) *TeamService {
	return &TeamService{Deps: d, BcryptCost: bcrypt.DefaultCost}
}

func (s *TeamService) CreateTeam(ctx context.Context, name, description string) (*core.Team, error) {
	t, err := core.NewTeam(name, description, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("save team: %w", err)
	}
	slog.InfoContext(ctx, "Team created", "team_id", t.ID, "name", t.Name)
	return t, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*core.Team, error) {
	return s.Store.GetTeam(ctx, id)
}

func (s *TeamService) ListTeams(ctx context.Context) ([]*core.Team, error) {
	return s.Store.ListTeams(ctx)
}

// SetTeamActive fails with core.ErrAlreadyActive or core.ErrAlreadyInactive
// when the team already is in the requested state.
func (s *TeamService) SetTeamActive(ctx context.Context, id uuid.UUID, active bool) (*core.Team, error) {
	t, err := s.Store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		err = t.Activate(s.now())
	} else {
		err = t.Deactivate(s.now())
	}
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveTeam(ctx, t); err != nil {
		return nil, fmt.Errorf("save team: %w", err)
	}
	return t, nil
}

func (s *TeamService) CreateUser(ctx context.Context, email, name, password string) (*core.User, error) {
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", core.ErrInvalidConfiguration, minPasswordLength)
	}
	if _, err := s.Store.GetUserByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: user %s", core.ErrDuplicate, email)
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}
	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := core.NewUser(email, name, string(hash), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveUser(ctx, u); err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	slog.InfoContext(ctx, "User created", "user_id", u.ID)
	return u, nil
}

func (s *TeamService) ListUsers(ctx context.Context) ([]*core.User, error) {
	return s.Store.ListUsers(ctx)
}

// Authenticate returns the active user matching email and password.
func (s *TeamService) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	u, err := s.Store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// AddMember enrolls a user in a team once.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID uuid.UUID, roles []core.Role) (*core.TeamUser, error) {
	if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	if _, err := s.Store.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	members, err := s.Store.ListTeamUsers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if m.UserID == userID {
			return nil, fmt.Errorf("%w: user %s is already a member of team %s", core.ErrDuplicate, userID, teamID)
		}
	}
	tu, err := core.NewTeamUser(teamID, userID, roles, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Store.SaveTeamUser(ctx, tu); err != nil {
		return nil, fmt.Errorf("save team user: %w", err)
	}
	slog.InfoContext(ctx, "Member added", "team_id", teamID, "user_id", userID, "team_user_id", tu.ID)
	return tu, nil
}

func (s *TeamService) ListMembers(ctx context.Context, teamID uuid.UUID) ([]core.TeamUser, error) {
	if _, err := s.Store.GetTeam(ctx, teamID); err != nil {
		return nil, err
	}
	return s.Store.ListTeamUsers(ctx, teamID)
}
