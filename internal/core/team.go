package core

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID          uuid.UUID
	Name        string
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewTeam(name, description string, now time.Time) (*Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Team{
		ID:          uuid.New(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Activate fails when the team is already active. Contributions do not guard
// their flag this way.
func (t *Team) Activate(now time.Time) error {
	if t.Active {
		return fmt.Errorf("%w: team %s", ErrAlreadyActive, t.ID)
	}
	t.Active = true
	t.UpdatedAt = now
	return nil
}

func (t *Team) Deactivate(now time.Time) error {
	if !t.Active {
		return fmt.Errorf("%w: team %s", ErrAlreadyInactive, t.ID)
	}
	t.Active = false
	t.UpdatedAt = now
	return nil
}

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser expects an already hashed password.
func NewUser(email, name, passwordHash string, now time.Time) (*User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(addr.Address),
		Name:         name,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleTreasurer Role = "treasurer"
	RoleMember    Role = "member"
)

func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleAdmin, RoleTreasurer, RoleMember:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// TeamUser is a user's membership in a team.
type TeamUser struct {
	ID       uuid.UUID
	TeamID   uuid.UUID
	UserID   uuid.UUID
	Roles    []Role
	Active   bool
	JoinedAt time.Time
}

// NewTeamUser defaults to the member role when no roles are given.
func NewTeamUser(teamID, userID uuid.UUID, roles []Role, now time.Time) (*TeamUser, error) {
	if teamID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: team and user are required", ErrMissingReference)
	}
	if len(roles) == 0 {
		roles = []Role{RoleMember}
	}
	for _, r := range roles {
		if _, err := ParseRole(string(r)); err != nil {
			return nil, err
		}
	}
	return &TeamUser{
		ID:       uuid.New(),
		TeamID:   teamID,
		UserID:   userID,
		Roles:    roles,
		Active:   true,
		JoinedAt: now,
	}, nil
}

func (tu TeamUser) HasRole(r Role) bool {
	for _, have := range tu.Roles {
		if have == r {
			return true
		}
	}
	return false
}
