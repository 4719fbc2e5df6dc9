// Package memory is an in-process storage.Store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/storage"
)

type data struct {
	teams         map[uuid.UUID]core.Team
	users         map[uuid.UUID]core.User
	teamUsers     map[uuid.UUID]core.TeamUser
	types         map[uuid.UUID]core.ContributionType
	templates     map[uuid.UUID]core.ContributionTemplate
	contributions map[uuid.UUID]core.Contribution
	payments      map[uuid.UUID]core.ContributionPayment
}

func newData() data {
	return data{
		teams:         map[uuid.UUID]core.Team{},
		users:         map[uuid.UUID]core.User{},
		teamUsers:     map[uuid.UUID]core.TeamUser{},
		types:         map[uuid.UUID]core.ContributionType{},
		templates:     map[uuid.UUID]core.ContributionTemplate{},
		contributions: map[uuid.UUID]core.Contribution{},
		payments:      map[uuid.UUID]core.ContributionPayment{},
	}
}

func (d data) clone() data {
	out := newData()
	for k, v := range d.teams {
		out.teams[k] = v
	}
	for k, v := range d.users {
		out.users[k] = v
	}
	for k, v := range d.teamUsers {
		out.teamUsers[k] = v
	}
	for k, v := range d.types {
		out.types[k] = v
	}
	for k, v := range d.templates {
		out.templates[k] = v
	}
	for k, v := range d.contributions {
		out.contributions[k] = v
	}
	for k, v := range d.payments {
		out.payments[k] = v
	}
	return out
}

// Store keeps every entity by value; callers never share memory with it.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	d    data
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{d: newData()}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// InTx serializes transactions and restores a snapshot when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.d.clone()
	s.mu.RUnlock()

	if err := fn(ctx, txStore{s}); err != nil {
		s.mu.Lock()
		s.d = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// txStore is the Store handed to InTx callbacks; nested InTx calls join the
// running transaction.
type txStore struct {
	*Store
}

func (t txStore) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) error {
	return fn(ctx, t)
}

func notFound(what string, id any) error {
	return fmt.Errorf("%w: %s %v", core.ErrNotFound, what, id)
}

// teams

func (s *Store) SaveTeam(_ context.Context, t *core.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.teams[t.ID] = *t
	return nil
}

func (s *Store) GetTeam(_ context.Context, id uuid.UUID) (*core.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.d.teams[id]
	if !ok {
		return nil, notFound("team", id)
	}
	return &t, nil
}

func (s *Store) ListTeams(context.Context) ([]*core.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.Team, 0, len(s.d.teams))
	for _, t := range s.d.teams {
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// users

func (s *Store) SaveUser(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, other := range s.d.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("save user: email %s already registered", u.Email)
		}
	}
	s.d.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.d.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.d.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (s *Store) ListUsers(context.Context) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.User, 0, len(s.d.users))
	for _, u := range s.d.users {
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// memberships

func copyTeamUser(tu core.TeamUser) core.TeamUser {
	tu.Roles = append([]core.Role(nil), tu.Roles...)
	return tu
}

func (s *Store) SaveTeamUser(_ context.Context, tu *core.TeamUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.teams[tu.TeamID]; !ok {
		return notFound("team", tu.TeamID)
	}
	if _, ok := s.d.users[tu.UserID]; !ok {
		return notFound("user", tu.UserID)
	}
	s.d.teamUsers[tu.ID] = copyTeamUser(*tu)
	return nil
}

func (s *Store) GetTeamUser(_ context.Context, id uuid.UUID) (*core.TeamUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tu, ok := s.d.teamUsers[id]
	if !ok {
		return nil, notFound("team user", id)
	}
	tu = copyTeamUser(tu)
	return &tu, nil
}

func sortTeamUsers(out []core.TeamUser) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
}

func (s *Store) ListTeamUsers(_ context.Context, teamID uuid.UUID) ([]core.TeamUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TeamUser
	for _, tu := range s.d.teamUsers {
		if tu.TeamID == teamID {
			out = append(out, copyTeamUser(tu))
		}
	}
	sortTeamUsers(out)
	return out, nil
}

func (s *Store) ListActiveTeamUsers(context.Context) ([]core.TeamUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TeamUser
	for _, tu := range s.d.teamUsers {
		if tu.Active && s.d.teams[tu.TeamID].Active {
			out = append(out, copyTeamUser(tu))
		}
	}
	sortTeamUsers(out)
	return out, nil
}

// contribution types

func (s *Store) SaveType(_ context.Context, t *core.ContributionType) error {
	cp := *t
	cp.PullEvents()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.d.types[t.ID] = cp
	return nil
}

func (s *Store) GetType(_ context.Context, id uuid.UUID) (*core.ContributionType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.d.types[id]
	if !ok {
		return nil, notFound("contribution type", id)
	}
	return &t, nil
}

func (s *Store) listTypes(keep func(core.ContributionType) bool) []*core.ContributionType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ContributionType, 0, len(s.d.types))
	for _, t := range s.d.types {
		if keep(t) {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListTypes(context.Context) ([]*core.ContributionType, error) {
	return s.listTypes(func(core.ContributionType) bool { return true }), nil
}

func (s *Store) ListActiveRecurringTypes(context.Context) ([]*core.ContributionType, error) {
	return s.listTypes(func(t core.ContributionType) bool { return t.Active && t.Recurring }), nil
}

func (s *Store) DeleteType(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.types[id]; !ok {
		return notFound("contribution type", id)
	}
	for _, c := range s.d.contributions {
		if c.TypeID == id {
			return fmt.Errorf("%w: contribution type %s has contributions", core.ErrInUse, id)
		}
	}
	delete(s.d.types, id)
	return nil
}

// templates

func (s *Store) SaveTemplate(_ context.Context, t *core.ContributionTemplate) error {
	cp := *t
	cp.PullEvents()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.teams[t.TeamID]; !ok {
		return notFound("team", t.TeamID)
	}
	s.d.templates[t.ID] = cp
	return nil
}

func (s *Store) GetTemplate(_ context.Context, id uuid.UUID) (*core.ContributionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.d.templates[id]
	if !ok {
		return nil, notFound("contribution template", id)
	}
	return &t, nil
}

func (s *Store) ListTemplates(_ context.Context, teamID uuid.UUID) ([]*core.ContributionTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.ContributionTemplate
	for _, t := range s.d.templates {
		if t.TeamID == teamID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) DeleteTemplate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.templates[id]; !ok {
		return notFound("contribution template", id)
	}
	delete(s.d.templates, id)
	return nil
}

// contributions

func copyContribution(c core.Contribution) core.Contribution {
	if c.PaidAt != nil {
		at := *c.PaidAt
		c.PaidAt = &at
	}
	return c
}

func (s *Store) SaveContribution(_ context.Context, c *core.Contribution) error {
	cp := copyContribution(*c)
	cp.PullEvents()
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.teamUsers[c.TeamUserID]; !ok {
		return notFound("team user", c.TeamUserID)
	}
	if _, ok := s.d.types[c.TypeID]; !ok {
		return notFound("contribution type", c.TypeID)
	}
	s.d.contributions[c.ID] = cp
	return nil
}

func (s *Store) GetContribution(_ context.Context, id uuid.UUID) (*core.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.d.contributions[id]
	if !ok {
		return nil, notFound("contribution", id)
	}
	c = copyContribution(c)
	return &c, nil
}

func (s *Store) matches(c core.Contribution, f storage.ContributionFilter) bool {
	if f.TeamUserID != uuid.Nil && c.TeamUserID != f.TeamUserID {
		return false
	}
	if f.TypeID != uuid.Nil && c.TypeID != f.TypeID {
		return false
	}
	if f.TeamID != uuid.Nil && s.d.teamUsers[c.TeamUserID].TeamID != f.TeamID {
		return false
	}
	if (f.UnpaidOnly || !f.OverdueOn.IsZero()) && c.IsPaid() {
		return false
	}
	if !f.OverdueOn.IsZero() && !c.DueDate.Before(f.OverdueOn) {
		return false
	}
	return true
}

func (s *Store) ListContributions(_ context.Context, f storage.ContributionFilter) ([]*core.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*core.Contribution
	for _, c := range s.d.contributions {
		if s.matches(c, f) {
			c = copyContribution(c)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

func (s *Store) LatestContribution(_ context.Context, teamUserID, typeID uuid.UUID) (*core.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *core.Contribution
	for _, c := range s.d.contributions {
		if c.TeamUserID != teamUserID || c.TypeID != typeID {
			continue
		}
		if latest == nil || c.DueDate.After(latest.DueDate) ||
			(c.DueDate.Equal(latest.DueDate) && c.CreatedAt.After(latest.CreatedAt)) {
			c = copyContribution(c)
			latest = &c
		}
	}
	if latest == nil {
		return nil, notFound("latest contribution for member", teamUserID)
	}
	return latest, nil
}

func (s *Store) DeleteContribution(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.contributions[id]; !ok {
		return notFound("contribution", id)
	}
	delete(s.d.contributions, id)
	for pid, p := range s.d.payments {
		if p.ContributionID == id {
			delete(s.d.payments, pid)
		}
	}
	return nil
}

// payments

func (s *Store) SavePayment(_ context.Context, p *core.ContributionPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.contributions[p.ContributionID]; !ok {
		return notFound("contribution", p.ContributionID)
	}
	s.d.payments[p.ID] = *p
	return nil
}

func (s *Store) GetPayment(_ context.Context, id uuid.UUID) (*core.ContributionPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.d.payments[id]
	if !ok {
		return nil, notFound("payment", id)
	}
	return &p, nil
}

func (s *Store) ListPayments(_ context.Context, contributionID uuid.UUID) ([]core.ContributionPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ContributionPayment
	for _, p := range s.d.payments {
		if p.ContributionID == contributionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) DeletePayment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.d.payments[id]; !ok {
		return notFound("payment", id)
	}
	delete(s.d.payments, id)
	return nil
}
