package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"teamfin/internal/core"
	"teamfin/internal/services"
	mock_services "teamfin/internal/services/mocks"
	"teamfin/internal/storage/memory"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type env struct {
	ctx       context.Context
	store     *memory.Store
	publisher *mock_services.MockEventPublisher
	deps      services.Deps
	team      *core.Team
	members   []*core.TeamUser
}

// newEnv seeds a team with n members. The publisher accepts any call unless
// the test sets stricter expectations first.
func newEnv(t *testing.T, n int) *env {
	t.Helper()
	ctrl := gomock.NewController(t)
	pub := mock_services.NewMockEventPublisher(ctrl)

	e := &env{
		ctx:       context.Background(),
		store:     memory.New(),
		publisher: pub,
	}
	e.deps = services.Deps{
		Store:     e.store,
		Publisher: pub,
		Clock:     func() time.Time { return fixedNow },
	}

	teams := services.NewTeamService(e.deps)
	teams.BcryptCost = 4
	team, err := teams.CreateTeam(e.ctx, "Falcons", "")
	require.NoError(t, err)
	e.team = team
	for i := 0; i < n; i++ {
		u, err := teams.CreateUser(e.ctx, string(rune('a'+i))+"@example.org", "Member "+string(rune('A'+i)), "password123")
		require.NoError(t, err)
		tu, err := teams.AddMember(e.ctx, team.ID, u.ID, nil)
		require.NoError(t, err)
		e.members = append(e.members, tu)
	}
	return e
}

func (e *env) allowPublish() {
	e.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func eventNames(events []core.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Name
	}
	return out
}
