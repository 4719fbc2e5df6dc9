package services_test

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamfin/internal/core"
	"teamfin/internal/services"
	"teamfin/internal/storage"
)

func TestMembershipFeeTemplateEndToEnd(t *testing.T) {
	e := newEnv(t, 2)
	var published [][]string
	e.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, events []core.Event) error {
			published = append(published, eventNames(events))
			return nil
		}).AnyTimes()

	ct, err := services.NewTypeService(e.deps).Create(e.ctx, services.TypeInput{
		Name: "Membership Fee", Recurring: true, Pattern: core.Monthly,
	})
	require.NoError(t, err)

	templates := services.NewTemplateService(e.deps)
	tmpl, err := templates.Create(e.ctx, e.team.ID, core.TemplateParams{
		Name:      ct.Name,
		Amount:    core.Money{Minor: 5000, Currency: core.EUR},
		Recurring: true,
		Pattern:   core.Monthly,
		DueDays:   15,
	})
	require.NoError(t, err)

	app, err := templates.Apply(e.ctx, tmpl.ID, []uuid.UUID{e.members[0].ID, e.members[1].ID})
	require.NoError(t, err)
	require.Len(t, app.Contributions, 2)

	stored, err := e.store.ListContributions(e.ctx, storage.ContributionFilter{TeamID: e.team.ID})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	for _, c := range stored {
		assert.Equal(t, "50.00 €", c.Amount.Format())
		assert.Equal(t, core.DateOf(fixedNow).AddDays(15), c.DueDate)
		assert.Nil(t, c.PaidAt)
		assert.Equal(t, app.Type.ID, c.TypeID)
	}

	derived, err := e.store.GetType(e.ctx, app.Type.ID)
	require.NoError(t, err)
	assert.True(t, derived.Recurring)
	assert.Equal(t, core.Monthly, derived.Pattern)

	require.Len(t, published, 2)
	assert.Equal(t, []string{
		core.EventContributionTypeCreated,
		core.EventContributionCreated,
		core.EventContributionCreated,
		core.EventTemplateApplied,
	}, published[1])
}

func TestTemplateApplyDefaultsToActiveTeamMembers(t *testing.T) {
	e := newEnv(t, 3)
	e.allowPublish()

	inactive := *e.members[2]
	inactive.Active = false
	require.NoError(t, e.store.SaveTeamUser(e.ctx, &inactive))

	templates := services.NewTemplateService(e.deps)
	tmpl, err := templates.Create(e.ctx, e.team.ID, core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1500, Currency: core.GBP},
	})
	require.NoError(t, err)

	app, err := templates.Apply(e.ctx, tmpl.ID, nil)
	require.NoError(t, err)
	assert.Len(t, app.Contributions, 2)
	assert.Equal(t, core.DateOf(fixedNow).AddDays(core.DefaultDueDays), app.Contributions[0].DueDate)
}

func TestTemplateApplyRejectsForeignMember(t *testing.T) {
	e := newEnv(t, 1)
	other := newEnv(t, 1)
	e.allowPublish()

	templates := services.NewTemplateService(e.deps)
	tmpl, err := templates.Create(e.ctx, e.team.ID, core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1500, Currency: core.GBP},
	})
	require.NoError(t, err)

	_, err = templates.Apply(e.ctx, tmpl.ID, []uuid.UUID{other.members[0].ID})
	assert.ErrorIs(t, err, core.ErrNotFound)

	all, err := e.store.ListContributions(e.ctx, storage.ContributionFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
	types, err := e.store.ListTypes(e.ctx)
	require.NoError(t, err)
	assert.Empty(t, types, "failed application leaves no derived type")
}

func TestTemplateCreateValidation(t *testing.T) {
	e := newEnv(t, 0)
	templates := services.NewTemplateService(e.deps)

	_, err := templates.Create(e.ctx, e.team.ID, core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1, Currency: core.EUR}, DueDays: 400,
	})
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	_, err = templates.Create(e.ctx, uuid.New(), core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1, Currency: core.EUR},
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTemplateUpdate(t *testing.T) {
	e := newEnv(t, 0)
	templates := services.NewTemplateService(e.deps)
	tmpl, err := templates.Create(e.ctx, e.team.ID, core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1, Currency: core.EUR},
	})
	require.NoError(t, err)

	_, err = templates.Update(e.ctx, tmpl.ID, core.TemplateParams{
		Name: "Kit", Amount: core.Money{Minor: 1, Currency: core.EUR}, Recurring: true,
	})
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	updated, err := templates.Update(e.ctx, tmpl.ID, core.TemplateParams{
		Name: "Away kit", Amount: core.Money{Minor: 3000, Currency: core.EUR}, DueDays: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Away kit", updated.Name)
	assert.Equal(t, 7, updated.DueDays)
}
