package services_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamfin/internal/core"
	"teamfin/internal/services"
	"teamfin/internal/storage"
)

func TestTeamReport(t *testing.T) {
	e := newEnv(t, 2)
	e.allowPublish()
	ct := createType(t, e, false, "")
	contributions := services.NewContributionService(e.deps)
	payments := services.NewPaymentService(e.deps)

	create := func(member *core.TeamUser, minor int64, cur core.Currency, due core.Date) *core.Contribution {
		t.Helper()
		c, err := contributions.Create(e.ctx, services.CreateContributionInput{
			TeamUserID: member.ID, TypeID: ct.ID, Description: "Dues",
			Amount: core.Money{Minor: minor, Currency: cur}, DueDate: due,
		})
		require.NoError(t, err)
		return c
	}

	paid := create(e.members[0], 5000, core.EUR, core.NewDate(2025, 5, 1))
	_, err := contributions.Pay(e.ctx, paid.ID)
	require.NoError(t, err)
	partial := create(e.members[0], 5000, core.EUR, core.NewDate(2025, 6, 1))
	_, err = payments.Add(e.ctx, partial.ID, core.PaymentDetails{Amount: core.Money{Minor: 2000, Currency: core.EUR}, Method: core.PaymentCash})
	require.NoError(t, err)
	create(e.members[1], 5000, core.EUR, core.NewDate(2025, 7, 1))
	create(e.members[1], 1000, core.USD, core.NewDate(2025, 7, 1))
	inactive := create(e.members[1], 9900, core.EUR, core.NewDate(2025, 1, 1))
	_, err = contributions.SetActive(e.ctx, inactive.ID, false)
	require.NoError(t, err)

	report, err := services.NewReportService(e.deps).TeamReport(e.ctx, e.team.ID, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "Falcons", report.TeamName)
	assert.Equal(t, 1, report.PaidCount)
	assert.Equal(t, 3, report.OpenCount)
	assert.Equal(t, 1, report.OverdueCount)

	require.Len(t, report.Totals, 2)
	eur := report.Totals[0]
	assert.Equal(t, core.EUR, eur.Currency)
	assert.Equal(t, int64(15000), eur.Due.Minor)
	assert.Equal(t, int64(7000), eur.Paid.Minor)
	assert.Equal(t, int64(8000), eur.Outstanding.Minor)
	assert.Equal(t, core.USD, report.Totals[1].Currency)
	assert.Equal(t, int64(1000), report.Totals[1].Outstanding.Minor)

	require.Len(t, report.Members, 3)
	a := report.Members[0]
	assert.Equal(t, "Member A", a.Name)
	assert.Equal(t, int64(3000), a.Outstanding.Minor)
	assert.Equal(t, 1, a.Open)
	assert.Equal(t, 1, a.Overdue)
	assert.Equal(t, "Member B", report.Members[1].Name)
	assert.Equal(t, 0, report.Members[1].Overdue)
}

func TestTeamReportUnknownTeam(t *testing.T) {
	e := newEnv(t, 0)
	_, err := services.NewReportService(e.deps).TeamReport(e.ctx, uuid.New(), fixedNow)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestExportContributionsRoundTrip(t *testing.T) {
	e := newEnv(t, 1)
	e.allowPublish()
	ct := createType(t, e, false, "")
	contributions := services.NewContributionService(e.deps)
	for _, due := range []core.Date{core.NewDate(2025, 5, 1), core.NewDate(2025, 6, 1)} {
		c, err := contributions.Create(e.ctx, services.CreateContributionInput{
			TeamUserID: e.members[0].ID, TypeID: ct.ID, Description: "Dues, " + due.String(),
			Amount: core.Money{Minor: 1234, Currency: core.GBP}, DueDate: due,
		})
		require.NoError(t, err)
		if due.Month() == 5 {
			_, err = contributions.Pay(e.ctx, c.ID)
			require.NoError(t, err)
		}
	}

	var buf bytes.Buffer
	n, err := services.NewReportService(e.deps).ExportContributions(e.ctx, e.team.ID, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Re-importing the export duplicates every contribution.
	res, err := services.NewImportService(e.deps).Import(e.ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Empty(t, res.Errors)

	all, err := e.store.ListContributions(e.ctx, storage.ContributionFilter{TeamID: e.team.ID})
	require.NoError(t, err)
	require.Len(t, all, 4)
	paid := 0
	for _, c := range all {
		assert.Equal(t, core.Money{Minor: 1234, Currency: core.GBP}, c.Amount)
		if c.IsPaid() {
			paid++
		}
	}
	assert.Equal(t, 2, paid)
}
