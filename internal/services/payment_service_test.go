package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

func TestPartialPaymentsSettleContribution(t *testing.T) {
	e := newEnv(t, 1)
	e.allowPublish()
	ct := createType(t, e, false, "")
	c, err := services.NewContributionService(e.deps).Create(e.ctx, services.CreateContributionInput{
		TeamUserID: e.members[0].ID, TypeID: ct.ID, Description: "Dues",
		Amount: core.Money{Minor: 5000, Currency: core.EUR}, DueDate: core.NewDate(2025, 7, 1),
	})
	require.NoError(t, err)

	payments := services.NewPaymentService(e.deps)
	first, err := payments.Add(e.ctx, c.ID, core.PaymentDetails{
		Amount: core.Money{Minor: 2000, Currency: core.EUR}, Method: core.PaymentCash,
	})
	require.NoError(t, err)
	assert.False(t, first.Contribution.IsPaid())
	assert.Equal(t, int64(3000), first.Summary.Outstanding.Minor)

	second, err := payments.Add(e.ctx, c.ID, core.PaymentDetails{
		Amount: core.Money{Minor: 3000, Currency: core.EUR}, Method: core.PaymentBankTransfer, Reference: "SEPA-1",
	})
	require.NoError(t, err)
	assert.True(t, second.Contribution.IsPaid())
	assert.True(t, second.Summary.Settled)

	stored, err := e.store.GetContribution(e.ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid())

	reopened, err := payments.Delete(e.ctx, second.Payment.ID)
	require.NoError(t, err)
	assert.False(t, reopened.Contribution.IsPaid())

	list, summary, err := payments.List(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(2000), summary.Total.Minor)

	updated, err := payments.Update(e.ctx, first.Payment.ID, core.PaymentDetails{
		Amount: core.Money{Minor: 5000, Currency: core.EUR}, Method: core.PaymentCard,
	})
	require.NoError(t, err)
	assert.True(t, updated.Contribution.IsPaid())
}

func TestPaymentValidation(t *testing.T) {
	e := newEnv(t, 1)
	e.allowPublish()
	ct := createType(t, e, false, "")
	c, err := services.NewContributionService(e.deps).Create(e.ctx, services.CreateContributionInput{
		TeamUserID: e.members[0].ID, TypeID: ct.ID, Description: "Dues",
		Amount: core.Money{Minor: 5000, Currency: core.EUR}, DueDate: core.NewDate(2025, 7, 1),
	})
	require.NoError(t, err)

	payments := services.NewPaymentService(e.deps)
	_, err = payments.Add(e.ctx, c.ID, core.PaymentDetails{Amount: core.Money{Minor: 100, Currency: core.USD}})
	assert.ErrorIs(t, err, core.ErrCurrencyMismatch)

	_, err = payments.Add(e.ctx, c.ID, core.PaymentDetails{Amount: core.Money{Minor: 0, Currency: core.EUR}})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = payments.Add(e.ctx, c.ID, core.PaymentDetails{Amount: core.Money{Minor: 10, Currency: core.EUR}, Method: "cheque"})
	assert.ErrorIs(t, err, core.ErrInvalidMethod)

	list, _, err := payments.List(e.ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPaymentsFrozenAfterDirectPay(t *testing.T) {
	e := newEnv(t, 1)
	e.allowPublish()
	ct := createType(t, e, false, "")
	contributions := services.NewContributionService(e.deps)
	payments := services.NewPaymentService(e.deps)

	newContribution := func() *core.Contribution {
		c, err := contributions.Create(e.ctx, services.CreateContributionInput{
			TeamUserID: e.members[0].ID, TypeID: ct.ID, Description: "Dues",
			Amount: core.Money{Minor: 5000, Currency: core.EUR}, DueDate: core.NewDate(2025, 6, 1),
		})
		require.NoError(t, err)
		return c
	}

	t.Run("add after pay", func(t *testing.T) {
		c := newContribution()
		_, err := contributions.Pay(e.ctx, c.ID)
		require.NoError(t, err)

		_, err = payments.Add(e.ctx, c.ID, core.PaymentDetails{
			Amount: core.Money{Minor: 100, Currency: core.EUR}, Method: core.PaymentCash,
		})
		assert.ErrorIs(t, err, core.ErrAlreadyPaid)

		stored, err := e.store.GetContribution(e.ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsPaid())
		assert.False(t, stored.IsOverdue(fixedNow))

		_, err = contributions.UpdateDueDate(e.ctx, c.ID, core.NewDate(2026, 1, 1))
		assert.ErrorIs(t, err, core.ErrAlreadyPaid)

		list, _, err := payments.List(e.ctx, c.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("partial payment then pay", func(t *testing.T) {
		c := newContribution()
		partial, err := payments.Add(e.ctx, c.ID, core.PaymentDetails{
			Amount: core.Money{Minor: 2000, Currency: core.EUR}, Method: core.PaymentCash,
		})
		require.NoError(t, err)
		_, err = contributions.Pay(e.ctx, c.ID)
		require.NoError(t, err)

		_, err = payments.Update(e.ctx, partial.Payment.ID, core.PaymentDetails{
			Amount: core.Money{Minor: 1000, Currency: core.EUR}, Method: core.PaymentCash,
		})
		assert.ErrorIs(t, err, core.ErrAlreadyPaid)
		_, err = payments.Delete(e.ctx, partial.Payment.ID)
		assert.ErrorIs(t, err, core.ErrAlreadyPaid)

		stored, err := e.store.GetContribution(e.ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsPaid())
	})

	t.Run("settled by payments stays editable", func(t *testing.T) {
		c := newContribution()
		full, err := payments.Add(e.ctx, c.ID, core.PaymentDetails{
			Amount: core.Money{Minor: 5000, Currency: core.EUR}, Method: core.PaymentCard,
		})
		require.NoError(t, err)
		require.True(t, full.Contribution.IsPaid())

		res, err := payments.Delete(e.ctx, full.Payment.ID)
		require.NoError(t, err)
		assert.False(t, res.Contribution.IsPaid())
	})
}
