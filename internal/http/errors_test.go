package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: id", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("%w: body", errTooLarge), http.StatusRequestEntityTooLarge},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("contribution: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrAlreadyPaid, http.StatusConflict},
		{core.ErrInUse, http.StatusConflict},
		{core.ErrDuplicate, http.StatusConflict},
		{core.ErrCurrencyMismatch, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad header", core.ErrInvalidConfiguration), http.StatusUnprocessableEntity},
		{core.ErrInvalidEmail, http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestMoneyOf(t *testing.T) {
	m, err := moneyOf(1250, "", core.GBP)
	assert.NoError(t, err)
	assert.Equal(t, core.Money{Minor: 1250, Currency: core.GBP}, m)

	m, err = moneyOf(1250, "usd", core.EUR)
	assert.NoError(t, err)
	assert.Equal(t, core.USD, m.Currency)

	_, err = moneyOf(-1, "", core.EUR)
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = moneyOf(1, "XXX", core.EUR)
	assert.ErrorIs(t, err, core.ErrUnknownCurrency)
}
