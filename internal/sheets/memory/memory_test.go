package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamfin/internal/core"
	"teamfin/internal/sheets"
)

func TestLedgerAppend(t *testing.T) {
	l := New()
	row := sheets.LedgerRow{
		RecordedAt:     time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
		Event:          core.EventContributionCreated,
		ContributionID: uuid.New(),
		Amount:         core.Money{Minor: 5000, Currency: core.EUR},
	}

	ref, err := l.Append(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, "mem:1", ref)

	ref, err = l.Append(context.Background(), row)
	require.NoError(t, err)
	assert.Equal(t, "mem:2", ref)
	assert.Len(t, l.Rows(), 2)
}

func TestLedgerRejectsIncompleteRow(t *testing.T) {
	l := New()
	_, err := l.Append(context.Background(), sheets.LedgerRow{Event: "x"})
	assert.Error(t, err)
	assert.Empty(t, l.Rows())
}
