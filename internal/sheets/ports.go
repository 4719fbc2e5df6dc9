package sheets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"teamfin/internal/core"
)

// LedgerRow is one line of the team ledger spreadsheet.
type LedgerRow struct {
	RecordedAt     time.Time
	Event          string
	ContributionID uuid.UUID
	Team           string
	Member         string
	Type           string
	Description    string
	Amount         core.Money
	DueDate        core.Date
	Status         string
	Note           string
}

func (r LedgerRow) Validate() error {
	if r.RecordedAt.IsZero() {
		return errors.New("ledger row: missing timestamp")
	}
	if r.Event == "" {
		return errors.New("ledger row: missing event")
	}
	if r.ContributionID == uuid.Nil {
		return errors.New("ledger row: missing contribution")
	}
	return r.Amount.Validate()
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		Append(ctx context.Context, r LedgerRow) (rowRef string, err error)
	}
)
