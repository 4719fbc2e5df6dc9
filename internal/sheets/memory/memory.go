package memory

import (
	"context"
	"fmt"
	"sync"

	"teamfin/internal/sheets"
)

// Ledger keeps appended rows in memory. It stands in for the spreadsheet when
// no Google credentials are configured.
type Ledger struct {
	mu   sync.Mutex
	rows []sheets.LedgerRow
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

// Append stores the row and returns a synthetic row reference.
func (l *Ledger) Append(_ context.Context, r sheets.LedgerRow) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, r)
	return fmt.Sprintf("mem:%d", len(l.rows)), nil
}

// Rows returns a copy of the appended rows in order.
func (l *Ledger) Rows() []sheets.LedgerRow {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]sheets.LedgerRow(nil), l.rows...)
}
