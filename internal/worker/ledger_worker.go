package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"teamfin/internal/amqp"
	"teamfin/internal/cache"
	"teamfin/internal/core"
	"teamfin/internal/sheets"
	"teamfin/internal/storage"
)

const (
	seenCacheSize = 10000
	seenCacheTTL  = 24 * time.Hour
)

// LedgerWorker appends a ledger row for every money-relevant domain event.
type LedgerWorker struct {
	storage storage.Store
	ledger  sheets.LedgerWriter
	// seen suppresses rows for events the broker redelivers.
	seen *cache.LRU[string, string]
}

func NewLedgerWorker(store storage.Store, ledger sheets.LedgerWriter) *LedgerWorker {
	return &LedgerWorker{
		storage: store,
		ledger:  ledger,
		seen:    cache.NewLRU[string, string](seenCacheSize, seenCacheTTL),
	}
}

// Handles reports whether the worker writes rows for events of this name.
func Handles(name string) bool {
	switch name {
	case core.EventContributionCreated, core.EventContributionPaid,
		core.EventContributionReopened, core.EventPaymentRecorded:
		return true
	}
	return false
}

// HandleEventMessage processes a single domain event message from AMQP
func (w *LedgerWorker) HandleEventMessage(ctx context.Context, msg *amqp.EventMessage) error {
	if !Handles(msg.Name) {
		slog.DebugContext(ctx, "Ignoring event", "event", msg.Name)
		return nil
	}

	key := eventKey(msg.Event)
	if _, dup := w.seen.Get(key); dup {
		slog.InfoContext(ctx, "Skipping duplicate event", "event", msg.Name, "aggregate_id", msg.AggregateID)
		return nil
	}

	row, err := w.buildRow(ctx, msg.Event)
	if errors.Is(err, core.ErrNotFound) {
		// The contribution was deleted after the event was published.
		slog.WarnContext(ctx, "Event refers to missing data, skipping",
			"event", msg.Name,
			"aggregate_id", msg.AggregateID,
			"error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("build ledger row: %w", err)
	}

	ref, err := w.ledger.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}
	w.seen.Set(key, ref)

	slog.InfoContext(ctx, "Ledger row appended",
		"event", msg.Name,
		"contribution_id", row.ContributionID,
		"sheets_ref", ref,
		"amount", row.Amount.Format())
	return nil
}

func (w *LedgerWorker) buildRow(ctx context.Context, ev core.Event) (sheets.LedgerRow, error) {
	c, err := w.storage.GetContribution(ctx, ev.AggregateID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}
	ct, err := w.storage.GetType(ctx, c.TypeID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}
	tu, err := w.storage.GetTeamUser(ctx, c.TeamUserID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}
	user, err := w.storage.GetUser(ctx, tu.UserID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}
	team, err := w.storage.GetTeam(ctx, tu.TeamID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}

	// Rows describe the contribution as the event saw it; the stored
	// contribution may have moved on by the time a late event is handled.
	row := sheets.LedgerRow{
		RecordedAt:     ev.OccurredAt,
		Event:          ev.Name,
		ContributionID: c.ID,
		Team:           team.Name,
		Member:         user.Name,
		Type:           ct.Name,
		Description:    c.Description,
		Amount:         eventAmount(ev, c.Amount),
		DueDate:        c.DueDate,
		Status:         eventStatus(ev.Name),
	}
	if due, ok := ev.Data["dueDate"].(string); ok {
		if d, err := core.ParseDate(due); err == nil {
			row.DueDate = d
		}
	}

	if ev.Name == core.EventPaymentRecorded {
		id, _ := ev.Data["paymentId"].(string)
		paymentID, err := uuid.Parse(id)
		if err != nil {
			return sheets.LedgerRow{}, fmt.Errorf("payment event without payment id: %q", id)
		}
		row.Note, _ = ev.Data["method"].(string)
		p, err := w.storage.GetPayment(ctx, paymentID)
		switch {
		case errors.Is(err, core.ErrNotFound):
			// deleted since; the event still carries amount and method
		case err != nil:
			return sheets.LedgerRow{}, err
		default:
			if row.Note == "" {
				row.Note = string(p.Method)
			}
			if p.Reference != "" {
				row.Note += " " + p.Reference
			}
		}
	}
	return row, nil
}

func eventStatus(name string) string {
	switch name {
	case core.EventContributionPaid:
		return "paid"
	case core.EventPaymentRecorded:
		return "payment"
	}
	return "open"
}

// eventAmount reads the amount carried by the event. Numbers arrive as
// float64 once the event went through JSON.
func eventAmount(ev core.Event, fallback core.Money) core.Money {
	var minor int64
	switch v := ev.Data["amount"].(type) {
	case int64:
		minor = v
	case int:
		minor = int64(v)
	case float64:
		minor = int64(v)
	default:
		return fallback
	}
	code, _ := ev.Data["currency"].(string)
	currency, err := core.ParseCurrency(code)
	if err != nil {
		return fallback
	}
	return core.Money{Minor: minor, Currency: currency}
}

func eventKey(ev core.Event) string {
	key := ev.Name + "|" + ev.AggregateID.String() + "|" + ev.OccurredAt.UTC().Format(time.RFC3339Nano)
	if id, ok := ev.Data["paymentId"].(string); ok {
		key += "|" + id
	}
	return key
}
