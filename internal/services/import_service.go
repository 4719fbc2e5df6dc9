package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamfin/internal/core"
	"teamfin/internal/gateway"
	"teamfin/internal/storage"
)

// RowError reports why the CSV line Row was not imported.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Success int        `json:"success"`
	Errors  []RowError `json:"errors"`
}

// ImportService creates contributions from CSV files, one per row.
type ImportService struct {
	Deps
}

func NewImportService(d Deps) *ImportService {
	return &ImportService{Deps: d}
}

// Import reads every row and saves the valid ones. A failing row is reported
// in the result and does not stop the import; only an unreadable file or
// header returns an error.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	records, err := gateway.ReadContributionRecords(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", core.ErrInvalidConfiguration, err)
	}

	res := ImportResult{Errors: []RowError{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		c, err := s.importRecord(ctx, rec)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: rec.Line, Message: err.Error()})
			slog.WarnContext(ctx, "Skipping import row", "row", rec.Line, "error", err)
			continue
		}
		res.Success++
		publish(ctx, s.Publisher, c.PullEvents())
	}

	slog.InfoContext(ctx, "Contribution import complete",
		"rows", len(records),
		"success", res.Success,
		"failed", len(res.Errors))
	return res, nil
}

func (s *ImportService) importRecord(ctx context.Context, rec gateway.ContributionRecord) (*core.Contribution, error) {
	if rec.Err != nil {
		return nil, rec.Err
	}
	teamUserID, err := uuid.Parse(rec.TeamUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid team_user_id %q", rec.TeamUserID)
	}
	typeID, err := uuid.Parse(rec.TypeID)
	if err != nil {
		return nil, fmt.Errorf("invalid type_id %q", rec.TypeID)
	}
	minor, err := core.ParseAmount(rec.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	currency, err := core.ParseCurrency(rec.Currency)
	if err != nil {
		return nil, err
	}
	amount, err := core.NewMoney(minor, currency)
	if err != nil {
		return nil, err
	}
	due, err := core.ParseDate(rec.DueDate)
	if err != nil {
		return nil, fmt.Errorf("due_date: %w", err)
	}
	var paidAt *time.Time
	if rec.PaidAt != "" {
		t, err := parsePaidAt(rec.PaidAt)
		if err != nil {
			return nil, err
		}
		paidAt = &t
	}

	var c *core.Contribution
	err = s.Store.InTx(ctx, func(ctx context.Context, tx storage.Store) error {
		if _, err := tx.GetTeamUser(ctx, teamUserID); err != nil {
			return err
		}
		if _, err := tx.GetType(ctx, typeID); err != nil {
			return err
		}
		now := s.now()
		if c, err = core.NewContribution(teamUserID, typeID, rec.Description, amount, due, now); err != nil {
			return err
		}
		if paidAt != nil {
			if err := c.PayAt(*paidAt, now); err != nil {
				return err
			}
		}
		return tx.SaveContribution(ctx, c)
	})
	return c, err
}

// parsePaidAt accepts an RFC 3339 timestamp or a plain date.
func parsePaidAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("paid_at: %w", err)
	}
	return d.Time, nil
}
