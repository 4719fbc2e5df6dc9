package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	ports "teamfin/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the credentials used to write it.
// OAuthTokenFile switches from the service account to a user token obtained
// with cmd/oauth-init.
type Config struct {
	SpreadsheetID string
	// SheetName is the base name; rows go to "<year> <SheetName>".
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string

	mu     sync.Mutex
	headed map[string]bool
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// New creates a ledger client. Without extra options the service account
// credentials from cfg are used.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Ledger"
	}

	if len(opts) == 0 {
		var err error
		if opts, err = clientOptions(ctx, cfg); err != nil {
			return nil, err
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created successfully", "sheet", base)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     base,
		headed:        map[string]bool{},
	}, nil
}

func clientOptions(ctx context.Context, cfg Config) ([]goption.ClientOption, error) {
	if strings.TrimSpace(cfg.OAuthTokenFile) != "" {
		ts, err := userTokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "Using OAuth user token", "path", cfg.OAuthTokenFile)
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	}
	creds, err := credentialsJSON(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

// credentialsJSON reads the service account key, inline first, then from
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func credentialsJSON(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Append writes r below the last row of the yearly ledger sheet and returns
// the updated range.
func (c *Client) Append(ctx context.Context, r ports.LedgerRow) (string, error) {
	if err := r.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, r.RecordedAt.Year())
	if err := c.ensureHeader(ctx, sheet); err != nil {
		return "", err
	}

	rng := fmt.Sprintf("%s!A:%s", sheet, lastColumn)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(r)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to append to sheet %s: %w", sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// ensureHeader writes the column titles into an empty sheet once per process.
func (c *Client) ensureHeader(ctx context.Context, sheet string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.headed[sheet] {
		return nil
	}

	rng := fmt.Sprintf("%s!A1:%s1", sheet, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", sheet, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]any{headerRow()}}
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("write header of %s: %w", sheet, err)
		}
		slog.InfoContext(ctx, "Wrote ledger header", "sheet", sheet)
	}
	c.headed[sheet] = true
	return nil
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
