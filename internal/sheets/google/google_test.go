package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"teamfin/internal/core"
	ports "teamfin/internal/sheets"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu      sync.Mutex
	header  []any
	appends [][]any
	gets    int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body struct {
		Values [][]any `json:"values"`
	}
	switch {
	case r.Method == http.MethodGet:
		f.gets++
		resp := map[string]any{"range": "A1:L1"}
		if f.header != nil {
			resp["values"] = [][]any{f.header}
		}
		json.NewEncoder(w).Encode(resp)
	case r.Method == http.MethodPut:
		json.NewDecoder(r.Body).Decode(&body)
		f.header = body.Values[0]
		json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			http.Error(w, "bad valueInputOption", http.StatusBadRequest)
			return
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.appends = append(f.appends, body.Values[0])
		row := len(f.appends) + 1
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "'2025 Ledger'!A" + string(rune('0'+row)) + ":L" + string(rune('0'+row))},
		})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c
}

func testRow() ports.LedgerRow {
	return ports.LedgerRow{
		RecordedAt:     time.Date(2025, 6, 15, 9, 30, 0, 0, time.UTC),
		Event:          core.EventContributionPaid,
		ContributionID: uuid.MustParse("6f1c1f44-7a0e-4d8e-9c55-2b1b8f7c0a11"),
		Team:           "Falcons",
		Member:         "Ada",
		Type:           "Membership Fee",
		Description:    "Membership Fee June 2025",
		Amount:         core.Money{Minor: 5000, Currency: core.EUR},
		DueDate:        core.NewDate(2025, 7, 15),
		Status:         "paid",
	}
}

func TestClientAppendWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.Append(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, "'2025 Ledger'!A2:L2", ref)

	_, err = c.Append(context.Background(), testRow())
	require.NoError(t, err)

	assert.Equal(t, 1, fake.gets, "header is checked once per sheet")
	assert.Equal(t, "Recorded", fake.header[0])
	require.Len(t, fake.appends, 2)
	assert.Equal(t, []any{
		"2025-06-15 09:30:00", "contribution.paid", "6f1c1f44-7a0e-4d8e-9c55-2b1b8f7c0a11",
		"Falcons", "Ada", "Membership Fee", "Membership Fee June 2025",
		"50.00", "EUR", "2025-07-15", "paid", "",
	}, fake.appends[0])
}

func TestClientAppendKeepsExistingHeader(t *testing.T) {
	fake := &fakeSheets{header: []any{"Custom"}}
	c := newTestClient(t, fake)

	_, err := c.Append(context.Background(), testRow())
	require.NoError(t, err)
	assert.Equal(t, []any{"Custom"}, fake.header)
}

func TestClientAppendValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"} // svc is nil, which would fail the append
	row := testRow()
	row.Event = ""
	_, err := c.Append(context.Background(), row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestClientAppendSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	_, err := c.Append(context.Background(), testRow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read header of 2025 Ledger")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"Ledger", "2025 Ledger"},
		{"2024 Ledger", "2024 Ledger"},
		{"  Dues  ", "2025 Dues"},
		{"", ""},
		{"12345", "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, 2025); got != tt.want {
			t.Errorf("yearPrefixedName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestHeaderMatchesRowWidth(t *testing.T) {
	assert.Len(t, rowValues(testRow()), len(headerRow()))
	assert.Equal(t, byte('A'+len(columns)-1), lastColumn[0])
}
