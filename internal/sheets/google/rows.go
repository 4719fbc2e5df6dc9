package google

import (
	"time"

	ports "teamfin/internal/sheets"
)

var columns = []string{
	"Recorded", "Event", "Contribution", "Team", "Member", "Type",
	"Description", "Amount", "Currency", "Due", "Status", "Note",
}

// lastColumn is the sheet column of the final entry in columns.
const lastColumn = "L"

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

// rowValues lays r out in column order. Amounts are written in major units
// so the sheet can sum them.
func rowValues(r ports.LedgerRow) []any {
	return []any{
		r.RecordedAt.UTC().Format(time.DateTime),
		r.Event,
		r.ContributionID.String(),
		r.Team,
		r.Member,
		r.Type,
		r.Description,
		r.Amount.Decimal().StringFixed(2),
		string(r.Amount.Currency),
		r.DueDate.String(),
		r.Status,
		r.Note,
	}
}
