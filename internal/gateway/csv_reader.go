package gateway

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ContributionColumns is the column set of contribution CSV files, in export
// order.
var ContributionColumns = []string{
	"team_user_id", "type_id", "description", "amount", "currency", "due_date", "paid_at",
}

var ErrInvalidHeader = errors.New("invalid csv header")

// ContributionRecord is one raw data row. Line is the 1-based line number in
// the file; the header is line 1. Err is set when the row could not be split
// into the expected columns.
type ContributionRecord struct {
	Line        int
	TeamUserID  string
	TypeID      string
	Description string
	Amount      string
	Currency    string
	DueDate     string
	PaidAt      string
	Err         error
}

// ReadContributionRecords parses a contribution CSV. Columns are matched by
// header name in any order; paid_at may be omitted. Malformed rows are
// returned with Err set instead of aborting the read.
func ReadContributionRecords(r io.Reader) ([]ContributionRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []ContributionRecord
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			records = append(records, ContributionRecord{Line: parseErr.StartLine, Err: parseErr.Err})
			continue
		}
		if err != nil {
			return records, fmt.Errorf("read record: %w", err)
		}
		if isBlank(fields) {
			continue
		}
		line, _ := reader.FieldPos(0)
		records = append(records, toRecord(line, fields, index))
	}
	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		index[name] = i
	}
	var missing []string
	for _, col := range ContributionColumns {
		if _, ok := index[col]; !ok && col != "paid_at" {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrInvalidHeader, strings.Join(missing, ", "))
	}
	return index, nil
}

func toRecord(line int, fields []string, index map[string]int) ContributionRecord {
	get := func(col string) (string, bool) {
		i, ok := index[col]
		if !ok {
			return "", true
		}
		if i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	rec := ContributionRecord{Line: line}
	targets := []*string{&rec.TeamUserID, &rec.TypeID, &rec.Description, &rec.Amount, &rec.Currency, &rec.DueDate, &rec.PaidAt}
	for i, col := range ContributionColumns {
		v, ok := get(col)
		if !ok {
			rec.Err = fmt.Errorf("expected %d fields, got %d", len(index), len(fields))
			return rec
		}
		*targets[i] = v
	}
	return rec
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// ContributionWriter writes contribution CSV files readable by
// ReadContributionRecords.
type ContributionWriter struct {
	w *csv.Writer
}

func NewContributionWriter(w io.Writer) (*ContributionWriter, error) {
	cw := &ContributionWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(ContributionColumns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return cw, nil
}

func (cw *ContributionWriter) Write(rec ContributionRecord) error {
	return cw.w.Write([]string{
		rec.TeamUserID, rec.TypeID, rec.Description, rec.Amount, rec.Currency, rec.DueDate, rec.PaidAt,
	})
}

// Flush writes buffered rows and reports any write error.
func (cw *ContributionWriter) Flush() error {
	cw.w.Flush()
	return cw.w.Error()
}
