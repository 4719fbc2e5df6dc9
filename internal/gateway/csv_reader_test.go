package gateway

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadContributionRecords(t *testing.T) {
	in := strings.Join([]string{
		"team_user_id,type_id,description,amount,currency,due_date,paid_at",
		"tu-1,type-1,Dues June,5000,EUR,2025-06-01,",
		"",
		"tu-2,type-1,\"Dues, June\",12.50,eur,2025-06-01,2025-06-02T10:00:00Z",
		"tu-3,type-1,short row",
	}, "\n")

	recs, err := ReadContributionRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, 2, recs[0].Line)
	assert.Equal(t, "tu-1", recs[0].TeamUserID)
	assert.Equal(t, "5000", recs[0].Amount)
	assert.Empty(t, recs[0].PaidAt)
	assert.NoError(t, recs[0].Err)

	assert.Equal(t, 4, recs[1].Line)
	assert.Equal(t, "Dues, June", recs[1].Description)
	assert.Equal(t, "2025-06-02T10:00:00Z", recs[1].PaidAt)

	assert.Equal(t, 5, recs[2].Line)
	assert.Error(t, recs[2].Err)
}

func TestReadContributionRecordsColumnOrder(t *testing.T) {
	in := "currency,amount,due_date,description,type_id,team_user_id\nUSD,150,2025-01-01,Kit,t,u\n"
	recs, err := ReadContributionRecords(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "u", recs[0].TeamUserID)
	assert.Equal(t, "USD", recs[0].Currency)
	assert.Equal(t, "Kit", recs[0].Description)
}

func TestReadContributionRecordsBadHeader(t *testing.T) {
	cases := map[string]string{
		"empty":   "",
		"missing": "team_user_id,type_id,description\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadContributionRecords(strings.NewReader(in))
			assert.True(t, errors.Is(err, ErrInvalidHeader), "got %v", err)
		})
	}
}

func TestContributionWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewContributionWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Write(ContributionRecord{
		TeamUserID: "u", TypeID: "t", Description: "Dues, July", Amount: "5000",
		Currency: "EUR", DueDate: "2025-07-01",
	}))
	require.NoError(t, w.Flush())

	recs, err := ReadContributionRecords(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Dues, July", recs[0].Description)
	assert.Equal(t, 2, recs[0].Line)
}
