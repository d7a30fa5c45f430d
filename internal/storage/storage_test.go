package storage

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/expensebot/internal/expense"
)

func sampleRecord(details expense.Details) expense.Record {
	loc := time.FixedZone("EST", -5*3600)
	return expense.Record{
		TransactionDate:  time.Date(2024, time.March, 9, 0, 0, 0, 0, loc),
		TransactionMonth: 3,
		Amount:           decimal.RequireFromString("12.50"),
		Merchant:         "CornerStore",
		Category:         expense.CategoryShopping,
		Payer:            expense.PayerSam,
		Details:          details,
	}
}

func TestRowJSONShape(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	data, err := json.Marshal(newRow(id, sampleRecord(expense.NoDetails())))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, map[string]any{
		"id":                 id.String(),
		"transaction_date":   "2024-03-09",
		"transaction_mth":    float64(3),
		"transaction_amount": "12.5",
		"merchant":           "CornerStore",
		"category":           "Shopping",
		"name":               "Sam",
		"details":            nil,
	}, got)
}

func TestRowDetailsValue(t *testing.T) {
	r := newRow(uuid.New(), sampleRecord(expense.SomeDetails("gift")))
	v, err := r.Details.Value()
	require.NoError(t, err)
	assert.Equal(t, "gift", v)

	r = newRow(uuid.New(), sampleRecord(expense.NoDetails()))
	v, err = r.Details.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestValidTable(t *testing.T) {
	assert.NoError(t, validTable("expenses_raw"))
	assert.Error(t, validTable(""))
	assert.Error(t, validTable("expenses; DROP TABLE x"))
	assert.Error(t, validTable("1expenses"))
}

func TestNewPostgresRejectsNilDB(t *testing.T) {
	_, err := NewPostgres(nil, "expenses_raw")
	assert.Error(t, err)
}
