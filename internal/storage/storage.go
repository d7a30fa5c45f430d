// Package storage writes finished expense records to the configured backend.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/expensebot/internal/expense"
)

// Store persists finished records.
type Store interface {
	Insert(ctx context.Context, r expense.Record) error
	Close() error
}

// row is the wire shape of one expenses_raw row, shared by both backends.
type row struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	TransactionDate  string          `db:"transaction_date" json:"transaction_date"`
	TransactionMonth int             `db:"transaction_mth" json:"transaction_mth"`
	Amount           decimal.Decimal `db:"transaction_amount" json:"transaction_amount"`
	Merchant         string          `db:"merchant" json:"merchant"`
	Category         string          `db:"category" json:"category"`
	Name             string          `db:"name" json:"name"`
	Details          expense.Details `db:"details" json:"details"`
}

func newRow(id uuid.UUID, r expense.Record) row {
	return row{
		ID:               id,
		TransactionDate:  r.Date(),
		TransactionMonth: r.TransactionMonth,
		Amount:           r.Amount,
		Merchant:         r.Merchant,
		Category:         string(r.Category),
		Name:             string(r.Payer),
		Details:          r.Details,
	}
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

func validTable(table string) error {
	if !identRe.MatchString(table) {
		return fmt.Errorf("storage: invalid table name %q", table)
	}
	return nil
}
