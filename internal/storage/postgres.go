package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/internal/expense"
)

// Postgres inserts records with sqlx.
type Postgres struct {
	db    *sqlx.DB
	query string
	newID func() uuid.UUID
}

// NewPostgres builds a Postgres store writing to table.
func NewPostgres(db *sqlx.DB, table string) (*Postgres, error) {
	if db == nil {
		return nil, fmt.Errorf("storage: nil db")
	}
	if err := validTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`INSERT INTO %s
		(id, transaction_date, transaction_mth, transaction_amount, merchant, category, name, details)
		VALUES (:id, :transaction_date, :transaction_mth, :transaction_amount, :merchant, :category, :name, :details)`, table)
	return &Postgres{db: db, query: query, newID: uuid.New}, nil
}

// Insert writes r as a new row.
func (p *Postgres) Insert(ctx context.Context, r expense.Record) error {
	start := time.Now()
	rec := newRow(p.newID(), r)
	if _, err := p.db.NamedExecContext(ctx, p.query, rec); err != nil {
		logger.Store.Error("insert failed",
			slog.String("event", "store.insert"),
			slog.String("status", "fail"),
			slog.String("backend", "postgres"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("insert expense: %w", err)
	}
	logger.Store.Info("expense stored",
		slog.String("event", "store.insert"),
		slog.String("status", "ok"),
		slog.String("backend", "postgres"),
		slog.String("id", rec.ID.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
