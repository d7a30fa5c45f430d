package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/internal/expense"
)

// Supabase inserts records through the Supabase REST API.
type Supabase struct {
	client *supabase.Client
	table  string
	newID  func() uuid.UUID
}

// NewSupabase builds a Supabase store writing to table.
func NewSupabase(url, key, table string) (*Supabase, error) {
	if err := validTable(table); err != nil {
		return nil, err
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}
	return &Supabase{client: client, table: table, newID: uuid.New}, nil
}

// Insert writes r as a new row. The REST client has no context support, so
// ctx is only checked before the request.
func (s *Supabase) Insert(ctx context.Context, r expense.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	rec := newRow(s.newID(), r)
	if _, _, err := s.client.From(s.table).Insert(rec, false, "", "minimal", "").Execute(); err != nil {
		logger.Store.Error("insert failed",
			slog.String("event", "store.insert"),
			slog.String("status", "fail"),
			slog.String("backend", "supabase"),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("insert expense: %w", err)
	}
	logger.Store.Info("expense stored",
		slog.String("event", "store.insert"),
		slog.String("status", "ok"),
		slog.String("backend", "supabase"),
		slog.String("id", rec.ID.String()),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Close is a no-op; the REST client holds no pooled resources worth closing.
func (s *Supabase) Close() error { return nil }
