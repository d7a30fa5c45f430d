// Package flow drives the expense entry conversation for each chat: it routes
// commands and text to the engine, keeps sessions, and finalizes records.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/expensebot/core/logger"
	"github.com/m3rciful/expensebot/core/telegram/state"
	"github.com/m3rciful/expensebot/internal/expense"
)

// User-facing texts that are not field prompts.
const (
	WelcomeText         = "Welcome to Expense Tracker! Use /add to record an expense."
	StartHintText       = "Use /add to start recording an expense."
	FailureText         = "Error occurred. Please try again with /add"
	CancelledText       = "Expense entry cancelled."
	NothingToCancelText = "Nothing to cancel. Use /add to record an expense."
)

// Message is one outbound chat message.
type Message struct {
	Text string
	// Choices are reply keyboard rows shown with the message.
	Choices [][]string
	// ClearKeyboard hides a previously shown reply keyboard.
	ClearKeyboard bool
}

// Sender delivers messages to a chat. Messages for one chat must be delivered
// in the order they were sent.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg Message) error
}

// Inserter persists finished records.
type Inserter interface {
	Insert(ctx context.Context, r expense.Record) error
}

// Options configures a Dispatcher.
type Options struct {
	Engine   *expense.Engine
	Sessions state.Store[expense.Draft]
	Storage  Inserter
	Sender   Sender
	// SessionTTL drops sessions idle for longer; 0 disables expiry.
	SessionTTL time.Duration
	Now        func() time.Time
}

// Dispatcher serializes all work for a chat and runs the entry flow.
type Dispatcher struct {
	engine   *expense.Engine
	sessions state.Store[expense.Draft]
	storage  Inserter
	out      Sender
	ttl      time.Duration
	now      func() time.Time
	locks    *state.KeyedMutex
}

// Result is the outcome of finalizing a record.
type Result struct {
	Record expense.Record
	// Stored is true when the record reached storage.
	Stored bool
	Err    error
}

// New validates opts and builds a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	switch {
	case opts.Engine == nil:
		return nil, errors.New("flow: nil engine")
	case opts.Sessions == nil:
		return nil, errors.New("flow: nil session store")
	case opts.Storage == nil:
		return nil, errors.New("flow: nil storage")
	case opts.Sender == nil:
		return nil, errors.New("flow: nil sender")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		engine:   opts.Engine,
		sessions: opts.Sessions,
		storage:  opts.Storage,
		out:      opts.Sender,
		ttl:      opts.SessionTTL,
		now:      now,
		locks:    state.NewKeyedMutex(),
	}, nil
}

// Welcome answers /start.
func (d *Dispatcher) Welcome(ctx context.Context, chatID int64) error {
	return d.send(ctx, chatID, Message{Text: WelcomeText})
}

// Begin answers /add: it discards any unfinished entry and asks for the
// first field.
func (d *Dispatcher) Begin(ctx context.Context, chatID int64) error {
	unlock := d.locks.Lock(chatID)
	defer unlock()

	first, draft := d.engine.Start(d.now())
	if _, err := d.sessions.Create(ctx, chatID, first, draft); err != nil {
		return d.sessionFailure(ctx, chatID, "session.create", err)
	}
	logger.Info(ctx, "flow", "flow.begin",
		slog.String("status", "ok"),
		slog.Int64("chat_id", chatID),
		slog.String("state", string(first)),
	)
	return d.prompt(ctx, chatID, first)
}

// Cancel answers /cancel by dropping the unfinished entry.
func (d *Dispatcher) Cancel(ctx context.Context, chatID int64) error {
	unlock := d.locks.Lock(chatID)
	defer unlock()

	_, ok, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		return d.sessionFailure(ctx, chatID, "session.get", err)
	}
	if !ok {
		return d.send(ctx, chatID, Message{Text: NothingToCancelText, ClearKeyboard: true})
	}
	if err := d.sessions.Delete(ctx, chatID); err != nil {
		return d.sessionFailure(ctx, chatID, "session.delete", err)
	}
	logger.Info(ctx, "flow", "flow.cancel",
		slog.String("status", "ok"),
		slog.String("outcome", "cancelled"),
		slog.Int64("chat_id", chatID),
	)
	return d.send(ctx, chatID, Message{Text: CancelledText, ClearKeyboard: true})
}

// HandleText feeds one plain-text message into the chat's entry flow.
// Unregistered commands are ignored.
func (d *Dispatcher) HandleText(ctx context.Context, chatID int64, text string) error {
	if strings.HasPrefix(text, "/") {
		return nil
	}

	unlock := d.locks.Lock(chatID)
	defer unlock()

	sess, ok, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		return d.sessionFailure(ctx, chatID, "session.get", err)
	}
	if ok && d.expired(sess) {
		if err := d.sessions.Delete(ctx, chatID); err != nil {
			return d.sessionFailure(ctx, chatID, "session.delete", err)
		}
		logger.Info(ctx, "flow", "flow.expired",
			slog.Int64("chat_id", chatID),
			slog.String("state", string(sess.State)),
		)
		ok = false
	}
	if !ok {
		return d.send(ctx, chatID, Message{Text: StartHintText})
	}

	step := d.engine.Transition(sess.State, sess.Draft, text)
	attrs := []slog.Attr{
		slog.Int64("chat_id", chatID),
		slog.String("state", string(sess.State)),
		slog.String("outcome", step.Outcome.String()),
	}
	if step.Err != nil {
		attrs = append(attrs, slog.String("field", step.Err.Field))
	}
	logger.Debug(ctx, "flow", "flow.step", attrs...)

	switch step.Outcome {
	case expense.Reject:
		return d.send(ctx, chatID, withChoices(expense.RetryText(sess.State, step.Err.Hint), sess.State))
	case expense.Advance:
		sess.State = step.Next
		sess.Draft = step.Draft
		if err := d.sessions.Update(ctx, chatID, sess); err != nil {
			return d.sessionFailure(ctx, chatID, "session.update", err)
		}
		return d.prompt(ctx, chatID, step.Next)
	case expense.Finalize:
		res := d.finalize(ctx, chatID, step.Record)
		if !res.Stored {
			// Already reported to the chat.
			return nil
		}
		return res.Err
	}
	return fmt.Errorf("flow: unexpected outcome %v", step.Outcome)
}

// finalize stores r, reports the result to the chat and ends the session
// whether or not storage succeeded. Result.Err carries the storage error, or
// a delivery error after a successful store.
func (d *Dispatcher) finalize(ctx context.Context, chatID int64, r expense.Record) Result {
	start := d.now()
	insertErr := d.storage.Insert(ctx, r)
	d.dropSession(ctx, chatID)

	if insertErr != nil {
		logger.Error(ctx, "flow", "flow.finalize",
			slog.String("status", "fail"),
			slog.Int64("chat_id", chatID),
			slog.Duration("duration", logger.RoundMS(d.now().Sub(start))),
			slog.String("err", insertErr.Error()),
		)
		if err := d.send(ctx, chatID, Message{Text: FailureText, ClearKeyboard: true}); err != nil {
			logger.Warn(ctx, "flow", "flow.notify", slog.String("err", err.Error()))
		}
		return Result{Record: r, Err: insertErr}
	}

	logger.Info(ctx, "flow", "flow.finalize",
		slog.String("status", "ok"),
		slog.String("outcome", "finalize"),
		slog.Int64("chat_id", chatID),
		slog.String("category", string(r.Category)),
		slog.Duration("duration", logger.RoundMS(d.now().Sub(start))),
	)
	err := d.send(ctx, chatID, Message{Text: expense.Summary(r), ClearKeyboard: true})
	return Result{Record: r, Stored: true, Err: err}
}

func (d *Dispatcher) expired(sess state.Session[expense.Draft]) bool {
	return d.ttl > 0 && !sess.UpdatedAt.IsZero() && d.now().Sub(sess.UpdatedAt) > d.ttl
}

// sessionFailure handles an unusable session store the same way as a failed
// insert: log, tell the user, and try to forget the session.
func (d *Dispatcher) sessionFailure(ctx context.Context, chatID int64, op string, err error) error {
	logger.Error(ctx, "flow", op,
		slog.String("status", "fail"),
		slog.Int64("chat_id", chatID),
		slog.String("err", err.Error()),
	)
	d.dropSession(ctx, chatID)
	if sendErr := d.send(ctx, chatID, Message{Text: FailureText, ClearKeyboard: true}); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// dropSession deletes the chat's session after the flow has ended or failed.
// A failed delete is logged and otherwise ignored.
func (d *Dispatcher) dropSession(ctx context.Context, chatID int64) {
	if err := d.sessions.Delete(ctx, chatID); err != nil {
		logger.Error(ctx, "flow", "session.delete",
			slog.String("status", "fail"),
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}

func (d *Dispatcher) prompt(ctx context.Context, chatID int64, st state.State) error {
	return d.send(ctx, chatID, withChoices(expense.PromptText(st), st))
}

// withChoices attaches the keyboard of st, or clears a stale one when st
// takes free text.
func withChoices(text string, st state.State) Message {
	choices := expense.PromptChoices(st)
	return Message{Text: text, Choices: choices, ClearKeyboard: choices == nil}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, msg Message) error {
	if err := d.out.Send(ctx, chatID, msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
