package expense

import (
	"errors"
	"time"

	"github.com/m3rciful/expensebot/core/telegram/state"
)

// Flow states in traversal order. StateAwaitingDate is entered only when
// the flow is configured to ask for the date.
const (
	StateAwaitingDate     state.State = "awaiting_date"
	StateAwaitingAmount   state.State = "awaiting_amount"
	StateAwaitingMerchant state.State = "awaiting_merchant"
	StateAwaitingCategory state.State = "awaiting_category"
	StateAwaitingPayer    state.State = "awaiting_payer"
	StateAwaitingDetails  state.State = "awaiting_details"
	StateComplete         state.State = "complete"
)

// Outcome classifies the result of a transition.
type Outcome int

const (
	// Reject keeps the state and draft and asks again.
	Reject Outcome = iota
	// Advance moves to Next with the updated draft.
	Advance
	// Finalize ends the flow with Record.
	Finalize
)

func (o Outcome) String() string {
	switch o {
	case Reject:
		return "reject"
	case Advance:
		return "advance"
	case Finalize:
		return "finalize"
	}
	return "unknown"
}

// Step is the result of feeding one raw input to the engine.
type Step struct {
	Outcome Outcome
	Next    state.State
	Draft   Draft
	Record  Record
	// Err is set for Reject.
	Err *ValidationError
}

// Engine applies raw inputs to drafts. It is stateless apart from options
// and safe for concurrent use.
type Engine struct {
	askDate bool
	loc     *time.Location
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	// AskDate inserts the date step before the amount.
	AskDate bool
	// Location is the zone of "today"; nil means time.Local.
	Location *time.Location
}

// NewEngine builds an Engine.
func NewEngine(opts EngineOptions) *Engine {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Engine{askDate: opts.AskDate, loc: loc}
}

// Start returns the first state and a draft seeded with the date of now.
func (e *Engine) Start(now time.Time) (state.State, Draft) {
	first := StateAwaitingAmount
	if e.askDate {
		first = StateAwaitingDate
	}
	return first, NewDraft(now, e.loc)
}

// Transition validates raw for st and returns the next step. The given draft
// is never modified.
func (e *Engine) Transition(st state.State, d Draft, raw string) Step {
	next := d
	switch st {
	case StateAwaitingDate:
		t, err := ParseDate(raw, e.loc)
		if err != nil {
			return reject(st, d, err)
		}
		next.TransactionDate = t
		next.TransactionMonth = int(t.Month())
		return advance(StateAwaitingAmount, next)

	case StateAwaitingAmount:
		amount, err := ParseAmount(raw)
		if err != nil {
			return reject(st, d, err)
		}
		next.Amount = amount
		return advance(StateAwaitingMerchant, next)

	case StateAwaitingMerchant:
		next.Merchant = raw
		return advance(StateAwaitingCategory, next)

	case StateAwaitingCategory:
		c, err := ResolveCategory(raw)
		if err != nil {
			return reject(st, d, err)
		}
		next.Category = c
		return advance(StateAwaitingPayer, next)

	case StateAwaitingPayer:
		p, err := ParsePayer(raw)
		if err != nil {
			return reject(st, d, err)
		}
		next.Payer = p
		return advance(StateAwaitingDetails, next)

	case StateAwaitingDetails:
		next.Details = ParseDetails(raw)
		return Step{Outcome: Finalize, Next: StateComplete, Draft: next, Record: next.record()}
	}

	return reject(st, d, &ValidationError{Field: "state", Input: string(st), Hint: "Use /add to start recording an expense."})
}

func reject(st state.State, d Draft, err error) Step {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		verr = &ValidationError{Field: "input", Hint: err.Error()}
	}
	return Step{Outcome: Reject, Next: st, Draft: d, Err: verr}
}

func advance(st state.State, d Draft) Step {
	return Step{Outcome: Advance, Next: st, Draft: d}
}
