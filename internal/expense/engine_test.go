package expense

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/expensebot/core/telegram/state"
)

var testNow = time.Date(2024, time.May, 17, 23, 30, 0, 0, time.UTC)

func run(t *testing.T, e *Engine, inputs ...string) (state.State, Draft, []Step) {
	t.Helper()
	st, d := e.Start(testNow)
	var steps []Step
	for _, in := range inputs {
		step := e.Transition(st, d, in)
		steps = append(steps, step)
		st, d = step.Next, step.Draft
	}
	return st, d, steps
}

func TestStartSeedsToday(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	st, d := NewEngine(EngineOptions{Location: loc}).Start(testNow)
	assert.Equal(t, StateAwaitingAmount, st)
	// 23:30 UTC is already the next day at UTC+3.
	assert.Equal(t, "2024-05-18", d.TransactionDate.Format(DateLayout))
	assert.Equal(t, 5, d.TransactionMonth)

	st, _ = NewEngine(EngineOptions{AskDate: true}).Start(testNow)
	assert.Equal(t, StateAwaitingDate, st)
}

func TestRoundTrip(t *testing.T) {
	e := NewEngine(EngineOptions{Location: time.UTC})
	st, _, steps := run(t, e, "12.50", "CornerStore", "2", "Sam", "skip")

	require.Len(t, steps, 5)
	for _, s := range steps[:4] {
		assert.Equal(t, Advance, s.Outcome)
	}
	last := steps[4]
	assert.Equal(t, Finalize, last.Outcome)
	assert.Equal(t, StateComplete, st)

	r := last.Record
	assert.Equal(t, "2024-05-17", r.Date())
	assert.Equal(t, 5, r.TransactionMonth)
	assert.True(t, r.Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "CornerStore", r.Merchant)
	assert.Equal(t, CategoryShopping, r.Category)
	assert.Equal(t, PayerSam, r.Payer)
	_, ok := r.Details.Get()
	assert.False(t, ok)
}

func TestFinalizeAfterExactlyFiveAcceptances(t *testing.T) {
	e := NewEngine(EngineOptions{})
	inputs := []string{"abc", "5", "Shop", "99", "Food", "Alex", "Nat", "lunch"}
	_, _, steps := run(t, e, inputs...)

	accepted := 0
	for i, s := range steps {
		if s.Outcome != Reject {
			accepted++
		}
		if s.Outcome == Finalize {
			assert.Equal(t, len(steps)-1, i)
		}
	}
	assert.Equal(t, 5, accepted)
	assert.Equal(t, Finalize, steps[len(steps)-1].Outcome)
	assert.Equal(t, SomeDetails("lunch"), steps[len(steps)-1].Record.Details)
}

func TestRejectLeavesDraftUnchanged(t *testing.T) {
	e := NewEngine(EngineOptions{AskDate: true, Location: time.UTC})
	invalid := map[state.State]string{
		StateAwaitingDate:     "2024/05/01",
		StateAwaitingAmount:   "abc",
		StateAwaitingCategory: "42",
		StateAwaitingPayer:    "Alex",
	}
	st, d := e.Start(testNow)
	valid := map[state.State]string{
		StateAwaitingDate:     "2024-04-30",
		StateAwaitingAmount:   "3.20",
		StateAwaitingMerchant: "Bakery",
		StateAwaitingCategory: "Food",
		StateAwaitingPayer:    "Shared",
	}
	for st != StateAwaitingDetails {
		if raw, ok := invalid[st]; ok {
			before, err := json.Marshal(d)
			require.NoError(t, err)

			step := e.Transition(st, d, raw)
			assert.Equal(t, Reject, step.Outcome, "state %s", st)
			assert.Equal(t, st, step.Next)
			require.NotNil(t, step.Err)

			after, err := json.Marshal(step.Draft)
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after))
			assert.Equal(t, step.Err.Hint+"\n\n"+PromptText(st), RetryText(st, step.Err.Hint))
		}
		step := e.Transition(st, d, valid[st])
		require.Equal(t, Advance, step.Outcome, "state %s", st)
		st, d = step.Next, step.Draft
	}
	assert.Equal(t, "2024-04-30", d.TransactionDate.Format(DateLayout))
	assert.Equal(t, 4, d.TransactionMonth)
}

func TestAmountAndPayerRejections(t *testing.T) {
	e := NewEngine(EngineOptions{})
	st, _, steps := run(t, e, "abc")
	assert.Equal(t, StateAwaitingAmount, st)
	assert.Equal(t, Reject, steps[0].Outcome)

	st, _, steps = run(t, e, "10", "Shop", "1", "Alex")
	assert.Equal(t, StateAwaitingPayer, st)
	assert.Equal(t, Reject, steps[3].Outcome)
	assert.Equal(t, "payer", steps[3].Err.Field)
}

func TestCategoryIndexAndNameEquivalent(t *testing.T) {
	e := NewEngine(EngineOptions{})
	_, byIndex, _ := run(t, e, "10", "Shop", "3")
	_, byName, _ := run(t, e, "10", "Shop", "Transport")
	assert.Equal(t, byIndex, byName)
}

func TestTransitionDoesNotMutateInput(t *testing.T) {
	e := NewEngine(EngineOptions{})
	st, d := e.Start(testNow)
	orig := d
	step := e.Transition(st, d, "9.99")
	assert.Equal(t, Advance, step.Outcome)
	assert.Equal(t, orig, d)
	assert.True(t, d.Amount.IsZero())
}

func TestTransitionUnknownState(t *testing.T) {
	e := NewEngine(EngineOptions{})
	_, d := e.Start(testNow)
	for _, st := range []state.State{StateComplete, "idle", "bogus"} {
		step := e.Transition(st, d, "anything")
		assert.Equal(t, Reject, step.Outcome)
		assert.Equal(t, st, step.Next)
		assert.Equal(t, "Use /add to start recording an expense.", step.Err.Hint)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "reject", Reject.String())
	assert.Equal(t, "advance", Advance.String())
	assert.Equal(t, "finalize", Finalize.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
