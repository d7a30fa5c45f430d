// Package expense holds the expense entry flow: the record model, field
// validators, the per-step state machine and the prompt texts.
package expense

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed expense categories.
type Category string

const (
	CategorySubscriptions Category = "Subscriptions"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transport"
	CategoryFood          Category = "Food"
	CategoryGroceries     Category = "Groceries"
	CategoryMedical       Category = "Medical"
	CategoryMisc          Category = "Misc"
	CategoryTaxes         Category = "Taxes"
	CategoryUtilities     Category = "Utilities"
	CategoryEntertainment Category = "Entertainment"
	CategoryFitness       Category = "Fitness"
	CategoryTravel        Category = "Travel"
)

// Categories is the ordered category list. The category prompt numbers it
// from 1 and ResolveCategory indexes into it, so the order must not change.
var Categories = []Category{
	CategorySubscriptions,
	CategoryShopping,
	CategoryTransport,
	CategoryFood,
	CategoryGroceries,
	CategoryMedical,
	CategoryMisc,
	CategoryTaxes,
	CategoryUtilities,
	CategoryEntertainment,
	CategoryFitness,
	CategoryTravel,
}

// Payer identifies who paid for the expense.
type Payer string

const (
	PayerSam    Payer = "Sam"
	PayerNat    Payer = "Nat"
	PayerShared Payer = "Shared"
)

// Payers lists the accepted payers in prompt order.
var Payers = []Payer{PayerSam, PayerNat, PayerShared}

// Details is the optional free-text note of a record.
type Details struct {
	text  string
	valid bool
}

// NoDetails returns an absent note.
func NoDetails() Details { return Details{} }

// SomeDetails wraps a present note.
func SomeDetails(text string) Details { return Details{text: text, valid: true} }

// Get returns the note and whether it is present.
func (d Details) Get() (string, bool) { return d.text, d.valid }

// String renders the note for humans.
func (d Details) String() string {
	if !d.valid {
		return "none"
	}
	return d.text
}

// Value stores an absent note as SQL NULL.
func (d Details) Value() (driver.Value, error) {
	if !d.valid {
		return nil, nil
	}
	return d.text, nil
}

// MarshalJSON encodes an absent note as null.
func (d Details) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.text)
}

// UnmarshalJSON decodes null as an absent note.
func (d *Details) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = NoDetails()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*d = SomeDetails(s)
	return nil
}

// Draft is the record under construction. Fields are filled in flow order;
// only fields of steps already passed carry meaning.
type Draft struct {
	TransactionDate  time.Time       `json:"transaction_date"`
	TransactionMonth int             `json:"transaction_mth"`
	Amount           decimal.Decimal `json:"transaction_amount"`
	Merchant         string          `json:"merchant"`
	Category         Category        `json:"category"`
	Payer            Payer           `json:"name"`
	Details          Details         `json:"details"`
}

// NewDraft seeds a draft with the calendar day of now in loc.
func NewDraft(now time.Time, loc *time.Location) Draft {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Draft{
		TransactionDate:  day,
		TransactionMonth: int(day.Month()),
	}
}

// Record is a finished expense, immutable once produced by the engine.
type Record struct {
	TransactionDate  time.Time
	TransactionMonth int
	Amount           decimal.Decimal
	Merchant         string
	Category         Category
	Payer            Payer
	Details          Details
}

func (d Draft) record() Record {
	return Record{
		TransactionDate:  d.TransactionDate,
		TransactionMonth: d.TransactionMonth,
		Amount:           d.Amount,
		Merchant:         d.Merchant,
		Category:         d.Category,
		Payer:            d.Payer,
		Details:          d.Details,
	}
}

// DateLayout is the wire and display format of transaction dates.
const DateLayout = "2006-01-02"

// Date returns the transaction date formatted as YYYY-MM-DD.
func (r Record) Date() string {
	return r.TransactionDate.Format(DateLayout)
}
