package expense

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SkipKeyword is the literal a user types to leave details empty.
const SkipKeyword = "skip"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MaxAmount is the first amount the numeric(12,2) column cannot hold.
var MaxAmount = decimal.New(1, 10)

// ValidationError reports raw input rejected for a field. Hint is the text
// shown to the user before the prompt is repeated.
type ValidationError struct {
	Field string
	Input string
	Hint  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Input)
}

// ParseDate accepts a strict YYYY-MM-DD calendar date in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	fail := &ValidationError{Field: "date", Input: raw, Hint: "Please enter date in YYYY-MM-DD format."}
	if !datePattern.MatchString(raw) {
		return time.Time{}, fail
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fail
	}
	return t, nil
}

// ParseAmount parses a positive decimal amount with at most two decimal
// places, below MaxAmount. Trailing zeros past the cents are allowed.
func ParseAmount(raw string) (decimal.Decimal, error) {
	fail := func(hint string) (decimal.Decimal, error) {
		return decimal.Zero, &ValidationError{Field: "amount", Input: raw, Hint: hint}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return fail("Please enter a valid number.")
	}
	if !d.IsPositive() {
		return fail("Please enter an amount greater than zero.")
	}
	if !d.Equal(d.Truncate(2)) {
		return fail("Please enter an amount with at most two decimal places.")
	}
	if d.GreaterThanOrEqual(MaxAmount) {
		return fail("Please enter an amount below " + MaxAmount.StringFixed(0) + ".")
	}
	return d, nil
}

// ResolveCategory accepts a 1-based position in Categories or a category name.
func ResolveCategory(raw string) (Category, error) {
	if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(Categories) {
		return Categories[n-1], nil
	}
	for _, c := range Categories {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "category", Input: raw, Hint: "Please select a valid category."}
}

// ParsePayer accepts one of Payers, matched exactly.
func ParsePayer(raw string) (Payer, error) {
	for _, p := range Payers {
		if string(p) == raw {
			return p, nil
		}
	}
	return "", &ValidationError{Field: "payer", Input: raw, Hint: "Please enter " + payerList(" or ") + "."}
}

// ParseDetails maps SkipKeyword to an absent note and keeps anything else.
func ParseDetails(raw string) Details {
	if raw == SkipKeyword {
		return NoDetails()
	}
	return SomeDetails(raw)
}

func payerList(last string) string {
	names := make([]string, len(Payers))
	for i, p := range Payers {
		names[i] = string(p)
	}
	if len(names) < 2 {
		return strings.Join(names, "")
	}
	return strings.Join(names[:len(names)-1], ", ") + "," + last + names[len(names)-1]
}
