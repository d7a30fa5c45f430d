package expense

import (
	"fmt"
	"strings"

	"github.com/m3rciful/expensebot/core/telegram/state"
)

// PromptText returns the message that asks for the field collected in st.
func PromptText(st state.State) string {
	switch st {
	case StateAwaitingDate:
		return "Enter the transaction date (YYYY-MM-DD):"
	case StateAwaitingAmount:
		return "Enter the amount (e.g., 12.50):"
	case StateAwaitingMerchant:
		return "Enter the merchant name:"
	case StateAwaitingCategory:
		var b strings.Builder
		b.WriteString("Select category:")
		for i, c := range Categories {
			fmt.Fprintf(&b, "\n%d. %s", i+1, c)
		}
		return b.String()
	case StateAwaitingPayer:
		return "Who paid? (" + payerSlashList() + "):"
	case StateAwaitingDetails:
		return fmt.Sprintf("Enter details (or type %q for none):", SkipKeyword)
	}
	return ""
}

// RetryText prefixes the prompt of st with a validation hint.
func RetryText(st state.State, hint string) string {
	prompt := PromptText(st)
	if hint == "" {
		return prompt
	}
	return hint + "\n\n" + prompt
}

// PromptChoices returns reply keyboard rows for states with a closed answer
// set, or nil.
func PromptChoices(st state.State) [][]string {
	switch st {
	case StateAwaitingCategory:
		const perRow = 3
		var rows [][]string
		for i := 0; i < len(Categories); i += perRow {
			end := min(i+perRow, len(Categories))
			row := make([]string, 0, perRow)
			for _, c := range Categories[i:end] {
				row = append(row, string(c))
			}
			rows = append(rows, row)
		}
		return rows
	case StateAwaitingPayer:
		row := make([]string, len(Payers))
		for i, p := range Payers {
			row[i] = string(p)
		}
		return [][]string{row}
	case StateAwaitingDetails:
		return [][]string{{SkipKeyword}}
	}
	return nil
}

// Summary renders the confirmation sent after a record is stored.
func Summary(r Record) string {
	return "✅ Expense recorded!\n" +
		"Date: " + r.Date() + "\n" +
		"Amount: $" + r.Amount.StringFixed(2) + "\n" +
		"Merchant: " + r.Merchant + "\n" +
		"Category: " + string(r.Category) + "\n" +
		"Paid by: " + string(r.Payer) + "\n" +
		"Details: " + r.Details.String()
}

func payerSlashList() string {
	names := make([]string, len(Payers))
	for i, p := range Payers {
		names[i] = string(p)
	}
	return strings.Join(names, "/")
}
