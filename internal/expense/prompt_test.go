package expense

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCategoryPromptMatchesResolver(t *testing.T) {
	lines := strings.Split(PromptText(StateAwaitingCategory), "\n")
	assert.Equal(t, "Select category:", lines[0])
	assert.Len(t, lines, len(Categories)+1)
	for i, line := range lines[1:] {
		idx, name, ok := strings.Cut(line, ". ")
		assert.True(t, ok)
		byIdx, err := ResolveCategory(idx)
		assert.NoError(t, err)
		assert.Equal(t, Category(name), byIdx)
		assert.Equal(t, Categories[i], byIdx)
	}
}

func TestPromptTexts(t *testing.T) {
	assert.Equal(t, "Enter the amount (e.g., 12.50):", PromptText(StateAwaitingAmount))
	assert.Equal(t, "Who paid? (Sam/Nat/Shared):", PromptText(StateAwaitingPayer))
	assert.Equal(t, `Enter details (or type "skip" for none):`, PromptText(StateAwaitingDetails))
	assert.Empty(t, PromptText(StateComplete))
	assert.Equal(t, PromptText(StateAwaitingMerchant), RetryText(StateAwaitingMerchant, ""))
}

func TestPromptChoices(t *testing.T) {
	rows := PromptChoices(StateAwaitingCategory)
	assert.Len(t, rows, 4)
	var flat []string
	for _, r := range rows {
		flat = append(flat, r...)
	}
	assert.Len(t, flat, len(Categories))
	assert.Equal(t, "Travel", flat[len(flat)-1])

	assert.Equal(t, [][]string{{"Sam", "Nat", "Shared"}}, PromptChoices(StateAwaitingPayer))
	assert.Equal(t, [][]string{{"skip"}}, PromptChoices(StateAwaitingDetails))
	assert.Nil(t, PromptChoices(StateAwaitingAmount))
}

func TestSummary(t *testing.T) {
	r := Record{
		TransactionDate:  time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		TransactionMonth: 1,
		Amount:           decimal.RequireFromString("12.5"),
		Merchant:         "CornerStore",
		Category:         CategoryShopping,
		Payer:            PayerSam,
		Details:          NoDetails(),
	}
	want := "✅ Expense recorded!\n" +
		"Date: 2024-01-05\n" +
		"Amount: $12.50\n" +
		"Merchant: CornerStore\n" +
		"Category: Shopping\n" +
		"Paid by: Sam\n" +
		"Details: none"
	assert.Equal(t, want, Summary(r))
}
