package expense

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)

	for _, raw := range []string{"2023-02-29", "2024-13-01", "2024-1-05", " 2024-01-05", "05/01/2024", ""} {
		_, err := ParseDate(raw, time.UTC)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "input %q", raw)
		assert.Equal(t, "date", verr.Field)
		assert.Equal(t, "Please enter date in YYYY-MM-DD format.", verr.Hint)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		hint string
	}{
		{raw: "12.50", want: "12.5"},
		{raw: " 7 ", want: "7"},
		{raw: "0.01", want: "0.01"},
		{raw: "abc", hint: "Please enter a valid number."},
		{raw: "", hint: "Please enter a valid number."},
		{raw: "12,50", hint: "Please enter a valid number."},
		{raw: "0", hint: "Please enter an amount greater than zero."},
		{raw: "-3", hint: "Please enter an amount greater than zero."},
		{raw: "1.500", want: "1.5"},
		{raw: "9999999999.99", want: "9999999999.99"},
		{raw: "0.001", hint: "Please enter an amount with at most two decimal places."},
		{raw: "12.345", hint: "Please enter an amount with at most two decimal places."},
		{raw: "1e20", hint: "Please enter an amount below 10000000000."},
		{raw: "123456789012.5", hint: "Please enter an amount below 10000000000."},
		{raw: "10000000000", hint: "Please enter an amount below 10000000000."},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.hint != "" {
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Equal(t, tt.hint, verr.Hint)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestResolveCategory(t *testing.T) {
	byIndex, err := ResolveCategory("3")
	require.NoError(t, err)
	byName, err := ResolveCategory("Transport")
	require.NoError(t, err)
	assert.Equal(t, CategoryTransport, byIndex)
	assert.Equal(t, byIndex, byName)

	last, err := ResolveCategory("12")
	require.NoError(t, err)
	assert.Equal(t, CategoryTravel, last)

	for _, raw := range []string{"0", "13", "-1", "transport", "Pets", ""} {
		_, err := ResolveCategory(raw)
		assert.Error(t, err, "input %q", raw)
	}
}

func TestParsePayer(t *testing.T) {
	for _, p := range Payers {
		got, err := ParsePayer(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	_, err := ParsePayer("Alex")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter Sam, Nat, or Shared.", verr.Hint)

	_, err = ParsePayer("sam")
	assert.Error(t, err)
}

func TestParseDetails(t *testing.T) {
	_, ok := ParseDetails(SkipKeyword).Get()
	assert.False(t, ok)

	text, ok := ParseDetails("birthday gift").Get()
	assert.True(t, ok)
	assert.Equal(t, "birthday gift", text)

	text, ok = ParseDetails("Skip").Get()
	assert.True(t, ok)
	assert.Equal(t, "Skip", text)
}

func TestDetailsJSON(t *testing.T) {
	data, err := NoDetails().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var d Details
	require.NoError(t, d.UnmarshalJSON([]byte(`"note"`)))
	assert.Equal(t, SomeDetails("note"), d)
	require.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.Equal(t, "none", d.String())
}
