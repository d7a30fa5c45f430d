package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyButtons(t *testing.T) {
	m := ReplyButtons([]string{"Sam", "Nat"}, nil, []string{"Shared"})
	require.NotNil(t, m)
	assert.True(t, m.ResizeKeyboard)
	require.Len(t, m.ReplyKeyboard, 2)
	assert.Equal(t, "Sam", m.ReplyKeyboard[0][0].Text)
	assert.Equal(t, "Nat", m.ReplyKeyboard[0][1].Text)
	assert.Equal(t, "Shared", m.ReplyKeyboard[1][0].Text)

	assert.Nil(t, ReplyButtons())
}

func TestRemoveKeyboard(t *testing.T) {
	assert.True(t, RemoveKeyboard().RemoveKeyboard)
}
