package helpers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/expensebot/core/telegram/sender"
)

type recordingAPI struct {
	tele.API
	mu    sync.Mutex
	texts []string
	to    []string
}

func (r *recordingAPI) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.to = append(r.to, to.Recipient())
	r.texts = append(r.texts, what.(string))
	return &tele.Message{}, nil
}

func TestSendToChatRequiresBot(t *testing.T) {
	assert.Error(t, SendToChat(context.Background(), nil, 1, "hi", nil))
}

func TestSendToChatInline(t *testing.T) {
	api := &recordingAPI{}
	require.NoError(t, SendToChat(context.Background(), api, 42, "hi", nil))
	assert.Equal(t, []string{"42"}, api.to)
}

func TestSendToChatThroughDispatcherKeepsOrder(t *testing.T) {
	d := sender.NewDispatcher(sender.Options{Workers: 2})
	SetDispatcher(d)
	defer SetDispatcher(nil)

	api := &recordingAPI{}
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, SendToChat(context.Background(), api, 7, text, &tele.SendOptions{}))
	}
	d.Close()
	assert.Equal(t, []string{"one", "two", "three"}, api.texts)
}

func TestTeleContextRoundTrip(t *testing.T) {
	_, ok := TeleContextFrom(context.Background())
	assert.False(t, ok)
	_, ok = TeleContextFrom(WithTeleContext(context.Background(), nil))
	assert.False(t, ok)
}
