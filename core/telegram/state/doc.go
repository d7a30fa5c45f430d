// Package state provides conversation sessions for Telegram bots: a typed
// session store keyed by chat id with memory and Redis backends, and a keyed
// mutex that serializes work per conversation.
// It is domain-agnostic so it can be reused across bots.
package state
