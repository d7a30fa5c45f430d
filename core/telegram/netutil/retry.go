// Package netutil decides which Telegram API failures are worth another
// attempt and describes failures for logs.
package netutil

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Policy retries a call with linear backoff while its error is Transient.
type Policy struct {
	Retries int
	Backoff time.Duration
	// OnRetry observes every failed attempt that is followed by another one.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Do runs call until it succeeds, fails permanently, exhausts the retries or
// ctx ends. It returns the number of attempts made and the last error.
func (p Policy) Do(ctx context.Context, call func() error) (int, error) {
	attempts := max(p.Retries, 0) + 1
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}
		if err = call(); err == nil {
			return attempt, nil
		}
		if attempt == attempts || !Transient(err) {
			return attempt, err
		}

		delay := p.delay(attempt, err)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return attempts, err
}

// delay grows linearly with the attempt; Telegram's flood control wait wins
// when it is longer.
func (p Policy) delay(attempt int, err error) time.Duration {
	d := p.Backoff * time.Duration(attempt)
	var flood tele.FloodError
	if errors.As(err, &flood) {
		if wait := time.Duration(flood.RetryAfter) * time.Second; wait > d {
			d = wait
		}
	}
	return d
}

// Transient reports whether err is a dial failure, a timeout or a flood
// control rejection, all of which may succeed on a later attempt.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	var flood tele.FloodError
	if errors.As(err, &flood) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Timeout()) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
		return Transient(urlErr.Err)
	}
	return false
}
