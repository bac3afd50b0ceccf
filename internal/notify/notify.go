// Package notify delivers out-of-band messages such as signup OTPs.
//
// Delivery is fire-and-forget from the caller's point of view: wrap a
// Notifier with NewAsync and failures are logged, never returned to the
// request that triggered them.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Message kinds.
const (
	KindSignupOTP = "signup_otp"
)

// Message is one outgoing notification.
type Message struct {
	Kind    string
	To      string
	Subject string
	Body    string
	// Data carries template values, e.g. {"otp": "123456"}.
	Data map[string]string
}

// Notifier sends messages.
type Notifier interface {
	Send(ctx context.Context, m Message) error
}

// LogNotifier writes messages to a zerolog logger instead of delivering
// them. It is the development backend.
type LogNotifier struct {
	Logger *zerolog.Logger
}

// Send implements Notifier.
func (n LogNotifier) Send(ctx context.Context, m Message) error {
	l := n.Logger
	if l == nil {
		l = zerolog.Ctx(ctx)
		if l.GetLevel() == zerolog.Disabled {
			l = &log.Logger
		}
	}
	ev := l.Info().Str("kind", m.Kind).Str("to", m.To).Str("subject", m.Subject)
	for k, v := range m.Data {
		ev = ev.Str(k, v)
	}
	ev.Msg("notification")
	return nil
}

// Async sends through an inner Notifier on a background goroutine.
type Async struct {
	inner   Notifier
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsync wraps inner. Each send gets its own timeout (10s when <= 0) and
// outlives the request context it was started from.
func NewAsync(inner Notifier, timeout time.Duration) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{inner: inner, timeout: timeout}
}

// Send starts delivery and returns nil immediately. Errors are logged with
// the logger carried by ctx.
func (a *Async) Send(ctx context.Context, m Message) error {
	l := zerolog.Ctx(ctx)
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()
		if err := a.inner.Send(bg, m); err != nil {
			l.Error().Err(err).Str("kind", m.Kind).Msg("notification failed")
		}
	}()
	return nil
}

// Wait blocks until every started send finished.
func (a *Async) Wait() { a.wg.Wait() }
