package bus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// ConnState reports transport connection transitions so callers can observe
// disconnects without reaching into the client.
type ConnState int

const (
	StateConnected ConnState = iota
	StateDisconnected
	StateReconnected
	StateClosed
)

// Options bounds the reconnect policy. Zero values fall back to the nats.go
// defaults.
type Options struct {
	MaxReconnects int
	ReconnectWait time.Duration
	OnStateChange func(state ConnState, err error)
}

// Bus wraps a NATS JetStream connection for publishing and consuming events.
type Bus struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New creates a Bus connected to the provided NATS endpoint with a bounded
// reconnect policy.
func New(url string, opts Options) (*Bus, error) {
	notify := opts.OnStateChange
	if notify == nil {
		notify = func(ConnState, error) {}
	}

	natsOpts := []nats.Option{
		nats.MaxReconnects(opts.MaxReconnects),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			notify(StateDisconnected, err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			notify(StateReconnected, nil)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			notify(StateClosed, nc.LastError())
		}),
	}

	nc, err := nats.Connect(url, natsOpts...)
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	notify(StateConnected, nil)

	return &Bus{conn: nc, js: js}, nil
}

// Connected reports whether the underlying NATS connection is currently up.
func (b *Bus) Connected() bool {
	return b != nil && b.conn.IsConnected()
}

// Close shuts down the underlying NATS connection.
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
	}
}

// Publish encodes v as JSON and publishes it to the given subject.
func (b *Bus) Publish(ctx context.Context, subj string, v any) error {
	if b == nil {
		return errors.New("nil bus")
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = b.js.Publish(subj, data, nats.Context(ctx))
	return err
}

type subscription struct {
	sub    *nats.Subscription
	mu     sync.Mutex
	closed bool
}

func (s *subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.sub.Drain()
}

// Subscribe creates a durable consumer on the given subject and invokes fn
// for each message. Handler failure naks the message for redelivery.
func (b *Bus) Subscribe(ctx context.Context, subj, durable string, fn func(ctx context.Context, data []byte) error) (io.Closer, error) {
	if b == nil {
		return nil, errors.New("nil bus")
	}
	if fn == nil {
		return nil, errors.New("nil handler")
	}

	handler := func(msg *nats.Msg) {
		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		if err := fn(handlerCtx, msg.Data); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}

	sub, err := b.js.Subscribe(subj, handler, nats.Durable(durable), nats.ManualAck(), nats.AckExplicit())
	if err != nil {
		return nil, err
	}

	s := &subscription{sub: sub}

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	return s, nil
}
