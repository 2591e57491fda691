package neurovibe

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

// Status is the transport connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// DefaultRetryInterval is the fixed delay between reconnect attempts.
const DefaultRetryInterval = 3 * time.Second

// ErrNotConnected is returned by Send while the transport has no live
// socket. Outbound signals are dropped, never buffered, so a reconnected
// transport only ever carries fresh signals.
var ErrNotConnected = errors.New("neurovibe: transport not connected")

// ErrTransportClosed is returned after Close.
var ErrTransportClosed = errors.New("neurovibe: transport closed")

// Conn is the subset of a websocket connection the transport needs.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// DialFunc opens a signal-stream connection.
type DialFunc func(ctx context.Context, url string) (Conn, error)

func defaultDial(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

// Transport maintains a single signal-stream connection for a room and
// reconnects on failure at a fixed interval. At most one retry timer is
// outstanding at any time; a successful reconnect cancels it and replays
// the identify handshake so the server can rebuild the roster.
type Transport struct {
	url           string
	identity      models.Participant
	dial          DialFunc
	retryInterval time.Duration
	logger        *slog.Logger

	mu         sync.Mutex
	status     Status
	conn       Conn
	retryTimer *time.Timer
	closed     bool
	ctx        context.Context

	messages  chan events.Message
	closeOnce sync.Once

	onStatus func(Status)
}

// TransportOption configures a Transport.
type TransportOption func(*Transport)

// WithDialer replaces the websocket dialer.
func WithDialer(dial DialFunc) TransportOption {
	return func(t *Transport) { t.dial = dial }
}

// WithRetryInterval overrides the reconnect delay.
func WithRetryInterval(d time.Duration) TransportOption {
	return func(t *Transport) { t.retryInterval = d }
}

// WithStatusHandler registers a callback invoked on every status change.
func WithStatusHandler(fn func(Status)) TransportOption {
	return func(t *Transport) { t.onStatus = fn }
}

// WithLogger overrides the transport logger.
func WithLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) { t.logger = logger }
}

// NewTransport creates a disconnected transport for the given signal-stream
// URL and local identity.
func NewTransport(url string, identity models.Participant, opts ...TransportOption) *Transport {
	t := &Transport{
		url:           url,
		identity:      identity,
		dial:          defaultDial,
		retryInterval: DefaultRetryInterval,
		logger:        slog.Default(),
		status:        StatusDisconnected,
		messages:      make(chan events.Message, 64),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Connect starts the connection supervisor. Dial failures schedule a retry
// instead of returning an error; the caller observes progress through the
// status handler.
func (t *Transport) Connect(ctx context.Context) {
	t.mu.Lock()
	if t.closed || t.status != StatusDisconnected {
		t.mu.Unlock()
		return
	}
	t.ctx = ctx
	t.setStatusLocked(StatusConnecting)
	t.mu.Unlock()

	t.attempt()
}

func (t *Transport) attempt() {
	t.mu.Lock()
	if t.closed || t.status == StatusConnected {
		t.mu.Unlock()
		return
	}
	ctx := t.ctx
	t.mu.Unlock()

	conn, err := t.dial(ctx, t.url)
	if err != nil {
		t.logger.Warn("signal stream dial failed", slog.Any(constant.Error, err))

		t.mu.Lock()
		t.scheduleRetryLocked()
		t.mu.Unlock()

		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = conn.Close()
		return
	}
	if t.retryTimer != nil {
		t.retryTimer.Stop()
		t.retryTimer = nil
	}
	t.conn = conn
	t.setStatusLocked(StatusConnected)
	t.mu.Unlock()

	t.sendIdentify()

	go t.readLoop(conn)
}

// scheduleRetryLocked arms the retry timer if none is outstanding.
// Callers must hold t.mu.
func (t *Transport) scheduleRetryLocked() {
	if t.closed || t.retryTimer != nil {
		return
	}

	t.setStatusLocked(StatusConnecting)

	t.retryTimer = time.AfterFunc(t.retryInterval, func() {
		t.mu.Lock()
		t.retryTimer = nil
		if t.closed || t.status == StatusConnected {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		t.attempt()
	})
}

func (t *Transport) sendIdentify() {
	msg := events.NewMessage(events.TypeIdentify, events.IdentifyEvent{User: t.identity})

	if err := t.Send(msg); err != nil {
		t.logger.Warn("identify send failed", slog.Any(constant.Error, err))
	}
}

func (t *Transport) readLoop(conn Conn) {
	for {
		var msg events.Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.handleDisconnect(conn, err)
			return
		}

		select {
		case t.messages <- msg:
		default:
			t.logger.Warn("inbound mailbox full, dropping message",
				slog.String("type", msg.Type))
		}
	}
}

func (t *Transport) handleDisconnect(conn Conn, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A read error from a superseded connection is stale.
	if t.conn != conn {
		return
	}

	t.conn = nil
	_ = conn.Close()

	if t.closed {
		return
	}

	t.logger.Warn("signal stream lost", slog.Any(constant.Error, err))
	t.setStatusLocked(StatusDisconnected)
	t.scheduleRetryLocked()
}

// Send writes a message to the live socket. Messages sent while disconnected
// are dropped.
func (t *Transport) Send(msg events.Message) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}

	return conn.WriteJSON(msg)
}

// Messages is the inbound mailbox. It is closed when the transport closes.
func (t *Transport) Messages() <-chan events.Message {
	return t.messages
}

// Status reports the current connection state.
func (t *Transport) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.status
}

// Close tears down the transport. Safe to call multiple times.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	if t.retryTimer != nil {
		t.retryTimer.Stop()
		t.retryTimer = nil
	}

	conn := t.conn
	t.conn = nil
	t.setStatusLocked(StatusDisconnected)
	t.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	t.closeOnce.Do(func() { close(t.messages) })

	return nil
}

// setStatusLocked updates the status and fires the handler.
// Callers must hold t.mu.
func (t *Transport) setStatusLocked(status Status) {
	if t.status == status {
		return
	}
	t.status = status

	if t.onStatus != nil {
		go t.onStatus(status)
	}
}
