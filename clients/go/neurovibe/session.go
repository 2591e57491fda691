package neurovibe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/morse"
)

// SessionState is the lifecycle phase of a client session.
type SessionState string

const (
	SessionIdle        SessionState = "idle"
	SessionRoomCreated SessionState = "room_created"
	SessionRoomJoining SessionState = "room_joining"
	SessionRoleActive  SessionState = "role_active"
	SessionTerminated  SessionState = "terminated"
)

var (
	// ErrInvalidTransition is returned when an operation is not legal in the
	// session's current state.
	ErrInvalidTransition = errors.New("neurovibe: invalid session transition")

	// ErrInviteExpired is returned when accepting an invitation past its
	// deadline. The rejection is still reported to the server.
	ErrInviteExpired = errors.New("neurovibe: invitation expired")

	// ErrNotSender is returned for sender-only operations on a receiver
	// session.
	ErrNotSender = errors.New("neurovibe: only the sender may do this")
)

// Session drives one participant's room lifecycle end to end: room
// create/join over the document API, role selection, the signal stream and
// tactile rendering. A terminated session behaves like an idle one: the next
// create or join starts a fresh lifecycle with a clean roster.
type Session struct {
	client   *Client
	local    models.Participant
	renderer *Renderer
	emotion  string
	logger   *slog.Logger

	transportOpts []TransportOption

	mu        sync.Mutex
	state     SessionState
	room      *models.Room
	role      string
	registry  *Registry
	transport *Transport
	cancel    context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRenderer attaches a vibration renderer for inbound signals.
func WithRenderer(renderer *Renderer) SessionOption {
	return func(s *Session) { s.renderer = renderer }
}

// WithEmotion sets the emotion label stamped on outbound morse signals.
func WithEmotion(emotion string) SessionOption {
	return func(s *Session) { s.emotion = emotion }
}

// WithSessionLogger overrides the session logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// WithTransportOptions forwards options to the session's transport.
func WithTransportOptions(opts ...TransportOption) SessionOption {
	return func(s *Session) { s.transportOpts = append(s.transportOpts, opts...) }
}

func NewSession(client *Client, local models.Participant, opts ...SessionOption) *Session {
	s := &Session{
		client:   client,
		local:    local,
		emotion:  "neutral",
		logger:   slog.Default(),
		state:    SessionIdle,
		registry: NewRegistry(local.ID),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State reports the current lifecycle phase.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Room returns the last room document snapshot, or nil before create/join.
func (s *Session) Room() *models.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.room
}

// Roster returns remote participants as currently known.
func (s *Session) Roster() []PresenceEntry {
	return s.reg().Roster()
}

// CreateRoom creates a room document and moves the session to the
// room-created phase. The creator becomes the sender on role selection.
// A terminated session may be reused here, same as an idle one.
func (s *Session) CreateRoom(ctx context.Context, code string) (*models.Room, error) {
	if err := s.restart("create"); err != nil {
		return nil, err
	}

	room, err := s.client.CreateRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	s.reg().ApplyDocument(room)

	s.mu.Lock()
	s.room = room
	s.state = SessionRoomCreated
	s.mu.Unlock()

	return room, nil
}

// JoinRoom registers the participant in an existing room document and moves
// the session to the joining phase. A terminated session may be reused here,
// same as an idle one.
func (s *Session) JoinRoom(ctx context.Context, code string) (*models.Room, error) {
	if err := s.restart("join"); err != nil {
		return nil, err
	}

	room, err := s.client.JoinRoom(ctx, code)
	if err != nil {
		return nil, err
	}

	s.reg().ApplyDocument(room)

	s.mu.Lock()
	s.room = room
	s.state = SessionRoomJoining
	s.mu.Unlock()

	return room, nil
}

// restart validates that a new room lifecycle may begin and, when coming out
// of a terminated session, clears the previous room's state so the reused
// session starts clean.
func (s *Session) restart(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionIdle && s.state != SessionTerminated {
		return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, s.state)
	}

	if s.state == SessionTerminated {
		s.room = nil
		s.role = ""
		s.registry = NewRegistry(s.local.ID)
		s.state = SessionIdle
	}

	return nil
}

// reg returns the current registry; the pointer is swapped on session reuse.
func (s *Session) reg() *Registry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry
}

// SelectRole opens the signal stream for the chosen role and starts the
// inbound pump. Legal only after create or join.
func (s *Session) SelectRole(ctx context.Context, role string) error {
	if role != models.RoleSender && role != models.RoleReceiver {
		return fmt.Errorf("neurovibe: unknown role %q", role)
	}

	s.mu.Lock()
	if s.state != SessionRoomCreated && s.state != SessionRoomJoining {
		s.mu.Unlock()
		return fmt.Errorf("%w: select role from %s", ErrInvalidTransition, s.state)
	}
	room := s.room
	s.mu.Unlock()

	wsURL, err := s.client.WebSocketURL(room.Code, role)
	if err != nil {
		return err
	}

	opts := append([]TransportOption{
		WithStatusHandler(s.onTransportStatus),
		WithLogger(s.logger),
	}, s.transportOpts...)

	transport := NewTransport(wsURL, s.local, opts...)

	pumpCtx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.role = role
	s.transport = transport
	s.cancel = cancel
	s.state = SessionRoleActive
	s.mu.Unlock()

	transport.Connect(ctx)

	go s.pump(pumpCtx, transport)

	return nil
}

// SendSpeech forwards a loudness intensity sample. Sender only.
func (s *Session) SendSpeech(intensity int) error {
	transport, err := s.senderTransport()
	if err != nil {
		return err
	}

	msg := events.NewMessage(events.TypeSpeech, events.SpeechEvent{
		Intensity: morse.ClampIntensity(intensity),
	})

	return transport.Send(msg)
}

// SendText encodes recognized text and forwards it as a morse signal.
// Sender only. Text with no encodable characters is not sent.
func (s *Session) SendText(text string) error {
	transport, err := s.senderTransport()
	if err != nil {
		return err
	}

	code := morse.Encode(text)
	if code == "" {
		return nil
	}

	msg := events.NewMessage(events.TypeMorse, events.MorseEvent{
		Text:    text,
		Code:    code,
		Emotion: s.emotion,
	})

	return transport.Send(msg)
}

// InviteByEmail invites a participant to the session's room.
func (s *Session) InviteByEmail(ctx context.Context, email string) error {
	s.mu.Lock()
	room := s.room
	state := s.state
	s.mu.Unlock()

	if room == nil || state == SessionTerminated {
		return fmt.Errorf("%w: invite from %s", ErrInvalidTransition, state)
	}

	return s.client.InviteByEmail(ctx, room.Code, email)
}

// HandleInvite answers a pending invitation. Accepting one past its expiry
// reports a rejection instead and returns ErrInviteExpired.
func (s *Session) HandleInvite(ctx context.Context, email string, invite models.Notification, accept bool) error {
	if accept && !invite.ExpiresAt.IsZero() && time.Now().After(invite.ExpiresAt) {
		if err := s.client.RespondToInvite(ctx, email, invite.RoomCode, false); err != nil {
			return err
		}
		return ErrInviteExpired
	}

	return s.client.RespondToInvite(ctx, email, invite.RoomCode, accept)
}

// Leave withdraws a receiver from the room and terminates the session.
func (s *Session) Leave(ctx context.Context) error {
	s.mu.Lock()
	room := s.room
	s.mu.Unlock()

	if room == nil {
		return fmt.Errorf("%w: leave from %s", ErrInvalidTransition, s.State())
	}

	err := s.client.LeaveRoom(ctx, room.Code)

	s.shutdown()

	return err
}

// Terminate closes the room for everyone. Sender only; the server rejects
// anyone else, so the session stays alive on failure.
func (s *Session) Terminate(ctx context.Context) error {
	s.mu.Lock()
	room := s.room
	role := s.role
	s.mu.Unlock()

	if room == nil {
		return fmt.Errorf("%w: terminate from %s", ErrInvalidTransition, s.State())
	}
	if role != "" && role != models.RoleSender {
		return ErrNotSender
	}

	if err := s.client.TerminateRoom(ctx, room.Code); err != nil {
		return err
	}

	s.shutdown()

	return nil
}

// Close tears the session down without touching the room document.
func (s *Session) Close() {
	s.shutdown()
}

func (s *Session) shutdown() {
	s.mu.Lock()
	transport := s.transport
	cancel := s.cancel
	s.transport = nil
	s.cancel = nil
	s.state = SessionTerminated
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if transport != nil {
		_ = transport.Close()
	}
	if s.renderer != nil {
		s.renderer.Stop()
	}
}

func (s *Session) senderTransport() (*Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionRoleActive {
		return nil, fmt.Errorf("%w: send from %s", ErrInvalidTransition, s.state)
	}
	if s.role != models.RoleSender {
		return nil, ErrNotSender
	}

	return s.transport, nil
}

func (s *Session) onTransportStatus(status Status) {
	if status != StatusConnected {
		s.reg().ApplyTransportDown()
	}
}

// pump dispatches inbound signal-stream messages until the transport closes
// or the session shuts down.
func (s *Session) pump(ctx context.Context, transport *Transport) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-transport.Messages():
			if !ok {
				return
			}
			s.dispatch(msg)
		}
	}
}

func (s *Session) dispatch(msg events.Message) {
	switch msg.Type {
	case events.TypeIdentify:
		var ev events.IdentifyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("bad identify payload", slog.Any(constant.Error, err))
			return
		}
		s.reg().ApplyIdentify(ev.User, models.RoleReceiver)

	case events.TypeReceiverList:
		var ev events.ReceiverListEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("bad receiver list payload", slog.Any(constant.Error, err))
			return
		}
		s.reg().ApplyReceiverList(ev.Users)

	case events.TypeMorse:
		var ev events.MorseEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("bad morse payload", slog.Any(constant.Error, err))
			return
		}
		if s.renderer != nil {
			s.renderer.RenderMorse(ev.Code, ev.Emotion)
		}

	case events.TypeSpeech:
		var ev events.SpeechEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			s.logger.Warn("bad speech payload", slog.Any(constant.Error, err))
			return
		}
		if s.renderer != nil {
			s.renderer.RenderIntensity(ev.Intensity, "")
		}

	case events.TypeDisconnect:
		s.reg().ApplySenderLost()
		if s.renderer != nil {
			s.renderer.Stop()
		}

	case events.TypeError:
		var ev events.ErrorEvent
		if err := json.Unmarshal(msg.Data, &ev); err == nil {
			s.logger.Warn("server error event", slog.String("message", ev.Message))
		}

	case events.TypePing:
		// keepalive echo, nothing to do

	default:
		s.logger.Debug("unknown message type", slog.String("type", msg.Type))
	}
}
