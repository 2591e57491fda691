package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/memory"
)

// fakeConn records every written message.
type fakeConn struct {
	mu       sync.Mutex
	messages []events.Message
	closed   bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.messages = append(f.messages, v.(events.Message))

	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeConn) written() []events.Message {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]events.Message(nil), f.messages...)
}

func (f *fakeConn) lastOfType(typ string) (events.Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.messages) - 1; i >= 0; i-- {
		if f.messages[i].Type == typ {
			return f.messages[i], true
		}
	}

	return events.Message{}, false
}

type signalingFixture struct {
	usecase SignalingUsecase

	roomCode string

	sender     *fakeConn
	senderConn *memory.SafeConn
}

func newSignalingFixture(t *testing.T) *signalingFixture {
	t.Helper()

	f := &signalingFixture{
		usecase:  NewSignalingUsecase(memory.NewRoomConnectionRepository()),
		roomCode: "ABC123",
		sender:   &fakeConn{},
	}
	f.senderConn = memory.NewSafeConn(f.sender)

	err := f.usecase.HandleConnect(context.Background(), f.roomCode, models.RoleSender, uuid.New(), f.senderConn)
	require.NoError(t, err)

	return f
}

func (f *signalingFixture) addReceiver(t *testing.T, name string) (*fakeConn, *memory.SafeConn, uuid.UUID) {
	t.Helper()

	raw := &fakeConn{}
	conn := memory.NewSafeConn(raw)
	connID := uuid.New()

	err := f.usecase.HandleConnect(context.Background(), f.roomCode, models.RoleReceiver, connID, conn)
	require.NoError(t, err)

	if name != "" {
		identify := events.NewMessage(events.TypeIdentify, events.IdentifyEvent{
			User: models.NewAnonymousParticipant(name),
		})
		err = f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleReceiver, conn, &identify)
		require.NoError(t, err)
	}

	return raw, conn, connID
}

func TestSenderSlotIsExclusive(t *testing.T) {
	f := newSignalingFixture(t)

	second := memory.NewSafeConn(&fakeConn{})
	err := f.usecase.HandleConnect(context.Background(), f.roomCode, models.RoleSender, uuid.New(), second)

	assert.ErrorIs(t, err, ErrSenderOccupied)
}

func TestSenderSlotFreedAfterDisconnect(t *testing.T) {
	f := newSignalingFixture(t)

	f.usecase.HandleDisconnect(context.Background(), f.roomCode, models.RoleSender, uuid.New(), f.senderConn)

	second := memory.NewSafeConn(&fakeConn{})
	err := f.usecase.HandleConnect(context.Background(), f.roomCode, models.RoleSender, uuid.New(), second)

	assert.NoError(t, err)
}

func TestSpeechBroadcastToReceivers(t *testing.T) {
	f := newSignalingFixture(t)
	recvA, _, _ := f.addReceiver(t, "ann")
	recvB, _, _ := f.addReceiver(t, "ben")

	speech := events.NewMessage(events.TypeSpeech, events.SpeechEvent{Intensity: 42})
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &speech)
	require.NoError(t, err)

	for _, recv := range []*fakeConn{recvA, recvB} {
		msg, ok := recv.lastOfType(events.TypeSpeech)
		require.True(t, ok)

		var ev events.SpeechEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, 42, ev.Intensity)
	}
}

func TestSpeechIntensityClamped(t *testing.T) {
	f := newSignalingFixture(t)
	recv, _, _ := f.addReceiver(t, "ann")

	speech := events.NewMessage(events.TypeSpeech, events.SpeechEvent{Intensity: 900})
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &speech)
	require.NoError(t, err)

	msg, ok := recv.lastOfType(events.TypeSpeech)
	require.True(t, ok)

	var ev events.SpeechEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, 100, ev.Intensity)
}

func TestSpeechFromReceiverIgnored(t *testing.T) {
	f := newSignalingFixture(t)
	recvA, connA, _ := f.addReceiver(t, "ann")
	recvB, _, _ := f.addReceiver(t, "ben")

	before := len(recvB.written())

	speech := events.NewMessage(events.TypeSpeech, events.SpeechEvent{Intensity: 50})
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleReceiver, connA, &speech)
	require.NoError(t, err)

	assert.Len(t, recvB.written(), before)
	_, ok := recvA.lastOfType(events.TypeSpeech)
	assert.False(t, ok)
}

func TestMorseBroadcast(t *testing.T) {
	f := newSignalingFixture(t)
	recv, _, _ := f.addReceiver(t, "ann")

	morse := events.NewMessage(events.TypeMorse, events.MorseEvent{
		Text:    "sos",
		Code:    "... --- ...",
		Emotion: "angry",
	})
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &morse)
	require.NoError(t, err)

	msg, ok := recv.lastOfType(events.TypeMorse)
	require.True(t, ok)

	var ev events.MorseEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "... --- ...", ev.Code)
	assert.Equal(t, "angry", ev.Emotion)
}

func TestMorseWithoutCodeRejected(t *testing.T) {
	f := newSignalingFixture(t)
	recv, _, _ := f.addReceiver(t, "ann")

	morse := events.NewMessage(events.TypeMorse, events.MorseEvent{Text: "sos"})
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &morse)

	assert.ErrorIs(t, err, ErrEmptyCode)

	// the offending sender gets an error event, receivers get nothing
	_, ok := f.sender.lastOfType(events.TypeError)
	assert.True(t, ok)
	_, ok = recv.lastOfType(events.TypeMorse)
	assert.False(t, ok)
}

func TestIdentifyBroadcastsReceiverList(t *testing.T) {
	f := newSignalingFixture(t)
	recv, _, _ := f.addReceiver(t, "ann")

	for _, conn := range []*fakeConn{f.sender, recv} {
		msg, ok := conn.lastOfType(events.TypeReceiverList)
		require.True(t, ok)

		var ev events.ReceiverListEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		require.Len(t, ev.Users, 1)
		assert.Equal(t, "ann", ev.Users[0].Name)
	}
}

func TestUnidentifiedReceiversHiddenFromRoster(t *testing.T) {
	f := newSignalingFixture(t)
	f.addReceiver(t, "")
	f.addReceiver(t, "ann")

	msg, ok := f.sender.lastOfType(events.TypeReceiverList)
	require.True(t, ok)

	var ev events.ReceiverListEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	require.Len(t, ev.Users, 1)
	assert.Equal(t, "ann", ev.Users[0].Name)
}

func TestSenderDisconnectNotifiesReceivers(t *testing.T) {
	f := newSignalingFixture(t)
	recv, _, _ := f.addReceiver(t, "ann")

	f.usecase.HandleDisconnect(context.Background(), f.roomCode, models.RoleSender, uuid.New(), f.senderConn)

	_, ok := recv.lastOfType(events.TypeDisconnect)
	assert.True(t, ok)
}

func TestReceiverDisconnectRefreshesRoster(t *testing.T) {
	f := newSignalingFixture(t)
	_, _, idA := f.addReceiver(t, "ann")
	recvB, _, _ := f.addReceiver(t, "ben")

	f.usecase.HandleDisconnect(context.Background(), f.roomCode, models.RoleReceiver, idA, nil)

	msg, ok := recvB.lastOfType(events.TypeReceiverList)
	require.True(t, ok)

	var ev events.ReceiverListEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	require.Len(t, ev.Users, 1)
	assert.Equal(t, "ben", ev.Users[0].Name)
}

func TestPingEchoed(t *testing.T) {
	f := newSignalingFixture(t)

	ping := events.NewMessage(events.TypePing, nil)
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &ping)
	require.NoError(t, err)

	_, ok := f.sender.lastOfType(events.TypePing)
	assert.True(t, ok)
}

func TestUnknownMessageType(t *testing.T) {
	f := newSignalingFixture(t)

	msg := events.Message{Type: "telepathy"}
	err := f.usecase.HandleMessage(context.Background(), f.roomCode, models.RoleSender, f.senderConn, &msg)

	assert.Error(t, err)
}
