package neurovibe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

// testAPI is a minimal room-document API for session tests.
type testAPI struct {
	server *httptest.Server

	terminated []string
	responses  []respondCall
}

type respondCall struct {
	email  string
	accept bool
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{}

	mux := http.NewServeMux()

	writeRoom := func(w http.ResponseWriter, code string) {
		room := models.Room{
			Code:      code,
			Active:    true,
			CreatedAt: time.Now(),
			Receivers: []models.Participant{},
		}
		_ = json.NewEncoder(w).Encode(room)
	}

	mux.HandleFunc("POST /api/v1/rooms", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code string `json:"code"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Code == "" {
			req.Code = "NEW123"
		}
		writeRoom(w, req.Code)
	})

	mux.HandleFunc("POST /api/v1/rooms/{code}/join", func(w http.ResponseWriter, r *http.Request) {
		writeRoom(w, r.PathValue("code"))
	})

	mux.HandleFunc("DELETE /api/v1/rooms/{code}", func(w http.ResponseWriter, r *http.Request) {
		api.terminated = append(api.terminated, r.PathValue("code"))
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/v1/rooms/{code}/invitations", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc("POST /api/v1/notifications/{email}/respond", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Accept bool `json:"accept"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		api.responses = append(api.responses, respondCall{
			email:  r.PathValue("email"),
			accept: req.Accept,
		})
		w.WriteHeader(http.StatusOK)
	})

	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)

	return api
}

func newTestSession(t *testing.T, api *testAPI, dialer *fakeDialer) *Session {
	t.Helper()

	client := NewClient(api.server.URL)
	local := models.NewAnonymousParticipant("tester")

	session := NewSession(client, local, WithTransportOptions(
		WithDialer(dialer.dial),
		WithRetryInterval(5*time.Millisecond),
	))
	t.Cleanup(session.Close)

	return session
}

func TestSessionLifecycleSender(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	assert.Equal(t, SessionIdle, session.State())

	room, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "NEW123", room.Code)
	assert.Equal(t, SessionRoomCreated, session.State())

	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))
	assert.Equal(t, SessionRoleActive, session.State())

	// transport came up and identified
	conn := dialer.conn(0)
	require.NotNil(t, conn)
	require.NotEmpty(t, conn.written())
	assert.Equal(t, events.TypeIdentify, conn.written()[0].Type)
}

func TestSessionLifecycleReceiver(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	_, err := session.JoinRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, SessionRoomJoining, session.State())

	require.NoError(t, session.SelectRole(context.Background(), models.RoleReceiver))
	assert.Equal(t, SessionRoleActive, session.State())
}

func TestSessionRejectsInvalidTransitions(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	err := session.SelectRole(context.Background(), models.RoleSender)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = session.CreateRoom(context.Background(), "")
	require.NoError(t, err)

	_, err = session.CreateRoom(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = session.JoinRoom(context.Background(), "ABC123")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionRejectsUnknownRole(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)

	assert.Error(t, session.SelectRole(context.Background(), "spectator"))
}

func TestSessionSendText(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))

	require.NoError(t, session.SendText("sos"))

	conn := dialer.conn(0)
	require.Eventually(t, func() bool {
		return len(conn.written()) >= 2
	}, time.Second, time.Millisecond)

	msg := conn.written()[1]
	require.Equal(t, events.TypeMorse, msg.Type)

	var ev events.MorseEvent
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.Equal(t, "sos", ev.Text)
	assert.Equal(t, "... --- ...", ev.Code)
	assert.Equal(t, "neutral", ev.Emotion)
}

func TestSessionSendTextUnencodableDropped(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))

	require.NoError(t, session.SendText("!!!"))

	// only the identify handshake went out
	assert.Len(t, dialer.conn(0).written(), 1)
}

func TestSessionSendRequiresSenderRole(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	_, err := session.JoinRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleReceiver))

	assert.ErrorIs(t, session.SendText("sos"), ErrNotSender)
	assert.ErrorIs(t, session.SendSpeech(50), ErrNotSender)
}

func TestSessionTerminate(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))

	require.NoError(t, session.Terminate(context.Background()))

	assert.Equal(t, SessionTerminated, session.State())
	assert.Equal(t, []string{"NEW123"}, api.terminated)
}

func TestSessionTerminateRequiresSender(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	_, err := session.JoinRoom(context.Background(), "ABC123")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleReceiver))

	assert.ErrorIs(t, session.Terminate(context.Background()), ErrNotSender)
	assert.Equal(t, SessionRoleActive, session.State())
	assert.Empty(t, api.terminated)
}

func TestSessionReusableAfterTerminate(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))

	// seed the roster so we can observe it being cleared on reuse
	ann := models.NewAnonymousParticipant("ann")
	dialer.conn(0).inbox <- events.NewMessage(events.TypeReceiverList, events.ReceiverListEvent{
		Users: []models.Participant{ann},
	})
	require.Eventually(t, func() bool {
		return len(session.Roster()) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, session.Terminate(context.Background()))
	require.Equal(t, SessionTerminated, session.State())

	room, err := session.CreateRoom(context.Background(), "AB12CD")
	require.NoError(t, err)

	assert.Equal(t, "AB12CD", room.Code)
	assert.Equal(t, SessionRoomCreated, session.State())
	assert.Empty(t, session.Roster(), "previous room's roster must not leak")

	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))
	assert.Equal(t, SessionRoleActive, session.State())
}

func TestSessionJoinableAfterTerminate(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))
	require.NoError(t, session.Terminate(context.Background()))

	_, err = session.JoinRoom(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, SessionRoomJoining, session.State())

	require.NoError(t, session.SelectRole(context.Background(), models.RoleReceiver))

	// role from the previous lifecycle is gone
	assert.ErrorIs(t, session.SendText("sos"), ErrNotSender)
}

func TestSessionRosterFollowsReceiverList(t *testing.T) {
	api := newTestAPI(t)
	dialer := &fakeDialer{}
	session := newTestSession(t, api, dialer)

	_, err := session.CreateRoom(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, session.SelectRole(context.Background(), models.RoleSender))

	ann := models.NewAnonymousParticipant("ann")
	dialer.conn(0).inbox <- events.NewMessage(events.TypeReceiverList, events.ReceiverListEvent{
		Users: []models.Participant{ann},
	})

	require.Eventually(t, func() bool {
		roster := session.Roster()
		return len(roster) == 1 && roster[0].Participant.ID == ann.ID && roster[0].Live
	}, time.Second, time.Millisecond)
}

func TestSessionHandleInviteExpired(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	invite := models.Notification{
		RoomCode:  "ABC123",
		Status:    models.InviteStatusPending,
		ExpiresAt: time.Now().Add(-time.Second),
	}

	err := session.HandleInvite(context.Background(), "bob@example.com", invite, true)
	assert.ErrorIs(t, err, ErrInviteExpired)

	// the expiry was reported as a rejection
	require.Len(t, api.responses, 1)
	assert.Equal(t, "bob@example.com", api.responses[0].email)
	assert.False(t, api.responses[0].accept)
}

func TestSessionHandleInviteAccept(t *testing.T) {
	api := newTestAPI(t)
	session := newTestSession(t, api, &fakeDialer{})

	invite := models.Notification{
		RoomCode:  "ABC123",
		Status:    models.InviteStatusPending,
		ExpiresAt: time.Now().Add(time.Minute),
	}

	require.NoError(t, session.HandleInvite(context.Background(), "bob@example.com", invite, true))

	require.Len(t, api.responses, 1)
	assert.True(t, api.responses[0].accept)
}
