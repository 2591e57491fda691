package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/application/metric"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/memory"
)

// SignalingUsecase relays signal messages inside one room: exactly one
// sender fans speech/morse out to every connected receiver.
type SignalingUsecase interface {
	// HandleConnect registers a freshly upgraded socket under its role.
	// Claiming an occupied sender slot fails with ErrSenderOccupied.
	HandleConnect(ctx context.Context, roomCode, role string, connID uuid.UUID, conn *memory.SafeConn) error
	// HandleDisconnect releases the socket; a sender drop notifies every
	// receiver, a receiver drop refreshes the roster.
	HandleDisconnect(ctx context.Context, roomCode, role string, connID uuid.UUID, conn *memory.SafeConn)

	HandleMessage(ctx context.Context, roomCode, role string, conn *memory.SafeConn, msg *events.Message) error

	BroadcastReceiverList(ctx context.Context, roomCode string) error
}

type signalingUsecase struct {
	connRepo memory.RoomConnectionRepository
}

func NewSignalingUsecase(connRepo memory.RoomConnectionRepository) SignalingUsecase {
	return &signalingUsecase{connRepo: connRepo}
}

func (s *signalingUsecase) HandleConnect(ctx context.Context, roomCode, role string, connID uuid.UUID, conn *memory.SafeConn) error {
	switch role {
	case models.RoleSender:
		if !s.connRepo.SetSender(roomCode, conn) {
			return ErrSenderOccupied
		}
	case models.RoleReceiver:
		s.connRepo.AddReceiver(roomCode, connID, conn)
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	slog.Info("participant connected",
		slog.String(constant.RoomCode, roomCode),
		slog.String(constant.Role, role),
	)

	return nil
}

func (s *signalingUsecase) HandleDisconnect(ctx context.Context, roomCode, role string, connID uuid.UUID, conn *memory.SafeConn) {
	slog.Info("participant disconnected",
		slog.String(constant.RoomCode, roomCode),
		slog.String(constant.Role, role),
	)

	if role == models.RoleSender {
		s.connRepo.ClearSender(roomCode, conn)

		// A room without a sender is offline for its receivers.
		s.broadcast(roomCode, events.NewMessage(events.TypeDisconnect, nil))

		return
	}

	s.connRepo.RemoveReceiver(roomCode, connID)

	if err := s.BroadcastReceiverList(ctx, roomCode); err != nil {
		slog.Error("broadcast receiver list", slog.Any(constant.Error, err))
	}
}

func (s *signalingUsecase) HandleMessage(ctx context.Context, roomCode, role string, conn *memory.SafeConn, msg *events.Message) error {
	switch msg.Type {
	case events.TypeIdentify:
		var identify events.IdentifyEvent
		if err := json.Unmarshal(msg.Data, &identify); err != nil {
			return fmt.Errorf("unmarshal identify: %w", err)
		}

		return s.handleIdentify(ctx, roomCode, conn, identify)

	case events.TypeSpeech:
		var speech events.SpeechEvent
		if err := json.Unmarshal(msg.Data, &speech); err != nil {
			return fmt.Errorf("unmarshal speech: %w", err)
		}

		return s.handleSpeech(ctx, roomCode, role, speech)

	case events.TypeMorse:
		var morse events.MorseEvent
		if err := json.Unmarshal(msg.Data, &morse); err != nil {
			return fmt.Errorf("unmarshal morse: %w", err)
		}

		return s.handleMorse(ctx, roomCode, role, conn, morse)

	case events.TypePing:
		s.write(conn, events.NewMessage(events.TypePing, nil))
		return nil

	case events.TypeDisconnect:
		// Explicit goodbye; the socket teardown path does the bookkeeping.
		return nil

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

func (s *signalingUsecase) handleIdentify(ctx context.Context, roomCode string, conn *memory.SafeConn, identify events.IdentifyEvent) error {
	conn.SetParticipant(identify.User)

	return s.BroadcastReceiverList(ctx, roomCode)
}

func (s *signalingUsecase) handleSpeech(ctx context.Context, roomCode, role string, speech events.SpeechEvent) error {
	if role != models.RoleSender {
		// Receivers have no signal stream of their own.
		return nil
	}

	if speech.Intensity < 0 {
		speech.Intensity = 0
	}
	if speech.Intensity > 100 {
		speech.Intensity = 100
	}

	n := s.broadcast(roomCode, events.NewMessage(events.TypeSpeech, speech))
	metric.RecordSignalRelayed(events.TypeSpeech, n)

	return nil
}

func (s *signalingUsecase) handleMorse(ctx context.Context, roomCode, role string, conn *memory.SafeConn, morse events.MorseEvent) error {
	if role != models.RoleSender {
		return nil
	}

	if morse.Code == "" {
		s.write(conn, events.NewMessage(events.TypeError, events.ErrorEvent{
			Message: "morse message requires a code",
		}))

		return ErrEmptyCode
	}

	n := s.broadcast(roomCode, events.NewMessage(events.TypeMorse, morse))
	metric.RecordSignalRelayed(events.TypeMorse, n)

	return nil
}

// BroadcastReceiverList pushes the identified receivers of a room to every
// connected party, sender included.
func (s *signalingUsecase) BroadcastReceiverList(ctx context.Context, roomCode string) error {
	receivers := s.connRepo.Receivers(roomCode)

	list := events.ReceiverListEvent{Users: make([]models.Participant, 0, len(receivers))}
	for _, conn := range receivers {
		if p, ok := conn.Participant(); ok {
			list.Users = append(list.Users, p)
		}
	}

	msg := events.NewMessage(events.TypeReceiverList, list)

	if sender, ok := s.connRepo.Sender(roomCode); ok {
		s.write(sender, msg)
	}
	for _, conn := range receivers {
		s.write(conn, msg)
	}

	return nil
}

// broadcast fans a message out to every receiver of the room and reports how
// many deliveries were attempted.
func (s *signalingUsecase) broadcast(roomCode string, msg events.Message) int {
	receivers := s.connRepo.Receivers(roomCode)
	for _, conn := range receivers {
		s.write(conn, msg)
	}

	return len(receivers)
}

func (s *signalingUsecase) write(conn *memory.SafeConn, msg events.Message) {
	if err := conn.WriteJSON(msg); err != nil {
		// Best-effort delivery; the reader loop notices dead sockets.
		slog.Error("write to websocket", slog.Any(constant.Error, err))
	}
}
