package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/config"
	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/application/metric"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/events"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/memory"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
	"github.com/Akshay-cybersec/NeuroVibe/internal/usecase"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

type WebSocketHandler struct {
	upgrader *websocket.Upgrader

	roomUsecase      usecase.RoomUsecase
	signalingUsecase usecase.SignalingUsecase
}

func NewWebSocketHandler(
	cfg *config.Config,
	roomUsecase usecase.RoomUsecase,
	signalingUsecase usecase.SignalingUsecase,
) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if cfg.Debug {
					return true
				}

				return r.Header.Get("Origin") == cfg.Domain
			},
		},
		roomUsecase:      roomUsecase,
		signalingUsecase: signalingUsecase,
	}
}

// Handle upgrades GET /ws?room=CODE&role=sender|receiver into the per-room
// signal stream.
func (h *WebSocketHandler) Handle(c echo.Context) error {
	roomCode, err := models.NormalizeRoomCode(c.QueryParam("room"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room code"})
	}

	role := c.QueryParam("role")
	if role != models.RoleSender && role != models.RoleReceiver {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "role must be sender or receiver"})
	}

	// Terminated rooms never accept new connections, even while the
	// document still exists.
	room, err := h.roomUsecase.GetRoom(c.Request().Context(), roomCode)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
		}
		return err
	}
	if !room.Active {
		return c.JSON(http.StatusGone, map[string]string{"error": "room is not active"})
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("WebSocket upgrade error", slog.Any(constant.Error, err))
		return err
	}
	defer ws.Close()

	connID := uuid.New()
	conn := memory.NewSafeConn(ws)

	if err := h.signalingUsecase.HandleConnect(c.Request().Context(), roomCode, role, connID, conn); err != nil {
		if errors.Is(err, usecase.ErrSenderOccupied) {
			_ = conn.WriteJSON(events.NewMessage(events.TypeError, events.ErrorEvent{
				Message: "room already has an active sender",
			}))
		}
		return nil
	}

	metric.IncrementWSActiveConnections(role)
	defer metric.DecrementWSActiveConnections(role)
	defer h.signalingUsecase.HandleDisconnect(c.Request().Context(), roomCode, role, connID, conn)

	if err = ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return err
	}
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-c.Request().Context().Done():
				return
			}
		}
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Error("webSocket read error", slog.Any(constant.Error, err))
			}

			return nil
		}

		msg := new(events.Message)
		if err = json.Unmarshal(raw, msg); err != nil {
			slog.Error("unmarshal websocket message", slog.Any(constant.Error, err))
			continue
		}

		if err = h.signalingUsecase.HandleMessage(c.Request().Context(), roomCode, role, conn, msg); err != nil {
			slog.Error("handle message",
				slog.String(constant.RoomCode, roomCode),
				slog.Any(constant.Error, err),
			)
		}
	}
}
