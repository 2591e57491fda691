package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/adapters/repository"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/appctx"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/dto"
	"github.com/Akshay-cybersec/NeuroVibe/internal/usecase"
)

type RoomHandler struct {
	roomUsecase usecase.RoomUsecase
}

func NewRoomHandler(roomUsecase usecase.RoomUsecase) *RoomHandler {
	return &RoomHandler{roomUsecase: roomUsecase}
}

func (h *RoomHandler) Create(c echo.Context) error {
	var req dto.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	sender, ok := appctx.Participant(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid participant"})
	}

	room, err := h.roomUsecase.CreateRoom(c.Request().Context(), req.Code, &sender)
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) Get(c echo.Context) error {
	room, err := h.roomUsecase.GetRoom(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) List(c echo.Context) error {
	active, closed, err := h.roomUsecase.ListRooms(c.Request().Context())
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusOK, dto.ListRoomsResponse{
		ActiveRooms: active,
		ClosedRooms: closed,
		Total:       len(active) + len(closed),
	})
}

func (h *RoomHandler) Join(c echo.Context) error {
	p, ok := appctx.Participant(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid participant"})
	}

	room, err := h.roomUsecase.JoinRoom(c.Request().Context(), c.Param("code"), p)
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) Leave(c echo.Context) error {
	p, ok := appctx.Participant(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid participant"})
	}

	if err := h.roomUsecase.LeaveRoom(c.Request().Context(), c.Param("code"), p.ID); err != nil {
		return h.roomError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RoomHandler) Terminate(c echo.Context) error {
	p, ok := appctx.Participant(c.Request().Context())
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid participant"})
	}

	if err := h.roomUsecase.Terminate(c.Request().Context(), c.Param("code"), p.ID); err != nil {
		return h.roomError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RoomHandler) Invite(c echo.Context) error {
	var req dto.InviteRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "email is required"})
	}

	inv, err := h.roomUsecase.InviteByEmail(c.Request().Context(), c.Param("code"), req.Email)
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusCreated, inv)
}

func (h *RoomHandler) Notifications(c echo.Context) error {
	pending, err := h.roomUsecase.PendingInvites(c.Request().Context(), c.Param("email"))
	if err != nil {
		return h.roomError(c, err)
	}

	return c.JSON(http.StatusOK, dto.NotificationsResponse{Requests: pending})
}

func (h *RoomHandler) Respond(c echo.Context) error {
	var req dto.RespondInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	err := h.roomUsecase.RespondToInvite(c.Request().Context(), c.Param("email"), req.RoomCode, req.Accept)
	if err != nil {
		return h.roomError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *RoomHandler) roomError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidRoomCode):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid room code"})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "room not found"})
	case errors.Is(err, repository.ErrRoomInactive):
		return c.JSON(http.StatusGone, map[string]string{"error": "room is not active"})
	case errors.Is(err, repository.ErrRoomExists):
		return c.JSON(http.StatusConflict, map[string]string{"error": "room code already taken"})
	case errors.Is(err, usecase.ErrNotSender):
		return c.JSON(http.StatusForbidden, map[string]string{"error": "only the sender may terminate"})
	case errors.Is(err, usecase.ErrInviteExpired):
		return c.JSON(http.StatusGone, map[string]string{"error": "invitation has expired"})
	default:
		slog.Error("room handler", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
