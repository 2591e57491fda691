package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/constant"
	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/dto"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/middleware"
)

type AuthHandler struct {
	jwtSecret []byte
}

func NewAuthHandler(jwtSecret string) *AuthHandler {
	return &AuthHandler{jwtSecret: []byte(jwtSecret)}
}

// Guest mints an ephemeral participant token. There is no account behind it;
// durable identities come from the external identity provider.
func (h *AuthHandler) Guest(c echo.Context) error {
	var req dto.GuestTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Name == "" {
		req.Name = "guest"
	}

	participant := models.NewAnonymousParticipant(req.Name)
	participant.Photo = req.Photo

	claims := &middleware.ParticipantClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   participant.ID.String(),
		},
		Name:  participant.Name,
		Photo: participant.Photo,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(h.jwtSecret)
	if err != nil {
		slog.Error("sign guest token failed", slog.Any(constant.Error, err))

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "could not create token"})
	}

	return c.JSON(http.StatusOK, dto.GuestTokenResponse{
		Token:       ss,
		Participant: participant,
	})
}
