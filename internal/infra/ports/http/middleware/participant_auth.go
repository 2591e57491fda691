package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/appctx"
)

// ParticipantClaims carries the participant descriptor inside a guest token.
type ParticipantClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Photo string `json:"photo,omitempty"`
}

// ParticipantAuth resolves the caller's participant identity from a bearer
// guest token when one is presented. Identity issuance itself is delegated;
// callers without a token stay anonymous and are assigned a fresh ephemeral
// id per request.
func ParticipantAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := participantFromToken(c, secret)
			if !ok {
				p = models.NewAnonymousParticipant(c.QueryParam("name"))
			}

			c.SetRequest(
				c.Request().WithContext(
					appctx.WithParticipant(c.Request().Context(), p),
				),
			)

			return next(c)
		}
	}
}

func participantFromToken(c echo.Context, secret string) (models.Participant, bool) {
	header := c.Request().Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return models.Participant{}, false
	}

	token, err := jwt.ParseWithClaims(raw, &ParticipantClaims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return models.Participant{}, false
	}

	claims, ok := token.Claims.(*ParticipantClaims)
	if !ok {
		return models.Participant{}, false
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Participant{}, false
	}

	return models.Participant{ID: id, Name: claims.Name, Photo: claims.Photo}, true
}
