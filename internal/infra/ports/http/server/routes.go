package server

import (
	"github.com/labstack/echo/v4"

	"github.com/Akshay-cybersec/NeuroVibe/internal/application/config"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/handlers"
	"github.com/Akshay-cybersec/NeuroVibe/internal/infra/ports/http/middleware"
)

func New(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	wsHandler *handlers.WebSocketHandler,
) *echo.Echo {
	e := echo.New()

	e.HideBanner = true

	e.Use(middleware.SlogLogger())
	e.Use(middleware.PrometheusMiddleware())

	api := e.Group("/api")
	{
		api.POST("/v1/auth/guest", authHandler.Guest)

		v1 := api.Group("/v1")
		v1.Use(middleware.ParticipantAuth(cfg.JWTSecret))
		{
			v1.GET("/rooms", roomHandler.List)
			v1.POST("/rooms", roomHandler.Create)
			v1.GET("/rooms/:code", roomHandler.Get)
			v1.POST("/rooms/:code/join", roomHandler.Join)
			v1.POST("/rooms/:code/leave", roomHandler.Leave)
			v1.DELETE("/rooms/:code", roomHandler.Terminate)
			v1.POST("/rooms/:code/invitations", roomHandler.Invite)

			v1.GET("/notifications/:email", roomHandler.Notifications)
			v1.POST("/notifications/:email/respond", roomHandler.Respond)

			v1.GET("/ws", wsHandler.Handle)
		}
	}

	e.Static("/", "web")

	return e
}
