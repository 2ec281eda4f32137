package server

import (
	"github.com/labstack/echo/v4"

	"github.com/nfrund/gobychat/internal/handlers"
	"github.com/nfrund/gobychat/internal/middleware"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	presenceHandler := handlers.NewPresenceHandler(s.tracker)
	messageHandler := handlers.NewMessageHandler(s.router)
	groupHandler := handlers.NewGroupHandler(s.router)
	sessionHandler := handlers.NewSessionHandler()
	rateLimiter := middleware.RateLimiter(s.Cfg.RateLimit, max(1, int(s.Cfg.RateLimit*2)))

	api := s.E.Group("/api")

	api.GET("/session", sessionHandler.Current)
	api.POST("/session", sessionHandler.Login, rateLimiter)
	api.DELETE("/session", sessionHandler.Logout)

	users := api.Group("/users")
	users.GET("/online-users", presenceHandler.OnlineUsers)
	users.GET("/:username/status", presenceHandler.UserStatus)
	users.GET("/messages/public", messageHandler.PublicHistory)
	users.GET("/messages/history/:user1/:user2", messageHandler.History)

	messages := api.Group("/messages", middleware.RequireIdentity, rateLimiter)
	messages.POST("/public", messageHandler.SendPublic)
	messages.POST("/private", messageHandler.SendPrivate)

	groups := api.Group("/groups")
	groups.GET("", groupHandler.List)
	groups.POST("", groupHandler.Create, middleware.RequireIdentity)
	groups.GET("/:groupId", groupHandler.Get)
	groups.DELETE("/:groupId", groupHandler.Delete, middleware.RequireIdentity)
	groups.GET("/:groupId/messages", groupHandler.History)
	groups.POST("/:groupId/messages", groupHandler.Send, middleware.RequireIdentity, rateLimiter)

	s.E.GET("/ws", s.bridge.Handler())
	s.E.GET("/health", handlers.Health(s.bridge))
	s.E.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
}
