// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/masrulmollah/DataAnalysis/internal/extract"
	"github.com/masrulmollah/DataAnalysis/internal/upload"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions SessionManager
	Uploads  *upload.Manager
	Registry *extract.Registry
	Log      *zap.Logger
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Upload  UploadHandler
	Chat    ChatHandler
	Socket  SocketHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions),
		Session: NewSessionHandler(deps.Sessions),
		Upload:  NewUploadHandler(deps.Sessions, deps.Uploads, deps.Registry),
		Chat:    NewChatHandler(deps.Sessions),
		Socket:  NewSocketHandler(deps.Sessions, deps.Log),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Session lifecycle routes
	sessionGroup := e.Group("/api/sessions")
	sessionGroup.POST("", handlers.Session.HandleCreateSession)
	sessionGroup.GET("/:sessionId", handlers.Session.HandleGetSession)
	sessionGroup.DELETE("/:sessionId", handlers.Session.HandleDeleteSession)
	sessionGroup.POST("/:sessionId/keepalive", handlers.Session.HandleSessionKeepAlive)
	sessionGroup.POST("/:sessionId/upload", handlers.Upload.HandleUploadFile)
	sessionGroup.POST("/:sessionId/chat", handlers.Chat.HandleSendMessage)
	sessionGroup.POST("/:sessionId/reset", handlers.Session.HandleResetSession)
	sessionGroup.GET("/:sessionId/export", handlers.Session.HandleExportSession)

	// Chunked upload routes
	uploadGroup := e.Group("/api/uploads")
	uploadGroup.POST("/init", handlers.Upload.HandleInitUpload)
	uploadGroup.PUT("/:uploadId/chunks/:index", handlers.Upload.HandleUploadChunk)
	uploadGroup.POST("/:uploadId/complete", handlers.Upload.HandleCompleteUpload)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/ws/sessions/:sessionId", handlers.Socket.HandleSessionSocket)
}
