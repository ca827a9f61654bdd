// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// SessionHandler handles session lifecycle operations
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleResetSession(c echo.Context) error
	HandleExportSession(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
}

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleInitUpload(c echo.Context) error
	HandleUploadChunk(c echo.Context) error
	HandleCompleteUpload(c echo.Context) error
}

// ChatHandler handles follow-up chat operations
type ChatHandler interface {
	HandleSendMessage(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SocketHandler handles WebSocket state streaming
type SocketHandler interface {
	HandleSessionSocket(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	Create() *models.Session
	Get(id string) (*models.Session, bool)
	Export(id string) (*models.Session, bool)
	Touch(id string) bool
	Delete(id string) bool
	StartAnalysis(id, fileName string, data []byte) error
	SendMessage(id, text string) (*models.ChatMessage, error)
	Reset(id string) (*models.Session, error)
	Subscribe(id string) (<-chan models.Session, func(), error)
	Count() int
}
