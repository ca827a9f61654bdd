// handlers_session.go - Session lifecycle operation handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionManager
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(sessions SessionManager) SessionHandler {
	return &SessionHandlerImpl{
		sessions: sessions,
	}
}

// HandleCreateSession creates a fresh idle session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	sess := h.sessions.Create()
	return c.JSON(http.StatusCreated, sess)
}

// HandleGetSession returns the current session state
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessions.Get(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	// Touch session to prevent cleanup while being viewed
	h.sessions.Touch(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleDeleteSession removes a session and closes its subscriptions
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.sessions.Delete(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleResetSession discards the file, analysis and chat history
func (h *SessionHandlerImpl) HandleResetSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, err := h.sessions.Reset(id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sess)
}

// HandleExportSession returns the full session including the extracted
// file content, as JSON or MessagePack depending on the format parameter
func (h *SessionHandlerImpl) HandleExportSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessions.Export(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	switch c.QueryParam("format") {
	case "", "json":
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=session-%s.json", shortID(id)))
		return c.JSON(http.StatusOK, sess)
	case "msgpack":
		data, err := msgpack.Marshal(sess)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=session-%s.msgpack", shortID(id)))
		return c.Blob(http.StatusOK, "application/msgpack", data)
	default:
		return NewValidationError("format")
	}
}

// HandleSessionKeepAlive extends session lifetime for active viewing
func (h *SessionHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.sessions.Touch(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}
