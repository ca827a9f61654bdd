// handlers_chat.go - Follow-up chat operation handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// ChatHandlerImpl implements the ChatHandler interface
type ChatHandlerImpl struct {
	sessions SessionManager
}

// NewChatHandler creates a new chat handler instance
func NewChatHandler(sessions SessionManager) ChatHandler {
	return &ChatHandlerImpl{
		sessions: sessions,
	}
}

// HandleSendMessage appends a user message and starts the reply turn.
// When the session has no file the message is dropped and sent is null,
// mirroring how the session itself treats questions without grounding.
func (h *ChatHandlerImpl) HandleSendMessage(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	msg, err := h.sessions.SendMessage(id, req.Message)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusAccepted, sendMessageResponse{Sent: msg})
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type sendMessageResponse struct {
	Sent *models.ChatMessage `json:"sent"`
}
