package models

import "time"

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one entry in a session's chat history. Messages are
// append-only and never mutated or reordered after insertion. Model
// messages carry the id of the user turn they answer in ReplyTo.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ReplyTo   string    `json:"replyTo,omitempty"`
}

// NewChatMessage builds a message stamped with the current time.
func NewChatMessage(id string, role ChatRole, text string) ChatMessage {
	return ChatMessage{
		ID:        id,
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}
}
