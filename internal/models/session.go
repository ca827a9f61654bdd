package models

import "time"

// SessionStatus represents the lifecycle phase of an analysis session.
type SessionStatus string

const (
	SessionStatusIdle       SessionStatus = "idle"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusReady      SessionStatus = "ready"
)

// Session is the client-visible state for one uploaded file and its
// analysis and chat history. Snapshots of it are what the API and the
// WebSocket push hand to the frontend.
type Session struct {
	ID          string          `json:"sessionId"`
	Status      SessionStatus   `json:"status"`
	ChatLoading bool            `json:"chatLoading"`
	File        *FileData       `json:"file,omitempty"`
	Analysis    *AnalysisResult `json:"analysis,omitempty"`
	ChatHistory []ChatMessage   `json:"chatHistory"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// FileData holds one uploaded file and its extracted text content.
// Content is elided from view snapshots and only included in exports.
type FileData struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Content string `json:"content,omitempty"`
}

// NewSession creates an empty Session in idle status.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:          id,
		Status:      SessionStatusIdle,
		ChatHistory: make([]ChatMessage, 0),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
