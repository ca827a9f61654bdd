package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/masrulmollah/DataAnalysis/internal/extract"
	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// DefaultMaxSessions limits concurrent sessions to prevent memory exhaustion.
const DefaultMaxSessions = 50

// SessionKeepAliveWindow is how long recently touched sessions survive cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionBusy     = errors.New("session is already processing a file")
)

// Analyzer produces a structured result for one uploaded file.
type Analyzer interface {
	Analyze(ctx context.Context, fileName, content string) (*models.AnalysisResult, error)
}

// Chatter answers a question grounded in file content.
type Chatter interface {
	Reply(ctx context.Context, question, grounding string, history []models.ChatMessage) (string, error)
}

// State holds one session plus the guards that keep late asynchronous
// completions from corrupting it. The epoch increments on every upload
// and reset; a completion whose epoch no longer matches is stale and
// is discarded. Pending chat turns are registered by id so a reply can
// be appended exactly once.
type State struct {
	Session      *models.Session
	LastAccessed time.Time

	epoch        uint64
	pendingTurns map[string]struct{}
	subscribers  map[uint64]chan models.Session
	nextSubID    uint64
}

// Manager owns every active session and is the only writer of session
// state. All transitions happen under its lock; extraction and remote
// calls run in background goroutines that re-acquire it to commit.
type Manager struct {
	sessions map[string]*State
	mu       sync.RWMutex

	registry    *extract.Registry
	analyzer    Analyzer
	chat        Chatter
	log         *zap.Logger
	maxSessions int
}

// NewManager creates a session manager. maxSessions <= 0 falls back to
// DefaultMaxSessions; a nil logger disables logging.
func NewManager(registry *extract.Registry, analyzer Analyzer, chat Chatter, log *zap.Logger, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions:    make(map[string]*State),
		registry:    registry,
		analyzer:    analyzer,
		chat:        chat,
		log:         log,
		maxSessions: maxSessions,
	}
}

// Create registers a new idle session and returns its first snapshot.
func (m *Manager) Create() *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evictOldestLocked()

	id := uuid.New().String()
	st := &State{
		Session:      models.NewSession(id),
		LastAccessed: time.Now(),
		pendingTurns: make(map[string]struct{}),
		subscribers:  make(map[uint64]chan models.Session),
	}
	m.sessions[id] = st

	m.log.Info("session created", zap.String("session", shortID(id)))
	view := st.snapshotLocked()
	return &view
}

// Get returns a view snapshot of a session.
func (m *Manager) Get(id string) (*models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	view := st.snapshotLocked()
	return &view, true
}

// Export returns a full copy of a session including the extracted
// file content, for the export endpoint.
func (m *Manager) Export(id string) (*models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	full := *st.Session
	if st.Session.File != nil {
		f := *st.Session.File
		full.File = &f
	}
	full.ChatHistory = make([]models.ChatMessage, len(st.Session.ChatHistory))
	copy(full.ChatHistory, st.Session.ChatHistory)
	return &full, true
}

// Touch updates the keep-alive timestamp for a session.
func (m *Manager) Touch(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return false
	}
	st.LastAccessed = time.Now()
	return true
}

// Delete removes a session. In-flight completions for it are orphaned
// and discard themselves.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return false
	}
	m.deleteLocked(id, st)
	return true
}

// StartAnalysis begins the ingestion and analysis pipeline for an
// uploaded file. Prior file, analysis, and chat history are discarded
// atomically before processing starts; a session already processing
// rejects the upload.
func (m *Manager) StartAnalysis(id, fileName string, data []byte) error {
	m.mu.Lock()
	st, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if st.Session.Status == models.SessionStatusProcessing {
		m.mu.Unlock()
		return ErrSessionBusy
	}

	st.epoch++
	epoch := st.epoch
	st.pendingTurns = make(map[string]struct{})
	st.Session.Status = models.SessionStatusProcessing
	st.Session.ChatLoading = false
	st.Session.File = nil
	st.Session.Analysis = nil
	st.Session.ChatHistory = make([]models.ChatMessage, 0)
	st.Session.Error = ""
	st.Session.UpdatedAt = time.Now().UTC()
	st.LastAccessed = time.Now()
	m.publishLocked(st)
	m.mu.Unlock()

	go m.runAnalysis(id, epoch, fileName, data)
	return nil
}

func (m *Manager) runAnalysis(id string, epoch uint64, fileName string, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("analysis panicked",
				zap.String("session", shortID(id)), zap.Any("panic", r))
			m.failAnalysis(id, epoch, fmt.Sprintf("analysis panicked: %v", r))
		}
	}()

	start := time.Now()
	m.log.Info("analysis started",
		zap.String("session", shortID(id)),
		zap.String("file", fileName),
		zap.Int("bytes", len(data)))

	// Ingestion completes before the remote call is made.
	content, err := m.registry.Extract(fileName, data)
	if err != nil {
		m.log.Warn("ingestion failed",
			zap.String("session", shortID(id)), zap.Error(err))
		m.failAnalysis(id, epoch, err.Error())
		return
	}

	file := &models.FileData{
		Name:    fileName,
		Type:    extract.Extension(fileName),
		Size:    int64(len(data)),
		Content: content,
	}

	result, err := m.analyzer.Analyze(context.Background(), fileName, content)
	if err != nil {
		m.log.Warn("analysis failed",
			zap.String("session", shortID(id)), zap.Error(err))
		m.failAnalysis(id, epoch, err.Error())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok || st.epoch != epoch {
		return
	}

	st.Session.File = file
	st.Session.Analysis = result
	st.Session.ChatHistory = make([]models.ChatMessage, 0)
	st.Session.Status = models.SessionStatusReady
	st.Session.Error = ""
	st.Session.UpdatedAt = time.Now().UTC()
	m.publishLocked(st)

	m.log.Info("analysis complete",
		zap.String("session", shortID(id)),
		zap.String("file", fileName),
		zap.Duration("elapsed", time.Since(start)))
}

// failAnalysis returns the session to idle with the error recorded,
// unless a newer upload or reset has superseded this pipeline.
func (m *Manager) failAnalysis(id string, epoch uint64, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok || st.epoch != epoch {
		return
	}

	st.Session.Status = models.SessionStatusIdle
	st.Session.File = nil
	st.Session.Analysis = nil
	st.Session.Error = message
	st.Session.UpdatedAt = time.Now().UTC()
	m.publishLocked(st)
}

// SendMessage appends the user's message and launches the remote chat
// turn. With no file loaded it is a silent no-op returning (nil, nil).
// The returned message is the optimistic user entry; the model reply
// arrives through the session snapshot when the call settles.
func (m *Manager) SendMessage(id, text string) (*models.ChatMessage, error) {
	m.mu.Lock()
	st, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	st.LastAccessed = time.Now()

	if st.Session.File == nil {
		m.mu.Unlock()
		return nil, nil
	}

	turnID := uuid.New().String()
	msg := models.NewChatMessage(turnID, models.ChatRoleUser, text)
	st.Session.ChatHistory = append(st.Session.ChatHistory, msg)
	st.pendingTurns[turnID] = struct{}{}
	st.Session.ChatLoading = true
	st.Session.UpdatedAt = time.Now().UTC()

	epoch := st.epoch
	grounding := st.Session.File.Content
	history := make([]models.ChatMessage, len(st.Session.ChatHistory)-1)
	copy(history, st.Session.ChatHistory[:len(st.Session.ChatHistory)-1])

	m.publishLocked(st)
	m.mu.Unlock()

	go m.runChatTurn(id, epoch, turnID, text, grounding, history)
	return &msg, nil
}

func (m *Manager) runChatTurn(id string, epoch uint64, turnID, question, grounding string, history []models.ChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("chat turn panicked",
				zap.String("session", shortID(id)), zap.Any("panic", r))
			m.completeChatTurn(id, epoch, turnID, fmt.Sprintf("Error: chat panicked: %v", r))
		}
	}()

	reply, err := m.chat.Reply(context.Background(), question, grounding, history)
	if err != nil {
		m.log.Warn("chat turn failed",
			zap.String("session", shortID(id)), zap.Error(err))
		// A failed turn stays visible as a model-authored error entry.
		m.completeChatTurn(id, epoch, turnID, "Error: "+err.Error())
		return
	}
	m.completeChatTurn(id, epoch, turnID, reply)
}

// completeChatTurn appends the model reply for a pending turn. It is
// idempotent: a turn that already settled, or that a reset or newer
// upload orphaned, appends nothing.
func (m *Manager) completeChatTurn(id string, epoch uint64, turnID, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok || st.epoch != epoch {
		return
	}
	if _, pending := st.pendingTurns[turnID]; !pending {
		return
	}
	delete(st.pendingTurns, turnID)

	reply := models.NewChatMessage(uuid.New().String(), models.ChatRoleModel, text)
	reply.ReplyTo = turnID
	st.Session.ChatHistory = append(st.Session.ChatHistory, reply)
	st.Session.ChatLoading = len(st.pendingTurns) > 0
	st.Session.UpdatedAt = time.Now().UTC()
	m.publishLocked(st)
}

// Reset unconditionally clears file, analysis, chat history, and error
// and returns the session to idle. Always succeeds for a live session.
func (m *Manager) Reset(id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	st.epoch++
	st.pendingTurns = make(map[string]struct{})
	st.Session.Status = models.SessionStatusIdle
	st.Session.ChatLoading = false
	st.Session.File = nil
	st.Session.Analysis = nil
	st.Session.ChatHistory = make([]models.ChatMessage, 0)
	st.Session.Error = ""
	st.Session.UpdatedAt = time.Now().UTC()
	st.LastAccessed = time.Now()
	m.publishLocked(st)

	view := st.snapshotLocked()
	return &view, nil
}

// Subscribe registers an observer for a session. The current snapshot
// is delivered immediately, then one per state change. Slow receivers
// drop intermediate snapshots rather than block the hub. The returned
// cancel func is safe to call after the session is gone.
func (m *Manager) Subscribe(id string) (<-chan models.Session, func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[id]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	subID := st.nextSubID
	st.nextSubID++
	ch := make(chan models.Session, 8)
	st.subscribers[subID] = ch
	ch <- st.snapshotLocked()

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		st, ok := m.sessions[id]
		if !ok {
			return
		}
		if sub, ok := st.subscribers[subID]; ok {
			delete(st.subscribers, subID)
			close(sub)
		}
	}
	return ch, cancel, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle past maxAge, keeping ones
// touched within SessionKeepAliveWindow and ones mid-processing.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, st := range m.sessions {
		if st.Session.Status == models.SessionStatusProcessing {
			continue
		}
		if st.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if st.LastAccessed.Before(cutoff) {
			m.deleteLocked(id, st)
			m.log.Info("cleaned up aged session",
				zap.String("session", shortID(id)),
				zap.Duration("idle", time.Since(st.LastAccessed).Round(time.Second)))
		}
	}
}

// evictOldestLocked makes room for one more session when at capacity.
// Sessions mid-processing are never evicted.
func (m *Manager) evictOldestLocked() {
	for len(m.sessions) >= m.maxSessions {
		var oldestID string
		var oldest *State
		for id, st := range m.sessions {
			if st.Session.Status == models.SessionStatusProcessing {
				continue
			}
			if oldest == nil || st.LastAccessed.Before(oldest.LastAccessed) {
				oldestID, oldest = id, st
			}
		}
		if oldest == nil {
			return
		}
		m.deleteLocked(oldestID, oldest)
		m.log.Info("evicted session at capacity", zap.String("session", shortID(oldestID)))
	}
}

func (m *Manager) deleteLocked(id string, st *State) {
	st.epoch++
	for subID, ch := range st.subscribers {
		delete(st.subscribers, subID)
		close(ch)
	}
	delete(m.sessions, id)
}

// publishLocked fans the current snapshot out to every subscriber.
func (m *Manager) publishLocked(st *State) {
	view := st.snapshotLocked()
	for _, ch := range st.subscribers {
		select {
		case ch <- view:
		default:
		}
	}
}

// snapshotLocked copies the session for safe use outside the lock.
// The extracted file content stays server-side.
func (s *State) snapshotLocked() models.Session {
	view := *s.Session
	if s.Session.File != nil {
		f := *s.Session.File
		f.Content = ""
		view.File = &f
	}
	view.ChatHistory = make([]models.ChatMessage, len(s.Session.ChatHistory))
	copy(view.ChatHistory, s.Session.ChatHistory)
	return view
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
