package session

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/masrulmollah/DataAnalysis/internal/extract"
	"github.com/masrulmollah/DataAnalysis/internal/models"
	"github.com/masrulmollah/DataAnalysis/internal/testutil"
)

func newTestManager(a Analyzer, c Chatter) *Manager {
	return NewManager(extract.NewRegistry(), a, c, nil, 0)
}

func waitFor(t *testing.T, m *Manager, id string, pred func(*models.Session) bool, desc string) *models.Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s, ok := m.Get(id); ok && pred(s) {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	s, _ := m.Get(id)
	t.Fatalf("timed out waiting for %s (last: %+v)", desc, s)
	return nil
}

func ready(s *models.Session) bool {
	return s.Status == models.SessionStatusReady
}

func idleWithError(s *models.Session) bool {
	return s.Status == models.SessionStatusIdle && s.Error != ""
}

func settledHistory(n int) func(*models.Session) bool {
	return func(s *models.Session) bool {
		return len(s.ChatHistory) >= n && !s.ChatLoading
	}
}

func TestUploadToReady(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "hi"})

	sess := m.Create()
	if sess.Status != models.SessionStatusIdle {
		t.Fatalf("new session status = %s, want idle", sess.Status)
	}

	if err := m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2")); err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}

	s := waitFor(t, m, sess.ID, ready, "ready status")
	if s.Analysis == nil || s.Analysis.Summary != "ok" {
		t.Errorf("analysis = %+v, want stub result", s.Analysis)
	}
	if len(s.Analysis.KeyInsights) != 0 || len(s.Analysis.ChartData) != 0 {
		t.Errorf("expected empty slices in stub result, got %+v", s.Analysis)
	}
	if s.File == nil || s.File.Name != "data.csv" || s.File.Type != "csv" {
		t.Errorf("file = %+v, want data.csv/csv", s.File)
	}
	if s.File.Content != "" {
		t.Errorf("view snapshot leaked file content %q", s.File.Content)
	}
	if len(s.ChatHistory) != 0 {
		t.Errorf("chat history = %d messages, want empty", len(s.ChatHistory))
	}
	if s.Error != "" {
		t.Errorf("error = %q, want empty", s.Error)
	}

	full, ok := m.Export(sess.ID)
	if !ok {
		t.Fatal("Export failed")
	}
	if full.File.Content != "a,b\n1,2" {
		t.Errorf("exported content = %q, want original text", full.File.Content)
	}
}

func TestUploadUnsupportedFormat(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{})

	sess := m.Create()
	if err := m.StartAnalysis(sess.ID, "report.docx", []byte("doc bytes")); err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}

	s := waitFor(t, m, sess.ID, idleWithError, "idle with error")
	if !strings.Contains(s.Error, "unsupported file format") {
		t.Errorf("error = %q, want unsupported format message", s.Error)
	}
	if s.File != nil || s.Analysis != nil {
		t.Errorf("file/analysis should stay unset, got %+v / %+v", s.File, s.Analysis)
	}
}

func TestUploadAnalysisFailure(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Err: fmt.Errorf("model overloaded")}, &testutil.StubChatter{})

	sess := m.Create()
	if err := m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2")); err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}

	s := waitFor(t, m, sess.ID, idleWithError, "idle with error")
	if !strings.Contains(s.Error, "model overloaded") {
		t.Errorf("error = %q, want analyzer failure surfaced", s.Error)
	}
	if s.File != nil || s.Analysis != nil {
		t.Error("file/analysis must remain unset after analysis failure")
	}
}

func TestUploadWhileProcessingRejected(t *testing.T) {
	block := make(chan struct{})
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis(), Block: block}, &testutil.StubChatter{})

	sess := m.Create()
	if err := m.StartAnalysis(sess.ID, "data.csv", []byte("a,b")); err != nil {
		t.Fatalf("StartAnalysis failed: %v", err)
	}
	if err := m.StartAnalysis(sess.ID, "other.csv", []byte("c,d")); err != ErrSessionBusy {
		t.Fatalf("second StartAnalysis = %v, want ErrSessionBusy", err)
	}

	close(block)
	waitFor(t, m, sess.ID, ready, "ready status")
}

func TestSendMessageSuccess(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "two columns"})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	msg, err := m.SendMessage(sess.ID, "what columns are there?")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if msg == nil || msg.Role != models.ChatRoleUser || msg.Text != "what columns are there?" {
		t.Fatalf("sent message = %+v, want optimistic user entry", msg)
	}

	s := waitFor(t, m, sess.ID, settledHistory(2), "settled chat turn")
	if len(s.ChatHistory) != 2 {
		t.Fatalf("history = %d messages, want exactly 2", len(s.ChatHistory))
	}
	if s.ChatHistory[0].Role != models.ChatRoleUser || s.ChatHistory[0].Text != "what columns are there?" {
		t.Errorf("first message = %+v, want the user question", s.ChatHistory[0])
	}
	if s.ChatHistory[1].Role != models.ChatRoleModel || s.ChatHistory[1].Text != "two columns" {
		t.Errorf("second message = %+v, want the model reply", s.ChatHistory[1])
	}
	if s.ChatHistory[1].ReplyTo != s.ChatHistory[0].ID {
		t.Errorf("reply.ReplyTo = %q, want %q", s.ChatHistory[1].ReplyTo, s.ChatHistory[0].ID)
	}
	if s.ChatLoading {
		t.Error("chatLoading should clear after the turn settles")
	}
}

func TestSendMessageFailureSynthesizesErrorReply(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Err: fmt.Errorf("boom")})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	if _, err := m.SendMessage(sess.ID, "hello?"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	s := waitFor(t, m, sess.ID, settledHistory(2), "settled chat turn")
	if len(s.ChatHistory) != 2 {
		t.Fatalf("history = %d messages, want exactly 2", len(s.ChatHistory))
	}
	reply := s.ChatHistory[1]
	if reply.Role != models.ChatRoleModel {
		t.Errorf("reply role = %s, want model", reply.Role)
	}
	if !strings.HasPrefix(reply.Text, "Error: ") {
		t.Errorf("reply text = %q, want Error: prefix", reply.Text)
	}
	if s.ChatLoading {
		t.Error("chatLoading should clear even when the call fails")
	}
}

func TestSendMessageWithoutFileIsNoOp(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "hi"})

	sess := m.Create()
	msg, err := m.SendMessage(sess.ID, "anyone there?")
	if err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if msg != nil {
		t.Fatalf("SendMessage = %+v, want nil no-op", msg)
	}

	s, _ := m.Get(sess.ID)
	if len(s.ChatHistory) != 0 {
		t.Errorf("history length = %d, want unchanged 0", len(s.ChatHistory))
	}
	if s.Error != "" {
		t.Errorf("no-op recorded error %q", s.Error)
	}
}

func TestConcurrentSendMessages(t *testing.T) {
	block := make(chan struct{})
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "ack", Block: block})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	first, err := m.SendMessage(sess.ID, "first")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	second, err := m.SendMessage(sess.ID, "second")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	s, _ := m.Get(sess.ID)
	if !s.ChatLoading || len(s.ChatHistory) != 2 {
		t.Fatalf("before completion: loading=%v history=%d, want true/2", s.ChatLoading, len(s.ChatHistory))
	}

	close(block)
	s = waitFor(t, m, sess.ID, settledHistory(4), "both turns settled")
	if len(s.ChatHistory) != 4 {
		t.Fatalf("history = %d messages, want 4", len(s.ChatHistory))
	}

	replies := map[string]bool{}
	for _, msg := range s.ChatHistory {
		if msg.Role == models.ChatRoleModel {
			replies[msg.ReplyTo] = true
		}
	}
	if !replies[first.ID] || !replies[second.ID] {
		t.Errorf("each turn needs exactly one reply, got replyTo set %v", replies)
	}
}

func TestNewUploadResetsChatHistory(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "hi"})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	m.SendMessage(sess.ID, "hello")
	waitFor(t, m, sess.ID, settledHistory(2), "settled chat turn")

	if err := m.StartAnalysis(sess.ID, "data2.csv", []byte("c,d\n3,4")); err != nil {
		t.Fatalf("second StartAnalysis failed: %v", err)
	}
	s := waitFor(t, m, sess.ID, ready, "ready after second upload")
	if len(s.ChatHistory) != 0 {
		t.Errorf("history = %d messages after new upload, want 0", len(s.ChatHistory))
	}
	if s.File.Name != "data2.csv" {
		t.Errorf("file = %s, want data2.csv", s.File.Name)
	}
}

func TestResetClearsEverything(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "hi"})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")
	m.SendMessage(sess.ID, "hello")
	waitFor(t, m, sess.ID, settledHistory(2), "settled chat turn")

	s, err := m.Reset(sess.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s.Status != models.SessionStatusIdle {
		t.Errorf("status = %s, want idle", s.Status)
	}
	if s.File != nil || s.Analysis != nil || len(s.ChatHistory) != 0 || s.Error != "" {
		t.Errorf("reset left state behind: %+v", s)
	}
}

func TestStaleAnalysisDiscardedAfterReset(t *testing.T) {
	block := make(chan struct{})
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis(), Block: block}, &testutil.StubChatter{})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))

	if _, err := m.Reset(sess.ID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	close(block)
	time.Sleep(100 * time.Millisecond)

	s, _ := m.Get(sess.ID)
	if s.Status != models.SessionStatusIdle {
		t.Errorf("status = %s, stale completion must not resurrect the session", s.Status)
	}
	if s.Analysis != nil || s.File != nil {
		t.Error("stale analysis result was stored after reset")
	}
}

func TestStaleChatReplyDiscardedAfterReset(t *testing.T) {
	block := make(chan struct{})
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "late", Block: block})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	m.SendMessage(sess.ID, "hello")
	if _, err := m.Reset(sess.ID); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	close(block)
	time.Sleep(100 * time.Millisecond)

	s, _ := m.Get(sess.ID)
	if len(s.ChatHistory) != 0 {
		t.Errorf("history = %d messages, stale reply must be discarded", len(s.ChatHistory))
	}
	if s.ChatLoading {
		t.Error("chatLoading stuck after reset")
	}
}

func TestDuplicateTurnCompletionIgnored(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "once"})

	sess := m.Create()
	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))
	waitFor(t, m, sess.ID, ready, "ready status")

	msg, _ := m.SendMessage(sess.ID, "hello")
	waitFor(t, m, sess.ID, settledHistory(2), "settled chat turn")

	m.mu.RLock()
	epoch := m.sessions[sess.ID].epoch
	m.mu.RUnlock()

	// A duplicate completion signal for an already settled turn.
	m.completeChatTurn(sess.ID, epoch, msg.ID, "again")

	s, _ := m.Get(sess.ID)
	if len(s.ChatHistory) != 2 {
		t.Errorf("history = %d messages after duplicate completion, want 2", len(s.ChatHistory))
	}
}

func TestSessionNotFound(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{})

	if err := m.StartAnalysis("nope", "data.csv", []byte("a")); err != ErrSessionNotFound {
		t.Errorf("StartAnalysis = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.SendMessage("nope", "hi"); err != ErrSessionNotFound {
		t.Errorf("SendMessage = %v, want ErrSessionNotFound", err)
	}
	if _, err := m.Reset("nope"); err != ErrSessionNotFound {
		t.Errorf("Reset = %v, want ErrSessionNotFound", err)
	}
	if _, ok := m.Get("nope"); ok {
		t.Error("Get found a session that does not exist")
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	m := NewManager(extract.NewRegistry(), &testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{}, nil, 2)

	first := m.Create()
	time.Sleep(5 * time.Millisecond)
	m.Create()
	time.Sleep(5 * time.Millisecond)
	m.Create()

	if m.Count() != 2 {
		t.Fatalf("session count = %d, want capacity 2", m.Count())
	}
	if _, ok := m.Get(first.ID); ok {
		t.Error("oldest session should have been evicted")
	}
}

func TestCleanupOldSessions(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{})

	aged := m.Create()
	fresh := m.Create()

	m.mu.Lock()
	m.sessions[aged.ID].LastAccessed = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.CleanupOldSessions(30 * time.Minute)

	if _, ok := m.Get(aged.ID); ok {
		t.Error("aged session survived cleanup")
	}
	if _, ok := m.Get(fresh.ID); !ok {
		t.Error("fresh session was cleaned up")
	}
}

func TestSubscribePushesSnapshots(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{Text: "hi"})

	sess := m.Create()
	ch, cancel, err := m.Subscribe(sess.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	initial := recvSnapshot(t, ch)
	if initial.Status != models.SessionStatusIdle {
		t.Errorf("initial snapshot status = %s, want idle", initial.Status)
	}

	m.StartAnalysis(sess.ID, "data.csv", []byte("a,b\n1,2"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if time.Now().After(deadline) {
			t.Fatal("never observed ready snapshot")
		}
		s := recvSnapshot(t, ch)
		if s.Status == models.SessionStatusReady {
			if s.File == nil || s.File.Content != "" {
				t.Errorf("pushed snapshot file = %+v, want metadata without content", s.File)
			}
			break
		}
	}
}

func TestSubscribeChannelClosedOnDelete(t *testing.T) {
	m := newTestManager(&testutil.StubAnalyzer{Result: testutil.SampleAnalysis()}, &testutil.StubChatter{})

	sess := m.Create()
	ch, cancel, err := m.Subscribe(sess.ID)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	recvSnapshot(t, ch)

	if !m.Delete(sess.ID) {
		t.Fatal("Delete failed")
	}

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after delete")
		}
	case <-time.After(time.Second):
		t.Error("channel not closed after delete")
	}

	// cancel after delete must not panic
	cancel()
}

func recvSnapshot(t *testing.T, ch <-chan models.Session) models.Session {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return models.Session{}
}
