package upload

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/masrulmollah/DataAnalysis/internal/models"
)

// ErrUploadNotFound is returned when no pending upload matches the given ID.
// Uploads expire after their TTL, so a missing upload may simply be stale.
var ErrUploadNotFound = errors.New("upload not found")

// Upload tracks a chunked upload in progress. Chunks live in memory only
// and are discarded once the upload is assembled or its TTL lapses.
type Upload struct {
	ID          string    `json:"uploadId"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	TotalChunks int       `json:"totalChunks"`
	Encoding    string    `json:"encoding,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	mu       sync.Mutex
	chunks   map[int][]byte
	received int64
}

// Received reports how many chunks have arrived so far.
func (u *Upload) Received() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.chunks)
}

// Manager stores pending chunked uploads with a TTL so abandoned uploads
// free their memory without an explicit cleanup pass.
type Manager struct {
	uploads *cache.Cache
	maxSize int64
	log     *zap.Logger
}

// NewManager creates an upload manager. maxSize caps the assembled file
// size in bytes; ttl bounds how long an idle upload is kept.
func NewManager(maxSize int64, ttl time.Duration, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		uploads: cache.New(ttl, ttl),
		maxSize: maxSize,
		log:     log,
	}
}

// Init registers a new chunked upload and returns its descriptor.
func (m *Manager) Init(fileName string, fileSize int64, totalChunks int, encoding string) (*Upload, error) {
	if fileName == "" {
		return nil, fmt.Errorf("file name is required")
	}
	if totalChunks < 1 {
		return nil, fmt.Errorf("total chunks must be at least 1, got %d", totalChunks)
	}
	if fileSize > m.maxSize {
		return nil, fmt.Errorf("file size %d exceeds limit %d", fileSize, m.maxSize)
	}
	switch encoding {
	case "", "gzip", "binary-gzip":
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}

	u := &Upload{
		ID:          uuid.New().String(),
		FileName:    fileName,
		FileSize:    fileSize,
		TotalChunks: totalChunks,
		Encoding:    encoding,
		CreatedAt:   time.Now(),
		chunks:      make(map[int][]byte),
	}
	m.uploads.Set(u.ID, u, cache.DefaultExpiration)

	m.log.Info("chunked upload started",
		zap.String("upload", shortID(u.ID)),
		zap.String("file", fileName),
		zap.Int("chunks", totalChunks))
	return u, nil
}

// Get returns the pending upload with the given ID.
func (m *Manager) Get(id string) (*Upload, bool) {
	v, ok := m.uploads.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Upload), true
}

// PutChunk stores one chunk. Re-sending an index overwrites the previous
// copy, so client retries are harmless. Each chunk refreshes the TTL.
func (m *Manager) PutChunk(id string, index int, data []byte) (int, error) {
	u, ok := m.Get(id)
	if !ok {
		return 0, ErrUploadNotFound
	}
	if index < 0 || index >= u.TotalChunks {
		return 0, fmt.Errorf("chunk index %d out of range [0,%d)", index, u.TotalChunks)
	}

	u.mu.Lock()
	prev := int64(len(u.chunks[index]))
	next := u.received - prev + int64(len(data))
	if next > m.maxSize {
		u.mu.Unlock()
		m.uploads.Delete(id)
		m.log.Warn("chunked upload exceeded size limit",
			zap.String("upload", shortID(id)),
			zap.Int64("received", next),
			zap.Int64("limit", m.maxSize))
		return 0, fmt.Errorf("upload exceeds size limit %d", m.maxSize)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	u.chunks[index] = buf
	u.received = next
	count := len(u.chunks)
	u.mu.Unlock()

	m.uploads.Set(id, u, cache.DefaultExpiration)
	return count, nil
}

// Complete assembles all chunks in index order, decompressing when the
// upload was initialized with a gzip encoding. The upload is removed on
// success; on failure it stays available so the client can resend the
// missing or broken chunks and try again.
func (m *Manager) Complete(id string) (string, []byte, error) {
	u, ok := m.Get(id)
	if !ok {
		return "", nil, ErrUploadNotFound
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.chunks) != u.TotalChunks {
		return "", nil, fmt.Errorf("upload incomplete: %d of %d chunks received", len(u.chunks), u.TotalChunks)
	}

	var assembled bytes.Buffer
	assembled.Grow(int(u.received))
	for i := 0; i < u.TotalChunks; i++ {
		assembled.Write(u.chunks[i])
	}

	data := assembled.Bytes()
	if u.Encoding == "gzip" || u.Encoding == "binary-gzip" {
		decompressed, err := m.decompress(data, u.FileSize)
		if err != nil {
			return "", nil, &models.IngestionError{Format: "gzip", Err: err}
		}
		data = decompressed
	}

	m.uploads.Delete(id)
	m.log.Info("chunked upload assembled",
		zap.String("upload", shortID(id)),
		zap.String("file", u.FileName),
		zap.Int("bytes", len(data)))
	return u.FileName, data, nil
}

// decompress inflates a gzip payload, enforcing the size cap and the
// original size declared at init time.
func (m *Manager) decompress(data []byte, originalSize int64) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return nil, fmt.Errorf("not a gzip stream")
	}

	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	out, err := io.ReadAll(io.LimitReader(reader, m.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > m.maxSize {
		return nil, fmt.Errorf("decompressed payload exceeds size limit %d", m.maxSize)
	}
	if originalSize > 0 && int64(len(out)) != originalSize {
		return nil, fmt.Errorf("decompressed size mismatch: got %d bytes, expected %d bytes", len(out), originalSize)
	}
	return out, nil
}

// Count reports how many uploads are currently pending.
func (m *Manager) Count() int {
	return m.uploads.ItemCount()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
