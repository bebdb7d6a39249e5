// Package audit appends a tailable, newline-delimited JSON record of index
// activity for operators. It is fire-and-forget: a failing or absent sink
// never blocks or errors the request path.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/peterbecom/autocompeter/pkg/types"
)

// EventType identifies what happened to trigger an audit record.
type EventType string

const (
	Indexed EventType = "indexed"
	Deleted EventType = "deleted"
	Queried EventType = "queried"
)

// Event is one audit record.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Domain    string    `json:"domain"`
	URL       string    `json:"url,omitempty"`
	Query     string    `json:"query,omitempty"`
	Results   int       `json:"results,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Emitter writes Events to a newline-delimited JSON file.
type Emitter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
	enabled  bool
}

// NewEmitter opens (creating if needed) an audit log under eventsDir. An
// empty eventsDir disables the sink: Emit becomes a no-op.
func NewEmitter(eventsDir string) (*Emitter, error) {
	e := &Emitter{enabled: true}
	if eventsDir == "" {
		e.enabled = false
		return e, nil
	}

	if err := os.MkdirAll(eventsDir, 0755); err != nil {
		return nil, types.WrapError("audit.NewEmitter", types.ErrStorageIO, err)
	}

	e.filePath = filepath.Join(eventsDir, "audit.jsonl")
	file, err := os.OpenFile(e.filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, types.WrapError("audit.NewEmitter", types.ErrStorageIO, err)
	}
	e.file = file
	return e, nil
}

// Emit appends event to the log, filling in ID/Timestamp if unset. It never
// returns an error and never blocks the caller past a single file write.
func (e *Emitter) Emit(event Event) {
	if !e.enabled {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file != nil {
		e.file.Write(data)
	}
}

// Close closes the underlying file, if any.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled = false
	if e.file != nil {
		return e.file.Close()
	}
	return nil
}
