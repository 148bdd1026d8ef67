package storage

import (
	"log/slog"
	"sync"
)

// WriterRegistry manages multiple JSONLWriter instances, one per segment+type
// combination, so each tab's traffic lands in its own directory.
type WriterRegistry struct {
	baseDir    string
	maxSizeMB  int
	bufferSize int

	// writers maps segment -> dataType -> writer
	// e.g., "signup_cloud_oracle_com" -> "http" -> *JSONLWriter
	writers map[string]map[string]*JSONLWriter
	mu      sync.RWMutex
}

// NewWriterRegistry creates a new WriterRegistry for managing multiple JSONL writers.
func NewWriterRegistry(baseDir string, bufferSize int, maxSizeMB int) *WriterRegistry {
	return &WriterRegistry{
		baseDir:    baseDir,
		maxSizeMB:  maxSizeMB,
		bufferSize: bufferSize,
		writers:    make(map[string]map[string]*JSONLWriter),
	}
}

// GetWriter returns (or creates) a JSONLWriter for the given segment and data
// type. dataType is "http" or "websocket"; shortID is the short identifier of
// the browser tab (first 8 chars of the target ID).
func (r *WriterRegistry) GetWriter(segment, dataType, shortID string) *JSONLWriter {
	r.mu.RLock()
	if typeMap, ok := r.writers[segment]; ok {
		if writer, ok := typeMap[dataType]; ok {
			r.mu.RUnlock()
			return writer
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring the write lock.
	if typeMap, ok := r.writers[segment]; ok {
		if writer, ok := typeMap[dataType]; ok {
			return writer
		}
	}

	subDir := segment + "/" + dataType
	writer := NewJSONLWriterWithShortID(r.baseDir, subDir, r.bufferSize, r.maxSizeMB, shortID)

	if _, ok := r.writers[segment]; !ok {
		r.writers[segment] = make(map[string]*JSONLWriter)
	}
	r.writers[segment][dataType] = writer

	slog.Debug("created JSONL writer", "segment", segment, "data_type", dataType, "short_id", shortID)
	return writer
}

// CloseAll closes every writer in the registry.
func (r *WriterRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for segment, typeMap := range r.writers {
		for dataType, writer := range typeMap {
			if err := writer.Close(); err != nil {
				slog.Debug("JSONL writer close failed", "segment", segment, "data_type", dataType, "error", err)
			}
		}
	}
	r.writers = make(map[string]map[string]*JSONLWriter)
}
