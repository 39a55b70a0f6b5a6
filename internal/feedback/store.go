// Package feedback appends user ratings to a line-delimited JSON
// training log.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/factlens/backend/internal/verdict"
	"github.com/factlens/backend/pkg/logger"
)

// Record is one training example: the summary that was checked, the
// result the user saw, and their rating.
type Record struct {
	Input  string         `json:"input"`
	Output verdict.Result `json:"output"`
	Rating int            `json:"rating"`
}

// Store appends records to an append-only file, one JSON object per
// line. Appends are serialized so concurrent submissions cannot
// interleave within a line.
type Store struct {
	mu   sync.Mutex
	path string
}

func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create feedback dir: %w", err)
		}
	}

	return &Store{path: path}, nil
}

func (s *Store) Append(record Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open feedback log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append feedback: %w", err)
	}

	logger.Info("Feedback appended",
		zap.String("path", s.path),
		zap.Int("rating", record.Rating),
	)

	return nil
}
