package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"techevents/eventworker/logger"
	apperr "techevents/eventworker/pkg/errors"
	"techevents/eventworker/services/worker"
)

// filenameTimeLayout matches the consolidated_events_<timestamp>.json naming
// downstream tooling globs for
const filenameTimeLayout = "2006-01-02_15-04-05"

// FileStore persists scrape reports as timestamped JSON files
type FileStore struct {
	dir string
	log *logger.Logger
}

// NewFileStore creates a store writing into dir, created on demand
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir: dir,
		log: logger.ForStorage(),
	}
}

// SaveReport writes the report verbatim, pretty-printed, and returns the
// file path
func (s *FileStore) SaveReport(report *worker.Report) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", apperr.NewStorage("failed to create output directory", err)
	}

	filename := filepath.Join(s.dir, fmt.Sprintf("consolidated_events_%s.json", time.Now().Format(filenameTimeLayout)))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", apperr.NewStorage("failed to encode report", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return "", apperr.NewStorage("failed to write report file", err)
	}

	s.log.Info().Str("path", filename).Int("bytes", len(data)).Msg("Report saved")
	return filename, nil
}
