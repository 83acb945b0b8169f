package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/deusflow/maralert/internal/logger"
)

// stateFile is the on-disk shape. The legacy key names are accepted on load
// so older state files keep their history.
type stateFile struct {
	SeenIDs    []string `json:"seen_ids"`
	LastRunUTC string   `json:"last_run_utc,omitempty"`

	Processed     []string `json:"processed,omitempty"`
	ProcessedURLs []string `json:"processed_urls,omitempty"`
	Seen          []string `json:"seen,omitempty"`
}

// FileStore keeps the seen-id set in a local JSON file. Load tolerates a
// missing or corrupt file; Save rewrites the whole set atomically.
type FileStore struct {
	path string
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		seen: make(map[string]struct{}),
	}
}

// Load reads prior state. Any read or parse problem yields an empty set and
// a warning, never an error: a broken state file must not stop alerting.
func (s *FileStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen = make(map[string]struct{})

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("state file unreadable, starting fresh", "path", s.path, "error", err)
		}
		return
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("state file corrupt, starting fresh", "path", s.path, "error", err)
		return
	}

	ids := st.SeenIDs
	if len(ids) == 0 {
		for _, legacy := range [][]string{st.Processed, st.ProcessedURLs, st.Seen} {
			if len(legacy) > 0 {
				ids = legacy
				break
			}
		}
	}
	for _, id := range ids {
		if id != "" {
			s.seen[id] = struct{}{}
		}
	}
	logger.Debug("state loaded", "path", s.path, "seen", len(s.seen))
}

// IsNew reports whether the id has not been seen in any prior run.
func (s *FileStore) IsNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[id]
	return !ok
}

// MarkSeen records an id. Marking twice is a no-op.
func (s *FileStore) MarkSeen(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[id] = struct{}{}
}

// Save persists the full id set and the last-run stamp. The write goes to a
// temp file in the same directory followed by a rename, so a crash mid-write
// can lose at most this run's additions, never prior history.
func (s *FileStore) Save(lastRun time.Time) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	st := stateFile{
		SeenIDs:    ids,
		LastRunUTC: lastRun.UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".maralert-state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
