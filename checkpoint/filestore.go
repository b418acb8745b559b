package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned by Load when no snapshot exists at the locator.
var ErrNotFound = errors.New("checkpoint not found")

// Store persists snapshots. Save returns an opaque locator that Load accepts.
type Store interface {
	Save(s *Snapshot) (string, error)
	Load(locator string) (*Snapshot, error)
}

// FileStore writes snapshots as JSON files in a directory. Writes go through
// a temp file and a rename so a crash never leaves a partial snapshot, and
// the locator is the final file path.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save writes the snapshot atomically and returns its path.
func (fs *FileStore) Save(s *Snapshot) (string, error) {
	if s.Version == 0 {
		s.Version = Version
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(fs.dir, ".checkpoint-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close snapshot: %w", err)
	}

	path := filepath.Join(fs.dir, fmt.Sprintf("%s-turn%04d.json", s.ConversationID, s.TurnCount))
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("finalize snapshot: %w", err)
	}
	return path, nil
}

// Load reads and validates the snapshot at the given path.
func (fs *FileStore) Load(locator string) (*Snapshot, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", locator, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", locator, err)
	}
	return &s, nil
}

// Latest returns the path of the highest-turn snapshot for a conversation,
// or ErrNotFound when none exist.
func (fs *FileStore) Latest(conversationID string) (string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return "", fmt.Errorf("list checkpoints: %w", err)
	}
	prefix := conversationID + "-turn"
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: conversation %s", ErrNotFound, conversationID)
	}
	sort.Strings(names)
	return filepath.Join(fs.dir, names[len(names)-1]), nil
}
