package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/crypto"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

// DefaultDataDir is where the file store keeps its snapshot
const DefaultDataDir = "~/.local/share/nyrr-watch"

// FileStore keeps the snapshot as a JSON file on disk
type FileStore struct {
	dataDir string
	key     string
	codec   codec
}

// NewFileStore creates a new FileStore, creating dataDir if needed
func NewFileStore(dataDir, key string, enc *crypto.Encryptor) (*FileStore, error) {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "getting home directory")
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	if key == "" {
		key = DefaultKey
	}

	return &FileStore{
		dataDir: dataDir,
		key:     key,
		codec:   codec{enc: enc},
	}, nil
}

// Path returns the path of the snapshot file
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, s.key+".json")
}

// Load loads the snapshot from disk
func (s *FileStore) Load(ctx context.Context) (*race.Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading snapshot")
	}
	return s.codec.decode(string(data))
}

// Save writes the snapshot to disk, replacing the previous one
func (s *FileStore) Save(ctx context.Context, snapshot *race.Snapshot) error {
	body, err := s.codec.encode(snapshot)
	if err != nil {
		return err
	}

	// Write next to the target and rename so a crash never leaves half a file
	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, []byte(body), 0644); err != nil {
		return errors.Wrap(err, "writing snapshot")
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return errors.Wrap(err, "replacing snapshot")
	}
	return nil
}

// Close is a no-op
func (s *FileStore) Close() error { return nil }
