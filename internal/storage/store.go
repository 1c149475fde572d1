package storage

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/crypto"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

// DefaultKey identifies the tracked snapshot
const DefaultKey = "nyrr-races"

// ErrUnknownDriver is returned by Open for an unsupported driver
var ErrUnknownDriver = errors.New("unknown storage driver")

// Store persists the single tracked snapshot
type Store interface {
	// Load returns the stored snapshot, or nil when nothing has been stored yet
	Load(ctx context.Context) (*race.Snapshot, error)
	// Save replaces the stored snapshot
	Save(ctx context.Context, snapshot *race.Snapshot) error
	Close() error
}

// Config configures storage.
//
// Driver values: "file", "gist", "sqlite", "redis", "none".
type Config struct {
	Driver        string
	Key           string
	EncryptionKey string

	// file
	DataDir string

	// gist
	GistID      string
	GithubToken string
	GistFile    string

	// sqlite
	Path        string
	BusyTimeout time.Duration

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open initializes the configured store
func Open(cfg Config) (Store, error) {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	enc := crypto.NewEncryptor(cfg.EncryptionKey)

	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return NewFileStore(cfg.DataDir, cfg.Key, enc)
	case "gist":
		return NewGistStore(cfg.GistID, cfg.GithubToken, cfg.GistFile, enc)
	case "sqlite", "sqlite3":
		return NewSQLiteStore(cfg.Path, cfg.Key, cfg.BusyTimeout, enc)
	case "redis":
		return NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Key, enc)
	case "none":
		return Nop{}, nil
	default:
		return nil, errors.Wrap(ErrUnknownDriver, cfg.Driver)
	}
}

// Nop is a Store that keeps nothing
type Nop struct{}

func (Nop) Load(context.Context) (*race.Snapshot, error) { return nil, nil }
func (Nop) Save(context.Context, *race.Snapshot) error   { return nil }
func (Nop) Close() error                                 { return nil }

// codec turns snapshots into stored bodies and back
type codec struct {
	enc *crypto.Encryptor
}

func (c codec) encode(snapshot *race.Snapshot) (string, error) {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "encoding snapshot")
	}
	body, err := c.enc.Encrypt(data)
	if err != nil {
		return "", errors.Wrap(err, "encrypting snapshot")
	}
	return body, nil
}

// decode parses a stored body. An empty body means nothing was stored.
func (c codec) decode(body string) (*race.Snapshot, error) {
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	data, err := c.enc.Decrypt(body)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting snapshot")
	}

	var snapshot race.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(err, "parsing snapshot")
	}
	if snapshot.Races == nil {
		snapshot.Races = make([]race.Race, 0)
	}
	return &snapshot, nil
}
