package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/pfrederiksen/nyrr-watch/internal/crypto"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const (
	// DefaultGistFile is the file inside the Gist that holds the snapshot
	DefaultGistFile = "nyrr_races.json"
	gistTimeout     = 15 * time.Second
)

var gistAPIURL = "https://api.github.com/gists"

// GistStore keeps the snapshot in a GitHub Gist
type GistStore struct {
	gistID      string
	githubToken string
	filename    string
	httpClient  *http.Client
	codec       codec
}

// NewGistStore creates a new Gist-based store
func NewGistStore(gistID, githubToken, filename string, enc *crypto.Encryptor) (*GistStore, error) {
	if gistID == "" {
		return nil, errors.New("gist ID is required")
	}
	if githubToken == "" {
		return nil, errors.New("GitHub token is required")
	}
	if filename == "" {
		filename = DefaultGistFile
	}

	return &GistStore{
		gistID:      gistID,
		githubToken: githubToken,
		filename:    filename,
		httpClient: &http.Client{
			Timeout: gistTimeout,
		},
		codec: codec{enc: enc},
	}, nil
}

// Load retrieves the snapshot from the Gist.
// When the configured file is missing the first file by name is read instead,
// so a Gist created by hand under another name still works.
func (g *GistStore) Load(ctx context.Context) (*race.Snapshot, error) {
	req, err := g.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching gist")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Don't include response body in error to prevent information leakage
		return nil, errors.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	var gistResp struct {
		Files map[string]struct {
			Content string `json:"content"`
		} `json:"files"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&gistResp); err != nil {
		return nil, errors.Wrap(err, "decoding gist response")
	}

	file, exists := gistResp.Files[g.filename]
	if !exists {
		names := make([]string, 0, len(gistResp.Files))
		for name := range gistResp.Files {
			names = append(names, name)
		}
		if len(names) == 0 {
			return nil, nil
		}
		sort.Strings(names)
		file = gistResp.Files[names[0]]
	}

	return g.codec.decode(file.Content)
}

// Save replaces the snapshot file in the Gist
func (g *GistStore) Save(ctx context.Context, snapshot *race.Snapshot) error {
	content, err := g.codec.encode(snapshot)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"files": map[string]interface{}{
			g.filename: map[string]string{
				"content": content,
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling payload")
	}

	req, err := g.newRequest(ctx, http.MethodPatch, payloadBytes)
	if err != nil {
		return err
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "updating gist")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GitHub API error (status %d)", resp.StatusCode)
	}

	return nil
}

// Close is a no-op
func (g *GistStore) Close() error { return nil }

func (g *GistStore) newRequest(ctx context.Context, method string, body []byte) (*http.Request, error) {
	url := fmt.Sprintf("%s/%s", gistAPIURL, g.gistID)

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}

	req.Header.Set("Authorization", fmt.Sprintf("token %s", g.githubToken))
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
