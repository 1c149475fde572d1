package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

// fakeGist serves one Gist's files the way the GitHub API does
type fakeGist struct {
	files    map[string]string
	status   int
	authSeen string
}

func (f *fakeGist) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.authSeen = r.Header.Get("Authorization")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	switch r.Method {
	case http.MethodGet:
		files := map[string]map[string]string{}
		for name, content := range f.files {
			files[name] = map[string]string{"content": content}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "abc", "files": files})
	case http.MethodPatch:
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Files map[string]struct {
				Content string `json:"content"`
			} `json:"files"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		for name, file := range payload.Files {
			f.files[name] = file.Content
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func withGistServer(t *testing.T, gist *fakeGist) {
	t.Helper()
	server := httptest.NewServer(gist)
	t.Cleanup(server.Close)

	orig := gistAPIURL
	gistAPIURL = server.URL
	t.Cleanup(func() { gistAPIURL = orig })
}

func TestGistStore(t *testing.T) {
	gist := &fakeGist{files: map[string]string{}}
	withGistServer(t, gist)

	store, err := NewGistStore("abc", "secret", "", nil)
	require.NoError(t, err)

	exerciseStore(t, store)
	assert.Equal(t, "token secret", gist.authSeen)
	assert.Contains(t, gist.files, DefaultGistFile)
}

func TestGistStore_FallsBackToFirstFile(t *testing.T) {
	gist := &fakeGist{files: map[string]string{
		"z_other.json": `{"races":[],"scraped_at":"2025-10-01T00:00:00Z"}`,
		"a_races.json": `{"races":[{"race":"Mini 10K","date":"6/6","release_date":"January","notes":"Women Only"}],"scraped_at":"2025-10-12T14:00:00Z"}`,
	}}
	withGistServer(t, gist)

	store, err := NewGistStore("abc", "secret", "", nil)
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []race.Race{{Name: "Mini 10K", Date: "6/6", ReleaseDate: "January", Notes: "Women Only"}}, got.Races)
}

func TestGistStore_EmptyFile(t *testing.T) {
	gist := &fakeGist{files: map[string]string{DefaultGistFile: ""}}
	withGistServer(t, gist)

	store, err := NewGistStore("abc", "secret", "", nil)
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGistStore_APIError(t *testing.T) {
	gist := &fakeGist{status: http.StatusUnauthorized}
	withGistServer(t, gist)

	store, err := NewGistStore("abc", "bad", "", nil)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.NotContains(t, err.Error(), "Bad credentials")

	err = store.Save(context.Background(), race.NewSnapshot(testRaces, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestNewGistStore_Validation(t *testing.T) {
	_, err := NewGistStore("", "token", "", nil)
	assert.Error(t, err)

	_, err = NewGistStore("abc", "", "", nil)
	assert.Error(t, err)
}
