package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/nyrr-watch/internal/logger"
	"github.com/pfrederiksen/nyrr-watch/internal/race"
)

const schedule = `Read the FAQ first.

|Race|Date|Release Date|Notes|
|:-|:-|:-|:-|
|Frosty 5K|12/12\*|June||
|Midnight Run|12/31|June|Club Points|

Good luck!`

// isolateEnv unsets variables that would override the test config file
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_PATH", "TARGET_URL", "SOURCE_MODE", "STORAGE_DRIVER", "DATA_DIR",
		"NOTIFY_CHANNELS", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "LOG_LEVEL", "LOG_FORMAT",
	} {
		if v, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { _ = os.Setenv(k, v) })
		}
	}
	orig := logger.Default()
	t.Cleanup(func() { logger.SetDefault(orig) })
}

// fixture serves the schedule page and writes a config pointing at it
func fixture(t *testing.T, page *string) string {
	t.Helper()
	isolateEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(*page))
	}))
	t.Cleanup(server.Close)

	cfg := fmt.Sprintf(`source:
  url: %s
  mode: text
storage:
  driver: file
  data_dir: %s
notify:
  channels: [dryrun]
timezone: UTC
`, server.URL, t.TempDir())

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0600))
	return path
}

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheck_ExitCodes(t *testing.T) {
	page := schedule
	cfg := fixture(t, &page)

	code, out, _ := run("check", "--config", cfg)
	assert.Equal(t, ExitChanges, code, out)
	assert.Contains(t, out, "--- Message 1 ---")
	assert.Contains(t, out, "CHANGED: Frosty 5K | 12/12\\* | June")
	assert.Contains(t, out, "Total: 2 changed of 2 races (first_run)")

	code, out, _ = run("check", "--config", cfg)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "✅ No changes detected")
	assert.Contains(t, out, "No changes detected (2 races).")

	page = strings.Replace(schedule, "|Midnight Run|12/31|June|", "|Midnight Run|12/31|July|", 1)
	code, out, _ = run("check", "--config", cfg, "--format", "json")
	assert.Equal(t, ExitChanges, code)

	var result OutputResult
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, race.ReasonPositional, result.Reason)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, 1, result.Changes[0].Index)
	assert.Equal(t, "July", result.Changes[0].Race.ReleaseDate)
	assert.True(t, result.Saved)
}

func TestCheck_DryRunDoesNotSave(t *testing.T) {
	page := schedule
	cfg := fixture(t, &page)

	code, _, _ := run("check", "--config", cfg, "--dry-run")
	assert.Equal(t, ExitChanges, code)

	code, _, _ = run("check", "--config", cfg, "--dry-run")
	assert.Equal(t, ExitChanges, code, "nothing was stored, so every dry run is a first run")
}

func TestCheck_Refresh(t *testing.T) {
	page := schedule
	cfg := fixture(t, &page)

	code, out, _ := run("check", "--config", cfg, "--refresh")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "Snapshot refreshed successfully (2 races).")
	assert.NotContains(t, out, "--- Message")

	code, _, _ = run("check", "--config", cfg)
	assert.Equal(t, ExitSuccess, code)
}

func TestCheck_Errors(t *testing.T) {
	page := schedule
	cfg := fixture(t, &page)

	code, _, stderr := run("check", "--config", cfg, "--format", "xml")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "invalid format")

	code, _, stderr = run("check", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "Error:")
}

func TestCheck_SourceFailure(t *testing.T) {
	isolateEnv(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("source:\n  url: %s\n  mode: text\nstorage:\n  driver: none\nnotify:\n  channels: [dryrun]\n", server.URL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))

	code, _, stderr := run("check", "--config", path)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "fetching races")
}

func TestParse(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	md := filepath.Join(dir, "post.md")
	require.NoError(t, os.WriteFile(md, []byte(schedule), 0600))

	code, out, _ := run("parse", md)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "  1. Frosty 5K | 12/12\\* | June\n")
	assert.Contains(t, out, "  2. Midnight Run | 12/31 | June | Club Points\n")
	assert.Contains(t, out, "Total: 2 races")

	html := filepath.Join(dir, "page.html")
	require.NoError(t, os.WriteFile(html, []byte(`<table>
<tr><th>Race</th><th>Date</th><th>Release Date</th><th>Notes</th></tr>
<tr><td>Mini 10K</td><td>6/6</td><td>January</td><td>Women Only</td></tr>
</table>`), 0600))

	code, out, _ = run("parse", html, "--format", "json")
	assert.Equal(t, ExitSuccess, code)
	var races []race.Race
	require.NoError(t, json.Unmarshal([]byte(out), &races))
	assert.Equal(t, []race.Race{{Name: "Mini 10K", Date: "6/6", ReleaseDate: "January", Notes: "Women Only"}}, races)
}

func TestParse_Stdin(t *testing.T) {
	isolateEnv(t)
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetArgs([]string{"parse", "--format", "json"})
	cmd.SetIn(strings.NewReader("no table here"))
	cmd.SetOut(&out)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "[]\n", out.String())
}

func TestConfigCmd_Redacts(t *testing.T) {
	isolateEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:very-secret")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	code, out, _ := run("config")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "bot_token:")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "very-secret")
	assert.Contains(t, out, "42")
}
