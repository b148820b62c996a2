package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/germanamz/koinonia/pkg/bibledb"
	"github.com/germanamz/koinonia/pkg/events"
	"github.com/germanamz/koinonia/pkg/passage"
	"github.com/germanamz/koinonia/pkg/sse"
	"github.com/germanamz/koinonia/pkg/studytools"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "missing.env")))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAsk_Plain(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		sw := sse.NewWriter(w)
		for _, e := range []events.Event{
			{Kind: events.KindToolCallStart, Data: events.ToolCallStart{ID: "toolu_1", Name: studytools.ReadPassage}},
			events.Thinking("hidden unless verbose"),
			events.Text("In the beginning "),
			events.Text("was the Word."),
			events.Done(),
		} {
			data, err := e.Payload()
			assert.NoError(t, err)
			assert.NoError(t, sw.Write(string(e.Kind), data))
		}
	}))
	defer ts.Close()

	out, err := execute(t, "ask", "--plain", "--server", ts.URL, "--api-key", "secret", "What", "is", "the", "Word?")
	require.NoError(t, err)

	assert.Contains(t, out, "⏺ read_passage")
	assert.Contains(t, out, "In the beginning was the Word.")
	assert.NotContains(t, out, "hidden unless verbose")
}

func TestAsk_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer ts.Close()

	_, err := execute(t, "ask", "--plain", "--server", ts.URL, "hello")
	assert.ErrorContains(t, err, "Invalid API key")
}

func TestParsePanel(t *testing.T) {
	p, err := parsePanel("KJV 1 Corinthians 13")
	require.NoError(t, err)
	assert.Equal(t, studytools.Panel{Translation: "KJV", BookName: "1 Corinthians", Chapter: 13}, p)

	_, err = parsePanel("KJV John")
	assert.Error(t, err)

	_, err = parsePanel("KJV John three")
	assert.ErrorContains(t, err, "invalid chapter")
}

func TestTranslations(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "bible.db")

	db, err := bibledb.Open(dbPath, false)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.AddTranslation(ctx, passage.Translation{ShortName: "KJV", FullName: "King James Version", Language: "en", Direction: "ltr"}))
	require.NoError(t, db.Close())

	cfgPath := filepath.Join(dir, "koinonia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, fmt.Appendf(nil, "bible_db: %s\n", dbPath), 0o600))

	out, err := execute(t, "translations", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "KJV   King James Version")
}

func TestTranslations_NoBibleDB(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "koinonia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: info\n"), 0o600))

	_, err := execute(t, "translations", "--config", cfgPath)
	assert.ErrorContains(t, err, "bible_db is not configured")
}

func TestTier(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "koinonia.yaml")
	require.NoError(t, os.WriteFile(cfgPath, fmt.Appendf(nil, "store_db: %s\n", filepath.Join(dir, "store.db")), 0o600))

	out, err := execute(t, "tier", "dev-1", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "dev-1: free, 0 of 30 messages this month\n", out)

	out, err = execute(t, "tier", "dev-1", "ministry", "--config", cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "dev-1: ministry, 0 of 800 messages this month\n", out)

	_, err = execute(t, "tier", "dev-1", "platinum", "--config", cfgPath)
	assert.ErrorContains(t, err, `unknown tier "platinum"`)
}
