package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/pipeline-editor/internal/backend"
	"github.com/askiada/pipeline-editor/pkg/editor/model"
)

const document = `{
  "name": "etl",
  "uuid": "p-1",
  "owner": "data-team",
  "steps": {
    "S1": {"uuid": "S1", "title": "Extract", "file_path": "extract.py", "incoming_connections": [], "meta_data": {"position": [0, 0]}},
    "S2": {"uuid": "S2", "title": "Load", "file_path": "load.py", "incoming_connections": ["S1"], "meta_data": {"position": [300, 0]}}
  }
}`

type service struct {
	mu    sync.Mutex
	docs  map[string]string
	posts []string
}

func newService(t *testing.T) (*service, *httptest.Server) {
	t.Helper()

	s := &service{docs: map[string]string{"p-1": document}}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /pipelines/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		doc, ok := s.docs[r.PathValue("uuid")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, doc)
	})
	mux.HandleFunc("POST /pipelines/{uuid}", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if r.PathValue("uuid") == "broken" {
			http.Error(w, "storage offline", http.StatusInternalServerError)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.docs[r.PathValue("uuid")] = string(body)
		s.posts = append(s.posts, r.PathValue("uuid"))
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return s, srv
}

func TestHTTPLoad(t *testing.T) {
	t.Parallel()

	_, srv := newService(t)
	b := backend.NewHTTP(srv.URL, backend.WithTimeout(time.Second))
	defer b.Close()

	doc, err := b.Load(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "etl", doc.Name)
	assert.Equal(t, []string{"S1", "S2"}, doc.StepOrder())

	pipe, dropped, err := model.Deserialize(doc)
	require.NoError(t, err)
	assert.Empty(t, dropped)
	assert.True(t, pipe.HasConnection("S1", "S2"))
}

func TestHTTPLoadErrors(t *testing.T) {
	t.Parallel()

	_, srv := newService(t)
	b := backend.NewHTTP(srv.URL)
	defer b.Close()

	tests := map[string]struct {
		uuid     string
		expected error
	}{
		"not found": {uuid: "p-404", expected: backend.ErrNotFound},
		"empty":     {uuid: "", expected: backend.ErrInvalidUUID},
		"path":      {uuid: "../secrets", expected: backend.ErrInvalidUUID},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := b.Load(context.Background(), tc.uuid)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestHTTPSave(t *testing.T) {
	t.Parallel()

	svc, srv := newService(t)
	b := backend.NewHTTP(srv.URL)
	defer b.Close()

	doc, err := b.Load(context.Background(), "p-1")
	require.NoError(t, err)
	pipe, _, err := model.Deserialize(doc)
	require.NoError(t, err)
	require.NoError(t, pipe.AddStep(model.NewStep("S3", "Report", "report.py", model.WithIncoming("S2"))))

	require.NoError(t, b.Save(context.Background(), pipe.Serialize()))

	svc.mu.Lock()
	stored := svc.docs["p-1"]
	posts := svc.posts
	svc.mu.Unlock()

	assert.Equal(t, []string{"p-1"}, posts)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &decoded))
	assert.Equal(t, "data-team", decoded["owner"])
	assert.Len(t, decoded["steps"], 3)

	reloaded, err := b.Load(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1", "S2", "S3"}, reloaded.StepOrder())
}

func TestHTTPSaveServerError(t *testing.T) {
	t.Parallel()

	_, srv := newService(t)
	b := backend.NewHTTP(srv.URL)
	defer b.Close()

	err := b.Save(context.Background(), model.New("broken", "broken").Serialize())
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "storage offline")
}

func TestHTTPLoadCancelled(t *testing.T) {
	t.Parallel()

	_, srv := newService(t)
	b := backend.NewHTTP(srv.URL)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Load(ctx, "p-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p-1.json"), []byte(document), 0o600))

	b := backend.NewFile(dir)

	doc, err := b.Load(context.Background(), "p-1")
	require.NoError(t, err)
	pipe, _, err := model.Deserialize(doc)
	require.NoError(t, err)
	require.True(t, pipe.RemoveConnection("S1", "S2"))

	require.NoError(t, b.Save(context.Background(), pipe.Serialize()))

	reloaded, err := b.Load(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Empty(t, reloaded.Steps["S2"].IncomingConnections())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"steps": [`), 0o600))
	b := backend.NewFile(dir)

	_, err := b.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	_, err = b.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, model.ErrInvalidJSON)

	_, err = b.Load(context.Background(), "a/b")
	assert.ErrorIs(t, err, backend.ErrInvalidUUID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Save(ctx, model.New("x", "x").Serialize()), context.Canceled)
}
