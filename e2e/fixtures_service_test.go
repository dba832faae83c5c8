//go:build e2e && unix

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// exportService is an in-process stand-in for the DUP export endpoint
type exportService struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []map[string]any
	repos    []map[string]string
	catalogs map[string]string
}

// serviceOption configures the fake export service
type serviceOption func(*exportService)

// withRepository registers a repository and its raw class metadata document
func withRepository(id, name, classes string) serviceOption {
	return func(s *exportService) {
		s.repos = append(s.repos, map[string]string{"repoId": id, "name": name})
		s.catalogs[id] = classes
	}
}

// startService runs the fake export service for the rest of the test
func startService(t *testing.T, options ...serviceOption) *exportService {
	t.Helper()
	s := &exportService{catalogs: make(map[string]string)}
	for _, opt := range options {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repositories", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.repos)
	})
	mux.HandleFunc("GET /classes", func(w http.ResponseWriter, r *http.Request) {
		doc, ok := s.catalogs[r.URL.Query().Get("repoId")]
		if !ok {
			http.Error(w, `{"message":"unknown repository"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, doc)
	})
	mux.HandleFunc("POST /export", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, body)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = io.WriteString(w, "DUP-ARTIFACT")
	})

	s.server = httptest.NewServer(mux)
	t.Cleanup(s.server.Close)
	return s
}

// received returns the decoded export request bodies so far
func (s *exportService) received() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

// onlyRequest returns the single export request the service received
func (s *exportService) onlyRequest(t *testing.T) map[string]any {
	t.Helper()
	reqs := s.received()
	require.Len(t, reqs, 1, "export requests")
	return reqs[0]
}

// classNames lists the classSelections of a request in order
func classNames(t *testing.T, req map[string]any) []string {
	t.Helper()
	classes, ok := req["classSelections"].([]any)
	require.True(t, ok, "classSelections is a list")
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.(map[string]any)["className"].(string))
	}
	return names
}

// newHome creates a temporary $HOME with a config file pointing at s.
// Artifacts land in home/downloads.
func newHome(t *testing.T, s *exportService) (home, configPath string) {
	t.Helper()
	home = t.TempDir()
	downloads := filepath.Join(home, "downloads")
	require.NoError(t, os.MkdirAll(downloads, 0o755))

	configPath = filepath.Join(home, "config.toml")
	content := fmt.Sprintf(`version = 1
endpoint = %q
page_size = 5
request_timeout = "5s"
export_timeout = "10s"
download_dir = %q

[logging]
level = "debug"
format = "text"
file = %q
`, s.server.URL, downloads, filepath.Join(home, "dupexport.log"))

	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return home, configPath
}

// start launches the TUI against a fresh service and waits for the title
func start(t *testing.T, options ...serviceOption) (*session, *exportService, string) {
	t.Helper()
	svc := startService(t, options...)
	home, configPath := newHome(t, svc)

	s := launch(t, home, "--config", configPath)
	s.expect("dupexport")
	return s, svc, filepath.Join(home, "downloads")
}

const personCatalog = `{
  "classes": {
    "Person": {"slots": {"name": {"range": "string"}, "age": {"range": "integer"}}},
    "Car": {"slots": {"plate": {"range": "string"}}}
  }
}`

// alphabetCatalog has seven classes, more than one page of five
const alphabetCatalog = `{
  "Alpha": {"slots": {"a": {}}},
  "Bravo": {"slots": {"b": {}}},
  "Charlie": {"slots": {"c": {}}},
  "Delta": {"slots": {"d": {}}},
  "Echo": {"slots": {"e": {}}},
  "Foxtrot": {"slots": {"f": {}}},
  "Golf": {"slots": {"g": {}}}
}`
