// Package harness provides E2E testing utilities for impit.
package harness

import (
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/artpar/impit/e2e/testserver"
)

// E2EHarness is the main test orchestrator.
type E2EHarness struct {
	t       *testing.T
	server  *testserver.Server
	tmpDir  string
	store   string
	timeout time.Duration
}

// Config configures the harness.
type Config struct {
	ServerHandlers map[string]http.HandlerFunc
	Store          string        // Default: sqlite
	Timeout        time.Duration // Default: 5 seconds
}

// New creates a new E2E harness.
func New(t *testing.T, cfg Config) *E2EHarness {
	t.Helper()

	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Store == "" {
		cfg.Store = "sqlite"
	}

	h := &E2EHarness{
		t:       t,
		store:   cfg.Store,
		timeout: cfg.Timeout,
	}

	// Create temporary directory for the cookie store
	tmpDir, err := os.MkdirTemp("", "impit-e2e-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	h.tmpDir = tmpDir

	// Keep the user's config and environment out of the run
	t.Setenv("HOME", tmpDir)
	t.Setenv("IMPIT_DATA_DIR", "")
	t.Setenv("IMPIT_LOG_LEVEL", "")

	// Start test server if handlers provided
	if len(cfg.ServerHandlers) > 0 {
		h.server = testserver.New(cfg.ServerHandlers)
	}

	t.Cleanup(h.cleanup)
	return h
}

func (h *E2EHarness) cleanup() {
	if h.server != nil {
		h.server.Close()
	}
	os.RemoveAll(h.tmpDir)
}

// ServerURL returns the test server URL.
func (h *E2EHarness) ServerURL() string {
	if h.server == nil {
		return ""
	}
	return h.server.URL
}

// Server returns the recording test server, or nil without handlers.
func (h *E2EHarness) Server() *testserver.Server {
	return h.server
}

// TmpDir returns the temporary directory path.
func (h *E2EHarness) TmpDir() string {
	return h.tmpDir
}

// CLI returns a CLI runner for this harness.
func (h *E2EHarness) CLI() *CLIRunner {
	return &CLIRunner{harness: h}
}
