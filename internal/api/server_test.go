package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/akelsh/seek/internal/indexer"
	"github.com/akelsh/seek/internal/logging"
	"github.com/akelsh/seek/internal/monitor"
	"github.com/akelsh/seek/internal/scanner"
	"github.com/akelsh/seek/internal/search"
	"github.com/akelsh/seek/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	pool, err := store.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("store.Open failed: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	logger := logging.NewLogger("api-test", logging.ERROR, io.Discard)
	st := store.New(pool, logger)

	noExclude := func(path, name string, isDir bool) bool { return false }
	logFn := func(format string, args ...interface{}) { logger.Warn(format, args...) }
	factory := scanner.NewFactory(noExclude, logFn)
	sc := scanner.New(factory, logFn)

	idx := indexer.New(st, pool, sc, logger, 0, 0)
	mon := monitor.New(st, factory, logger, noExclude, 0, 0)
	searchSvc := search.New(st, logger)

	return NewServer(context.Background(), searchSvc, st, idx, mon, []string{t.TempDir()}, logger)
}

func TestHandleSearchReturnsEmptyResultForEmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=", nil)
	rec := httptest.NewRecorder()

	srv.handleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body searchResultJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Entries) != 0 {
		t.Fatalf("expected no entries, got %v", body.Entries)
	}
}

func TestHandleStatusReportsUnindexedInitially(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()

	srv.handleStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["is_indexed"] != false {
		t.Fatalf("expected is_indexed=false, got %v", body["is_indexed"])
	}
}

func TestHandleIndexFullRejectsConcurrentRuns(t *testing.T) {
	srv := newTestServer(t)

	req1 := httptest.NewRequest(http.MethodPost, "/api/index/full", nil)
	rec1 := httptest.NewRecorder()
	srv.handleIndexFull(rec1, req1)
	if rec1.Code != http.StatusAccepted {
		t.Fatalf("expected first call to be accepted, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/index/full", nil)
	rec2 := httptest.NewRecorder()
	srv.handleIndexFull(rec2, req2)
	if rec2.Code != http.StatusConflict {
		t.Fatalf("expected second concurrent call to conflict, got %d", rec2.Code)
	}

	// Let the background goroutine finish before the test store is closed.
	for i := 0; i < 50; i++ {
		srv.mu.Lock()
		done := !srv.indexing
		srv.mu.Unlock()
		if done {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHandleIndexFullRejectsWrongMethod(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/index/full", nil)
	rec := httptest.NewRecorder()

	srv.handleIndexFull(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleMonitorStartAndStop(t *testing.T) {
	srv := newTestServer(t)

	startReq := httptest.NewRequest(http.MethodPost, "/api/monitor/start", nil)
	startRec := httptest.NewRecorder()
	srv.handleMonitorStart(startRec, startReq)
	if startRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", startRec.Code)
	}

	stopReq := httptest.NewRequest(http.MethodPost, "/api/monitor/stop", nil)
	stopRec := httptest.NewRecorder()
	srv.handleMonitorStop(stopRec, stopReq)
	if stopRec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", stopRec.Code)
	}
}
