// Package api exposes the JSON HTTP + WebSocket surface a UI collaborator
// consumes: search, indexing status, indexing triggers, and monitor
// control, per the design.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/akelsh/seek/internal/indexer"
	"github.com/akelsh/seek/internal/monitor"
	"github.com/akelsh/seek/internal/search"
	"github.com/akelsh/seek/internal/store"
)

// Logger is the minimal structured-logging surface Server needs.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

var (
	errMethodNotAllowed = errors.New("method not allowed")
	errIndexingInProgress = errors.New("indexing already in progress")
)

// Server holds dependencies and provides HTTP handlers.
type Server struct {
	search *search.Service
	store *store.Store
	indexer *indexer.Indexer
	monitor *monitor.Monitor
	wsHub *WebSocketHub
	logger Logger
	roots []string

	// ctx is the server's own lifetime context, independent of any single
	// request — handlers that kick off work which must outlive the HTTP
	// request that triggered it (e.g. starting the monitor's event loop)
	// derive from this, never from r.Context().
	ctx context.Context

	mu sync.Mutex
	indexing bool
}

// NewServer creates a server with its collaborators wired in and starts
// the WebSocket hub's dispatch loop. ctx scopes everything the server
// starts that must outlive individual requests; callers typically pass
// context.Background() here.
func NewServer(ctx context.Context, searchSvc *search.Service, st *store.Store, idx *indexer.Indexer, mon *monitor.Monitor, roots []string, logger Logger) *Server {
	srv := &Server{
		search: searchSvc,
		store: st,
		indexer: idx,
		monitor: mon,
		wsHub: NewWebSocketHub(),
		logger: logger,
		roots: roots,
		ctx: ctx,
	}
	go srv.wsHub.Run()
	return srv
}

// RegisterRoutes sets up all HTTP routes.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/index/full", s.handleIndexFull)
	mux.HandleFunc("/api/index/smart", s.handleIndexSmart)
	mux.HandleFunc("/api/monitor/start", s.handleMonitorStart)
	mux.HandleFunc("/api/monitor/stop", s.handleMonitorStop)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWebSocket)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// searchResultJSON mirrors the SearchResult contract.
type searchResultJSON struct {
	Entries []entryJSON `json:"entries"`
	SearchTimeSeconds float64 `json:"search_time_seconds"`
}

type entryJSON struct {
	Name string `json:"name"`
	FullPath string `json:"full_path"`
	IsDirectory bool `json:"is_directory"`
	FileExtension string `json:"file_extension,omitempty"`
	Size int64 `json:"size,omitempty"`
	DateModified int64 `json:"date_modified"`
}

func toEntryJSON(e store.Entry) entryJSON {
	return entryJSON{
		Name: e.Name,
		FullPath: e.FullPath,
		IsDirectory: e.IsDirectory,
		FileExtension: e.FileExtension,
		Size: e.Size,
		DateModified: e.DateModified.Unix(),
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := s.search.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	entries := make([]entryJSON, len(result.Entries))
	for i, e := range result.Entries {
		entries[i] = toEntryJSON(e)
	}

	writeJSON(w, http.StatusOK, searchResultJSON{
			Entries: entries,
			SearchTimeSeconds: result.SearchTime.Seconds(),
		})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.store.IndexingStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := map[string]interface{}{
		"is_indexed": status.IsIndexed,
		"indexed_paths": status.IndexedPaths,
		"file_count": status.FileCount,
	}
	if status.HasLastIndexed {
		resp["last_indexed_date"] = status.LastIndexedDate.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.SearchStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_files": stats.TotalFiles,
			"index_size_bytes": stats.IndexSizeBytes,
		})
}

func (s *Server) beginIndexing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexing {
		return false
	}
	s.indexing = true
	return true
}

func (s *Server) endIndexing() {
	s.mu.Lock()
	s.indexing = false
	s.mu.Unlock()
}

func (s *Server) handleIndexFull(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if !s.beginIndexing() {
		writeError(w, http.StatusConflict, errIndexingInProgress)
		return
	}

	go func() {
		defer s.endIndexing()
		stats, err := s.indexer.PerformFullIndexing(s.ctx, s.roots, s.broadcastProgress)
		if err != nil {
			s.logger.Error("full indexing failed: %v", err)
			s.wsHub.Broadcast("index_failed", map[string]interface{}{"error": err.Error()})
			return
		}
		s.logger.Info("full indexing finished: %d entries processed", stats.TotalProcessed)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleIndexSmart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if !s.beginIndexing() {
		writeError(w, http.StatusConflict, errIndexingInProgress)
		return
	}

	go func() {
		defer s.endIndexing()
		stats, err := s.indexer.PerformSmartIndexing(s.ctx, s.roots, s.monitor, s.broadcastProgress)
		if err != nil {
			s.logger.Error("smart indexing failed: %v", err)
			s.wsHub.Broadcast("index_failed", map[string]interface{}{"error": err.Error()})
			return
		}
		s.logger.Info("smart indexing finished: %d entries processed", stats.TotalProcessed)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) broadcastProgress(p indexer.Progress) {
	s.wsHub.Broadcast("progress", map[string]interface{}{
			"fraction": p.Fraction,
			"processed": p.Processed,
			"total": p.Total,
			"message": p.Message,
		})
}

func (s *Server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	if err := s.monitor.StartMonitoringWithRecovery(s.ctx, s.roots); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": s.monitor.State().String()})
}

func (s *Server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, errMethodNotAllowed)
		return
	}
	s.monitor.StopMonitoring()
	writeJSON(w, http.StatusOK, map[string]interface{}{"state": s.monitor.State().String()})
}
