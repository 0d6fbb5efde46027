// Package search implements the search() execution contract: parse,
// plan, execute, and return entries plus timing, per the design.
package search

import (
	"context"
	"time"

	"github.com/akelsh/seek/internal/planner"
	"github.com/akelsh/seek/internal/query"
	"github.com/akelsh/seek/internal/store"
)

// DefaultLimit caps result size when a caller doesn't specify one.
const DefaultLimit = 1000

// Logger is the minimal structured-logging surface Service needs.
type Logger interface {
	Debug(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

// Result is search()'s return contract: matching entries plus how long
// the search took to execute.
type Result struct {
	Entries []store.Entry
	SearchTime time.Duration
}

// Service runs searches against a Store: a thin struct wrapping a
// store-like collaborator and a logger, exposing one Search method.
type Service struct {
	store *store.Store
	logger Logger
}

// New builds a Service over st.
func New(st *store.Store, logger Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Search parses q, plans it to SQL, and executes against the index. An
// empty query is not an error — it returns a zero-result Result, per
// the "simple queries never fail" contract.
func (s *Service) Search(ctx context.Context, q string, limit int) (Result, error) {
	started := time.Now()
	if limit <= 0 {
		limit = DefaultLimit
	}

	expr, err := query.Parse(q)
	if err != nil {
		if qerr, ok := err.(*query.Error); ok && qerr.Kind == query.ErrEmptyQuery {
			return Result{SearchTime: time.Since(started)}, nil
		}
		return Result{}, err
	}

	plan, err := planner.Build(expr)
	if err != nil {
		return Result{}, err
	}

	entries, err := s.store.Search(ctx, plan.Where, plan.Bindings, limit)
	if err != nil {
		s.logger.Warn("search query %q failed: %v", q, err)
		return Result{}, err
	}

	elapsed := time.Since(started)
	s.logger.Debug("search %q matched %d entries in %s", q, len(entries), elapsed)

	return Result{Entries: entries, SearchTime: elapsed}, nil
}
