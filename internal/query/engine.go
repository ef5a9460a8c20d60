package query

import (
	"context"
	"fmt"
	"sync"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/metrics"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateLoadFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateLoadFailed:
		return "load_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// LocalSource is the part of store.LocalStore the engine reads and deletes through.
type LocalSource interface {
	List(ctx context.Context) ([]store.StoredEntry, error)
	DeleteMatching(ctx context.Context, target models.Row) (int, error)
}

// Result is one rendered view over the cached snapshot.
type Result struct {
	State  State         `json:"state"`
	Source models.Source `json:"source,omitempty"`
	Total  int           `json:"total"`
	Status string        `json:"status"`
	Rows   []models.Row  `json:"rows"`
}

// Engine owns the in-memory snapshot of submissions. Loads pick exactly one
// source: the remote store when one is attached, otherwise the local list.
type Engine struct {
	local  LocalSource
	remote store.RemoteProvider
	limit  int

	mu      sync.Mutex
	state   State
	source  models.Source
	rows    []models.Row
	lastErr error
}

func NewEngine(local LocalSource, remote store.RemoteProvider, limit int) *Engine {
	if limit <= 0 || limit > store.RemoteListLimit {
		limit = store.RemoteListLimit
	}
	return &Engine{
		local:  local,
		remote: remote,
		limit:  limit,
		rows:   []models.Row{},
	}
}

// Load replaces the snapshot. A failed load leaves zero rows behind.
// Concurrent loads are not coordinated; the last one to finish wins.
func (e *Engine) Load(ctx context.Context) ([]models.Row, error) {
	e.mu.Lock()
	e.state = StateLoading
	e.mu.Unlock()

	rows, source, err := e.fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.source = source
	if err != nil {
		metrics.LoadsTotal.WithLabelValues(string(source), "error").Inc()
		logger.Error.Printf("Failed to load %s submissions: %v", source, err)
		e.state = StateLoadFailed
		e.rows = []models.Row{}
		e.lastErr = err
		return nil, err
	}

	metrics.LoadsTotal.WithLabelValues(string(source), "ok").Inc()
	logger.Debug.Printf("Loaded %d %s submissions", len(rows), source)
	e.state = StateLoaded
	e.rows = rows
	e.lastErr = nil
	return cloneRows(rows), nil
}

// Refresh is an explicit reload. It is the only way out of StateLoadFailed.
func (e *Engine) Refresh(ctx context.Context) error {
	_, err := e.Load(ctx)
	return err
}

func (e *Engine) fetch(ctx context.Context) ([]models.Row, models.Source, error) {
	if e.remote != nil {
		if remote, ok := e.remote.Remote(); ok {
			rows, err := remote.ListRecent(ctx, e.limit)
			if err != nil {
				return nil, models.SourceRemote, apperror.LoadFailed(err)
			}
			for i := range rows {
				rows[i].Source = models.SourceRemote
			}
			if rows == nil {
				rows = []models.Row{}
			}
			return rows, models.SourceRemote, nil
		}
	}

	if e.local == nil {
		return []models.Row{}, models.SourceLocal, nil
	}

	entries, err := e.local.List(ctx)
	if err != nil {
		return nil, models.SourceLocal, apperror.LoadFailed(err)
	}

	rows := make([]models.Row, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, models.Row{
			Submission: entry.Submission,
			ID:         models.LocalRowID(entry.CreatedAt, entry.LegacyID, i),
			Source:     models.SourceLocal,
		})
	}
	return rows, models.SourceLocal, nil
}

// Query serves the snapshot filtered and sorted. It loads only if nothing has
// been loaded yet; a failed load is reported until Refresh succeeds.
func (e *Engine) Query(ctx context.Context, c Criteria) (Result, error) {
	e.mu.Lock()
	unloaded := e.state == StateUnloaded
	e.mu.Unlock()

	if unloaded {
		// the outcome is captured in the engine state below
		_, _ = e.Load(ctx)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rows := Sort(Filter(e.rows, c))
	res := Result{
		State:  e.state,
		Source: e.source,
		Total:  len(e.rows),
		Status: e.statusLocked(len(rows)),
		Rows:   rows,
	}
	if e.state == StateLoadFailed {
		return res, e.lastErr
	}
	return res, nil
}

// Delete removes the row with the given view id from its own store and reloads.
// On failure the snapshot is left as it was.
func (e *Engine) Delete(ctx context.Context, id string) error {
	row, ok := e.Find(id)
	if !ok {
		return apperror.NotFound("submission", id)
	}

	if err := e.deleteRow(ctx, row); err != nil {
		metrics.DeletesTotal.WithLabelValues(string(row.Source), "error").Inc()
		logger.Error.Printf("Failed to delete %s submission %s: %v", row.Source, id, err)
		return apperror.DeleteFailed(err)
	}
	metrics.DeletesTotal.WithLabelValues(string(row.Source), "ok").Inc()

	if err := e.Refresh(ctx); err != nil {
		logger.Error.Printf("Reload after deleting %s failed: %v", id, err)
	}
	return nil
}

func (e *Engine) deleteRow(ctx context.Context, row models.Row) error {
	if row.Source == models.SourceRemote {
		var remote store.RemoteStore
		ok := false
		if e.remote != nil {
			remote, ok = e.remote.Remote()
		}
		if !ok {
			return apperror.ErrRemoteUnavailable
		}
		return remote.Delete(ctx, row.ID)
	}

	if e.local == nil {
		return fmt.Errorf("no local store")
	}
	n, err := e.local.DeleteMatching(ctx, row)
	if err != nil {
		return err
	}
	logger.Debug.Printf("Removed %d local entries matching %s", n, row.ID)
	return nil
}

func (e *Engine) Find(id string) (models.Row, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range e.rows {
		if r.ID == id {
			return r, true
		}
	}
	return models.Row{}, false
}

// Snapshot returns a copy of the cached rows in load order.
func (e *Engine) Snapshot() []models.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.rows)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Status is the dashboard status line for the unfiltered snapshot.
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusLocked(len(e.rows))
}

func (e *Engine) statusLocked(shown int) string {
	switch e.state {
	case StateLoading:
		return "Loading…"
	case StateLoadFailed:
		if e.lastErr != nil {
			return e.lastErr.Error()
		}
		return apperror.LoadFailed(nil).Error()
	case StateLoaded:
		if e.source == models.SourceLocal {
			return fmt.Sprintf("Local mode: showing %d submission(s) from this browser only.", len(e.rows))
		}
		return fmt.Sprintf("Showing %d submission(s).", shown)
	default:
		return ""
	}
}

func cloneRows(rows []models.Row) []models.Row {
	out := make([]models.Row, len(rows))
	copy(out, rows)
	return out
}
