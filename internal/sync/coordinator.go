// Package sync reconciles the local lyrics store with a remote lyrics
// service. The remote is best-effort: every failure degrades to local data.
package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"sync/atomic"
	"time"

	"fossils/internal/lyrics"
	"fossils/internal/models"
	"fossils/internal/services"
)

// Remote is the lyrics service the coordinator talks to
type Remote interface {
	List(ctx context.Context) ([]models.LyricsEntry, error)
	Create(ctx context.Context, entry models.LyricsEntry) (*models.LyricsEntry, error)
	Update(ctx context.Context, id string, patch models.LyricsPatch) (*models.LyricsEntry, error)
	Delete(ctx context.Context, id string) error
}

// Outcome describes how a startup sync ended
type Outcome int

const (
	// OutcomeApplied means the remote list replaced local data
	OutcomeApplied Outcome = iota
	// OutcomeSkipped means a local mutation happened during the fetch, so local data was kept
	OutcomeSkipped
	// OutcomeFailed means the remote could not be reached or answered with an error
	OutcomeFailed
	// OutcomeCancelled means the sync was torn down before it finished
	OutcomeCancelled
	// OutcomeDisabled means no remote is configured
	OutcomeDisabled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Result reports a finished sync and the entries visible afterwards
type Result struct {
	Outcome Outcome
	Entries []models.LyricsEntry
	Err     error
}

const (
	defaultTimeout   = 5 * time.Second
	pushQueueSize    = 64
	pushTimeoutScale = 2
)

// Coordinator owns the store's remote reconciliation. The zero value is not usable.
type Coordinator struct {
	store   *lyrics.Store
	remote  Remote
	timeout time.Duration
	push    bool

	ctx    context.Context
	cancel context.CancelFunc

	syncing atomic.Int32
	queue   chan pushOp
	pending stdsync.WaitGroup
	workers stdsync.WaitGroup

	// mu orders enqueue against Close so no op lands after the worker exits
	mu     stdsync.Mutex
	closed bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithTimeout bounds each remote call
func WithTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPush controls whether local mutations are sent to the remote
func WithPush(enabled bool) Option {
	return func(c *Coordinator) { c.push = enabled }
}

// New creates a coordinator. A nil remote keeps everything local.
func New(store *lyrics.Store, remote Remote, opts ...Option) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		store:   store,
		remote:  remote,
		timeout: defaultTimeout,
		push:    true,
		ctx:     ctx,
		cancel:  cancel,
		queue:   make(chan pushOp, pushQueueSize),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.remote != nil && c.push {
		c.workers.Add(1)
		go c.pushLoop()
	}
	return c
}

// Entries serves local data; it never waits on the remote
func (c *Coordinator) Entries() []models.LyricsEntry {
	return c.store.GetAll()
}

// Syncing reports whether a startup fetch is in flight
func (c *Coordinator) Syncing() bool {
	return c.syncing.Load() > 0
}

// Start fetches the remote list in the background. The remote list replaces
// local data only if no local mutation was committed after the fetch was
// issued. The returned channel yields exactly one Result and is then closed.
func (c *Coordinator) Start(ctx context.Context) <-chan Result {
	results := make(chan Result, 1)

	if c.remote == nil {
		results <- Result{Outcome: OutcomeDisabled, Entries: c.store.GetAll()}
		close(results)
		return results
	}

	revision := c.store.Revision()
	c.syncing.Add(1)

	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	stop := context.AfterFunc(c.ctx, cancel)

	go func() {
		defer close(results)
		defer c.syncing.Add(-1)
		defer stop()
		defer cancel()

		results <- c.fetch(fetchCtx, revision)
	}()

	return results
}

func (c *Coordinator) fetch(ctx context.Context, revision uint64) Result {
	entries, err := c.remote.List(ctx)

	if cancelled(ctx, c.ctx) {
		slog.Debug("Lyrics sync cancelled")
		return Result{Outcome: OutcomeCancelled, Entries: c.store.GetAll(), Err: context.Canceled}
	}

	if err != nil {
		slog.Warn("Lyrics sync failed, keeping local data", "error", err)
		return Result{Outcome: OutcomeFailed, Entries: c.store.GetAll(), Err: err}
	}

	applied, err := c.store.ReplaceIfUnchanged(revision, entries)
	if err != nil {
		slog.Warn("Failed to store remote lyrics, keeping local data", "error", err)
		return Result{Outcome: OutcomeFailed, Entries: c.store.GetAll(), Err: err}
	}

	if !applied {
		slog.Info("Local lyrics changed during sync, keeping local data")
		return Result{Outcome: OutcomeSkipped, Entries: c.store.GetAll()}
	}

	slog.Info("Lyrics synced from remote", "count", len(entries))
	return Result{Outcome: OutcomeApplied, Entries: c.store.GetAll()}
}

// cancelled distinguishes teardown from a plain timeout
func cancelled(ctx, owner context.Context) bool {
	if owner.Err() != nil {
		return true
	}
	return ctx.Err() == context.Canceled
}

// Add stores a new entry locally and queues it for the remote
func (c *Coordinator) Add(albumName, songName, body string) (*models.LyricsEntry, error) {
	entry, err := c.store.Add(albumName, songName, body)
	if err != nil {
		return nil, err
	}
	c.enqueue(pushOp{kind: pushCreate, entry: *entry})
	return entry, nil
}

// Update edits an entry locally and queues the change for the remote
func (c *Coordinator) Update(id, albumName, songName, body string) (*models.LyricsEntry, error) {
	patch := models.FullPatch(albumName, songName, body)
	entry, err := c.store.Patch(id, patch)
	if err != nil {
		return nil, err
	}
	c.enqueue(pushOp{kind: pushUpdate, entry: *entry, patch: patch})
	return entry, nil
}

// Delete removes an entry locally and queues the removal for the remote
func (c *Coordinator) Delete(id string) error {
	if err := c.store.Delete(id); err != nil {
		return err
	}
	c.enqueue(pushOp{kind: pushDelete, entry: models.LyricsEntry{ID: id}})
	return nil
}

// Drain waits until queued pushes have been attempted or ctx is done
func (c *Coordinator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels in-flight remote work. Pending pushes are dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.workers.Wait()
	c.discardQueued()
}

var _ Remote = (*services.LyricsClient)(nil)
