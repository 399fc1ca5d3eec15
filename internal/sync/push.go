package sync

import (
	"context"
	"log/slog"

	"fossils/internal/models"
	"fossils/internal/services"
)

type pushKind int

const (
	pushCreate pushKind = iota
	pushUpdate
	pushDelete
)

func (k pushKind) String() string {
	switch k {
	case pushCreate:
		return "create"
	case pushUpdate:
		return "update"
	default:
		return "delete"
	}
}

type pushOp struct {
	kind  pushKind
	entry models.LyricsEntry
	patch models.LyricsPatch
}

// enqueue hands op to the push worker without blocking the caller
func (c *Coordinator) enqueue(op pushOp) {
	if c.remote == nil || !c.push {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.pending.Add(1)
	select {
	case c.queue <- op:
	default:
		c.pending.Done()
		slog.Warn("Push queue full, dropping remote mutation", "operation", op.kind.String(), "id", op.entry.ID)
	}
}

// pushLoop applies queued mutations to the remote in order
func (c *Coordinator) pushLoop() {
	defer c.workers.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.discardQueued()
			return
		case op := <-c.queue:
			c.apply(op)
			c.pending.Done()
		}
	}
}

func (c *Coordinator) discardQueued() {
	for {
		select {
		case <-c.queue:
			c.pending.Done()
		default:
			return
		}
	}
}

func (c *Coordinator) apply(op pushOp) {
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout*pushTimeoutScale)
	defer cancel()

	var err error
	switch op.kind {
	case pushCreate:
		_, err = c.remote.Create(ctx, op.entry)
	case pushUpdate:
		_, err = c.remote.Update(ctx, op.entry.ID, op.patch)
		if services.IsNotFound(err) {
			// Never reached the remote; send the whole entry instead
			_, err = c.remote.Create(ctx, op.entry)
		}
	case pushDelete:
		err = c.remote.Delete(ctx, op.entry.ID)
		if services.IsNotFound(err) {
			err = nil
		}
	}

	if err != nil {
		slog.Warn("Failed to push lyrics change to remote", "operation", op.kind.String(), "id", op.entry.ID, "error", err)
		return
	}
	slog.Debug("Pushed lyrics change", "operation", op.kind.String(), "id", op.entry.ID)
}
