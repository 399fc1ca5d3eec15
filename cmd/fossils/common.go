package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/GiGurra/boa/pkg/boa"

	"fossils/internal/cache"
	"fossils/internal/catalog"
	"fossils/internal/config"
	"fossils/internal/lyrics"
	"fossils/internal/services"
	"fossils/internal/storage"
	lyricssync "fossils/internal/sync"
)

const sessionKeyPrefix = "session:"

func defaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// env is what every client command works against. kv holds the player
// session; the lyrics store always lives in the state dir.
type env struct {
	cfg     *config.ClientConfig
	kv      storage.KV
	catalog catalog.Provider
	store   *lyrics.Store
	remote  lyricssync.Remote
	session cache.Cache

	in  io.Reader
	out io.Writer
}

func openEnv(cfg *config.ClientConfig, in io.Reader, out io.Writer) (*env, error) {
	kv, err := storage.NewFileKV(cfg.StateDir)
	if err != nil {
		return nil, err
	}

	provider, err := catalog.Open(cfg.CatalogFile, "")
	if err != nil {
		return nil, err
	}

	store, err := lyrics.NewStore(kv, provider)
	if err != nil {
		return nil, err
	}

	e := &env{
		cfg:     cfg,
		kv:      kv,
		catalog: provider,
		store:   store,
		in:      in,
		out:     out,
	}

	if cfg.SessionValkeyURL != "" {
		c, err := cache.NewValkeyCache(cfg.SessionValkeyURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		e.session = c
		e.kv = storage.NewCacheKV(c, sessionKeyPrefix)
	}

	if cfg.SyncEnabled() {
		opts := []services.ClientOption{services.WithTimeout(cfg.SyncTimeout)}
		if cfg.TokenSecret != "" {
			opts = append(opts, services.WithTokenSecret(cfg.TokenSecret))
		}
		e.remote = services.NewLyricsClient(cfg.RemoteURL, opts...)
	}
	return e, nil
}

func (e *env) Close() {
	if e.session != nil {
		_ = e.session.Close()
	}
}

// coordinator routes lyrics mutations through the sync layer so they reach
// the remote when one is configured
func (e *env) coordinator() *lyricssync.Coordinator {
	return lyricssync.New(e.store, e.remote,
		lyricssync.WithTimeout(e.cfg.SyncTimeout),
		lyricssync.WithPush(e.cfg.PushMutations))
}

// finish gives queued pushes a bounded chance to complete before exit
func (e *env) finish(ctx context.Context, c *lyricssync.Coordinator) {
	defer c.Close()

	drainCtx, cancel := context.WithTimeout(ctx, 2*e.cfg.SyncTimeout)
	defer cancel()
	if err := c.Drain(drainCtx); err != nil {
		slog.Warn("Remote push did not finish, local change kept", "error", err)
	}
}

// withEnv loads client configuration and runs fn, exiting on failure the
// way every command reports errors
func withEnv(name string, fn func(e *env) error) {
	cfg, err := config.LoadClient()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
	setupLogging(cfg.Level())

	e, err := openEnv(cfg, os.Stdin, os.Stdout)
	if err == nil {
		err = fn(e)
		e.Close()
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
		os.Exit(1)
	}
}
