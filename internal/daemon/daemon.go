// Package daemon composes the Watcher, the webhook HTTP server, and a
// periodic mirror-pull ticker under one context, supervised by a single
// errgroup so any one failure brings the whole process down cleanly.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beadsync/beadsync/internal/mirror"
	"github.com/beadsync/beadsync/internal/watcher"
	"github.com/beadsync/beadsync/internal/webhook"
)

// DefaultPullInterval is how often the daemon reconciles via Mirror.Pull
// when no interval is configured.
const DefaultPullInterval = 15 * time.Minute

// Options configures a Daemon's three subsystems.
type Options struct {
	Addr         string
	Ingestor     *webhook.Ingestor
	Orchestrator *mirror.Orchestrator
	PullInterval time.Duration
	Log          *slog.Logger
}

// Daemon runs the filesystem watcher, the webhook HTTP server, and the
// periodic mirror-pull ticker under one lifecycle.
type Daemon struct {
	watcher  *watcher.Watcher
	server   *http.Server
	orc      *mirror.Orchestrator
	interval time.Duration
	log      *slog.Logger
	watching atomic.Bool
}

// New wires a Daemon around an already-constructed Watcher and the given
// Options. The Watcher is passed in already configured (roots, sync
// callback) so Daemon only owns its lifecycle, not its construction.
func New(w *watcher.Watcher, opts Options) *Daemon {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	interval := opts.PullInterval
	if interval <= 0 {
		interval = DefaultPullInterval
	}

	d := &Daemon{
		watcher:  w,
		orc:      opts.Orchestrator,
		interval: interval,
		log:      log,
	}
	d.watching.Store(w != nil)

	mux := http.NewServeMux()
	if opts.Ingestor != nil {
		mux.Handle("/webhook", opts.Ingestor)
	}
	mux.HandleFunc("/healthz", d.handleHealthz)

	d.server = &http.Server{
		Addr:    opts.Addr,
		Handler: mux,
	}
	return d
}

type healthResponse struct {
	Watching bool `json:"watching"`
	Mappings int  `json:"mappings"`
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Watching: d.watching.Load()}
	if d.orc != nil {
		resp.Mappings = d.orc.MappingCount()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Run starts the webhook server and the pull ticker and blocks until ctx
// is canceled or a subsystem fails. Shutdown drains in the documented
// order: stop accepting webhooks, let in-flight handlers finish, then
// close the Watcher.
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.log.Info("webhook server listening", "addr", d.server.Addr)
		if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("webhook server: %w", err)
		}
		return nil
	})

	if d.orc != nil {
		g.Go(func() error {
			return d.runPullTicker(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		return d.shutdown()
	})

	return g.Wait()
}

func (d *Daemon) runPullTicker(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.orc.Pull(ctx); err != nil {
				d.log.Error("mirror pull failed", "error", err)
			}
		}
	}
}

func (d *Daemon) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.log.Error("webhook server shutdown error", "error", err)
	}

	d.watching.Store(false)
	if d.watcher != nil {
		return d.watcher.Close()
	}
	return nil
}
