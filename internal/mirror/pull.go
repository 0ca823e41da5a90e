package mirror

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// pullConcurrency bounds how many external issues are resolved against
// the local store at once. The Sync Engine's file-write fan-out uses the
// same errgroup shape but sets no limit.
const pullConcurrency = 8

// Pull fetches every issue from the external tracker (paginated to
// completion by the client) and runs three-way resolution against each
// one. This drives both the CLI's "mirror pull" command and the
// daemon's periodic reconciliation.
func (o *Orchestrator) Pull(ctx context.Context) (Stats, error) {
	issues, err := o.Client.FetchIssues(ctx, "all")
	if err != nil {
		return Stats{}, err
	}

	var total Stats
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pullConcurrency)

	for i := range issues {
		gh := &issues[i]
		g.Go(func() error {
			stats, err := o.resolveExternal(gctx, gh)
			if err != nil {
				o.Log.Error("pull: resolve failed", "number", gh.Number, "err", err)
				mu.Lock()
				total.Skipped++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			total.Created += stats.Created
			total.Updated += stats.Updated
			total.Pushed += stats.Pushed
			total.Pulled += stats.Pulled
			total.Skipped += stats.Skipped
			total.Conflicts = append(total.Conflicts, stats.Conflicts...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return total, nil
}
