package service

import (
	"context"
	"log"
	"time"

	"github.com/trophyroom/backend/internal/repository"
)

const engagementScanBatch = 200

// EngagementWorker periodically looks for users who stopped earning and
// enqueues a re-engagement nudge. It only ever reads the ledger, so it
// carries no concurrency risk with the reward paths. Started and stopped by
// the process lifecycle context, never as a bare global timer.
type EngagementWorker struct {
	repo          *repository.Repository
	notifier      Notifier
	interval      time.Duration
	inactiveAfter time.Duration
	now           func() time.Time
}

func NewEngagementWorker(repo *repository.Repository, notifier Notifier, interval, inactiveAfter time.Duration) *EngagementWorker {
	return &EngagementWorker{
		repo:          repo,
		notifier:      notifier,
		interval:      interval,
		inactiveAfter: inactiveAfter,
		now:           time.Now,
	}
}

func (w *EngagementWorker) Start(ctx context.Context) {
	log.Printf("[Engagement Worker] Started, scanning every %v", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[Engagement Worker] Stopped")
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan runs one pass. Exported so it can be driven directly in tests.
func (w *EngagementWorker) Scan(ctx context.Context) {
	cutoff := w.now().UTC().Add(-w.inactiveAfter)

	ids, err := w.repo.ListInactiveUserIDs(ctx, cutoff, engagementScanBatch)
	if err != nil {
		log.Printf("[Engagement Worker] Failed to list inactive users: %v", err)
		return
	}

	for _, id := range ids {
		w.notifier.NotifyReengagement(id)
	}

	if len(ids) > 0 {
		log.Printf("[Engagement Worker] Queued %d re-engagement nudges", len(ids))
	}
}
