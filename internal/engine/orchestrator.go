package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rishtahub/match-engine/internal/db"
)

// DefaultPageSize is the orchestrator's fixed user-page size. One page's
// worth of concurrent refreshes is the system's only backpressure bound
// against the relational store and the cache.
const DefaultPageSize = 100

// UserDirectory is the slice of the user store the orchestrator needs.
// *repository.UserRepository is the production implementation.
type UserDirectory interface {
	GetUser(ctx context.Context, userID uint64) (db.User, error)
	ListUsers(ctx context.Context, offset, limit int) ([]db.User, error)
}

// Orchestrator drives the batch refresh: it pages through all users in id
// order and refreshes each active user's cache, one goroutine per user
// within a page, joining at the page boundary before moving on.
type Orchestrator struct {
	users     UserDirectory
	refresher Refresher
	pageSize  int
	log       *slog.Logger
}

// NewOrchestrator wires the batch refresh. pageSize <= 0 falls back to
// DefaultPageSize.
func NewOrchestrator(users UserDirectory, refresher Refresher, pageSize int, log *slog.Logger) *Orchestrator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Orchestrator{users: users, refresher: refresher, pageSize: pageSize, log: log}
}

// RunDailyRefresh recomputes the match cache for every active user.
//
// Pages of o.pageSize users are fetched in id order; within a page every
// active user refreshes concurrently and the run waits for the whole page
// before fetching the next one. A single user's failure is logged and
// skipped, never aborting the page or the run. Only a failure to enumerate
// users, or context cancellation between pages, ends the run early.
//
// No checkpoint state is kept: an interrupted run leaves already-processed
// users fresh and the rest stale, which the next run corrects.
func (o *Orchestrator) RunDailyRefresh(ctx context.Context) error {
	o.log.Info("daily match refresh starting", "page_size", o.pageSize)

	var processed, failed, pages int
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			o.log.Warn("daily match refresh canceled", "pages_done", pages, "err", err)
			return err
		}

		page, err := o.users.ListUsers(ctx, offset, o.pageSize)
		if err != nil {
			o.log.Error("listing users failed, aborting run", "offset", offset, "err", err)
			return err
		}
		if len(page) == 0 {
			break
		}
		pages++

		var wg sync.WaitGroup
		var pageFailed atomic.Int64
		for _, u := range page {
			if !u.Active {
				continue
			}
			processed++
			wg.Add(1)
			go func(u db.User) {
				defer wg.Done()
				if err := o.refresher.RefreshUser(ctx, u); err != nil {
					pageFailed.Add(1)
					o.log.Error("match refresh failed for user", "user_id", u.ID, "err", err)
				}
			}(u)
		}
		// Page barrier: nothing from the next page starts until every
		// task in this one has finished, success or failure.
		wg.Wait()
		failed += int(pageFailed.Load())

		if len(page) < o.pageSize {
			break
		}
		offset += o.pageSize
	}

	o.log.Info("daily match refresh finished", "pages", pages, "users", processed, "failed", failed)
	return nil
}

// RunForUser refreshes a single user's cache, typically right after
// registration commits. All failures are caught and logged here so the
// registration flow can never be blocked by a match-engine hiccup; the user
// just sees an empty feed until the next daily run.
func (o *Orchestrator) RunForUser(ctx context.Context, userID uint64) {
	user, err := o.users.GetUser(ctx, userID)
	if err != nil {
		o.log.Error("match refresh skipped, user lookup failed", "user_id", userID, "err", err)
		return
	}
	if !user.Active {
		o.log.Debug("match refresh skipped, user inactive", "user_id", userID)
		return
	}
	if err := o.refresher.RefreshUser(ctx, user); err != nil {
		o.log.Error("match refresh failed for user", "user_id", userID, "err", err)
	}
}
