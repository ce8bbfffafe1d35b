// Package scheduler runs the periodic due-reminder sweep: scan both item
// kinds, push a notification per due item, then re-arm recurring events or
// finalize everything else in one atomic commit.
//
// A single worker goroutine drains a buffered trigger channel, so one process
// never overlaps its own runs. State transitions are only guaranteed
// at-least-once: if the commit fails, or a second instance scans the same
// rows before this one commits, items stay due and will be re-notified.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/retry"

	"homeboard/internal/models"
	"homeboard/internal/recurrence"
)

// ItemStore is the document-store surface the scheduler needs.
type ItemStore interface {
	ScanDue(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ReminderItem, error)
	CommitMutations(ctx context.Context, muts []models.ItemMutation) error
}

// Notifier delivers one due item's notification.
type Notifier interface {
	Notify(ctx context.Context, item *models.ReminderItem) (DeliveryOutcome, error)
}

type Scheduler struct {
	store      ItemStore
	notifier   Notifier
	scanLimit  int
	runTimeout time.Duration
	spec       string // cron spec driving the sweep
	now        func() time.Time
	notifyCh   chan struct{}
	log        zerolog.Logger
}

func New(store ItemStore, notifier Notifier, spec string, scanLimit int, runTimeout time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		store:      store,
		notifier:   notifier,
		scanLimit:  scanLimit,
		runTimeout: runTimeout,
		spec:       spec,
		now:        time.Now,
		notifyCh:   make(chan struct{}, 1),
		log:        log.With().Str("component", "scheduler").Logger(),
	}
}

// Notify triggers an immediate sweep. Non-blocking if one is already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
		// A sweep is already queued, skip
	}
}

// Start blocks until ctx is cancelled, running one sweep per cron tick plus
// any manually triggered ones.
func (s *Scheduler) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.Notify); err != nil {
		return err
	}
	c.Start()
	defer c.Stop()

	s.log.Info().Str("schedule", s.spec).Msg("scheduler started")

	// Run first sweep without waiting for the first tick
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("scheduler stopped")
			return nil
		case <-s.notifyCh:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one full sweep. Errors never propagate: a kind whose scan
// fails is skipped, an item whose dispatch fails still transitions, and a
// failed commit leaves every item due for the next sweep.
func (s *Scheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	now := s.now()
	var muts []models.ItemMutation
	processed := 0

	for _, kind := range []models.Kind{models.KindEvent, models.KindTodo} {
		items, err := s.scanDue(ctx, kind, now)
		if err != nil {
			s.log.Error().Err(err).Str("kind", string(kind)).Msg("due scan failed")
			continue
		}
		for _, item := range items {
			muts = append(muts, s.process(ctx, item, now))
			processed++
		}
	}

	if len(muts) == 0 {
		s.log.Debug().Msg("no due items")
		return
	}

	if err := s.store.CommitMutations(ctx, muts); err != nil {
		// Notifications already went out; the items stay due and will be
		// re-scanned, so duplicates are possible here.
		s.log.Error().Err(err).Int("mutations", len(muts)).
			Msg("commit failed, items remain due for the next sweep")
		return
	}

	s.log.Info().Int("processed", processed).Msg("sweep completed")
}

func (s *Scheduler) scanDue(ctx context.Context, kind models.Kind, now time.Time) ([]*models.ReminderItem, error) {
	strategy := retry.Strategy{
		Attempts: 3,
		Delay:    100 * time.Millisecond,
		Backoff:  2,
	}

	var items []*models.ReminderItem
	err := retry.DoContext(ctx, strategy, func() error {
		var scanErr error
		items, scanErr = s.store.ScanDue(ctx, kind, now, s.scanLimit)
		return scanErr
	})
	return items, err
}

// process dispatches one due item and stages its state transition. A todo or
// a non-recurring event goes terminal after one notification; a recurring
// event re-arms unless its next occurrence already passed.
func (s *Scheduler) process(ctx context.Context, item *models.ReminderItem, now time.Time) models.ItemMutation {
	outcome, err := s.notifier.Notify(ctx, item)
	if err != nil {
		// The item still transitions: "attempted" counts as processed.
		s.log.Warn().Err(err).Str("item_id", item.ID).Msg("dispatch failed")
	} else if outcome == OutcomeSkipped {
		s.log.Debug().Str("item_id", item.ID).Msg("dispatch skipped, no recipients")
	}

	if !item.Recurring() {
		return models.ItemMutation{ID: item.ID, Status: models.StatusSent}
	}

	next, ok := recurrence.NextTrigger(item.AnchorTime, item.Recurrence, item.LeadTime, now)
	if !ok {
		return models.ItemMutation{ID: item.ID, Status: models.StatusCompleted}
	}
	return models.ItemMutation{ID: item.ID, Status: models.StatusActive, NextTriggerAt: &next}
}
