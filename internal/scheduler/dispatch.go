package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"homeboard/internal/models"
	"homeboard/internal/push"
)

// DeliveryOutcome is what happened to one item's notification attempt.
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeSkipped   DeliveryOutcome = "skipped" // no registered tokens
	OutcomeFailed    DeliveryOutcome = "failed"
)

// TokenSource resolves a user's registered device tokens.
type TokenSource interface {
	TokensForOwner(ctx context.Context, ownerID string) ([]string, error)
}

// Dispatcher resolves an item owner's tokens and sends one multicast push per
// due item. Delivery failures are reported, never fatal: the item is still
// considered processed so a permanently broken token cannot cause a
// re-notification storm.
type Dispatcher struct {
	tokens  TokenSource
	sender  push.Sender
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewDispatcher(tokens TokenSource, sender push.Sender, limiter *rate.Limiter, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		tokens:  tokens,
		sender:  sender,
		limiter: limiter,
		log:     log.With().Str("component", "dispatcher").Logger(),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, item *models.ReminderItem) (DeliveryOutcome, error) {
	tokens, err := d.tokens.TokensForOwner(ctx, item.OwnerID)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to resolve tokens for %s: %w", item.OwnerID, err)
	}

	if len(tokens) == 0 {
		d.log.Debug().Str("item_id", item.ID).Str("owner_id", item.OwnerID).
			Msg("no registered tokens, skipping delivery")
		return OutcomeSkipped, nil
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return OutcomeFailed, fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	title, body := formatMessage(item)
	report, err := d.sender.SendToTokens(ctx, tokens, title, body, map[string]string{
		"view": item.Kind.TargetView(),
		"id":   item.ID,
	})
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to send push for item %s: %w", item.ID, err)
	}

	d.log.Info().
		Str("item_id", item.ID).
		Str("owner_id", item.OwnerID).
		Int("delivered", report.Delivered).
		Int("failed", report.Failed).
		Msg("notification sent")
	return OutcomeDelivered, nil
}

func formatMessage(item *models.ReminderItem) (title, body string) {
	if item.Kind == models.KindTodo {
		responsible := item.Responsible
		if responsible == "" {
			responsible = "Unassigned"
		}
		title = fmt.Sprintf("Pending task: %s", item.Title)
		body = fmt.Sprintf("The task '%s' (%s) is due today.", item.Title, responsible)
		return title, body
	}

	title = fmt.Sprintf("Reminder: %s", item.Title)
	body = fmt.Sprintf("Your event '%s' is coming up!", item.Title)
	return title, body
}
