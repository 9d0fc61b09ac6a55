// Package scheduler delivers due scheduled emails and resurfaces due snoozes.
// It has no timer of its own; an external cron hits the cron endpoints.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/easemail/easemail-backend/internal/models"
	"github.com/easemail/easemail-backend/internal/provider"
	"github.com/easemail/easemail-backend/internal/repository"
	"github.com/easemail/easemail-backend/internal/websocket"
)

// BatchLimit caps the records handled by one invocation.
const BatchLimit = 50

// persistRetryTimeout bounds the second attempt at recording a delivery.
const persistRetryTimeout = 5 * time.Second

// Item statuses in a BatchResult.
const (
	ItemSent    = "sent"
	ItemFailed  = "failed"
	ItemSkipped = "skipped"
)

// Notifier pushes realtime events to a user.
type Notifier interface {
	NotifyUser(userID, event string, payload interface{})
}

// ItemResult is the outcome for one record.
type ItemResult struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchResult summarises one invocation. Processed counts the records that
// reached a terminal status; skipped records stay pending.
type BatchResult struct {
	Processed int          `json:"processed"`
	Sent      int          `json:"sent"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Items     []ItemResult `json:"items"`
}

func (b *BatchResult) add(item ItemResult) {
	switch item.Status {
	case ItemSent:
		b.Processed++
		b.Sent++
	case ItemFailed:
		b.Processed++
		b.Failed++
	default:
		b.Skipped++
	}
	b.Items = append(b.Items, item)
}

// Processor moves due records to a terminal status.
type Processor struct {
	accounts  repository.AccountRepository
	scheduled repository.ScheduledEmailRepository
	snoozes   repository.SnoozeRepository
	client    provider.Client
	notifier  Notifier
	logger    *slog.Logger
}

// NewProcessor creates a Processor. notifier may be nil.
func NewProcessor(
	accounts repository.AccountRepository,
	scheduled repository.ScheduledEmailRepository,
	snoozes repository.SnoozeRepository,
	client provider.Client,
	notifier Notifier,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		accounts:  accounts,
		scheduled: scheduled,
		snoozes:   snoozes,
		client:    client,
		notifier:  notifier,
		logger:    logger,
	}
}

// ProcessScheduled sends every pending email due at or before now.
// A failing record is marked failed and never aborts the batch.
func (p *Processor) ProcessScheduled(ctx context.Context, now time.Time) (*BatchResult, error) {
	due, err := p.scheduled.ListDue(ctx, now, BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Items: []ItemResult{}}
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		email := &due[i]
		if email.ScheduledFor.After(now) {
			continue
		}
		result.add(p.sendScheduled(ctx, email, now))
	}

	p.logger.Info("scheduled emails processed",
		slog.Int("processed", result.Processed),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func (p *Processor) sendScheduled(ctx context.Context, email *models.ScheduledEmail, now time.Time) ItemResult {
	item := ItemResult{ID: email.ID, UserID: email.UserID}

	account, err := p.accounts.GetByID(ctx, email.AccountID)
	if err != nil {
		return p.failScheduled(ctx, email, item, err, now)
	}

	msg, err := p.client.SendMessage(ctx, account.GrantID, provider.SendRequest{
		To:      participants(email.To),
		Cc:      participants(email.Cc),
		Subject: email.Subject,
		Body:    email.Body,
	})
	if err != nil {
		if ctx.Err() != nil {
			item.Status = ItemSkipped
			item.Error = ctx.Err().Error()
			return item
		}
		return p.failScheduled(ctx, email, item, err, now)
	}

	err = retryPersist(ctx, func(ctx context.Context) error {
		return p.scheduled.MarkSent(ctx, email.ID, msg.ID, now)
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotPending) {
			p.logger.Error("sent email could not be marked sent and may be sent again",
				slog.String("scheduled_email_id", email.ID),
				slog.String("provider_message_id", msg.ID),
				slog.Any("error", err),
			)
		}
		item.Status = ItemSkipped
		item.Error = err.Error()
		return item
	}

	item.Status = ItemSent
	p.notify(email.UserID, websocket.EventScheduledEmailSent, map[string]interface{}{
		"id":                  email.ID,
		"provider_message_id": msg.ID,
		"sent_at":             now,
	})
	return item
}

func (p *Processor) failScheduled(ctx context.Context, email *models.ScheduledEmail, item ItemResult, cause error, now time.Time) ItemResult {
	reason := failureReason(cause)
	p.logger.Warn("scheduled email failed",
		slog.String("scheduled_email_id", email.ID),
		slog.String("account_id", email.AccountID),
		slog.String("kind", string(provider.KindOf(cause))),
		slog.String("error", cause.Error()),
	)

	if err := p.scheduled.MarkFailed(ctx, email.ID, reason, now); err != nil {
		item.Status = ItemSkipped
		item.Error = err.Error()
		return item
	}

	item.Status = ItemFailed
	item.Error = reason
	p.notify(email.UserID, websocket.EventScheduledEmailFailed, map[string]interface{}{
		"id":    email.ID,
		"error": reason,
	})
	return item
}

// ProcessSnoozed resurfaces every pending snooze due at or before now by
// moving the message back to its folder and marking it unread.
func (p *Processor) ProcessSnoozed(ctx context.Context, now time.Time) (*BatchResult, error) {
	due, err := p.snoozes.ListDue(ctx, now, BatchLimit)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Items: []ItemResult{}}
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		snooze := &due[i]
		if snooze.SnoozeUntil.After(now) {
			continue
		}
		result.add(p.resurface(ctx, snooze, now))
	}

	p.logger.Info("snoozed emails processed",
		slog.Int("processed", result.Processed),
		slog.Int("resurfaced", result.Sent),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func (p *Processor) resurface(ctx context.Context, snooze *models.SnoozedEmail, now time.Time) ItemResult {
	item := ItemResult{ID: snooze.ID, UserID: snooze.UserID}

	account, err := p.accounts.GetByID(ctx, snooze.AccountID)
	if err != nil {
		return p.failSnooze(ctx, snooze, item, err, now)
	}

	unread := true
	update := provider.MessageUpdate{Unread: &unread}
	if snooze.FolderID != "" {
		update.Folders = []string{snooze.FolderID}
	}

	if _, err := p.client.UpdateMessage(ctx, account.GrantID, snooze.MessageID, update); err != nil {
		if ctx.Err() != nil {
			item.Status = ItemSkipped
			item.Error = ctx.Err().Error()
			return item
		}
		return p.failSnooze(ctx, snooze, item, err, now)
	}

	err = retryPersist(ctx, func(ctx context.Context) error {
		return p.snoozes.MarkResurfaced(ctx, snooze.ID, now)
	})
	if err != nil {
		if !errors.Is(err, repository.ErrNotPending) {
			p.logger.Error("resurfaced snooze could not be marked sent and may be resurfaced again",
				slog.String("snooze_id", snooze.ID),
				slog.Any("error", err),
			)
		}
		item.Status = ItemSkipped
		item.Error = err.Error()
		return item
	}

	item.Status = ItemSent
	p.notify(snooze.UserID, websocket.EventSnoozeResurfaced, map[string]interface{}{
		"id":         snooze.ID,
		"account_id": snooze.AccountID,
		"message_id": snooze.MessageID,
	})
	return item
}

func (p *Processor) failSnooze(ctx context.Context, snooze *models.SnoozedEmail, item ItemResult, cause error, now time.Time) ItemResult {
	reason := failureReason(cause)
	p.logger.Warn("snooze failed",
		slog.String("snooze_id", snooze.ID),
		slog.String("account_id", snooze.AccountID),
		slog.String("kind", string(provider.KindOf(cause))),
		slog.String("error", cause.Error()),
	)

	if err := p.snoozes.MarkFailed(ctx, snooze.ID, reason, now); err != nil {
		item.Status = ItemSkipped
		item.Error = err.Error()
		return item
	}

	item.Status = ItemFailed
	item.Error = reason
	p.notify(snooze.UserID, websocket.EventSnoozeFailed, map[string]interface{}{
		"id":    snooze.ID,
		"error": reason,
	})
	return item
}

// retryPersist runs write once more on a context detached from ctx when the
// first attempt fails. A lost status race is final and never retried.
func retryPersist(ctx context.Context, write func(context.Context) error) error {
	err := write(ctx)
	if err == nil || errors.Is(err, repository.ErrNotPending) {
		return err
	}

	retryCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistRetryTimeout)
	defer cancel()
	return write(retryCtx)
}

func (p *Processor) notify(userID, event string, payload interface{}) {
	if p.notifier != nil {
		p.notifier.NotifyUser(userID, event, payload)
	}
}

// failureReason is the message stored on a failed record.
func failureReason(err error) string {
	var pe *provider.Error
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return "account no longer connected"
	case errors.As(err, &pe) && pe.Kind == provider.KindAuth:
		return "account authorization expired; reconnect the account"
	case errors.As(err, &pe) && pe.Message != "":
		return pe.Message
	default:
		return err.Error()
	}
}

func participants(recipients []models.Recipient) []provider.Participant {
	if len(recipients) == 0 {
		return nil
	}
	out := make([]provider.Participant, len(recipients))
	for i, r := range recipients {
		out[i] = provider.Participant{Name: r.Name, Email: r.Email}
	}
	return out
}
