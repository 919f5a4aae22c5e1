package notifier

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/message"
	"github.com/vigild/vigil/internal/domain/notification"
	"github.com/vigild/vigil/internal/obs"
	"github.com/vigild/vigil/internal/obs/retry"
)

// Handler runs one delivered entry through the pipeline:
// persist (mandatory) → cooldown filter → dispatch (best effort).
// A persistence error is returned so the entry stays uncommitted and is
// redelivered; a dispatch error is only logged.
type Handler struct {
	Store      message.Store
	Filter     *Filter
	Dispatcher *Dispatcher
	Log        *zap.Logger
}

func (h *Handler) Handle(ctx context.Context, env message.Envelope) error {
	log := obs.WithTrace(ctx, h.Log).With(
		zap.String("account_id", env.AccountID.String()),
		zap.String("hostname", env.Message.Hostname),
	)

	key := message.Key{AccountID: env.AccountID, Hostname: env.Message.Hostname}
	err := retry.Do(ctx, func() error {
		return h.Store.Append(ctx, key, env.Message)
	}, retry.StorePolicy(log))
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if !h.Filter.ShouldNotify(env.AccountID) {
		log.Debug("notification suppressed (cooldown)")
		return nil
	}

	n := notification.Notification{AccountID: env.AccountID, Message: env.Message}
	if err := h.Dispatcher.Dispatch(ctx, n); err != nil {
		if errors.Is(err, ErrNoChannels) {
			log.Debug("no channels configured")
			return nil
		}
		// Best effort: the entry is committed regardless.
		log.Warn("dispatch failed", zap.Error(err))
		return nil
	}

	log.Info("notification dispatched")
	return nil
}
