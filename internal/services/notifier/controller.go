package notifier

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/vigild/vigil/internal/domain/message"
	kafkax "github.com/vigild/vigil/internal/repository/kafka"
)

type Controller struct {
	Log *zap.Logger
	Sub *kafkax.Consumer
	UC  *Handler

	mConsumed  prometheus.Counter
	mPersisted prometheus.Counter
	mErrors    prometheus.Counter
}

func NewController(log *zap.Logger, sub *kafkax.Consumer, uc *Handler) *Controller {
	return &Controller{
		Log: log,
		Sub: sub,
		UC:  uc,
		mConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_entries_consumed_total",
			Help: "Entries fetched from the ingest topic",
		}),
		mPersisted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_entries_persisted_total",
			Help: "Entries durably persisted and acknowledged",
		}),
		mErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "notifier_errors_total",
			Help: "Entries left unacknowledged for redelivery",
		}),
	}
}

func (c *Controller) Run(ctx context.Context) error {
	handler := kafkax.JSONHandler(c.Log,
		func(ctx context.Context, _ []byte, env message.Envelope) error {
			c.mConsumed.Inc()
			if err := env.Validate(); err != nil {
				c.Log.Warn("invalid envelope dropped",
					zap.String("account_id", env.AccountID.String()),
					zap.Error(err),
				)
				return nil
			}
			if err := c.UC.Handle(ctx, env); err != nil {
				c.mErrors.Inc()
				return err
			}
			c.mPersisted.Inc()
			return nil
		},
	)
	return c.Sub.Consume(ctx, handler)
}
