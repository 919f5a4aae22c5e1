package janitor

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger reclaims rows whose stream TTL elapsed. Expiry is already
// enforced at read time; the janitor only frees storage.
type Purger interface {
	PurgeExpired(ctx context.Context) (messages, streams int64, err error)
}

var (
	mPurgedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Name: "janitor_messages_purged_total",
		Help: "Expired messages deleted",
	})
	mPurgedStreams = promauto.NewCounter(prometheus.CounterOpts{
		Name: "janitor_streams_purged_total",
		Help: "Expired message streams deleted",
	})
	mErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "janitor_errors_total",
		Help: "Purge runs that failed",
	})
)

type Runner struct {
	log    *zap.Logger
	purger Purger
	spec   string
}

func New(log *zap.Logger, purger Purger, spec string) *Runner {
	if spec == "" {
		spec = "@hourly"
	}
	return &Runner{
		log:    log.With(zap.String("component", "janitor")),
		purger: purger,
		spec:   spec,
	}
}

// Run blocks until ctx is cancelled, purging on the cron schedule. One
// purge runs immediately at startup.
func (r *Runner) Run(ctx context.Context) error {
	r.purge(ctx)

	c := cron.New()
	if _, err := c.AddFunc(r.spec, func() { r.purge(ctx) }); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

func (r *Runner) purge(ctx context.Context) {
	msgs, streams, err := r.purger.PurgeExpired(ctx)
	if err != nil {
		mErrors.Inc()
		r.log.Warn("purge failed", zap.Error(err))
		return
	}
	mPurgedMessages.Add(float64(msgs))
	mPurgedStreams.Add(float64(streams))
	if msgs > 0 || streams > 0 {
		r.log.Info("purged expired streams", zap.Int64("messages", msgs), zap.Int64("streams", streams))
	}
}
