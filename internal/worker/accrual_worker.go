package worker

//go:generate mockgen -destination=mocks/mock_ports.go -package=mocks github.com/iho/farmledger/internal/worker TickRunner,Lease,Journal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iho/farmledger/internal/usecase"
)

const (
	DefaultAccrualInterval = 5 * time.Minute
	DefaultLeaseTTL        = 4 * time.Minute
	DefaultLeaseName       = "accrual-tick"
)

// TickRunner runs one accrual tick.
type TickRunner interface {
	RunTick(ctx context.Context, now time.Time) (*usecase.TickReport, error)
}

// Lease is an expiring single-holder lock shared by every worker process.
type Lease interface {
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, token string) error
}

// Journal stores finished tick reports.
type Journal interface {
	Append(report *usecase.TickReport) (uint64, error)
}

// AccrualWorker runs accrual ticks on a fixed interval. Only the holder of
// the lease ticks; the others skip that round.
type AccrualWorker struct {
	runner    TickRunner
	lease     Lease
	journal   Journal
	logger    zerolog.Logger
	now       func() time.Time
	leaseName string
	token     string
	interval  time.Duration
	leaseTTL  time.Duration
}

// AccrualWorkerConfig configures an AccrualWorker. Lease and Journal are
// optional.
type AccrualWorkerConfig struct {
	Runner    TickRunner
	Lease     Lease
	Journal   Journal
	Logger    zerolog.Logger
	Now       func() time.Time
	LeaseName string
	Interval  time.Duration
	LeaseTTL  time.Duration
}

// NewAccrualWorker creates a new AccrualWorker.
func NewAccrualWorker(cfg AccrualWorkerConfig) *AccrualWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultAccrualInterval
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = DefaultLeaseTTL
	}
	if cfg.LeaseName == "" {
		cfg.LeaseName = DefaultLeaseName
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	token := uuid.NewString()
	return &AccrualWorker{
		runner:    cfg.Runner,
		lease:     cfg.Lease,
		journal:   cfg.Journal,
		logger:    cfg.Logger.With().Str("component", "accrual_worker").Str("token", token).Logger(),
		now:       cfg.Now,
		leaseName: cfg.LeaseName,
		token:     token,
		interval:  cfg.Interval,
		leaseTTL:  cfg.LeaseTTL,
	}
}

// Start ticks immediately and then on every interval until ctx is done.
func (w *AccrualWorker) Start(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.interval).
		Dur("lease_ttl", w.leaseTTL).
		Msg("accrual worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("accrual worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *AccrualWorker) tick(ctx context.Context) {
	if _, _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error().Err(err).Msg("accrual tick failed")
	}
}

// RunOnce runs a single tick if the lease can be taken. ran is false when
// another worker holds the lease.
func (w *AccrualWorker) RunOnce(ctx context.Context) (report *usecase.TickReport, ran bool, err error) {
	if w.lease != nil {
		acquired, err := w.lease.Acquire(ctx, w.leaseName, w.token, w.leaseTTL)
		if err != nil {
			return nil, false, err
		}
		if !acquired {
			w.logger.Debug().Msg("lease held elsewhere, skipping tick")
			return nil, false, nil
		}
		defer func() {
			// the tick may outlive ctx; release with a fresh one
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := w.lease.Release(releaseCtx, w.leaseName, w.token); err != nil {
				w.logger.Warn().Err(err).Msg("failed to release accrual lease")
			}
		}()
	}

	report, err = w.runner.RunTick(ctx, w.now())
	if err != nil {
		return nil, true, err
	}

	if w.journal != nil {
		idx, err := w.journal.Append(report)
		if err != nil {
			w.logger.Error().Err(err).Msg("failed to journal tick report")
		} else {
			w.logger.Debug().Uint64("journal_index", idx).Msg("tick report journaled")
		}
	}

	return report, true, nil
}
