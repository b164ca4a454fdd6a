package usecase

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/iho/farmledger/internal/domain"
)

// accrualNamespace seeds deterministic accrual event ids.
var accrualNamespace = uuid.MustParse("6f1c3a52-9a51-4e1e-8d0c-2b7f4d6a9e10")

// AccrualUseCase runs accrual ticks over active positions.
type AccrualUseCase struct {
	uow          *UnitOfWork
	positionRepo PositionRepository
	balances     *BalanceManager
	referral     *ReferralUseCase
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      Metrics
	logger       zerolog.Logger
	batchSize    int
	concurrency  int
}

// AccrualConfig tunes tick processing.
type AccrualConfig struct {
	BatchSize   int
	Concurrency int
}

// NewAccrualUseCase creates a new AccrualUseCase.
func NewAccrualUseCase(
	uow *UnitOfWork,
	positionRepo PositionRepository,
	balances *BalanceManager,
	referral *ReferralUseCase,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics Metrics,
	logger zerolog.Logger,
	cfg AccrualConfig,
) *AccrualUseCase {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultAccrualBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultAccrualConcurrency
	}
	return &AccrualUseCase{
		uow:          uow,
		positionRepo: positionRepo,
		balances:     balances,
		referral:     referral,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      metrics,
		logger:       logger.With().Str("component", "accrual").Logger(),
		batchSize:    cfg.BatchSize,
		concurrency:  cfg.Concurrency,
	}
}

// AccrualResult describes what one position accrual did.
type AccrualResult struct {
	WindowStart  time.Time
	WindowEnd    time.Time
	Entry        *domain.LedgerEntry
	Distribution *Distribution
	PositionID   string
	AccountID    string
	Outcome      string
	Currency     domain.Currency
	Reward       decimal.Decimal
}

// PositionFailure records a position that could not be accrued in a tick.
type PositionFailure struct {
	PositionID string `json:"position_id"`
	Error      string `json:"error"`
}

// TickReport summarizes one accrual tick.
type TickReport struct {
	StartedAt  time.Time                  `json:"started_at"`
	FinishedAt time.Time                  `json:"finished_at"`
	Now        time.Time                  `json:"now"`
	Rewards    map[domain.Currency]string `json:"rewards"`
	Failures   []PositionFailure          `json:"failures,omitempty"`
	Positions  int                        `json:"positions"`
	Credited   int                        `json:"credited"`
	Skipped    int                        `json:"skipped"`
	Expired    int                        `json:"expired"`
	Failed     int                        `json:"failed"`
}

type tickAccumulator struct {
	mu      sync.Mutex
	report  *TickReport
	rewards map[domain.Currency]decimal.Decimal
}

func (a *tickAccumulator) add(positionID string, result *AccrualResult, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.report.Positions++
	if err != nil {
		a.report.Failed++
		a.report.Failures = append(a.report.Failures, PositionFailure{PositionID: positionID, Error: err.Error()})
		return
	}

	switch result.Outcome {
	case AccrualCredited:
		a.report.Credited++
	case AccrualExpired:
		a.report.Expired++
	default:
		a.report.Skipped++
	}

	if result.Reward.IsPositive() {
		a.rewards[result.Currency] = a.rewards[result.Currency].Add(result.Reward)
	}
}

// RunTick accrues every position due at now. A failing position is logged
// and counted; it never stops the others. The returned error is non-nil only
// when the due positions could not be listed or ctx ended.
func (uc *AccrualUseCase) RunTick(ctx context.Context, now time.Time) (*TickReport, error) {
	now = now.UTC()
	acc := &tickAccumulator{
		report: &TickReport{
			StartedAt: time.Now().UTC(),
			Now:       now,
		},
		rewards: make(map[domain.Currency]decimal.Decimal),
	}

	afterID := ""
	var tickErr error
	for {
		if err := ctx.Err(); err != nil {
			tickErr = err
			break
		}

		page, err := uc.positionRepo.ListDue(ctx, now, afterID, uc.batchSize)
		if err != nil {
			tickErr = err
			break
		}
		if len(page) == 0 {
			break
		}

		var g errgroup.Group
		g.SetLimit(uc.concurrency)
		for _, p := range page {
			positionID := p.ID
			g.Go(func() error {
				result, err := uc.AccruePosition(ctx, positionID, now)
				if err != nil {
					uc.metrics.PositionAccrued(AccrualFailed)
					uc.logger.Error().
						Err(err).
						Str("position_id", positionID).
						Msg("position accrual failed")
				}
				acc.add(positionID, result, err)
				return nil
			})
		}
		_ = g.Wait()

		afterID = page[len(page)-1].ID
		if len(page) < uc.batchSize {
			break
		}
	}

	report := acc.report
	report.FinishedAt = time.Now().UTC()
	report.Rewards = make(map[domain.Currency]string, len(acc.rewards))
	for currency, total := range acc.rewards {
		report.Rewards[currency] = total.String()
	}

	uc.metrics.TickCompleted(report.FinishedAt.Sub(report.StartedAt), report.Positions)

	uc.logger.Info().
		Int("positions", report.Positions).
		Int("credited", report.Credited).
		Int("expired", report.Expired).
		Int("failed", report.Failed).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("accrual tick finished")

	return report, tickErr
}

// AccruePosition accrues one position up to now in its own transaction.
func (uc *AccrualUseCase) AccruePosition(ctx context.Context, positionID string, now time.Time) (*AccrualResult, error) {
	return uc.accrue(ctx, positionID, now.UTC(), false)
}

// ClosePosition accrues the final window and deactivates the position.
func (uc *AccrualUseCase) ClosePosition(ctx context.Context, positionID string, now time.Time) (*AccrualResult, error) {
	return uc.accrue(ctx, positionID, now.UTC(), true)
}

func (uc *AccrualUseCase) accrue(ctx context.Context, positionID string, now time.Time, closing bool) (*AccrualResult, error) {
	var result *AccrualResult
	err := uc.uow.Do(ctx, func(ctx context.Context, tx Transaction) error {
		var err error
		result, err = uc.accrueTx(ctx, tx, positionID, now, closing)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.PositionAccrued(result.Outcome)
	return result, nil
}

func (uc *AccrualUseCase) accrueTx(ctx context.Context, tx Transaction, positionID string, now time.Time, closing bool) (*AccrualResult, error) {
	p, err := uc.positionRepo.GetByIDForUpdate(ctx, tx, positionID)
	if err != nil {
		return nil, err
	}

	result := &AccrualResult{
		PositionID: p.ID,
		AccountID:  p.AccountID,
		Currency:   p.Currency,
		Outcome:    AccrualSkipped,
		Reward:     decimal.Zero,
	}

	if !p.Active {
		if closing {
			return nil, domain.ErrPositionInactive
		}
		return result, nil
	}

	start, end, expired := p.AccrualWindow(now)
	deactivate := expired || closing
	result.WindowStart = start
	result.WindowEnd = end

	if !end.After(start) && !deactivate {
		return result, nil
	}

	reward := p.RewardFor(end.Sub(start))
	result.Reward = reward

	if reward.IsZero() {
		if !deactivate {
			// Keep the window open so sub-unit rewards add up on later ticks.
			return result, nil
		}
		if err := uc.positionRepo.AdvanceAccrual(ctx, tx, p.ID, start, end, false, now); err != nil {
			return nil, err
		}
		result.Outcome = AccrualExpired
		return result, nil
	}

	if err := uc.referral.LockParticipantsTx(ctx, tx, p.AccountID); err != nil {
		return nil, err
	}

	eventID := accrualEventID(p.ID, start, end)
	entry, err := uc.balances.CreditTx(ctx, tx, CreditInput{
		AccountID:   p.AccountID,
		Amount:      reward,
		Currency:    p.Currency,
		Kind:        domain.EntryKindRewardAccrual,
		EventID:     &eventID,
		Description: string(p.Kind) + " reward",
		Metadata: map[string]any{
			"position_id":     p.ID,
			"window_start":    start.Format(time.RFC3339Nano),
			"window_end":      end.Format(time.RFC3339Nano),
			"elapsed_seconds": domain.ElapsedInRateUnits(end.Sub(start)).String(),
		},
	})
	if err != nil {
		return nil, err
	}

	dist, err := uc.referral.DistributeTx(ctx, tx, DistributeInput{
		SourceAccountID: p.AccountID,
		SourceEventID:   eventID,
		Currency:        p.Currency,
		Reward:          reward,
	})
	if err != nil {
		return nil, err
	}

	if err := uc.positionRepo.AdvanceAccrual(ctx, tx, p.ID, start, end, !deactivate, now); err != nil {
		return nil, err
	}

	event, err := newOutboxEvent(
		uc.idGen.Generate(),
		domain.AggregateTypePosition,
		p.ID,
		domain.EventTypeRewardAccrued,
		domain.RewardAccruedEvent{
			EntryID:    entry.ID,
			AccountID:  p.AccountID,
			PositionID: p.ID,
			Amount:     reward.String(),
			Currency:   string(p.Currency),
			EventID:    eventID,
		},
		now,
	)
	if err != nil {
		return nil, err
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	result.Entry = entry
	result.Distribution = dist
	result.Outcome = AccrualCredited
	if deactivate {
		result.Outcome = AccrualExpired
	}
	return result, nil
}

// accrualEventID is stable for a position and window, so the same window can
// never be credited twice.
func accrualEventID(positionID string, start, end time.Time) string {
	key := positionID + "|" + strconv.FormatInt(start.UnixMicro(), 10) + "|" + strconv.FormatInt(end.UnixMicro(), 10)
	return uuid.NewSHA1(accrualNamespace, []byte(key)).String()
}
