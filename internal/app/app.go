// Package app wires configuration, stores and use cases into one engine
// shared by the worker and the admin CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/farmledger/internal/adapter/journal"
	postgresRepo "github.com/iho/farmledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/farmledger/internal/adapter/repository/redis"
	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/config"
	"github.com/iho/farmledger/internal/infrastructure/eventpublisher"
	"github.com/iho/farmledger/internal/infrastructure/metrics"
	"github.com/iho/farmledger/internal/infrastructure/postgres"
	"github.com/iho/farmledger/internal/infrastructure/redis"
	"github.com/iho/farmledger/internal/usecase"
	"github.com/iho/farmledger/internal/worker"
)

// Engine is the ledger with every use case wired over Postgres.
type Engine struct {
	Balances       *usecase.BalanceManager
	Sponsors       *usecase.SponsorUseCase
	Referral       *usecase.ReferralUseCase
	Positions      *usecase.PositionUseCase
	Accrual        *usecase.AccrualUseCase
	Rewards        *usecase.RewardUseCase
	Deposits       *usecase.DepositUseCase
	Withdrawals    *usecase.WithdrawalUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Entries        *usecase.EntryUseCase
	Outbox         usecase.OutboxRepository
}

// NewEngine wires the use cases over pool.
func NewEngine(cfg *config.Config, pool *pgxpool.Pool, m *metrics.Metrics, logger zerolog.Logger) *Engine {
	var ucMetrics usecase.Metrics = usecase.NopMetrics{}
	retrierOpts := []postgresRepo.RetrierOption{postgresRepo.WithRetryLogger(logger)}
	if m != nil {
		ucMetrics = m
		retrierOpts = append(retrierOpts, postgresRepo.WithRetryObserver(m))
	}

	accounts := postgresRepo.NewAccountRepository(pool)
	balanceRepo := postgresRepo.NewBalanceRepository(pool)
	entries := postgresRepo.NewEntryRepository(pool)
	processed := postgresRepo.NewProcessedEventRepository(pool)
	positionRepo := postgresRepo.NewPositionRepository(pool)
	withdrawalRepo := postgresRepo.NewWithdrawalRepository(pool)
	outbox := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithLockTimeout(cfg.DatabaseLockTimeout))
	uow := usecase.NewUnitOfWork(txManager, postgresRepo.NewRetrier(retrierOpts...), cfg.DatabaseTimeout)
	guard := usecase.NewIdempotencyGuard(uow, processed, ucMetrics)
	balances := usecase.NewBalanceManager(uow, accounts, balanceRepo, entries, idGen, ucMetrics)
	referral := usecase.NewReferralUseCase(uow, accounts, balances, outbox, idGen, ucMetrics)
	positions := usecase.NewPositionUseCase(uow, guard, accounts, positionRepo, idGen)

	return &Engine{
		Balances:  balances,
		Sponsors:  usecase.NewSponsorUseCase(uow, accounts, idGen),
		Referral:  referral,
		Positions: positions,
		Accrual: usecase.NewAccrualUseCase(uow, positionRepo, balances, referral, outbox, idGen, ucMetrics, logger,
			usecase.AccrualConfig{BatchSize: cfg.AccrualBatchSize, Concurrency: cfg.AccrualConcurrency}),
		Rewards:        usecase.NewRewardUseCase(guard, balances, referral, outbox, idGen),
		Deposits:       usecase.NewDepositUseCase(uow, guard, balances, positions, accounts, entries, outbox, idGen),
		Withdrawals:    usecase.NewWithdrawalUseCase(uow, balances, withdrawalRepo, entries, outbox, idGen, ucMetrics, WithdrawalFees(cfg)),
		Reconciliation: usecase.NewReconciliationUseCase(uow, accounts, balanceRepo, entries, ucMetrics, logger),
		Entries:        usecase.NewEntryUseCase(entries),
		Outbox:         outbox,
	}
}

// WithdrawalFees maps configured fees to currencies. Zero fees are left out.
func WithdrawalFees(cfg *config.Config) map[domain.Currency]decimal.Decimal {
	fees := map[domain.Currency]decimal.Decimal{}
	if cfg.WithdrawalFeeTON.IsPositive() {
		fees[domain.CurrencyTON] = cfg.WithdrawalFeeTON
	}
	return fees
}

// App owns the process-wide connections.
type App struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Redis   *goredis.Client
	Journal *journal.TickJournal
	Metrics *metrics.Metrics
	Engine  *Engine
	Logger  zerolog.Logger
}

// Options selects optional parts of the App.
type Options struct {
	Registerer  prometheus.Registerer // nil skips metrics
	WithRedis   bool
	WithJournal bool
}

// New connects to the stores and wires the engine. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	if opts.Registerer != nil {
		a.Metrics = metrics.NewWithRegistry(opts.Registerer)
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: cfg.DatabaseURL,
		MaxConns:    cfg.DatabaseMaxConns,
		MinConns:    cfg.DatabaseMinConns,
	})
	if err != nil {
		return nil, err
	}
	a.Pool = pool
	logger.Info().Msg("connected to postgres")

	if opts.WithRedis {
		client, err := redis.NewClient(ctx, redis.ClientConfig{
			URL:        cfg.RedisURL,
			ClientName: "farmledger",
			PoolSize:   cfg.RedisPoolSize,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = client
		logger.Info().Msg("connected to redis")
	}

	if opts.WithJournal {
		j, err := journal.NewTickJournal(cfg.JournalDir)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open tick journal: %w", err)
		}
		a.Journal = j
	}

	a.Engine = NewEngine(cfg, pool, a.Metrics, logger)
	return a, nil
}

// AccrualWorker builds the periodic accrual worker. Without Redis every
// process ticks on its own, which stays correct but wastes work.
func (a *App) AccrualWorker() *worker.AccrualWorker {
	wcfg := worker.AccrualWorkerConfig{
		Runner:   a.Engine.Accrual,
		Logger:   a.Logger,
		Interval: a.Config.AccrualInterval,
		LeaseTTL: a.Config.AccrualLockTTL,
	}
	if a.Redis != nil {
		wcfg.Lease = redisRepo.NewLeaseLocker(a.Redis)
	}
	if a.Journal != nil {
		wcfg.Journal = a.Journal
	}
	return worker.NewAccrualWorker(wcfg)
}

// OutboxRelay builds the outbox relay. Events go to the Redis stream when
// Redis is available and to the log otherwise.
func (a *App) OutboxRelay() *eventpublisher.EventPublisher {
	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(a.Logger)
	if a.Redis != nil {
		publisher = redisRepo.NewStreamPublisher(a.Redis, a.Config.OutboxStream)
	}

	cfg := eventpublisher.Config{
		OutboxRepo: a.Engine.Outbox,
		Publisher:  publisher,
		Logger:     a.Logger,
		BatchSize:  a.Config.OutboxBatchSize,
		Interval:   a.Config.OutboxInterval,
		Retention:  a.Config.OutboxRetention,
	}
	if a.Metrics != nil {
		cfg.Observer = a.Metrics
	}
	return eventpublisher.NewEventPublisher(cfg)
}

// Close releases every connection opened by New.
func (a *App) Close() {
	if a.Journal != nil {
		if err := a.Journal.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close tick journal")
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
