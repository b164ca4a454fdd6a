package app

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/infrastructure/config"
	"github.com/iho/farmledger/internal/infrastructure/metrics"
)

func TestWithdrawalFees(t *testing.T) {
	assert.Empty(t, WithdrawalFees(&config.Config{}))

	fees := WithdrawalFees(&config.Config{WithdrawalFeeTON: decimal.RequireFromString("0.05")})
	assert.True(t, fees[domain.CurrencyTON].Equal(decimal.RequireFromString("0.05")))
	assert.NotContains(t, fees, domain.CurrencyUSDT)
}

func TestNewEngineWiresEveryUseCase(t *testing.T) {
	cfg := &config.Config{DatabaseTimeout: time.Second, AccrualBatchSize: 10, AccrualConcurrency: 2}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	e := NewEngine(cfg, nil, m, zerolog.Nop())

	assert.NotNil(t, e.Balances)
	assert.NotNil(t, e.Sponsors)
	assert.NotNil(t, e.Referral)
	assert.NotNil(t, e.Positions)
	assert.NotNil(t, e.Accrual)
	assert.NotNil(t, e.Rewards)
	assert.NotNil(t, e.Deposits)
	assert.NotNil(t, e.Withdrawals)
	assert.NotNil(t, e.Reconciliation)
	assert.NotNil(t, e.Entries)
	assert.NotNil(t, e.Outbox)
}

func TestAppBuildsWorkersWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		DatabaseTimeout: time.Second,
		AccrualInterval: time.Minute,
		AccrualLockTTL:  time.Minute,
		OutboxInterval:  time.Second,
	}
	a := &App{Config: cfg, Logger: zerolog.Nop(), Engine: NewEngine(cfg, nil, nil, zerolog.Nop())}

	assert.NotNil(t, a.AccrualWorker())
	assert.NotNil(t, a.OutboxRelay())
	a.Close()
}
