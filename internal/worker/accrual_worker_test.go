package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/farmledger/internal/adapter/repository/redis"
	"github.com/iho/farmledger/internal/usecase"
	"github.com/iho/farmledger/internal/worker"
	"github.com/iho/farmledger/internal/worker/mocks"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func TestRunOnceWithLease(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)
	lease := mocks.NewMockLease(ctrl)
	journal := mocks.NewMockJournal(ctrl)

	report := &usecase.TickReport{Now: fixedNow, Positions: 4, Credited: 4}

	gomock.InOrder(
		lease.EXPECT().Acquire(gomock.Any(), "accrual-tick", gomock.Any(), 90*time.Second).Return(true, nil),
		runner.EXPECT().RunTick(gomock.Any(), fixedNow).Return(report, nil),
		journal.EXPECT().Append(report).Return(uint64(1), nil),
		lease.EXPECT().Release(gomock.Any(), "accrual-tick", gomock.Any()).Return(nil),
	)

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{
		Runner:   runner,
		Lease:    lease,
		Journal:  journal,
		Logger:   zerolog.Nop(),
		Now:      clock,
		LeaseTTL: 90 * time.Second,
	})

	got, ran, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Same(t, report, got)
}

func TestRunOnceSkipsWhenLeaseHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)
	lease := mocks.NewMockLease(ctrl)

	lease.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{Runner: runner, Lease: lease, Logger: zerolog.Nop(), Now: clock})

	report, ran, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Nil(t, report)
}

func TestRunOnceLeaseError(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)
	lease := mocks.NewMockLease(ctrl)

	lease.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{Runner: runner, Lease: lease, Logger: zerolog.Nop(), Now: clock})

	_, ran, err := w.RunOnce(context.Background())
	require.Error(t, err)
	assert.False(t, ran)
}

func TestRunOnceReleasesLeaseOnTickError(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)
	lease := mocks.NewMockLease(ctrl)
	journal := mocks.NewMockJournal(ctrl)

	lease.EXPECT().Acquire(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
	runner.EXPECT().RunTick(gomock.Any(), fixedNow).Return(nil, context.DeadlineExceeded)
	lease.EXPECT().Release(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{
		Runner: runner, Lease: lease, Journal: journal, Logger: zerolog.Nop(), Now: clock,
	})

	_, ran, err := w.RunOnce(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, ran)
}

func TestRunOnceJournalFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)
	journal := mocks.NewMockJournal(ctrl)

	report := &usecase.TickReport{Now: fixedNow}
	runner.EXPECT().RunTick(gomock.Any(), fixedNow).Return(report, nil)
	journal.EXPECT().Append(report).Return(uint64(0), errors.New("disk full"))

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{Runner: runner, Journal: journal, Logger: zerolog.Nop(), Now: clock})

	got, ran, err := w.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Same(t, report, got)
}

func TestStartTicksImmediatelyAndStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mocks.NewMockTickRunner(ctrl)

	ticked := make(chan struct{}, 16)
	runner.EXPECT().RunTick(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (*usecase.TickReport, error) {
			ticked <- struct{}{}
			return &usecase.TickReport{}, nil
		}).
		MinTimes(1)

	w := worker.NewAccrualWorker(worker.AccrualWorkerConfig{
		Runner:   runner,
		Logger:   zerolog.Nop(),
		Interval: time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	select {
	case <-ticked:
	case <-time.After(time.Second):
		t.Fatal("worker did not tick on start")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestTwoWorkersShareOneLease(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	defer client.Close()

	locker := redis.NewLeaseLocker(client)
	ctx := context.Background()

	// first worker holds the lease while its tick is in flight
	release := make(chan struct{})
	started := make(chan struct{})
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockTickRunner(ctrl)
	slow.EXPECT().RunTick(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (*usecase.TickReport, error) {
			close(started)
			<-release
			return &usecase.TickReport{}, nil
		})
	idle := mocks.NewMockTickRunner(ctrl)

	first := worker.NewAccrualWorker(worker.AccrualWorkerConfig{Runner: slow, Lease: locker, Logger: zerolog.Nop()})
	second := worker.NewAccrualWorker(worker.AccrualWorkerConfig{Runner: idle, Lease: locker, Logger: zerolog.Nop()})

	done := make(chan bool, 1)
	go func() {
		_, ran, _ := first.RunOnce(ctx)
		done <- ran
	}()
	<-started

	_, ran, err := second.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, ran)

	close(release)
	assert.True(t, <-done)
	assert.False(t, mr.Exists("lease:accrual-tick"))
}
