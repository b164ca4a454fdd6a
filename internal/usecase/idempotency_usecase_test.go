package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
	"github.com/iho/farmledger/internal/usecase/mocks"
)

func TestIdempotencyGuard_Guard(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProcessedEventRepository(ctrl)
	txManager := mocks.NewMockTransactionManager()
	guard := usecase.NewIdempotencyGuard(usecase.NewUnitOfWork(txManager, nil, 0), repo, nil)

	ctx := context.Background()

	t.Run("first delivery runs fn and commits", func(t *testing.T) {
		repo.EXPECT().
			Register(gomock.Any(), gomock.Any(), usecase.ScopeMission, "quest-1", gomock.Any()).
			Return(true, nil)

		ran := false
		admitted, err := guard.Guard(ctx, usecase.ScopeMission, " quest-1 ", func(ctx context.Context, tx usecase.Transaction) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, admitted)
		assert.True(t, ran)
	})

	t.Run("redelivery skips fn", func(t *testing.T) {
		repo.EXPECT().
			Register(gomock.Any(), gomock.Any(), usecase.ScopeMission, "quest-1", gomock.Any()).
			Return(false, nil)

		admitted, err := guard.Guard(ctx, usecase.ScopeMission, "quest-1", func(ctx context.Context, tx usecase.Transaction) error {
			t.Fatal("fn must not run for a duplicate")
			return nil
		})
		require.NoError(t, err)
		assert.False(t, admitted)
	})

	t.Run("fn failure rolls back", func(t *testing.T) {
		repo.EXPECT().
			Register(gomock.Any(), gomock.Any(), usecase.ScopeMission, "quest-2", gomock.Any()).
			Return(true, nil)

		rollbacks := txManager.Rollbacks.Load()
		boom := errors.New("boom")
		admitted, err := guard.Guard(ctx, usecase.ScopeMission, "quest-2", func(ctx context.Context, tx usecase.Transaction) error {
			return boom
		})
		require.ErrorIs(t, err, boom)
		assert.False(t, admitted)
		assert.Equal(t, rollbacks+1, txManager.Rollbacks.Load())
	})

	t.Run("invalid reference never reaches the store", func(t *testing.T) {
		_, err := guard.Guard(ctx, usecase.ScopeMission, "   ", func(ctx context.Context, tx usecase.Transaction) error {
			return nil
		})
		require.ErrorIs(t, err, domain.ErrInvalidReference)
	})
}

func TestIdempotencyGuard_Seen(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockProcessedEventRepository(ctrl)
	guard := usecase.NewIdempotencyGuard(usecase.NewUnitOfWork(mocks.NewMockTransactionManager(), nil, 0), repo, nil)

	repo.EXPECT().Exists(gomock.Any(), usecase.ScopeDeposit, "0xabc").Return(true, nil)

	seen, err := guard.Seen(context.Background(), usecase.ScopeDeposit, "0xabc")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestIdempotencyGuard_RolledBackRegistrationCanBeRetried(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.guard.Guard(ctx, usecase.ScopeMission, "daily-login", func(ctx context.Context, tx usecase.Transaction) error {
		return domain.ErrTransientStore
	})
	require.ErrorIs(t, err, domain.ErrTransientStore)

	seen, err := e.guard.Seen(ctx, usecase.ScopeMission, "daily-login")
	require.NoError(t, err)
	assert.False(t, seen)

	admitted, err := e.guard.Guard(ctx, usecase.ScopeMission, "daily-login", func(ctx context.Context, tx usecase.Transaction) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, admitted)

	admitted, err = e.guard.Guard(ctx, usecase.ScopeMission, "daily-login", func(ctx context.Context, tx usecase.Transaction) error {
		return nil
	})
	require.NoError(t, err)
	assert.False(t, admitted)

	// Scopes are independent.
	admitted, err = e.guard.Guard(ctx, usecase.ScopeDeposit, "daily-login", func(ctx context.Context, tx usecase.Transaction) error {
		return nil
	})
	require.NoError(t, err)
	assert.True(t, admitted)
}
