package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/farmledger/internal/domain"
	"github.com/iho/farmledger/internal/usecase"
)

func TestRewardUseCase_GrantFansOut(t *testing.T) {
	e := newEngine(t)
	e.chain(t, "grandparent", "parent", "player")
	ctx := context.Background()

	input := usecase.GrantRewardInput{
		AccountID:         "player",
		ExternalReference: "mission-42",
		Description:       "weekly mission",
		Currency:          domain.CurrencyPoints,
		Amount:            dec("50"),
	}

	result, err := e.rewards.Grant(ctx, input)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	require.NotNil(t, result.Entry)
	assert.Equal(t, domain.EntryKindRewardAccrual, result.Entry.Kind)
	require.NotNil(t, result.Distribution)
	assert.Len(t, result.Distribution.Commissions, 2)

	e.requireBalance(t, "player", domain.CurrencyPoints, "50")
	e.requireBalance(t, "parent", domain.CurrencyPoints, "50")
	e.requireBalance(t, "grandparent", domain.CurrencyPoints, "1")

	again, err := e.rewards.Grant(ctx, input)
	require.NoError(t, err)
	assert.True(t, again.Duplicate)
	assert.Len(t, e.store.AllEntries(), 3)

	entries, err := e.entries.GetEntriesByEventID(ctx, "mission:mission-42")
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	e.requireReconciled(t, "player", "parent", "grandparent")
}

func TestRewardUseCase_FailedGrantCanBeRedelivered(t *testing.T) {
	e := newEngine(t)
	e.account(t, "player")
	ctx := context.Background()

	_, err := e.rewards.Grant(ctx, usecase.GrantRewardInput{
		AccountID:         "player",
		ExternalReference: "mission-7",
		Currency:          domain.CurrencyPoints,
		Amount:            dec("0"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	result, err := e.rewards.Grant(ctx, usecase.GrantRewardInput{
		AccountID:         "player",
		ExternalReference: "mission-7",
		Currency:          domain.CurrencyPoints,
		Amount:            dec("5"),
	})
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	e.requireBalance(t, "player", domain.CurrencyPoints, "5")
}
