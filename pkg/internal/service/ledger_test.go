package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/configs"
)

func TestLedgerReserveAndDecrement(t *testing.T) {
	env := newTestEnv(t)
	c, _ := seedClass(t, env, configs.PlanStandard, 0)

	var l Ledger

	require.NoError(t, env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(tx, c.ID, 60, 100)
	}))

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(tx, c.ID, 50, 100)
	})

	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(40), qe.Remaining)
	assert.Equal(t, int64(60), storageUsed(t, env, c.ID))

	require.NoError(t, env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Increment(tx, c.ID, 5)
	}))
	require.NoError(t, env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Decrement(tx, c.ID, 65)
	}))
	assert.Zero(t, storageUsed(t, env, c.ID))
}

func TestLedgerDecrementDriftRollsBack(t *testing.T) {
	env := newTestEnv(t)
	c, _ := seedClass(t, env, configs.PlanStandard, 10)

	var l Ledger

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		if err := l.Increment(tx, c.ID, 5); err != nil {
			return err
		}

		return l.Decrement(tx, c.ID, 100)
	})
	require.ErrorIs(t, err, ErrLedgerDrift)
	assert.Equal(t, int64(10), storageUsed(t, env, c.ID), "the increment must be rolled back")
}

func TestLedgerUnknownClass(t *testing.T) {
	env := newTestEnv(t)

	var l Ledger

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Increment(tx, "missing", 1)
	})
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Increment(tx, "missing", -1)
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLedgerZeroBytes(t *testing.T) {
	env := newTestEnv(t)
	c, _ := seedClass(t, env, configs.PlanStandard, 10)

	var l Ledger

	require.NoError(t, env.DB.Transaction(func(tx *gorm.DB) error {
		if err := l.Increment(tx, c.ID, 0); err != nil {
			return err
		}

		return l.Reserve(tx, c.ID, 0, 10)
	}))
	assert.Equal(t, int64(10), storageUsed(t, env, c.ID))

	err := env.DB.Transaction(func(tx *gorm.DB) error {
		return l.Reserve(tx, "missing", 0, 10)
	})
	assert.ErrorIs(t, err, ErrNotFound)
}
