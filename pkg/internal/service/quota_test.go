package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
)

func TestQuotaRemainingAndCheck(t *testing.T) {
	plans := configs.Defaults().Plans
	q := NewQuotaEnforcer(plans)
	quota := q.QuotaFor(configs.PlanStandard)
	require.Positive(t, quota)

	c := &model.Class{PlanID: configs.PlanStandard, StorageUsed: quota - 10}
	assert.Equal(t, int64(10), q.Remaining(c))
	require.NoError(t, q.Check(c, 10))

	err := q.Check(c, 11)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(10), qe.Remaining)

	c.StorageUsed = quota + 5
	assert.Zero(t, q.Remaining(c))

	assert.Zero(t, q.QuotaFor("unknown"))
}

func TestQuotaCheckRejectsZeroQuotaPlans(t *testing.T) {
	q := NewQuotaEnforcer(configs.Defaults().Plans)

	for _, plan := range []string{configs.PlanFree, "bogus"} {
		c := &model.Class{PlanID: plan}
		require.ErrorIs(t, q.Check(c, 0), ErrQuotaExceeded, plan)
		require.ErrorIs(t, q.Check(c, 1), ErrQuotaExceeded, plan)
	}
}

func TestPlanActive(t *testing.T) {
	plans := configs.Defaults().Plans
	q := NewQuotaEnforcer(plans)
	now := time.Now()

	free := &model.Class{PlanID: configs.PlanFree}
	require.NoError(t, q.PlanActive(free, now))

	paid := &model.Class{PlanID: configs.PlanStandard}
	require.ErrorIs(t, q.PlanActive(paid, now), ErrPlanInactive)

	recent := now.Add(-time.Hour)
	paid.PayedOn = &recent
	require.NoError(t, q.PlanActive(paid, now))

	expired := now.Add(-plans.PremiumPeriod - time.Hour)
	paid.PayedOn = &expired
	require.ErrorIs(t, q.PlanActive(paid, now), ErrPlanInactive)
}

func TestReconcile(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	ctx := context.Background()

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "a"), filePart("a.mp4", 100))
	require.NoError(t, err)

	require.NoError(t, env.DB.Model(&model.Class{}).Where("id = ?", c.ID).Update("storage_used", 7).Error)

	svc := NewClassService(env)

	before, actual, err := svc.Reconcile(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), before)
	assert.Equal(t, int64(100), actual)
	assert.Equal(t, int64(7), storageUsed(t, env, c.ID))

	_, _, err = svc.Reconcile(ctx, c.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(100), storageUsed(t, env, c.ID))
}

func TestReconcileFixDuringUploadsKeepsInvariant(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	ctx := context.Background()
	svc := NewClassService(env)

	var wg sync.WaitGroup

	for i := range 4 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "r"), filePart("r.mp4", 100+i))
			assert.NoError(t, err)
		}()

		go func() {
			defer wg.Done()

			_, _, err := svc.Reconcile(ctx, c.ID, true)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	before, actual, err := svc.Reconcile(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(100+101+102+103), actual)
	assert.Equal(t, actual, before)
}
