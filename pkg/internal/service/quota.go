package service

import (
	"time"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/metrics"
)

// 配额拒绝发生的阶段.
const (
	stagePrecheck = "precheck"
	stageReserve  = "reserve"
)

// QuotaEnforcer 按套餐计算剩余配额.
type QuotaEnforcer struct {
	plans configs.PlansConfig
}

// NewQuotaEnforcer 创建配额检查器.
func NewQuotaEnforcer(plans configs.PlansConfig) *QuotaEnforcer {
	return &QuotaEnforcer{plans: plans}
}

// QuotaFor 套餐的存储上限，未知套餐为 0.
func (q *QuotaEnforcer) QuotaFor(planID string) int64 {
	return q.plans.QuotaFor(planID)
}

// Remaining 剩余可用字节，不小于 0.
func (q *QuotaEnforcer) Remaining(class *model.Class) int64 {
	return max(q.QuotaFor(class.PlanID)-class.StorageUsed, 0)
}

// Check 写盘完成后的检查，超出时返回 *QuotaExceededError.
// 配额为 0 的套餐（free 与未知套餐）一律拒绝，与文件大小无关.
// 并发上传最终由 Ledger.Reserve 裁决.
func (q *QuotaEnforcer) Check(class *model.Class, bytes int64) error {
	if remaining := q.Remaining(class); q.QuotaFor(class.PlanID) == 0 || bytes > remaining {
		metrics.QuotaRejections.WithLabelValues(stagePrecheck).Inc()

		return &QuotaExceededError{Need: bytes, Remaining: remaining}
	}

	return nil
}

// PlanActive 付费套餐的付款时间必须在 premium_period 内，免费套餐总是通过.
func (q *QuotaEnforcer) PlanActive(class *model.Class, now time.Time) error {
	if !q.plans.IsPaid(class.PlanID) {
		return nil
	}

	if class.PayedOn == nil || now.Sub(*class.PayedOn) > q.plans.PremiumPeriod {
		return ErrPlanInactive
	}

	return nil
}
