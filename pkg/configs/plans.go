package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	PlanStandard = "standard"
	PlanFree     = "free"

	DefaultStandardStorage = 20 << 30 // 20 GiB
	DefaultPremiumPeriod   = "720h"   // 30 天
)

// Plan 单个套餐.
type Plan struct {
	Storage int64 `mapstructure:"storage" json:"storage"` // 存储上限（字节），0 表示不允许上传
	People  int   `mapstructure:"people"  json:"people"`
	// Paid 付费套餐需要在 PremiumPeriod 内续费.
	Paid bool `mapstructure:"paid" json:"paid"`
}

// PlansConfig 套餐表与付费有效期.
type PlansConfig struct {
	Catalog       map[string]Plan `mapstructure:"catalog"`
	PremiumPeriod time.Duration   `mapstructure:"premium_period"`
}

// QuotaFor 返回套餐的存储上限，未知套餐为 0.
func (c *PlansConfig) QuotaFor(planID string) int64 {
	if p, ok := c.Catalog[planID]; ok && p.Storage > 0 {
		return p.Storage
	}

	return 0
}

// IsPaid 套餐是否需要付费有效期.
func (c *PlansConfig) IsPaid(planID string) bool {
	p, ok := c.Catalog[planID]

	return ok && p.Paid
}

func (c *PlansConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("plans.catalog", map[string]Plan{
		PlanStandard: {Storage: DefaultStandardStorage, People: 1000, Paid: true},
		PlanFree:     {Storage: 0, People: 50, Paid: false},
	})
	v.SetDefault("plans.premium_period", DefaultPremiumPeriod)
}
