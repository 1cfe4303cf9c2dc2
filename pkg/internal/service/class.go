package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

// ClassService 读取外部维护的班级记录.
type ClassService struct {
	env   *Env
	quota *QuotaEnforcer
}

// NewClassService 创建 ClassService.
func NewClassService(env *Env) *ClassService {
	return &ClassService{env: env, quota: NewQuotaEnforcer(env.Cfg.Plans)}
}

// Get 按 ID 读取班级.
func (s *ClassService) Get(ctx context.Context, classID string) (*model.Class, error) {
	return loadClass(s.env.db(ctx), classID)
}

func loadClass(db *gorm.DB, classID string) (*model.Class, error) {
	var c model.Class
	if err := db.Where("id = ?", classID).Take(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("class", classID)
		}

		return nil, err
	}

	return &c, nil
}

// Storage 班级的配额与用量.
func (s *ClassService) Storage(ctx context.Context, classID string) (*types.StorageInfo, error) {
	c, err := s.Get(ctx, classID)
	if err != nil {
		return nil, err
	}

	return &types.StorageInfo{
		ClassID:    c.ID,
		PlanID:     c.PlanID,
		Quota:      s.quota.QuotaFor(c.PlanID),
		Used:       c.StorageUsed,
		Remaining:  s.quota.Remaining(c),
		PlanActive: s.quota.PlanActive(c, time.Now()) == nil,
	}, nil
}

// PlanActive 付费套餐是否在有效期内.
func (s *ClassService) PlanActive(c *model.Class) error {
	return s.quota.PlanActive(c, time.Now())
}

// Create 写入班级记录，开发与测试环境使用.
func (s *ClassService) Create(ctx context.Context, req *types.CreateClassRequest) (*model.Class, error) {
	c := &model.Class{
		ID:      req.ID,
		Owner:   req.Owner,
		PlanID:  req.PlanID,
		PayedOn: req.PayedOn,
	}
	if c.ID == "" {
		c.ID = model.NewID()
	}

	if err := s.env.db(ctx).Create(c).Error; err != nil {
		return nil, txError(err)
	}

	return c, nil
}

// List 列出班级，可按所有者过滤.
func (s *ClassService) List(ctx context.Context, owner string) ([]model.Class, error) {
	q := s.env.db(ctx).Order("created_at DESC")
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}

	var out []model.Class
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Reconcile 按文件大小重新计算 storage_used，返回修正前后的值.
// 正常情况下二者相等，不等说明有绕过 ledger 的写入.
func (s *ClassService) Reconcile(ctx context.Context, classID string, fix bool) (before, actual int64, err error) {
	err = s.env.db(ctx).Transaction(func(tx *gorm.DB) error {
		// 排他锁期间 ledger 的原子更新会等待，SUM 与写回之间不会丢失增量
		c, err := loadClass(tx.Clauses(clause.Locking{Strength: "UPDATE"}), classID)
		if err != nil {
			return err
		}

		before = c.StorageUsed

		if err := tx.Model(&model.File{}).
			Joins("JOIN modules ON modules.id = files.module_id").
			Where("modules.class_id = ?", classID).
			Select("COALESCE(SUM(files.file_size), 0)").
			Scan(&actual).Error; err != nil {
			return err
		}

		if fix && actual != before {
			return tx.Model(&model.Class{}).Where("id = ?", classID).
				UpdateColumn("storage_used", actual).Error
		}

		return nil
	})

	return before, actual, err
}
