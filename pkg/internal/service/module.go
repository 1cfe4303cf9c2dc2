package service

import (
	"context"
	"strings"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

// ModuleService 管理班级下的模块.
type ModuleService struct {
	env     *Env
	cleaner *Cleaner
}

// NewModuleService 创建 ModuleService.
func NewModuleService(env *Env) *ModuleService {
	return &ModuleService{env: env, cleaner: NewCleaner(env)}
}

// Create 在班级下创建模块.
func (s *ModuleService) Create(ctx context.Context, classID string, req *types.ModuleRequest) (*model.Module, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	if _, err := loadClass(s.env.db(ctx), classID); err != nil {
		return nil, err
	}

	m := &model.Module{ID: model.NewID(), ClassID: classID, Title: title}
	if err := s.env.db(ctx).Create(m).Error; err != nil {
		return nil, txError(err)
	}

	return m, nil
}

// List 按创建时间列出班级的模块.
func (s *ModuleService) List(ctx context.Context, classID string) ([]model.Module, error) {
	var out []model.Module
	if err := s.env.db(ctx).Where("class_id = ?", classID).Order("created_at").Order("id").Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Rename 修改模块标题.
func (s *ModuleService) Rename(ctx context.Context, classID, moduleID string, req *types.ModuleRequest) (*model.Module, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalid("title", "title is required")
	}

	res := s.env.db(ctx).Model(&model.Module{}).
		Where("id = ? AND class_id = ?", moduleID, classID).
		Update("title", title)
	if res.Error != nil {
		return nil, txError(res.Error)
	}

	if res.RowsAffected == 0 {
		return nil, notFound("module", moduleID)
	}

	return findModule(s.env.db(ctx), classID, moduleID)
}

// Delete 删除模块及其全部文件.
func (s *ModuleService) Delete(ctx context.Context, classID, moduleID string) (*types.DeleteModuleResponse, error) {
	return s.cleaner.DeleteModule(ctx, classID, moduleID)
}
