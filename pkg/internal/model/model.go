// Package model 定义持久化模型与迁移.
package model

import (
	"context"

	"gorm.io/gorm"
)

// All 返回需要迁移的全部模型.
func All() []any {
	return []any{&Class{}, &Module{}, &File{}, &VideoTracker{}}
}

// Migrate 自动迁移全部模型.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(All()...)
}
