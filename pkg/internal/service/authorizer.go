package service

import (
	"context"

	"github.com/yeisme/classmedia/pkg/internal/model"
)

// Authorizer 班级访问判断，成员关系由外部系统维护.
type Authorizer interface {
	// CanWrite 是否可以上传、删除与管理模块.
	CanWrite(ctx context.Context, actor string, class *model.Class) bool
	// CanRead 是否可以查看文件与播放视频.
	CanRead(ctx context.Context, actor string, class *model.Class) bool
}

// OwnerAuthorizer 默认实现：班级所有者可写，任何已认证用户可读.
type OwnerAuthorizer struct{}

func (OwnerAuthorizer) CanWrite(_ context.Context, actor string, class *model.Class) bool {
	return actor != "" && class != nil && class.Owner == actor
}

func (OwnerAuthorizer) CanRead(_ context.Context, actor string, class *model.Class) bool {
	return actor != "" && class != nil
}
