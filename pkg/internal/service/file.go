package service

import (
	"context"
	"errors"
	"io/fs"
	"mime/multipart"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/metrics"
	"github.com/yeisme/classmedia/pkg/queue"
	"github.com/yeisme/classmedia/pkg/tracing"
)

// FileService 上传、列表与读取媒体文件.
type FileService struct {
	env    *Env
	ledger Ledger
	quota  *QuotaEnforcer
	ingest *Ingestor
}

// NewFileService 创建 FileService.
func NewFileService(env *Env) *FileService {
	return &FileService{
		env:    env,
		quota:  NewQuotaEnforcer(env.Cfg.Plans),
		ingest: NewIngestor(env.Disk, &env.Cfg.Media),
	}
}

func (s *FileService) media() *configs.MediaConfig { return &s.env.Cfg.Media }

// Ingestor 返回上传解析器，handler 用它限制请求体.
func (s *FileService) Ingestor() *Ingestor { return s.ingest }

// UploadInput 一次上传请求.
type UploadInput struct {
	ClassID  string
	ModuleID string
	Actor    string
	// Kind 为路由参数 t，空值取默认类型
	Kind string
	Body *multipart.Reader
}

// Upload 流式写盘、检查配额并提交.
// 任意一步失败都不会留下文件行、ledger 变化或磁盘文件.
func (s *FileService) Upload(ctx context.Context, in UploadInput) (f *model.File, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.upload",
		attribute.String("class.id", in.ClassID),
		attribute.String("module.id", in.ModuleID),
	)
	defer func() { tracing.End(span, err) }()

	defer func() {
		switch {
		case err == nil:
			metrics.Uploads.WithLabelValues(metrics.ResultOK).Inc()
		case errors.Is(err, ErrQuotaExceeded):
			metrics.Uploads.WithLabelValues(metrics.ResultQuota).Inc()
		case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
			metrics.Uploads.WithLabelValues(metrics.ResultRejected).Inc()
		default:
			metrics.Uploads.WithLabelValues(metrics.ResultError).Inc()
		}
	}()

	accepted := s.media().AcceptedKinds(in.Kind)
	if accepted == nil {
		return nil, invalid("t", "unknown file kind "+in.Kind)
	}

	if _, err := s.module(ctx, s.env.db(ctx), in.ClassID, in.ModuleID); err != nil {
		return nil, err
	}

	res, err := s.ingest.Ingest(ctx, in.Body, accepted)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			s.env.publishRejected(ctx, queue.FileRejectedPayload{
				ClassID: in.ClassID, ModuleID: in.ModuleID, Actor: in.Actor, Reason: err.Error(),
			})
		}

		return nil, err
	}

	// 写盘期间 storage_used 可能已变化，重新读取
	class, err := loadClass(s.env.db(ctx), in.ClassID)
	if err == nil {
		err = s.quota.Check(class, res.Bytes)
	}

	if err != nil {
		_ = disk.RemovePath(res.TempPath)

		if errors.Is(err, ErrQuotaExceeded) {
			s.env.publishRejected(ctx, queue.FileRejectedPayload{
				ClassID: in.ClassID, ModuleID: in.ModuleID, Actor: in.Actor, Reason: err.Error(), Size: res.Bytes,
			})
		}

		return nil, err
	}

	f, err = s.commit(ctx, class, in.ModuleID, res)
	if err != nil {
		return nil, err
	}

	metrics.UploadedBytes.Add(float64(f.FileSize))
	s.env.invalidateFiles(ctx, in.ClassID, in.ModuleID)
	s.env.publishCommitted(ctx, queue.FileCommittedPayload{
		File:  s.fileRef(in.ClassID, f),
		Title: f.Title,
		Actor: in.Actor,
	})

	return f, nil
}

// commit 事务内创建文件行并原子预留配额，提交前把 .part 重命名为正式文件.
func (s *FileService) commit(ctx context.Context, class *model.Class, moduleID string, res *IngestResult) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "media.commit")

	f := &model.File{
		ID:       res.ID,
		ModuleID: moduleID,
		Title:    res.Title,
		Filename: res.Filename,
		FileSize: res.Bytes,
		Checksum: res.Checksum,
	}

	final := ""

	err := s.env.db(ctx).Transaction(func(tx *gorm.DB) error {
		// 共享锁阻止并发的 DeleteModule 在本事务提交前删除模块
		if _, err := findModule(tx.Clauses(clause.Locking{Strength: "SHARE"}), class.ID, moduleID); err != nil {
			return err
		}

		if err := tx.Create(f).Error; err != nil {
			if errors.Is(err, gorm.ErrForeignKeyViolated) {
				return notFound("module", moduleID)
			}

			return err
		}

		if err := s.ledger.Reserve(tx, class.ID, res.Bytes, s.quota.QuotaFor(class.PlanID)); err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				metrics.QuotaRejections.WithLabelValues(stageReserve).Inc()
			}

			return err
		}

		p, err := s.env.Disk.Promote(res.TempPath)
		if err != nil {
			return err
		}

		final = p

		return nil
	})
	if err != nil {
		_ = disk.RemovePath(res.TempPath)
		if final != "" {
			_ = disk.RemovePath(final)
		}

		err = txError(err)
	}

	tracing.End(span, err)

	if err != nil {
		return nil, err
	}

	return f, nil
}

// module 读取属于 classID 的模块.
func (s *FileService) module(ctx context.Context, db *gorm.DB, classID, moduleID string) (*model.Module, error) {
	return findModule(db.WithContext(ctx), classID, moduleID)
}

func findModule(db *gorm.DB, classID, moduleID string) (*model.Module, error) {
	var m model.Module
	if err := db.Where("id = ? AND class_id = ?", moduleID, classID).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("module", moduleID)
		}

		return nil, err
	}

	return &m, nil
}

func (s *FileService) fileRef(classID string, f *model.File) queue.FileRef {
	return queue.FileRef{
		ID:       f.ID,
		ClassID:  classID,
		ModuleID: f.ModuleID,
		Filename: f.Filename,
		Kind:     s.media().KindOf(f.Ext()),
		Size:     f.FileSize,
		Checksum: f.Checksum,
	}
}

// Media 已打开的媒体文件，调用方负责 Close.
type Media struct {
	*os.File
	Name     string
	Kind     string
	Size     int64
	Checksum string
	Info     fs.FileInfo
}

// OpenFile 按 (module, filename) 打开已提交的文件，只有数据库中存在的文件才能访问.
func (s *FileService) OpenFile(ctx context.Context, classID, moduleID, filename string) (*Media, error) {
	if _, err := s.module(ctx, s.env.db(ctx), classID, moduleID); err != nil {
		return nil, err
	}

	var f model.File
	if err := s.env.db(ctx).Where("module_id = ? AND filename = ?", moduleID, filename).Take(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("file", filename)
		}

		return nil, err
	}

	m, err := s.open(disk.Modules, f.Filename)
	if err != nil {
		return nil, err
	}

	m.Kind = s.media().KindOf(f.Ext())
	m.Checksum = f.Checksum

	return m, nil
}

// OpenPreview 打开班级内某个文件的预览图.
func (s *FileService) OpenPreview(ctx context.Context, classID, preview string) (*Media, error) {
	var n int64
	if err := s.env.db(ctx).Model(&model.File{}).
		Joins("JOIN modules ON modules.id = files.module_id").
		Where("modules.class_id = ? AND files.preview = ?", classID, preview).
		Count(&n).Error; err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, notFound("preview", preview)
	}

	m, err := s.open(disk.Previews, preview)
	if err != nil {
		return nil, err
	}

	m.Kind = configs.KindImage

	return m, nil
}

// OpenHLS 打开班级内某个文件的 HLS 播放列表或分片.
func (s *FileService) OpenHLS(ctx context.Context, classID, name string) (*Media, error) {
	playlist := hlsPlaylistName(name)
	if playlist == "" {
		return nil, notFound("playlist", name)
	}

	var n int64
	if err := s.env.db(ctx).Model(&model.File{}).
		Joins("JOIN modules ON modules.id = files.module_id").
		Where("modules.class_id = ? AND files.playlist = ?", classID, playlist).
		Count(&n).Error; err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, notFound("playlist", name)
	}

	return s.open(disk.HLS, name)
}

func (s *FileService) open(a disk.Area, name string) (*Media, error) {
	f, info, err := s.env.Disk.Open(a, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, disk.ErrUnsafeName) {
			return nil, notFound("file", name)
		}

		return nil, err
	}

	return &Media{File: f, Name: name, Size: info.Size(), Info: info}, nil
}
