package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/rule"
	"github.com/yeisme/classmedia/pkg/tracing"
)

const (
	fieldTitle = "title"
	// 文本字段最多读取的字节数
	maxFieldBytes = 4 << 10
)

// ErrStreamAborted 上传过程中请求体读取失败，部分写入的文件已删除.
var ErrStreamAborted = errors.New("upload stream aborted")

// IngestResult 已写入 .part 的上传.
type IngestResult struct {
	ID       string
	TempPath string
	Filename string
	Ext      string
	Kind     string
	Title    string
	Bytes    int64
	Checksum string
}

// Ingestor 流式解析 multipart 请求并写盘.
type Ingestor struct {
	disk  *disk.Store
	media *configs.MediaConfig
}

// NewIngestor 创建 Ingestor.
func NewIngestor(store *disk.Store, media *configs.MediaConfig) *Ingestor {
	return &Ingestor{disk: store, media: media}
}

// LimitBody 给请求体加上硬上限，留出 multipart 分隔符与文本字段的余量.
func (in *Ingestor) LimitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, in.media.MaxUploadBytes+in.media.MultipartSlack)
}

// Ingest 读取全部 part：title 文本字段与第一个文件 part，其余文件 part 读完丢弃.
// 扩展名不在 accepted 类型内时照常读完请求体但不写盘.
// 返回错误时磁盘上不会留下任何文件.
func (in *Ingestor) Ingest(ctx context.Context, mr *multipart.Reader, accepted []string) (res *IngestResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.ingest")
	defer func() { tracing.End(span, err) }()

	var (
		title    string
		rejected error
	)

	defer func() {
		if err != nil && res != nil {
			_ = disk.RemovePath(res.TempPath)
			res = nil
		}
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return res, fmt.Errorf("%w: %w", ErrStreamAborted, cerr)
		}

		part, perr := mr.NextPart()
		if errors.Is(perr, io.EOF) {
			break
		}

		if perr != nil {
			return res, bodyError(perr)
		}

		switch {
		case part.FileName() == "":
			if part.FormName() == fieldTitle {
				b, rerr := io.ReadAll(io.LimitReader(part, maxFieldBytes))
				if rerr != nil {
					return res, bodyError(rerr)
				}

				title = string(b)
			}

			err = drain(part)
		case res != nil || rejected != nil:
			err = drain(part)
		default:
			res, rejected, err = in.savePart(part, accepted)
		}

		_ = part.Close()

		if err != nil {
			return res, err
		}
	}

	if rejected != nil {
		return nil, rejected
	}

	if res == nil {
		return nil, invalid("file", "no file in request")
	}

	title = strings.TrimSpace(title)
	if err := in.validateTitle(title); err != nil {
		return res, err
	}

	res.Title = title

	span.SetAttributes(
		attribute.String("file.kind", res.Kind),
		attribute.Int64("file.size", res.Bytes),
	)

	return res, nil
}

// savePart 写入第一个文件 part. rejected 非空时 part 已被读完且未写盘.
func (in *Ingestor) savePart(part *multipart.Part, accepted []string) (*IngestResult, error, error) {
	ext := strings.ToLower(filepath.Ext(part.FileName()))
	kind := in.media.KindOf(ext)

	if kind == "" || !slices.Contains(accepted, kind) {
		if err := drain(part); err != nil {
			return nil, nil, err
		}

		return nil, invalid("file", fmt.Sprintf("extension %q is not allowed", ext)), nil
	}

	id := model.NewID()
	name := id + ext
	limit := in.media.MaxUploadBytes

	meter := &Meter{}
	src := &readErrRecorder{r: io.LimitReader(part, limit+1)}

	saved, err := in.disk.SavePart(io.TeeReader(src, meter), name)
	if err != nil {
		if src.err != nil {
			return nil, nil, bodyError(src.err)
		}

		return nil, nil, err
	}

	if meter.Bytes() > limit {
		_ = disk.RemovePath(saved.PartPath)

		return nil, nil, invalid("file", "file too large")
	}

	if meter.Bytes() == 0 {
		_ = disk.RemovePath(saved.PartPath)

		return nil, invalid("file", "file is empty"), nil
	}

	return &IngestResult{
		ID:       id,
		TempPath: saved.PartPath,
		Filename: name,
		Ext:      strings.TrimPrefix(ext, "."),
		Kind:     kind,
		Bytes:    meter.Bytes(),
		Checksum: saved.Checksum,
	}, nil, nil
}

func (in *Ingestor) validateTitle(title string) error {
	if title == "" {
		return invalid(fieldTitle, "title is required")
	}

	if utf8.RuneCountInString(title) > in.media.TitleMaxLen {
		return invalid(fieldTitle, fmt.Sprintf("title must be at most %d characters", in.media.TitleMaxLen))
	}

	if err := rule.ValidateVar(title, "no_ctrl"); err != nil {
		return invalid(fieldTitle, "title contains control characters")
	}

	return nil
}

func drain(r io.Reader) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return bodyError(err)
	}

	return nil
}

// bodyError 超过上限的请求体视为校验失败，其余为流中断.
func bodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return invalid("file", "file too large")
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrStreamAborted, err)
	}

	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %w", ErrStreamAborted, err)
	}

	return &ValidationError{Field: "body", Reason: "malformed multipart body: " + err.Error()}
}
