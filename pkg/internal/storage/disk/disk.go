// Package disk 管理本地媒体目录：上传文件、预览图与 HLS 分片.
// 写入流程为 .part 临时文件 → 计算 xxhash → fsync → 重命名.
package disk

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/yeisme/classmedia/pkg/configs"
)

// PartSuffix 未提交上传的后缀.
const PartSuffix = ".part"

const dirPerm = 0o750

// ErrUnsafeName 名称包含路径成分.
var ErrUnsafeName = errors.New("disk: unsafe file name")

// Area 媒体子目录.
type Area int

const (
	Modules Area = iota
	Previews
	HLS
)

func (a Area) String() string {
	switch a {
	case Modules:
		return "modules"
	case Previews:
		return "previews"
	case HLS:
		return "hls"
	default:
		return "unknown"
	}
}

// Store 本地媒体目录.
type Store struct {
	dirs    [3]string
	bufSize int
}

// SaveResult 写入 .part 的结果.
type SaveResult struct {
	PartPath string
	Size     int64
	Checksum string // xxhash64，十六进制
}

// New 创建目录并返回 Store.
func New(cfg *configs.MediaConfig) (*Store, error) {
	s := &Store{
		dirs:    [3]string{cfg.ModulesPath(), cfg.PreviewsPath(), cfg.HLSPath()},
		bufSize: cfg.CopyBufferBytes,
	}

	if s.bufSize <= 0 {
		s.bufSize = configs.DefaultCopyBufferBytes
	}

	for _, d := range s.dirs {
		if err := os.MkdirAll(d, dirPerm); err != nil {
			return nil, fmt.Errorf("create media dir %s: %w", d, err)
		}
	}

	return s, nil
}

// Dir 返回子目录的路径.
func (s *Store) Dir(a Area) string { return s.dirs[a] }

// Path 返回子目录下文件的完整路径，名称不能包含路径成分.
func (s *Store) Path(a Area, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrUnsafeName
	}

	return filepath.Join(s.dirs[a], name), nil
}

// SavePart 把 r 写入 modules/<name>.part 并计算大小与校验和.
// 出错时删除临时文件；成功后由调用方 Promote 或 Remove.
func (s *Store) SavePart(r io.Reader, name string) (*SaveResult, error) {
	final, err := s.Path(Modules, name)
	if err != nil {
		return nil, err
	}

	part := final + PartSuffix

	f, err := os.OpenFile(part, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("create part file: %w", err)
	}

	h := xxhash.New()
	buf := make([]byte, s.bufSize)

	size, err := io.CopyBuffer(f, io.TeeReader(r, h), buf)
	if err == nil {
		err = f.Sync()
	}

	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(part)

		return nil, fmt.Errorf("write part file: %w", err)
	}

	return &SaveResult{
		PartPath: part,
		Size:     size,
		Checksum: strconv.FormatUint(h.Sum64(), 16),
	}, nil
}

// Promote 把 .part 重命名为最终文件名.
func (s *Store) Promote(part string) (string, error) {
	if !strings.HasSuffix(part, PartSuffix) {
		return "", fmt.Errorf("not a part file: %s", part)
	}

	final := strings.TrimSuffix(part, PartSuffix)
	if err := os.Rename(part, final); err != nil {
		return "", fmt.Errorf("promote part file: %w", err)
	}

	return final, nil
}

// Open 打开子目录下的文件.
func (s *Store) Open(a Area, name string) (*os.File, fs.FileInfo, error) {
	p, err := s.Path(a, name)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, nil, err
	}

	if info.IsDir() {
		_ = f.Close()

		return nil, nil, fs.ErrNotExist
	}

	return f, info, nil
}

// RemovePath 删除文件，不存在不算错误.
func RemovePath(p string) error {
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// Remove 删除子目录下的文件，不存在不算错误.
func (s *Store) Remove(a Area, name string) error {
	p, err := s.Path(a, name)
	if err != nil {
		return err
	}

	return RemovePath(p)
}

// HLSFiles 返回 base 对应的播放列表与全部分片.
func (s *Store) HLSFiles(base string) ([]string, error) {
	if base == "" || strings.ContainsAny(base, `/\*?[`) {
		return nil, ErrUnsafeName
	}

	segs, err := filepath.Glob(filepath.Join(s.dirs[HLS], base+"_*.ts"))
	if err != nil {
		return nil, err
	}

	playlist := filepath.Join(s.dirs[HLS], base+".m3u8")
	if _, err := os.Stat(playlist); err == nil {
		segs = append(segs, playlist)
	}

	return segs, nil
}

// Entry 目录扫描结果.
type Entry struct {
	Area    Area
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Scan 列出子目录下的普通文件.
func (s *Store) Scan(a Area) ([]Entry, error) {
	des, err := os.ReadDir(s.dirs[a])
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(des))

	for _, de := range des {
		if !de.Type().IsRegular() {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		out = append(out, Entry{
			Area:    a,
			Name:    de.Name(),
			Path:    filepath.Join(s.dirs[a], de.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return out, nil
}
