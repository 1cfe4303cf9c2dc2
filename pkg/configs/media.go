package configs

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// 文件类型，对应上传路由 ?t= 与列表过滤.
const (
	KindVideo = "video"
	KindPDF   = "pdf"
	KindDoc   = "doc"
	KindExcel = "excel"
	KindPPT   = "ppt"
	KindImage = "image"
	// KindAll 仅用于查询参数，表示不过滤.
	KindAll = "all"
)

const (
	DefaultMediaRoot        = "media"
	DefaultModulesDir       = "class/modules"
	DefaultPreviewsDir      = "class/previews"
	DefaultHLSDir           = "class/hls"
	DefaultMaxUploadBytes   = 5 << 30 // 5 GiB 硬上限，与套餐配额无关
	DefaultMultipartSlack   = 1 << 20 // multipart 头部与文本字段余量
	DefaultTitleMaxLen      = 50
	DefaultCopyBufferBytes  = 256 << 10
	DefaultFFmpegPath       = "ffmpeg"
	DefaultPreviewTimemark  = "1s"
	DefaultPreviewTimeout   = "2m"
	DefaultPreviewWorkers   = 2
	DefaultHLSTimeout       = "2h"
	DefaultHLSSegmentSecond = 10
	DefaultSweepCron        = "17 3 * * *"
	DefaultSweepMinAge      = "24h"
)

// MediaConfig 媒体文件的磁盘布局、上传限制与转码参数.
type MediaConfig struct {
	Root            string              `mapstructure:"root"              rule:"required"`
	ModulesDir      string              `mapstructure:"modules_dir"       rule:"required"`
	PreviewsDir     string              `mapstructure:"previews_dir"      rule:"required"`
	HLSDir          string              `mapstructure:"hls_dir"           rule:"required"`
	MaxUploadBytes  int64               `mapstructure:"max_upload_bytes"  rule:"min=1"`
	MultipartSlack  int64               `mapstructure:"multipart_slack"   rule:"min=0"`
	TitleMaxLen     int                 `mapstructure:"title_max_len"     rule:"min=1"`
	CopyBufferBytes int                 `mapstructure:"copy_buffer_bytes" rule:"min=4096"`
	DefaultKind     string              `mapstructure:"default_kind"      rule:"required"`
	Kinds           map[string][]string `mapstructure:"kinds"`       // 类型 -> 允许的扩展名（不含点）
	RangeKinds      []string            `mapstructure:"range_kinds"` // 支持 Range 请求的类型
	Preview         PreviewConfig       `mapstructure:"preview"`
	HLS             HLSConfig           `mapstructure:"hls"`
	Sweep           SweepConfig         `mapstructure:"sweep"`
}

// PreviewConfig 预览图生成.
type PreviewConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FFmpegPath  string        `mapstructure:"ffmpeg_path" rule:"required"`
	Timemark    time.Duration `mapstructure:"timemark"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Concurrency int64         `mapstructure:"concurrency" rule:"min=1,max=64"`
}

// HLSConfig 480p HLS 转码，默认关闭.
type HLSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SegmentSeconds int           `mapstructure:"segment_seconds" rule:"min=1,max=60"`
}

// SweepConfig 孤儿文件清理任务.
type SweepConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Cron    string        `mapstructure:"cron"    rule:"required"`
	MinAge  time.Duration `mapstructure:"min_age"`
}

// ModulesPath 上传文件目录.
func (c *MediaConfig) ModulesPath() string { return filepath.Join(c.Root, c.ModulesDir) }

// PreviewsPath 预览图目录.
func (c *MediaConfig) PreviewsPath() string { return filepath.Join(c.Root, c.PreviewsDir) }

// HLSPath HLS 播放列表与分片目录.
func (c *MediaConfig) HLSPath() string { return filepath.Join(c.Root, c.HLSDir) }

// SupportsRange 该类型是否按 Range 分段返回.
func (c *MediaConfig) SupportsRange(kind string) bool {
	for _, k := range c.RangeKinds {
		if k == kind {
			return true
		}
	}

	return false
}

// KindOf 按扩展名（可带点，大小写不敏感）返回文件类型，未知扩展名返回空串.
func (c *MediaConfig) KindOf(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))

	for kind, exts := range c.Kinds {
		for _, e := range exts {
			if e == ext {
				return kind
			}
		}
	}

	return ""
}

// AcceptedKinds 解析 ?t= 查询参数，空值取 DefaultKind，all 返回全部类型.
// 未知类型返回 nil.
func (c *MediaConfig) AcceptedKinds(t string) []string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		t = c.DefaultKind
	}

	if t == KindAll {
		out := make([]string, 0, len(c.Kinds))
		for k := range c.Kinds {
			out = append(out, k)
		}

		sort.Strings(out)

		return out
	}

	if _, ok := c.Kinds[t]; !ok {
		return nil
	}

	return []string{t}
}

func (c *MediaConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("media.root", DefaultMediaRoot)
	v.SetDefault("media.modules_dir", DefaultModulesDir)
	v.SetDefault("media.previews_dir", DefaultPreviewsDir)
	v.SetDefault("media.hls_dir", DefaultHLSDir)
	v.SetDefault("media.max_upload_bytes", int64(DefaultMaxUploadBytes))
	v.SetDefault("media.multipart_slack", DefaultMultipartSlack)
	v.SetDefault("media.title_max_len", DefaultTitleMaxLen)
	v.SetDefault("media.copy_buffer_bytes", DefaultCopyBufferBytes)
	v.SetDefault("media.default_kind", KindVideo)
	v.SetDefault("media.kinds", map[string][]string{
		KindVideo: {"mp4", "mkv", "mov", "wmv"},
		KindPDF:   {"pdf"},
		KindDoc:   {"doc", "docx"},
		KindExcel: {"xls", "xlsx"},
		KindPPT:   {"ppt", "pptx"},
		KindImage: {"png", "jpg", "jpeg", "gif"},
	})
	v.SetDefault("media.range_kinds", []string{KindVideo})

	v.SetDefault("media.preview.enabled", true)
	v.SetDefault("media.preview.ffmpeg_path", DefaultFFmpegPath)
	v.SetDefault("media.preview.timemark", DefaultPreviewTimemark)
	v.SetDefault("media.preview.timeout", DefaultPreviewTimeout)
	v.SetDefault("media.preview.concurrency", DefaultPreviewWorkers)

	v.SetDefault("media.hls.enabled", false)
	v.SetDefault("media.hls.timeout", DefaultHLSTimeout)
	v.SetDefault("media.hls.segment_seconds", DefaultHLSSegmentSecond)

	v.SetDefault("media.sweep.enabled", true)
	v.SetDefault("media.sweep.cron", DefaultSweepCron)
	v.SetDefault("media.sweep.min_age", DefaultSweepMinAge)
}
