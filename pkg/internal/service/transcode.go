package service

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/yeisme/classmedia/pkg/configs"
)

// Transcoder 生成预览图与 HLS 播放列表.
type Transcoder interface {
	// Thumbnail 截取 at 处的一帧写入 out（PNG）.
	Thumbnail(ctx context.Context, in, out string, at time.Duration) error
	// HLS 在 dir 下生成 <base>.m3u8 与 <base>_NNN.ts，返回播放列表文件名.
	HLS(ctx context.Context, in, dir, base string) (string, error)
}

// 保留 ffmpeg stderr 的末尾字节，放进错误信息.
const stderrTail = 2 << 10

// FFmpegTranscoder 调用外部 ffmpeg，并发数与单次耗时都有上限.
type FFmpegTranscoder struct {
	path           string
	sem            *semaphore.Weighted
	thumbTimeout   time.Duration
	hlsTimeout     time.Duration
	segmentSeconds int
}

// NewFFmpegTranscoder 按媒体配置创建 FFmpegTranscoder.
func NewFFmpegTranscoder(cfg *configs.MediaConfig) *FFmpegTranscoder {
	n := cfg.Preview.Concurrency
	if n <= 0 {
		n = configs.DefaultPreviewWorkers
	}

	return &FFmpegTranscoder{
		path:           cfg.Preview.FFmpegPath,
		sem:            semaphore.NewWeighted(n),
		thumbTimeout:   cfg.Preview.Timeout,
		hlsTimeout:     cfg.HLS.Timeout,
		segmentSeconds: cfg.HLS.SegmentSeconds,
	}
}

func (t *FFmpegTranscoder) Thumbnail(ctx context.Context, in, out string, at time.Duration) error {
	return t.run(ctx, t.thumbTimeout,
		"-y",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", in,
		"-frames:v", "1",
		out,
	)
}

func (t *FFmpegTranscoder) HLS(ctx context.Context, in, dir, base string) (string, error) {
	playlist := base + ".m3u8"

	err := t.run(ctx, t.hlsTimeout,
		"-y",
		"-i", in,
		"-profile:v", "main",
		"-vf", "scale=w=842:h=480:force_original_aspect_ratio=decrease",
		"-c:a", "aac", "-ar", "48000", "-b:a", "128k",
		"-c:v", "h264", "-crf", "20", "-g", "48", "-keyint_min", "48", "-sc_threshold", "0",
		"-b:v", "1400k", "-maxrate", "1498k", "-bufsize", "2100k",
		"-hls_time", strconv.Itoa(t.segmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", filepath.Join(dir, base+"_%03d.ts"),
		"-f", "hls",
		filepath.Join(dir, playlist),
	)
	if err != nil {
		return "", err
	}

	return playlist, nil
}

func (t *FFmpegTranscoder) run(ctx context.Context, timeout time.Duration, args ...string) error {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for transcoder slot: %w", err)
	}
	defer t.sem.Release(1)

	if timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var stderr tailBuffer

	cmd := exec.CommandContext(ctx, t.path, append([]string{"-hide_banner", "-loglevel", "error"}, args...)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg: %w", ctx.Err())
		}

		return fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.b))
	}

	return nil
}

// tailBuffer 只保留最后 stderrTail 字节.
type tailBuffer struct{ b []byte }

func (w *tailBuffer) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	if len(w.b) > stderrTail {
		w.b = w.b[len(w.b)-stderrTail:]
	}

	return len(p), nil
}
