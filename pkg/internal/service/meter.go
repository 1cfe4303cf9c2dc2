package service

import (
	"io"
	"sync/atomic"
)

// Meter 统计经过 TeeReader 的字节数，不缓存内容.
type Meter struct {
	n atomic.Int64
}

func (m *Meter) Write(p []byte) (int, error) {
	m.n.Add(int64(len(p)))

	return len(p), nil
}

// Bytes 已经过的字节数.
func (m *Meter) Bytes() int64 { return m.n.Load() }

// readErrRecorder 记录来源读取错误，用于区分客户端断开与磁盘写入失败.
type readErrRecorder struct {
	r   io.Reader
	err error
}

func (r *readErrRecorder) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if err != nil && err != io.EOF {
		r.err = err
	}

	return n, err
}
