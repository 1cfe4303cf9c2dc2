package service

import (
	"fmt"
	"strconv"
	"strings"
)

// ByteRange 闭区间 [Start, End].
type ByteRange struct {
	Start int64
	End   int64
}

// Length 区间字节数.
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ContentRange Content-Range 响应头的值.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// UnsatisfiedRange 416 响应的 Content-Range.
func UnsatisfiedRange(size int64) string {
	return fmt.Sprintf("bytes */%d", size)
}

// ParseRange 解析 Range 请求头.
// 空 header 返回 (nil, nil)，表示完整响应；只处理第一个区间；end 超出时截到 size-1；
// bytes=-N 表示最后 N 字节. 无法满足或格式错误返回 ErrRangeNotSatisfiable.
func ParseRange(header string, size int64) (*ByteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, fmt.Errorf("%w: unsupported unit", ErrRangeNotSatisfiable)
	}

	if i := strings.IndexByte(spec, ','); i >= 0 {
		spec = spec[:i]
	}

	first, last, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return nil, fmt.Errorf("%w: malformed range %q", ErrRangeNotSatisfiable, spec)
	}

	first, last = strings.TrimSpace(first), strings.TrimSpace(last)

	if first == "" {
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 || size == 0 {
			return nil, fmt.Errorf("%w: bad suffix range %q", ErrRangeNotSatisfiable, spec)
		}

		return &ByteRange{Start: max(size-n, 0), End: size - 1}, nil
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return nil, fmt.Errorf("%w: bad range start %q", ErrRangeNotSatisfiable, first)
	}

	if start >= size {
		return nil, fmt.Errorf("%w: start %d beyond size %d", ErrRangeNotSatisfiable, start, size)
	}

	end := size - 1

	if last != "" {
		e, err := strconv.ParseInt(last, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad range end %q", ErrRangeNotSatisfiable, last)
		}

		if e < start {
			return nil, fmt.Errorf("%w: end before start", ErrRangeNotSatisfiable)
		}

		end = min(e, size-1)
	}

	return &ByteRange{Start: start, End: end}, nil
}
