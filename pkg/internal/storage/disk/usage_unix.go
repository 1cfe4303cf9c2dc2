//go:build unix

package disk

import (
	"fmt"
	"syscall"
)

// Usage 返回媒体根目录所在分区的总量与可用字节数.
func (s *Store) Usage() (total, available int64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(s.dirs[Modules], &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", s.dirs[Modules], err)
	}

	bsize := int64(st.Bsize)
	total = int64(st.Blocks) * bsize
	available = int64(st.Bavail) * bsize

	return total, available, nil
}
