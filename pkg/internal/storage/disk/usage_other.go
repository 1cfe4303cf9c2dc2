//go:build !unix

package disk

import "errors"

// Usage 非 unix 平台不支持.
func (s *Store) Usage() (total, available int64, err error) {
	return 0, 0, errors.New("disk usage not supported on this platform")
}
