package disk_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
)

func newStore(t *testing.T) *disk.Store {
	t.Helper()

	cfg := configs.Defaults().Media
	cfg.Root = t.TempDir()

	s, err := disk.New(&cfg)
	require.NoError(t, err)

	return s
}

func TestSavePartAndPromote(t *testing.T) {
	s := newStore(t)
	data := bytes.Repeat([]byte("abc"), 1000)

	res, err := s.SavePart(bytes.NewReader(data), "01HX.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.Equal(t, strconv.FormatUint(xxhash.Sum64(data), 16), res.Checksum)
	assert.FileExists(t, res.PartPath)

	final, err := s.Promote(res.PartPath)
	require.NoError(t, err)
	assert.NoFileExists(t, res.PartPath)
	assert.Equal(t, filepath.Join(s.Dir(disk.Modules), "01HX.mp4"), final)

	f, info, err := s.Open(disk.Modules, "01HX.mp4")
	require.NoError(t, err)

	defer f.Close()

	assert.Equal(t, int64(len(data)), info.Size())
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, errors.New("client went away")
	}

	r.n--

	return copy(p, "xxxx"), nil
}

func TestSavePartRemovesOnError(t *testing.T) {
	s := newStore(t)

	_, err := s.SavePart(&failingReader{n: 3}, "broken.mp4")
	require.Error(t, err)

	entries, err := s.Scan(disk.Modules)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPathRejectsTraversal(t *testing.T) {
	s := newStore(t)

	for _, name := range []string{"", ".", "..", "../x", "a/b", `a\b`} {
		_, err := s.Path(disk.Modules, name)
		assert.ErrorIs(t, err, disk.ErrUnsafeName, name)
	}

	_, err := s.SavePart(io.LimitReader(bytes.NewReader(nil), 0), "../escape")
	assert.ErrorIs(t, err, disk.ErrUnsafeName)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := newStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(disk.Previews), "p.png"), []byte("png"), 0o600))
	require.NoError(t, s.Remove(disk.Previews, "p.png"))
	require.NoError(t, s.Remove(disk.Previews, "p.png"))
}

func TestHLSFiles(t *testing.T) {
	s := newStore(t)
	dir := s.Dir(disk.HLS)

	for _, n := range []string{"v1.m3u8", "v1_000.ts", "v1_001.ts", "v10.m3u8", "v10_000.ts"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o600))
	}

	files, err := s.HLSFiles("v1")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = s.HLSFiles("*")
	assert.ErrorIs(t, err, disk.ErrUnsafeName)
}

func TestUsage(t *testing.T) {
	s := newStore(t)

	total, avail, err := s.Usage()
	if err != nil {
		t.Skip(err)
	}

	assert.Positive(t, total)
	assert.LessOrEqual(t, avail, total)
}
