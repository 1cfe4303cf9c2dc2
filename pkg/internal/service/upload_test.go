package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
)

func TestUploadCommitsRowLedgerAndFile(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "  Lecture 1  "), filePart("lecture.MP4", 4096))
	require.NoError(t, err)

	assert.Equal(t, "Lecture 1", f.Title)
	assert.Equal(t, int64(4096), f.FileSize)
	assert.Equal(t, f.ID+".mp4", f.Filename)
	assert.NotEmpty(t, f.Checksum)
	assert.Nil(t, f.Preview)
	assert.Equal(t, int64(4096), storageUsed(t, env, c.ID))

	assert.Equal(t, []string{f.Filename}, dirFiles(t, env, disk.Modules), "no .part file may remain")
}

func TestUploadTitleAfterFilePart(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, configs.KindAll,
		filePart("slides.pptx", 10), textPart("title", "Slides"), filePart("second.mp4", 10))
	require.NoError(t, err)
	assert.Equal(t, "Slides", f.Title)
	assert.Equal(t, int64(10), storageUsed(t, env, c.ID), "later file parts are ignored")
	assert.Len(t, dirFiles(t, env, disk.Modules), 1)
}

func TestUploadQuotaRejectionLeavesNothing(t *testing.T) {
	env := newTestEnv(t)
	quota := env.Cfg.Plans.QuotaFor(configs.PlanStandard)
	c, m := seedClass(t, env, configs.PlanStandard, quota-100)

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "too big"), filePart("big.mp4", 101))

	var qe *QuotaExceededError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, int64(101), qe.Need)
	assert.Equal(t, int64(100), qe.Remaining)

	var n int64
	require.NoError(t, env.DB.Model(&model.File{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, quota-100, storageUsed(t, env, c.ID))
	assert.Empty(t, dirFiles(t, env, disk.Modules))
}

func TestUploadFreePlanHasNoQuota(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanFree, 0)

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "x"), filePart("a.mp4", 1))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, dirFiles(t, env, disk.Modules))
}

func TestUploadEmptyFileRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, plan := range []string{configs.PlanFree, "bogus", configs.PlanStandard} {
		c, m := seedClass(t, env, plan, 0)

		f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "x"), filePart("a.mp4", 0))
		require.ErrorIs(t, err, ErrValidation, plan)
		assert.Nil(t, f)
		assert.Zero(t, storageUsed(t, env, c.ID))
	}

	var n int64
	require.NoError(t, env.DB.Model(&model.File{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Empty(t, dirFiles(t, env, disk.Modules))
}

func TestUploadUnknownPlanRejected(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, "bogus", 0)

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "x"), filePart("a.mp4", 1))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Empty(t, dirFiles(t, env, disk.Modules))
}

func TestUploadRejectsExtensionAndDrainsBody(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	for _, tc := range []struct {
		name, kind, filename string
	}{
		{"unknown extension", "", "virus.exe"},
		{"kind not accepted", configs.KindVideo, "notes.pdf"},
		{"no extension", configs.KindAll, "README"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// 管道写端必须被完整读完，否则生成请求体的 goroutine 会阻塞
			_, err := upload(t, env, c.ID, m.ID, tc.kind, filePart(tc.filename, 2*mib), textPart("title", "t"))
			require.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, dirFiles(t, env, disk.Modules))
		})
	}

	assert.Zero(t, storageUsed(t, env, c.ID))
}

func TestUploadUnknownKindQuery(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	_, err := upload(t, env, c.ID, m.ID, "audio", textPart("title", "t"), filePart("a.mp4", 1))
	require.ErrorIs(t, err, ErrValidation)
}

func TestUploadTitleValidation(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	for _, title := range []string{"", "   ", strings.Repeat("é", 51), "line\nbreak"} {
		_, err := upload(t, env, c.ID, m.ID, "", textPart("title", title), filePart("a.mp4", 64))
		require.ErrorIs(t, err, ErrValidation, "%q", title)
	}

	_, err := upload(t, env, c.ID, m.ID, "", filePart("a.mp4", 64))
	require.ErrorIs(t, err, ErrValidation, "missing title")

	_, err = upload(t, env, c.ID, m.ID, "", textPart("title", "only title"))
	require.ErrorIs(t, err, ErrValidation, "missing file")

	assert.Empty(t, dirFiles(t, env, disk.Modules))
	assert.Zero(t, storageUsed(t, env, c.ID))
}

func TestUploadSizeCap(t *testing.T) {
	env := newTestEnv(t)
	env.Cfg.Media.MaxUploadBytes = 1000
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "big"), filePart("a.mp4", 1001))
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "too large")
	assert.Empty(t, dirFiles(t, env, disk.Modules))

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "exact"), filePart("a.mp4", 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.FileSize)
}

type failAfter struct {
	r   io.Reader
	err error
}

func (f *failAfter) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if err == io.EOF {
		return n, f.err
	}

	return n, err
}

func TestUploadStreamAbortRemovesPartial(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	broken := part{
		field:    "file",
		filename: "lecture.mp4",
		body:     &failAfter{r: io.LimitReader(zeroReader{}, mib), err: io.ErrUnexpectedEOF},
	}

	_, err := upload(t, env, c.ID, m.ID, "", textPart("title", "t"), broken)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamAborted)
	assert.Empty(t, dirFiles(t, env, disk.Modules))
	assert.Zero(t, storageUsed(t, env, c.ID))
}

func TestUploadUnknownModule(t *testing.T) {
	env := newTestEnv(t)
	c, _ := seedClass(t, env, configs.PlanStandard, 0)
	_, otherModule := seedClass(t, env, configs.PlanStandard, 0)

	_, err := upload(t, env, c.ID, otherModule.ID, "", textPart("title", "t"), filePart("a.mp4", 1))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentUploadsRespectQuota(t *testing.T) {
	env := newTestEnv(t)
	env.Cfg.Plans.Catalog = map[string]configs.Plan{
		configs.PlanStandard: {Storage: 25 * mib, Paid: true},
	}
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	const uploads = 3

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   []int64
		errs []error
	)

	for range uploads {
		wg.Add(1)

		go func() {
			defer wg.Done()

			f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "race"), filePart("race.mp4", 10*mib))

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				errs = append(errs, err)

				return
			}

			ok = append(ok, f.FileSize)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, len(ok), 2)
	assert.Len(t, errs, uploads-len(ok))

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrQuotaExceeded)
	}

	var sum int64
	for _, n := range ok {
		sum += n
	}

	assert.Equal(t, sum, storageUsed(t, env, c.ID))
	assert.Len(t, dirFiles(t, env, disk.Modules), len(ok))
}

func TestLedgerInvariantAfterUploadsAndDeletes(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	cleaner := NewCleaner(env)
	ctx := context.Background()

	var files []string

	for i, size := range []int{100, 2048, 7, 4096, 1} {
		f, err := upload(t, env, c.ID, m.ID, configs.KindAll,
			textPart("title", "f"), filePart([]string{"a.mp4", "b.pdf", "c.png", "d.docx", "e.xlsx"}[i], size))
		require.NoError(t, err)

		files = append(files, f.ID)
	}

	_, err := cleaner.DeleteFile(ctx, c.ID, m.ID, files[1])
	require.NoError(t, err)
	_, err = cleaner.DeleteFile(ctx, c.ID, m.ID, files[3])
	require.NoError(t, err)

	before, actual, err := NewClassService(env).Reconcile(ctx, c.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(108), actual)
	assert.Equal(t, actual, before)
}

func TestOpenFileOnlyServesCommittedRows(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	svc := NewFileService(env)
	ctx := context.Background()

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "t"), filePart("a.mp4", 1000))
	require.NoError(t, err)

	media, err := svc.OpenFile(ctx, c.ID, m.ID, f.Filename)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), media.Size)
	assert.Equal(t, configs.KindVideo, media.Kind)
	require.NoError(t, media.Close())

	// 磁盘上存在但没有文件行
	require.NoError(t, os.WriteFile(filepath.Join(env.Disk.Dir(disk.Modules), "stray.mp4"), []byte("x"), 0o600))

	_, err = svc.OpenFile(ctx, c.ID, m.ID, "stray.mp4")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.OpenFile(ctx, c.ID, m.ID, "../../etc/passwd")
	require.ErrorIs(t, err, ErrNotFound)
}
