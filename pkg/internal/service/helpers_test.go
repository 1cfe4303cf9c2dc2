package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/cache"
	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/db"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/internal/storage/kv"
)

const mib = 1 << 20

// newTestEnv 临时 SQLite、临时媒体目录与内存 KV.
func newTestEnv(t *testing.T) *Env {
	t.Helper()

	cfg := configs.Defaults()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(t.TempDir(), "classmedia")
	cfg.Media.Root = t.TempDir()
	cfg.Events.Enabled = false
	cfg.KV.ListTTL = time.Minute
	cfg.KV.ClaimTTL = time.Hour

	ctx := context.Background()

	dbc, err := db.New(ctx, &cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbc.Close() })

	require.NoError(t, model.Migrate(ctx, dbc.GetDB()))

	store, err := disk.New(&cfg.Media)
	require.NoError(t, err)

	mem, err := kv.NewMemoryKV(ctx, nil)
	require.NoError(t, err)

	return &Env{
		DB:    dbc.GetDB(),
		Disk:  store,
		KV:    mem,
		Cache: cache.NewCache(mem),
		Cfg:   &cfg,
		Authz: OwnerAuthorizer{},
	}
}

func seedClass(t *testing.T, env *Env, plan string, used int64) (*model.Class, *model.Module) {
	t.Helper()

	now := time.Now()
	c := &model.Class{ID: model.NewID(), Owner: "teacher", PlanID: plan, StorageUsed: used, PayedOn: &now}
	require.NoError(t, env.DB.Create(c).Error)

	m := &model.Module{ID: model.NewID(), ClassID: c.ID, Title: "week 1"}
	require.NoError(t, env.DB.Create(m).Error)

	return c, m
}

func storageUsed(t *testing.T, env *Env, classID string) int64 {
	t.Helper()

	var c model.Class
	require.NoError(t, env.DB.Where("id = ?", classID).Take(&c).Error)

	return c.StorageUsed
}

type part struct {
	field    string
	filename string
	body     io.Reader
}

func textPart(field, value string) part {
	return part{field: field, body: bytes.NewBufferString(value)}
}

func filePart(filename string, size int) part {
	return part{field: "file", filename: filename, body: io.LimitReader(zeroReader{}, int64(size))}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'v'
	}

	return len(p), nil
}

// multipartBody 通过管道流式生成请求体，不在内存中拼出完整内容.
func multipartBody(parts ...part) (*multipart.Reader, func()) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		for _, p := range parts {
			var (
				w   io.Writer
				err error
			)

			if p.filename == "" {
				w, err = mw.CreateFormField(p.field)
			} else {
				w, err = mw.CreateFormFile(p.field, p.filename)
			}

			if err == nil {
				_, err = io.Copy(w, p.body)
			}

			if err != nil {
				_ = pw.CloseWithError(err)

				return
			}
		}

		_ = pw.CloseWithError(mw.Close())
	}()

	return multipart.NewReader(pr, mw.Boundary()), func() { _ = pr.Close() }
}

func upload(t *testing.T, env *Env, classID, moduleID, kind string, parts ...part) (*model.File, error) {
	t.Helper()

	mr, done := multipartBody(parts...)
	defer done()

	return NewFileService(env).Upload(context.Background(), UploadInput{
		ClassID: classID, ModuleID: moduleID, Actor: "teacher", Kind: kind, Body: mr,
	})
}

func dirFiles(t *testing.T, env *Env, a disk.Area) []string {
	t.Helper()

	entries, err := os.ReadDir(env.Disk.Dir(a))
	require.NoError(t, err)

	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}

	return out
}

func writeArtifact(t *testing.T, env *Env, a disk.Area, name string, age time.Duration) string {
	t.Helper()

	p := filepath.Join(env.Disk.Dir(a), name)
	require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("artifact %s", name)), 0o600))

	if age > 0 {
		old := time.Now().Add(-age)
		require.NoError(t, os.Chtimes(p, old, old))
	}

	return p
}
