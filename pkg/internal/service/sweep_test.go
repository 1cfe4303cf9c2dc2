package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
)

func TestSweepRemovesOnlyOldOrphans(t *testing.T) {
	env := newTestEnv(t)
	env.Cfg.Media.Sweep.MinAge = time.Hour

	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "kept"), filePart("a.mp4", 32))
	require.NoError(t, err)

	preview := "thumb.png"
	playlist := f.Base() + ".m3u8"
	require.NoError(t, env.DB.Model(f).Updates(map[string]any{"preview": preview, "playlist": playlist}).Error)

	// 被引用的文件即使很旧也保留
	old := 2 * time.Hour
	writeArtifact(t, env, disk.Previews, preview, old)
	writeArtifact(t, env, disk.HLS, playlist, old)
	writeArtifact(t, env, disk.HLS, f.Base()+"_000.ts", old)

	writeArtifact(t, env, disk.Modules, "stale.mp4.part", old)
	writeArtifact(t, env, disk.Modules, "young.mp4.part", 0)
	writeArtifact(t, env, disk.Modules, "orphan.pdf", old)
	writeArtifact(t, env, disk.Modules, "fresh-orphan.pdf", 0)
	writeArtifact(t, env, disk.Previews, "gone.png", old)
	writeArtifact(t, env, disk.HLS, "gone.m3u8", old)
	writeArtifact(t, env, disk.HLS, "gone_000.ts", old)
	writeArtifact(t, env, disk.HLS, "gone_001.ts", old)

	report, err := NewSweeper(env).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Parts)
	assert.Equal(t, 1, report.Modules)
	assert.Equal(t, 1, report.Previews)
	assert.Equal(t, 3, report.HLS)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 6, report.Removed())

	assert.ElementsMatch(t, []string{f.Filename, "young.mp4.part", "fresh-orphan.pdf"}, dirFiles(t, env, disk.Modules))
	assert.ElementsMatch(t, []string{preview}, dirFiles(t, env, disk.Previews))
	assert.ElementsMatch(t, []string{playlist, f.Base() + "_000.ts"}, dirFiles(t, env, disk.HLS))

	// 清理不修改 ledger
	assert.Equal(t, f.FileSize, storageUsed(t, env, c.ID))
}

func TestHLSPlaylistName(t *testing.T) {
	assert.Equal(t, "abc.m3u8", hlsPlaylistName("abc.m3u8"))
	assert.Equal(t, "abc.m3u8", hlsPlaylistName("abc_012.ts"))
	assert.Equal(t, "a_b.m3u8", hlsPlaylistName("a_b_000.ts"))
	assert.Empty(t, hlsPlaylistName("abc.ts"))
	assert.Empty(t, hlsPlaylistName("notes.txt"))
}
