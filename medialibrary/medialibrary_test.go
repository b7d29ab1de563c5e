package medialibrary_test

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortechron/go-dynamic-image/conversion"
	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/repository"
	"github.com/vortechron/go-dynamic-image/storage"
)

const baseURL = "http://example.org/wp-content/uploads"

type fixture struct {
	lib  *medialibrary.DefaultMediaLibrary
	repo *repository.MemoryMediaRepository
	disk *storage.LocalStorage
}

func newFixture(t *testing.T, options ...medialibrary.Option) *fixture {
	t.Helper()

	disk, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: baseURL})
	require.NoError(t, err)

	dm := storage.NewDiskManager()
	dm.AddDisk("local", disk)

	tr := conversion.NewImagingTransformer()
	tr.DefaultSizes()

	repo := repository.NewMemoryMediaRepository()
	options = append([]medialibrary.Option{medialibrary.WithLogLevel(medialibrary.LogLevelNone)}, options...)

	return &fixture{
		lib:  medialibrary.NewDefaultMediaLibrary(dm, tr, repo, options...),
		repo: repo,
		disk: disk,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(w, h, color.NRGBA{G: 200, A: 255})))
	return buf.Bytes()
}

func (f *fixture) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := f.disk.Exists(context.Background(), path)
	require.NoError(t, err)
	return ok
}

func TestAddMediaFromBytes_GeneratesMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	media, err := f.lib.AddMediaFromBytes(ctx, "photo.png", pngBytes(t, 800, 600), "uploads")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), media.ID)
	assert.Equal(t, "image/png", media.MimeType)
	assert.Equal(t, "photo", media.Name)

	meta, err := f.lib.GetAttachmentMetadata(ctx, media.ID)
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "1/photo.png", meta.File)
	assert.Equal(t, 800, meta.Width)
	assert.Equal(t, 600, meta.Height)
	assert.Equal(t, models.ImageSize{File: "photo-150x150.png", Width: 150, Height: 150, MimeType: "image/png"}, meta.Sizes["thumbnail"])
	assert.Equal(t, models.ImageSize{File: "photo-300x225.png", Width: 300, Height: 225, MimeType: "image/png"}, meta.Sizes["medium"])
	assert.NotContains(t, meta.Sizes, "large")

	assert.True(t, f.exists(t, "1/photo.png"))
	assert.True(t, f.exists(t, "1/photo-150x150.png"))
	assert.True(t, f.exists(t, "1/photo-300x225.png"))
}

func TestAddMediaFromBytes_NonImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	media, err := f.lib.AddMediaFromBytes(ctx, "notes.txt", []byte("hello"), "uploads")
	require.NoError(t, err)

	meta, err := f.lib.GetAttachmentMetadata(ctx, media.ID)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "1/notes.txt", meta.File)
	assert.Empty(t, meta.Sizes)

	_, err = f.lib.MakeIntermediateSize(ctx, media.ID, 10, 10, true)
	assert.Error(t, err)
}

func TestFindAttachmentIDByFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i := 0; i < 11; i++ {
		_, err := f.lib.AddMediaFromBytes(ctx, "a.png", pngBytes(t, 20, 20), "uploads")
		require.NoError(t, err)
	}

	id, err := f.lib.FindAttachmentIDByFile(ctx, "11/a.png")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), id)

	id, err = f.lib.FindAttachmentIDByFile(ctx, "1/a.png")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id, err = f.lib.FindAttachmentIDByFile(ctx, "2012/03/missing.png")
	require.NoError(t, err)
	assert.Zero(t, id)

	id, err = f.lib.FindAttachmentIDByFile(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestMakeIntermediateSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	media, err := f.lib.AddMediaFromBytes(ctx, "photo.png", pngBytes(t, 800, 600), "uploads")
	require.NoError(t, err)

	size, err := f.lib.MakeIntermediateSize(ctx, media.ID, 100, 100, true)
	require.NoError(t, err)
	assert.Equal(t, &models.ImageSize{File: "photo-100x100.png", Width: 100, Height: 100, MimeType: "image/png"}, size)
	assert.True(t, f.exists(t, "1/photo-100x100.png"))

	meta, err := f.lib.GetAttachmentMetadata(ctx, media.ID)
	require.NoError(t, err)
	assert.NotContains(t, meta.Sizes, "resized-100x100")

	_, err = f.lib.MakeIntermediateSize(ctx, media.ID, 2000, 2000, true)
	assert.ErrorIs(t, err, conversion.ErrNoResizeNeeded)

	_, err = f.lib.MakeIntermediateSize(ctx, 42, 100, 100, true)
	assert.ErrorIs(t, err, medialibrary.ErrMediaNotFound)
}

func TestURLs(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.Equal(t, baseURL, f.lib.UploadBaseURL())

	media, err := f.lib.AddMediaFromBytes(ctx, "photo.png", pngBytes(t, 800, 600), "uploads")
	require.NoError(t, err)

	url, err := f.lib.GetAttachmentURL(ctx, media.ID)
	require.NoError(t, err)
	assert.Equal(t, baseURL+"/1/photo.png", url)

	assert.Equal(t, baseURL+"/1/photo-150x150.png", f.lib.GetURLForSize(ctx, media.ID, "thumbnail"))
	assert.Empty(t, f.lib.GetURLForSize(ctx, media.ID, "large"))

	_, err = f.lib.GetAttachmentURL(ctx, 99)
	assert.ErrorIs(t, err, medialibrary.ErrMediaNotFound)

	override := newFixture(t, medialibrary.WithUploadBaseURL("https://cdn.example.org/"))
	assert.Equal(t, "https://cdn.example.org", override.lib.UploadBaseURL())
}

func TestDeleteMedia_RemovesSizesAndBackups(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	media, err := f.lib.AddMediaFromBytes(ctx, "photo.png", pngBytes(t, 800, 600), "uploads")
	require.NoError(t, err)

	size, err := f.lib.MakeIntermediateSize(ctx, media.ID, 64, 64, true)
	require.NoError(t, err)
	require.NoError(t, f.lib.UpdateMeta(ctx, media.ID, models.MetaKeyBackupSizes, models.BackupSizes{"resized-64x64": *size}))

	require.NoError(t, f.lib.DeleteMedia(ctx, media.ID))

	for _, p := range []string{"1/photo.png", "1/photo-150x150.png", "1/photo-300x225.png", "1/photo-64x64.png"} {
		assert.False(t, f.exists(t, p), p)
	}

	found, err := f.repo.FindByID(ctx, media.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	meta, err := f.lib.GetAttachmentMetadata(ctx, media.ID)
	require.NoError(t, err)
	assert.Nil(t, meta)

	assert.ErrorIs(t, f.lib.DeleteMedia(ctx, media.ID), medialibrary.ErrMediaNotFound)
}

func TestCopyAndMoveMediaToDisk(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	archive, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "http://archive.example.org"})
	require.NoError(t, err)

	dm := storage.NewDiskManager()
	dm.AddDisk("local", f.disk)
	dm.AddDisk("archive", archive)
	tr := conversion.NewImagingTransformer()
	lib := medialibrary.NewDefaultMediaLibrary(dm, tr, f.repo, medialibrary.WithLogLevel(medialibrary.LogLevelNone))

	media, err := lib.AddMediaFromBytes(ctx, "photo.png", pngBytes(t, 40, 30), "uploads")
	require.NoError(t, err)

	copied, err := lib.CopyMediaToDisk(ctx, media, "archive")
	require.NoError(t, err)
	assert.Equal(t, "archive", copied.Disk)
	assert.NotEqual(t, media.ID, copied.ID)

	ok, err := archive.Exists(ctx, "2/photo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	moved, err := lib.MoveMediaToDisk(ctx, media, "archive")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), moved.ID)
	assert.False(t, f.exists(t, "1/photo.png"))

	list, err := lib.GetMediaForCollection(ctx, "uploads")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, medialibrary.LogLevelDebug, medialibrary.ParseLogLevel("DEBUG"))
	assert.Equal(t, medialibrary.LogLevelWarning, medialibrary.ParseLogLevel("warn"))
	assert.Equal(t, medialibrary.LogLevelNone, medialibrary.ParseLogLevel("off"))
	assert.Equal(t, medialibrary.LogLevelInfo, medialibrary.ParseLogLevel("whatever"))

	logger := medialibrary.NewDefaultLogger(medialibrary.LogLevelError)
	logger.SetLevel(medialibrary.LogLevelDebug)
	assert.Equal(t, medialibrary.LogLevelDebug, logger.GetLevel())
}

func TestNewLogger_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "media.log")

	logger := medialibrary.NewLogger(medialibrary.LoggerConfig{
		Level:     medialibrary.LogLevelInfo,
		Console:   &console,
		File:      file,
		MaxSizeMB: 1,
	})

	logger.Info("stored media ID %d", 7)
	logger.Debug("hidden %s", "detail")
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "stored media ID 7")
	assert.NotContains(t, console.String(), "hidden detail")

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(written), `"msg":"stored media ID 7"`)

	logger.SetLevel(medialibrary.LogLevelNone)
	logger.Error("dropped")
	assert.NotContains(t, console.String(), "dropped")
}
