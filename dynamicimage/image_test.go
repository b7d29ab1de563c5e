package dynamicimage

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vortechron/go-dynamic-image/conversion"
	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/repository"
	"github.com/vortechron/go-dynamic-image/shortcode"
	"github.com/vortechron/go-dynamic-image/storage"
)

const uploads = "http://example.org/wp-content/uploads"

// countingLibrary counts calls into the resize routine.
type countingLibrary struct {
	medialibrary.MediaLibrary
	resizes int
}

func (c *countingLibrary) MakeIntermediateSize(ctx context.Context, id uint64, width, height int, crop bool) (*models.ImageSize, error) {
	c.resizes++
	return c.MediaLibrary.MakeIntermediateSize(ctx, id, width, height, crop)
}

// newLibrary returns a library holding one 800x600 PNG, media ID 1, with
// thumbnail and medium sizes.
func newLibrary(t *testing.T) *countingLibrary {
	t.Helper()

	disk, err := storage.NewLocalStorage(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: uploads})
	require.NoError(t, err)

	dm := storage.NewDiskManager()
	dm.AddDisk("local", disk)

	tr := conversion.NewImagingTransformer()
	tr.DefaultSizes()

	lib := medialibrary.NewDefaultMediaLibrary(dm, tr, repository.NewMemoryMediaRepository(),
		medialibrary.WithLogLevel(medialibrary.LogLevelNone))

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(800, 600, color.NRGBA{R: 255, A: 255})))

	media, err := lib.AddMediaFromBytes(context.Background(), "photo.png", buf.Bytes(), "uploads")
	require.NoError(t, err)
	require.Equal(t, uint64(1), media.ID)

	return &countingLibrary{MediaLibrary: lib}
}

func backupSizes(t *testing.T, lib medialibrary.MediaLibrary) models.BackupSizes {
	t.Helper()
	var backup models.BackupSizes
	_, err := lib.GetMeta(context.Background(), 1, models.MetaKeyBackupSizes, &backup)
	require.NoError(t, err)
	return backup
}

func sizes(t *testing.T, lib medialibrary.MediaLibrary) map[string]models.ImageSize {
	t.Helper()
	meta, err := lib.GetAttachmentMetadata(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, meta)
	return meta.Sizes
}

func TestGet_ExistingSizeIsReused(t *testing.T) {
	lib := newLibrary(t)

	out, err := New(lib, map[string]string{
		"src":    uploads + "/1/photo.png",
		"width":  "150",
		"height": "150",
	}).Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `<img src="`+uploads+`/1/photo-150x150.png" width="150" height="150" />`, out)
	assert.Zero(t, lib.resizes)
	assert.Len(t, sizes(t, lib), 2)
	assert.Empty(t, backupSizes(t, lib))
}

func TestGet_MissingSizeIsGeneratedOnce(t *testing.T) {
	ctx := context.Background()
	lib := newLibrary(t)
	raw := map[string]string{
		"src":     uploads + "/1/photo.png",
		"width":   "100",
		"height":  "80",
		"classes": "alignleft",
	}
	want := `<img src="` + uploads + `/1/photo-100x80.png" width="100" height="80" class="alignleft" />`

	out, err := New(lib, raw).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.Equal(t, 1, lib.resizes)

	generated := models.ImageSize{File: "photo-100x80.png", Width: 100, Height: 80, MimeType: "image/png"}
	assert.Equal(t, generated, sizes(t, lib)["resized-100x80"])
	assert.Len(t, sizes(t, lib), 3)
	assert.Equal(t, models.BackupSizes{"resized-100x80": generated}, backupSizes(t, lib))

	out, err = New(lib, raw).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.Equal(t, 1, lib.resizes)
	assert.Len(t, backupSizes(t, lib), 1)

	id, err := lib.FindAttachmentIDByFile(ctx, "1/photo.png")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}

func TestGet_ByID(t *testing.T) {
	lib := newLibrary(t)

	out, err := New(lib, map[string]string{"src": "1", "width": "300", "height": "225"}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<img src="`+uploads+`/1/photo-300x225.png" width="300" height="225" />`, out)
	assert.Zero(t, lib.resizes)
}

func TestGet_ExternalURL(t *testing.T) {
	lib := newLibrary(t)

	out, err := New(lib, map[string]string{
		"src":    "https://cdn.example.com/wp-content/uploads/1/photo.png",
		"width":  "10",
		"height": "10",
	}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<img src="https://cdn.example.com/wp-content/uploads/1/photo.png" width="10" height="10" />`, out)
	assert.Zero(t, lib.resizes)

	out, err = New(lib, map[string]string{"src": uploads + "-old/photo.png"}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<img src="`+uploads+`-old/photo.png" />`, out)
}

func TestGet_ResizeFailureKeepsOriginal(t *testing.T) {
	lib := newLibrary(t)

	out, err := New(lib, map[string]string{
		"src":      uploads + "/1/photo.png",
		"width":    "2000",
		"height":   "2000",
		"hwmarkup": "false",
	}).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `<img src="`+uploads+`/1/photo.png" />`, out)
	assert.Equal(t, 1, lib.resizes)
	assert.Len(t, sizes(t, lib), 2)
	assert.Empty(t, backupSizes(t, lib))
}

func TestGet_NotFound(t *testing.T) {
	lib := newLibrary(t)

	_, err := New(lib, map[string]string{"src": uploads + "/2012/03/missing.png"}).Get(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttachmentNotFound)

	var notFound *AttachmentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "2012/03/missing.png", notFound.File)
	assert.Equal(t, "Attachment not found: 2012/03/missing.png", err.Error())

	_, err = New(lib, map[string]string{"src": "99"}).Get(context.Background())
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "99", notFound.File)
	assert.Zero(t, lib.resizes)
}

func TestRender_ErrorVisibility(t *testing.T) {
	lib := newLibrary(t)
	raw := map[string]string{"src": uploads + "/2012/03/missing.png"}
	editor := Viewer{LoggedIn: true, CanEditPosts: true}

	tests := []struct {
		name   string
		viewer Viewer
		debug  bool
		want   string
	}{
		{"guest", Viewer{}, true, ""},
		{"subscriber", Viewer{LoggedIn: true}, true, ""},
		{"editor without debug", editor, false, ""},
		{"editor with debug", editor, true, "Attachment not found: 2012/03/missing.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(lib, raw, WithDebug(tt.debug)).Render(context.Background(), tt.viewer)
			assert.Equal(t, tt.want, got)
		})
	}

	ok := New(lib, map[string]string{"src": "1"}).Render(context.Background(), Viewer{})
	assert.Equal(t, `<img src="`+uploads+`/1/photo.png" />`, ok)
}

func TestRegister(t *testing.T) {
	lib := newLibrary(t)
	reg := shortcode.NewRegistry()
	require.NoError(t, Register(reg, lib, WithDebug(true)))
	assert.True(t, reg.Has(Tag))

	content := `<p>[dynamic_image src="` + uploads + `/1/photo.png" width="150" height="150" classes="hero"]</p>`
	assert.Equal(t,
		`<p><img src="`+uploads+`/1/photo-150x150.png" width="150" height="150" class="hero" /></p>`,
		reg.Do(context.Background(), content))

	missing := `[dynamic_image src="` + uploads + `/nope.png"]`
	assert.Equal(t, "", reg.Do(context.Background(), missing))

	ctx := WithViewer(context.Background(), Viewer{LoggedIn: true, CanEditPosts: true})
	assert.Equal(t, "Attachment not found: nope.png", reg.Do(ctx, missing))
	assert.Equal(t, "Attachment not found: nope.png", DynamicImageResize(ctx, lib, map[string]string{"src": uploads + "/nope.png"}, WithDebug(true)))
}
