package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, baseURL string) *LocalStorage {
	t.Helper()
	disk, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir(), BaseURL: baseURL})
	require.NoError(t, err)
	return disk
}

func TestLocalStorage_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	disk := newLocal(t, "http://example.org/uploads/")

	require.NoError(t, disk.Save(ctx, "2012/03/image.png", strings.NewReader("data")))

	exists, err := disk.Exists(ctx, "2012/03/image.png")
	require.NoError(t, err)
	assert.True(t, exists)

	rc, err := disk.Get(ctx, "2012/03/image.png")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "data", string(body))

	require.NoError(t, disk.Delete(ctx, "2012/03/image.png"))
	require.NoError(t, disk.Delete(ctx, "2012/03/image.png"))

	exists, err = disk.Exists(ctx, "2012/03/image.png")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = disk.Get(ctx, "2012/03/image.png")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStorage_URL(t *testing.T) {
	disk := newLocal(t, "http://example.org/uploads/")

	assert.Equal(t, "http://example.org/uploads", disk.URL(""))
	assert.Equal(t, "http://example.org/uploads/1/a.jpg", disk.URL("1/a.jpg"))
	assert.Equal(t, "http://example.org/uploads/1/a.jpg", disk.URL("/1/a.jpg"))

	bare := newLocal(t, "")
	assert.Equal(t, "/1/a.jpg", bare.URL("1/a.jpg"))
}

func TestNewLocalStorage_RequiresBasePath(t *testing.T) {
	_, err := NewLocalStorage(LocalConfig{})
	assert.Error(t, err)
}

func TestDiskManager(t *testing.T) {
	dm := NewDiskManager()
	disk := newLocal(t, "")

	_, err := dm.GetDisk("public")
	assert.Error(t, err)

	dm.AddDisk("public", disk)
	dm.AddDisk("archive", disk)
	assert.True(t, dm.HasDisk("public"))
	assert.Equal(t, []string{"archive", "public"}, dm.Names())

	got, err := dm.GetDisk("public")
	require.NoError(t, err)
	assert.Same(t, disk, got)

	dm.RemoveDisk("public")
	assert.False(t, dm.HasDisk("public"))
}
