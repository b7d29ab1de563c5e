package medialibrary

import (
	"path"
	"strconv"

	"github.com/vortechron/go-dynamic-image/models"
)

// DefaultPathGenerator lays files out as {prefix}/{id}/{file}
type DefaultPathGenerator struct {
	prefix string
}

// getBasePath returns the directory holding every file of a media item
func (p *DefaultPathGenerator) getBasePath(media *models.Media) string {
	return path.Join(p.prefix, strconv.FormatUint(media.ID, 10))
}

// GetPath returns the path for the original media file
func (p *DefaultPathGenerator) GetPath(media *models.Media) string {
	return path.Join(p.getBasePath(media), media.FileName)
}

// GetPathForSize returns the path of a resized copy stored next to the original
func (p *DefaultPathGenerator) GetPathForSize(media *models.Media, file string) string {
	return path.Join(p.getBasePath(media), path.Base(file))
}
