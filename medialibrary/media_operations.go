package medialibrary

import (
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vortechron/go-dynamic-image/models"
)

// getMimeTypeFromContent detects the MIME type from file content
func getMimeTypeFromContent(content io.Reader) (string, error) {
	mime, err := mimetype.DetectReader(content)
	if err != nil {
		return "application/octet-stream", err
	}
	return mime.String(), nil
}

// getMimeTypeFromExtension returns the MIME type for a given file extension
func getMimeTypeFromExtension(ext string) string {
	if mime, ok := extensionMimeTypes[strings.ToLower(ext)]; ok {
		return mime
	}
	return "application/octet-stream"
}

var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
}

// isResizable reports whether the library can decode and resize the type
func isResizable(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/png", "image/gif", "image/bmp", "image/tiff":
		return true
	}
	return false
}

// GetMediaForCollection returns all media items in a collection
func (m *DefaultMediaLibrary) GetMediaForCollection(ctx context.Context, collection string) ([]*models.Media, error) {
	repo, ok := m.repository.(interface {
		FindByCollection(ctx context.Context, collection string) ([]*models.Media, error)
	})

	if !ok {
		return nil, fmt.Errorf("repository does not support FindByCollection")
	}

	return repo.FindByCollection(ctx, collection)
}

// DeleteMedia removes the original, every generated and backed-up size, and
// the records describing them
func (m *DefaultMediaLibrary) DeleteMedia(ctx context.Context, id uint64) error {
	media, err := m.findMedia(ctx, id)
	if err != nil {
		return err
	}
	m.logger.Info("Deleting media ID %d", id)

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Failed to get disk %s: %v", media.Disk, err)
		return fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	files := map[string]struct{}{
		m.pathGenerator.GetPath(media): {},
	}

	meta, err := m.GetAttachmentMetadata(ctx, id)
	if err != nil {
		m.logger.Warning("Failed to read metadata of media ID %d: %v", id, err)
	}
	if meta != nil {
		for _, size := range meta.Sizes {
			files[m.sizePath(media, meta, size.File)] = struct{}{}
		}
	}

	var backup models.BackupSizes
	if _, err := m.GetMeta(ctx, id, models.MetaKeyBackupSizes, &backup); err != nil {
		m.logger.Warning("Failed to read backup sizes of media ID %d: %v", id, err)
	}
	for _, size := range backup {
		files[m.sizePath(media, meta, size.File)] = struct{}{}
	}

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		m.logger.Debug("Deleting file %s", p)
		if err := disk.Delete(ctx, p); err != nil {
			m.logger.Error("Failed to delete file %s: %v", p, err)
			return fmt.Errorf("failed to delete file %s: %w", p, err)
		}
	}

	if err := m.repository.Delete(ctx, media); err != nil {
		m.logger.Error("Failed to delete media record: %v", err)
		return fmt.Errorf("failed to delete media: %w", err)
	}

	m.logger.Info("Deleted media ID %d and %d files", id, len(paths))
	return nil
}

// sizePath returns the storage path of a size file, which lives in the
// same directory as the original
func (m *DefaultMediaLibrary) sizePath(media *models.Media, meta *models.AttachmentMetadata, file string) string {
	if meta != nil && meta.File != "" {
		return path.Join(path.Dir(meta.File), path.Base(file))
	}
	return m.pathGenerator.GetPathForSize(media, file)
}

func (m *DefaultMediaLibrary) findMedia(ctx context.Context, id uint64) (*models.Media, error) {
	media, err := m.repository.FindByID(ctx, id)
	if err != nil {
		m.logger.Error("Failed to find media ID %d: %v", id, err)
		return nil, fmt.Errorf("failed to find media: %w", err)
	}
	if media == nil {
		return nil, fmt.Errorf("media ID %d: %w", id, ErrMediaNotFound)
	}
	return media, nil
}
