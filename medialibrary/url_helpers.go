package medialibrary

import (
	"context"
	"fmt"
	"strings"

	"github.com/vortechron/go-dynamic-image/models"
)

// UploadBaseURL returns the URL uploads are served from, without a
// trailing slash
func (m *DefaultMediaLibrary) UploadBaseURL() string {
	if m.defaultOptions.UploadBaseURL != "" {
		return strings.TrimSuffix(m.defaultOptions.UploadBaseURL, "/")
	}

	disk, err := m.diskManager.GetDisk(m.defaultOptions.DefaultDisk)
	if err != nil {
		m.logger.Error("Error getting disk %s: %v", m.defaultOptions.DefaultDisk, err)
		return ""
	}
	return strings.TrimSuffix(disk.URL(""), "/")
}

// GetURLForMedia returns the URL for accessing a media file
func (m *DefaultMediaLibrary) GetURLForMedia(media *models.Media) string {
	if media == nil {
		m.logger.Debug("GetURLForMedia called with nil media")
		return ""
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Error getting disk %s: %v", media.Disk, err)
		return ""
	}

	url := disk.URL(m.pathGenerator.GetPath(media))
	m.logger.Debug("Generated URL for media ID %d: %s", media.ID, url)
	return url
}

// GetAttachmentURL returns the URL of the attachment's original file
func (m *DefaultMediaLibrary) GetAttachmentURL(ctx context.Context, id uint64) (string, error) {
	media, err := m.findMedia(ctx, id)
	if err != nil {
		return "", err
	}

	url := m.GetURLForMedia(media)
	if url == "" {
		return "", fmt.Errorf("no URL for media ID %d", id)
	}
	return url, nil
}

// GetURLForSize returns the URL of a named size, or "" when the attachment
// has no such size
func (m *DefaultMediaLibrary) GetURLForSize(ctx context.Context, id uint64, sizeName string) string {
	media, err := m.findMedia(ctx, id)
	if err != nil {
		m.logger.Debug("GetURLForSize: %v", err)
		return ""
	}

	meta, err := m.GetAttachmentMetadata(ctx, id)
	if err != nil || meta == nil {
		return ""
	}

	size, ok := meta.Sizes[sizeName]
	if !ok {
		m.logger.Debug("Size %s not found for media ID %d", sizeName, id)
		return ""
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Error getting disk %s: %v", media.Disk, err)
		return ""
	}

	return disk.URL(m.sizePath(media, meta, size.File))
}
