package medialibrary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/storage"
)

// CopyMediaToDisk copies a media item to another disk as a new attachment
// and regenerates its registered sizes there
func (m *DefaultMediaLibrary) CopyMediaToDisk(
	ctx context.Context,
	media *models.Media,
	targetDisk string,
) (*models.Media, error) {
	m.logger.Debug("Copying media ID %d from disk %s to disk %s", media.ID, media.Disk, targetDisk)

	sourceDiskStorage, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Failed to get source disk %s: %v", media.Disk, err)
		return nil, fmt.Errorf("failed to get source disk %s: %w", media.Disk, err)
	}

	targetDiskStorage, err := m.diskManager.GetDisk(targetDisk)
	if err != nil {
		m.logger.Error("Failed to get target disk %s: %v", targetDisk, err)
		return nil, fmt.Errorf("failed to get target disk %s: %w", targetDisk, err)
	}

	sourcePath := m.pathGenerator.GetPath(media)
	m.logger.Debug("Source path: %s", sourcePath)

	exists, err := sourceDiskStorage.Exists(ctx, sourcePath)
	if err != nil {
		m.logger.Error("Failed to check if file exists: %v", err)
		return nil, fmt.Errorf("failed to check if file exists: %w", err)
	}
	if !exists {
		m.logger.Error("File does not exist on disk %s", media.Disk)
		return nil, fmt.Errorf("file does not exist on disk %s", media.Disk)
	}

	fileReader, err := sourceDiskStorage.Get(ctx, sourcePath)
	if err != nil {
		m.logger.Error("Failed to get file: %v", err)
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	defer fileReader.Close()

	fileContent, err := io.ReadAll(fileReader)
	if err != nil {
		m.logger.Error("Failed to read file: %v", err)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		m.logger.Error("Failed to generate UUID: %v", err)
		return nil, fmt.Errorf("failed to generate uuid: %w", err)
	}

	copiedMedia := &models.Media{
		UUID:             &id,
		CollectionName:   media.CollectionName,
		Name:             media.Name,
		FileName:         media.FileName,
		MimeType:         media.MimeType,
		Disk:             targetDisk,
		Size:             int64(len(fileContent)),
		CustomProperties: media.CustomProperties,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	// Save to database first to get ID
	if err := m.repository.Save(ctx, copiedMedia); err != nil {
		m.logger.Error("Failed to save copied media: %v", err)
		return nil, fmt.Errorf("failed to save media: %w", err)
	}
	m.logger.Info("Successfully saved copied media ID %d", copiedMedia.ID)

	targetPath := m.pathGenerator.GetPath(copiedMedia)
	m.logger.Info("Copying media to target path: %s", targetPath)

	err = targetDiskStorage.Save(ctx, targetPath, bytes.NewReader(fileContent),
		storage.WithVisibility("public"),
		storage.WithContentType(copiedMedia.MimeType))
	if err != nil {
		m.logger.Error("Failed to store file: %v", err)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	if _, err := m.GenerateAttachmentMetadata(ctx, copiedMedia); err != nil {
		m.logger.Warning("Error generating attachment metadata for copied media ID %d: %v", copiedMedia.ID, err)
	}

	return copiedMedia, nil
}

// MoveMediaToDisk copies a media item to another disk and deletes the
// original attachment with all of its sizes
func (m *DefaultMediaLibrary) MoveMediaToDisk(ctx context.Context, media *models.Media, targetDisk string) (*models.Media, error) {
	m.logger.Debug("Moving media ID %d from disk %s to disk %s", media.ID, media.Disk, targetDisk)

	movedMedia, err := m.CopyMediaToDisk(ctx, media, targetDisk)
	if err != nil {
		return nil, err
	}

	if err := m.DeleteMedia(ctx, media.ID); err != nil {
		m.logger.Error("Failed to delete original media ID %d: %v", media.ID, err)
		return nil, fmt.Errorf("failed to delete original media: %w", err)
	}
	m.logger.Info("Moved media ID %d to disk %s as ID %d", media.ID, targetDisk, movedMedia.ID)

	return movedMedia, nil
}
