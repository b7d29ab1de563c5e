package medialibrary

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"sort"
	"strconv"

	"github.com/vortechron/go-dynamic-image/conversion"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/storage"
)

// GenerateAttachmentMetadata records the original's dimensions and
// generates every registered size the image is large enough for
func (m *DefaultMediaLibrary) GenerateAttachmentMetadata(ctx context.Context, media *models.Media) (*models.AttachmentMetadata, error) {
	m.logger.Info("Generating attachment metadata for media ID %d", media.ID)

	sourcePath := m.pathGenerator.GetPath(media)
	meta := &models.AttachmentMetadata{
		File:  sourcePath,
		Sizes: make(map[string]models.ImageSize),
	}

	if isResizable(media.MimeType) {
		disk, err := m.diskManager.GetDisk(media.Disk)
		if err != nil {
			m.logger.Error("Failed to get disk %s: %v", media.Disk, err)
			return nil, fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
		}

		img, err := m.readImage(ctx, disk, sourcePath)
		if err != nil {
			return nil, err
		}
		meta.Width = img.Bounds().Dx()
		meta.Height = img.Bounds().Dy()

		sizes := m.transformer.Sizes()
		names := make([]string, 0, len(sizes))
		for name := range sizes {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			size := sizes[name]
			generated, err := m.saveResized(ctx, disk, media, img, size.Width, size.Height, size.Crop)
			if err != nil {
				m.logger.Debug("Skipping size %s for media ID %d: %v", name, media.ID, err)
				continue
			}
			meta.Sizes[name] = *generated
			m.logger.Debug("Generated size %s (%dx%d) for media ID %d", name, generated.Width, generated.Height, media.ID)
		}
	} else {
		m.logger.Debug("Media ID %d (%s) is not a resizable image", media.ID, media.MimeType)
	}

	if err := m.UpdateAttachmentMetadata(ctx, media.ID, meta); err != nil {
		return nil, err
	}

	m.logger.Info("Generated %d sizes for media ID %d", len(meta.Sizes), media.ID)
	return meta, nil
}

// GetAttachmentMetadata returns the stored metadata, or nil when none exists
func (m *DefaultMediaLibrary) GetAttachmentMetadata(ctx context.Context, id uint64) (*models.AttachmentMetadata, error) {
	var meta models.AttachmentMetadata
	found, err := m.GetMeta(ctx, id, models.MetaKeyAttachmentMetadata, &meta)
	if err != nil || !found {
		return nil, err
	}
	if meta.Sizes == nil {
		meta.Sizes = make(map[string]models.ImageSize)
	}
	return &meta, nil
}

// UpdateAttachmentMetadata persists meta for the attachment
func (m *DefaultMediaLibrary) UpdateAttachmentMetadata(ctx context.Context, id uint64, meta *models.AttachmentMetadata) error {
	return m.UpdateMeta(ctx, id, models.MetaKeyAttachmentMetadata, meta)
}

// GetMeta decodes the JSON value stored under key into out. It reports
// false when the key is not set.
func (m *DefaultMediaLibrary) GetMeta(ctx context.Context, id uint64, key string, out any) (bool, error) {
	raw, err := m.repository.GetMeta(ctx, id, key)
	if err != nil {
		m.logger.Error("Failed to get meta %s for media ID %d: %v", key, id, err)
		return false, fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	if len(raw) == 0 {
		return false, nil
	}

	if err := unmarshalMeta(raw, out); err != nil {
		m.logger.Warning("Failed to unmarshal meta %s for media ID %d: %v", key, id, err)
		return false, fmt.Errorf("failed to unmarshal meta %s: %w", key, err)
	}
	return true, nil
}

// UpdateMeta stores value as JSON under key
func (m *DefaultMediaLibrary) UpdateMeta(ctx context.Context, id uint64, key string, value any) error {
	raw, err := marshalMeta(value)
	if err != nil {
		m.logger.Error("Failed to marshal meta %s: %v", key, err)
		return fmt.Errorf("failed to marshal meta %s: %w", key, err)
	}

	if err := m.repository.SaveMeta(ctx, id, key, raw); err != nil {
		m.logger.Error("Failed to save meta %s for media ID %d: %v", key, id, err)
		return fmt.Errorf("failed to save meta %s: %w", key, err)
	}

	m.logger.Debug("Saved meta %s for media ID %d", key, id)
	return nil
}

// FindAttachmentIDByFile looks up the attachment whose metadata references
// file, a path relative to the upload base URL. It returns 0 when nothing
// matches.
func (m *DefaultMediaLibrary) FindAttachmentIDByFile(ctx context.Context, file string) (uint64, error) {
	if file == "" {
		return 0, nil
	}

	// Quoting the JSON string keeps "1/a.jpg" from matching "11/a.jpg".
	needle, err := marshalMeta(file)
	if err != nil {
		return 0, fmt.Errorf("failed to encode file name: %w", err)
	}

	id, err := m.repository.FindMediaIDByMeta(ctx, models.MetaKeyAttachmentMetadata, string(needle))
	if err != nil {
		m.logger.Error("Failed to look up attachment for %s: %v", file, err)
		return 0, fmt.Errorf("failed to look up attachment: %w", err)
	}

	m.logger.Debug("Attachment lookup for %s returned ID %d", file, id)
	return id, nil
}

// GetAttachedFile returns the media record and the storage path of its
// original file
func (m *DefaultMediaLibrary) GetAttachedFile(ctx context.Context, id uint64) (*models.Media, string, error) {
	media, err := m.findMedia(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return media, m.pathGenerator.GetPath(media), nil
}

// MakeIntermediateSize writes a width x height copy of the attachment next
// to its original and returns its description. It does not touch metadata.
func (m *DefaultMediaLibrary) MakeIntermediateSize(ctx context.Context, id uint64, width, height int, crop bool) (*models.ImageSize, error) {
	m.logger.Info("Making %dx%d size for media ID %d (crop %t)", width, height, id, crop)

	if width <= 0 && height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", width, height)
	}

	media, sourcePath, err := m.GetAttachedFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isResizable(media.MimeType) {
		return nil, fmt.Errorf("media ID %d of type %s cannot be resized", id, media.MimeType)
	}

	disk, err := m.diskManager.GetDisk(media.Disk)
	if err != nil {
		m.logger.Error("Failed to get disk %s: %v", media.Disk, err)
		return nil, fmt.Errorf("failed to get disk %s: %w", media.Disk, err)
	}

	img, err := m.readImage(ctx, disk, sourcePath)
	if err != nil {
		return nil, err
	}

	size, err := m.saveResized(ctx, disk, media, img, width, height, crop)
	if err != nil {
		m.logger.Warning("Failed to make %dx%d size for media ID %d: %v", width, height, id, err)
		return nil, err
	}

	m.logger.Info("Made size %s for media ID %d", size.File, id)
	return size, nil
}

func (m *DefaultMediaLibrary) readImage(ctx context.Context, disk storage.Storage, sourcePath string) (image.Image, error) {
	m.logger.Debug("Reading source file from path: %s", sourcePath)

	fileReader, err := disk.Get(ctx, sourcePath)
	if err != nil {
		m.logger.Error("Failed to get original file: %v", err)
		return nil, fmt.Errorf("failed to get original file: %w", err)
	}
	defer fileReader.Close()

	img, err := m.transformer.Decode(fileReader)
	if err != nil {
		m.logger.Error("Failed to decode image: %v", err)
		return nil, err
	}
	return img, nil
}

// saveResized resizes img and stores it as {basename}-{w}x{h}{ext} next to
// the original
func (m *DefaultMediaLibrary) saveResized(
	ctx context.Context,
	disk storage.Storage,
	media *models.Media,
	img image.Image,
	width, height int,
	crop bool,
) (*models.ImageSize, error) {
	resized, err := m.transformer.ResizeImage(img, width, height, crop)
	if err != nil {
		return nil, err
	}

	w, h := resized.Bounds().Dx(), resized.Bounds().Dy()
	fileName := conversion.IntermediateFileName(media.FileName, w, h)
	targetPath := m.pathGenerator.GetPathForSize(media, fileName)

	var buf bytes.Buffer
	err = m.transformer.Encode(&buf, resized, path.Ext(media.FileName),
		conversion.WithQuality(m.defaultOptions.Quality))
	if err != nil {
		return nil, err
	}

	err = disk.Save(ctx, targetPath, &buf,
		storage.WithVisibility("public"),
		storage.WithContentType(media.MimeType),
		storage.WithMetadata(map[string]string{
			"media-id": strconv.FormatUint(media.ID, 10),
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to store resized image: %w", err)
	}

	return &models.ImageSize{
		File:     fileName,
		Width:    w,
		Height:   h,
		MimeType: media.MimeType,
	}, nil
}
