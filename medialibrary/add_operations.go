package medialibrary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vortechron/go-dynamic-image/models"
	"github.com/vortechron/go-dynamic-image/storage"
)

// resolveOptions merges per-call options over the library defaults
func (m *DefaultMediaLibrary) resolveOptions(options ...Option) *Options {
	opts := &Options{
		DefaultDisk:          m.defaultOptions.DefaultDisk,
		AutoGenerateMetadata: m.defaultOptions.AutoGenerateMetadata,
		CustomProperties:     make(map[string]interface{}),
	}

	for k, v := range m.defaultOptions.CustomProperties {
		opts.CustomProperties[k] = v
	}

	for _, opt := range options {
		opt(opts)
	}

	return opts
}

// newMedia builds an unsaved media record for fileName
func (m *DefaultMediaLibrary) newMedia(fileName string, collection string, opts *Options) (*models.Media, error) {
	id, err := uuid.NewV4()
	if err != nil {
		m.logger.Error("Failed to generate UUID: %v", err)
		return nil, fmt.Errorf("failed to generate uuid: %w", err)
	}

	if opts.Name == "" {
		opts.Name = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	media := &models.Media{
		UUID:             &id,
		CollectionName:   collection,
		Name:             opts.Name,
		FileName:         sanitizeFileName(fileName),
		Disk:             opts.DefaultDisk,
		MimeType:         getMimeTypeFromExtension(filepath.Ext(fileName)),
		CustomProperties: json.RawMessage("{}"),
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if len(opts.CustomProperties) > 0 {
		customPropsBytes, err := json.Marshal(opts.CustomProperties)
		if err != nil {
			m.logger.Error("Failed to marshal custom properties: %v", err)
			return nil, fmt.Errorf("failed to marshal custom properties: %w", err)
		}
		media.CustomProperties = customPropsBytes
	}

	return media, nil
}

// AddMediaFromURL downloads urlStr onto the default disk and records it
func (m *DefaultMediaLibrary) AddMediaFromURL(
	ctx context.Context,
	urlStr string,
	collection string,
	options ...Option,
) (*models.Media, error) {
	m.logger.Debug("Adding media from URL: %s to collection: %s", urlStr, collection)

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		m.logger.Error("Invalid URL: %v", err)
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	opts := m.resolveOptions(options...)

	disk, err := m.diskManager.GetDisk(opts.DefaultDisk)
	if err != nil {
		m.logger.Error("Failed to get disk %s: %v", opts.DefaultDisk, err)
		return nil, fmt.Errorf("failed to get disk %s: %w", opts.DefaultDisk, err)
	}

	media, err := m.newMedia(path.Base(parsedURL.Path), collection, opts)
	if err != nil {
		return nil, err
	}

	// Save to DB first to get the ID the path depends on
	if err := m.repository.Save(ctx, media); err != nil {
		m.logger.Error("Failed to save media: %v", err)
		return nil, fmt.Errorf("failed to save media: %w", err)
	}

	storagePath := m.pathGenerator.GetPath(media)
	m.logger.Info("Saving media from URL %s to path %s", urlStr, storagePath)

	if err := disk.SaveFromURL(ctx, storagePath, urlStr, storage.WithVisibility("public")); err != nil {
		m.logger.Error("Failed to download and store file: %v", err)
		return nil, fmt.Errorf("failed to download and store file: %w", err)
	}

	fileReader, err := disk.Get(ctx, storagePath)
	if err != nil {
		m.logger.Error("Failed to get file: %v", err)
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	fileBytes, err := io.ReadAll(fileReader)
	fileReader.Close()
	if err != nil {
		m.logger.Error("Failed to read file: %v", err)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	m.detectMimeType(media, fileBytes)
	media.Size = int64(len(fileBytes))
	media.UpdatedAt = time.Now()

	if err := m.repository.Save(ctx, media); err != nil {
		m.logger.Error("Failed to update media: %v", err)
		return nil, fmt.Errorf("failed to update media: %w", err)
	}
	m.logger.Info("Successfully stored media ID %d", media.ID)

	m.afterAdd(ctx, media, opts)
	return media, nil
}

// AddMediaFromDisk copies a local file onto the default disk and records it
func (m *DefaultMediaLibrary) AddMediaFromDisk(
	ctx context.Context,
	filePath string,
	collection string,
	options ...Option,
) (*models.Media, error) {
	m.logger.Debug("Adding media from disk path: %s to collection: %s", filePath, collection)

	fileContent, err := os.ReadFile(filePath)
	if err != nil {
		m.logger.Error("Failed to read file: %v", err)
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return m.AddMediaFromBytes(ctx, filepath.Base(filePath), fileContent, collection, options...)
}

// AddMediaFromBytes stores content under fileName on the default disk and
// records it
func (m *DefaultMediaLibrary) AddMediaFromBytes(
	ctx context.Context,
	fileName string,
	content []byte,
	collection string,
	options ...Option,
) (*models.Media, error) {
	opts := m.resolveOptions(options...)

	disk, err := m.diskManager.GetDisk(opts.DefaultDisk)
	if err != nil {
		m.logger.Error("Failed to get disk %s: %v", opts.DefaultDisk, err)
		return nil, fmt.Errorf("failed to get disk %s: %w", opts.DefaultDisk, err)
	}

	media, err := m.newMedia(fileName, collection, opts)
	if err != nil {
		return nil, err
	}
	m.detectMimeType(media, content)
	media.Size = int64(len(content))

	if err := m.repository.Save(ctx, media); err != nil {
		m.logger.Error("Failed to save media: %v", err)
		return nil, fmt.Errorf("failed to save media: %w", err)
	}
	m.logger.Info("Successfully saved media ID %d", media.ID)

	storagePath := m.pathGenerator.GetPath(media)
	m.logger.Info("Saving %s to storage path %s", fileName, storagePath)

	err = disk.Save(ctx, storagePath, bytes.NewReader(content),
		storage.WithVisibility("public"),
		storage.WithContentType(media.MimeType))
	if err != nil {
		m.logger.Error("Failed to store file: %v", err)
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	m.afterAdd(ctx, media, opts)
	return media, nil
}

func (m *DefaultMediaLibrary) detectMimeType(media *models.Media, content []byte) {
	mimeType, err := getMimeTypeFromContent(bytes.NewReader(content))
	if err != nil {
		m.logger.Warning("Failed to detect MIME type from content: %v, falling back to extension-based detection", err)
		mimeType = getMimeTypeFromExtension(filepath.Ext(media.FileName))
	}
	media.MimeType = mimeType
	m.logger.Debug("Detected mime type: %s", media.MimeType)
}

// afterAdd generates metadata when enabled. Failures are logged, the media
// stays usable.
func (m *DefaultMediaLibrary) afterAdd(ctx context.Context, media *models.Media, opts *Options) {
	if !opts.AutoGenerateMetadata {
		return
	}

	if _, err := m.GenerateAttachmentMetadata(ctx, media); err != nil {
		m.logger.Warning("Error generating attachment metadata for media ID %d: %v", media.ID, err)
	}
}

// sanitizeFileName keeps file names URL and LIKE friendly
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(filepath.Base(name))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '-'
		case r == '/' || r == '\\' || r == '?' || r == '#' || r == '%' || r == '"' || r == '\'':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." {
		return "file"
	}
	return name
}
