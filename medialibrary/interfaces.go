package medialibrary

import (
	"context"
	"encoding/json"

	"github.com/vortechron/go-dynamic-image/models"
)

// MediaLibrary defines the interface for the media library functionality
type MediaLibrary interface {
	AddMediaFromURL(ctx context.Context, url string, collection string, options ...Option) (*models.Media, error)

	AddMediaFromDisk(ctx context.Context, filePath string, collection string, options ...Option) (*models.Media, error)

	AddMediaFromBytes(ctx context.Context, fileName string, content []byte, collection string, options ...Option) (*models.Media, error)

	CopyMediaToDisk(ctx context.Context, media *models.Media, targetDisk string) (*models.Media, error)

	MoveMediaToDisk(ctx context.Context, media *models.Media, targetDisk string) (*models.Media, error)

	DeleteMedia(ctx context.Context, id uint64) error

	GenerateAttachmentMetadata(ctx context.Context, media *models.Media) (*models.AttachmentMetadata, error)

	GetAttachmentMetadata(ctx context.Context, id uint64) (*models.AttachmentMetadata, error)

	UpdateAttachmentMetadata(ctx context.Context, id uint64, meta *models.AttachmentMetadata) error

	GetMeta(ctx context.Context, id uint64, key string, out any) (bool, error)

	UpdateMeta(ctx context.Context, id uint64, key string, value any) error

	FindAttachmentIDByFile(ctx context.Context, file string) (uint64, error)

	GetAttachedFile(ctx context.Context, id uint64) (*models.Media, string, error)

	MakeIntermediateSize(ctx context.Context, id uint64, width, height int, crop bool) (*models.ImageSize, error)

	GetAttachmentURL(ctx context.Context, id uint64) (string, error)

	GetURLForMedia(media *models.Media) string

	GetURLForSize(ctx context.Context, id uint64, sizeName string) string

	UploadBaseURL() string

	GetMediaForCollection(ctx context.Context, collection string) ([]*models.Media, error)

	GetMediaRepository() MediaRepository

	SetLogLevel(level LogLevel)

	GetLogger() Logger
}

// MediaRepository defines the interface for storage and retrieval of media
// records and their key/value meta
type MediaRepository interface {
	Save(ctx context.Context, media *models.Media) error

	// FindByID returns nil without error when no record exists
	FindByID(ctx context.Context, id uint64) (*models.Media, error)

	Delete(ctx context.Context, media *models.Media) error

	// GetMeta returns nil without error when the key is not set
	GetMeta(ctx context.Context, mediaID uint64, key string) (json.RawMessage, error)

	SaveMeta(ctx context.Context, mediaID uint64, key string, value json.RawMessage) error

	DeleteMeta(ctx context.Context, mediaID uint64, key string) error

	// FindMediaIDByMeta returns the lowest media ID whose value for key
	// contains substr, or 0
	FindMediaIDByMeta(ctx context.Context, key string, substr string) (uint64, error)
}

// PathGenerator defines the interface for generating file paths for media items
type PathGenerator interface {
	GetPath(media *models.Media) string

	GetPathForSize(media *models.Media, file string) string
}
