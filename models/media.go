package models

import (
	"encoding/json"
	"time"

	"github.com/gofrs/uuid"
)

const (
	MetaKeyAttachmentMetadata = "_wp_attachment_metadata"
	MetaKeyBackupSizes        = "_wp_attachment_backup_sizes"
)

type Media struct {
	ID               uint64          `json:"id" gorm:"primaryKey"`
	UUID             *uuid.UUID      `json:"uuid" gorm:"type:varchar(36);unique"`
	CollectionName   string          `json:"collection_name"`
	Name             string          `json:"name"`
	FileName         string          `json:"file_name"`
	MimeType         string          `json:"mime_type"`
	Disk             string          `json:"disk"`
	Size             int64           `json:"size"`
	CustomProperties json.RawMessage `json:"custom_properties" gorm:"type:json"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// MediaMeta is a key/value record attached to a media item. Values are JSON.
type MediaMeta struct {
	ID        uint64          `json:"id" gorm:"primaryKey"`
	MediaID   uint64          `json:"media_id" gorm:"uniqueIndex:idx_media_meta_key"`
	MetaKey   string          `json:"meta_key" gorm:"type:varchar(255);uniqueIndex:idx_media_meta_key"`
	MetaValue json.RawMessage `json:"meta_value" gorm:"type:text"`
}

// ImageSize describes one generated file of an attachment.
type ImageSize struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime-type,omitempty"`
}

// AttachmentMetadata is stored under MetaKeyAttachmentMetadata. File is the
// path of the original relative to the disk root; Sizes hold base names that
// live next to it.
type AttachmentMetadata struct {
	Width  int                  `json:"width"`
	Height int                  `json:"height"`
	File   string               `json:"file"`
	Sizes  map[string]ImageSize `json:"sizes"`
}

// BackupSizes is stored under MetaKeyBackupSizes.
type BackupSizes map[string]ImageSize
