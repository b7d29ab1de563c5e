package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
)

const mediaColumns = `id, uuid, collection_name, name, file_name, mime_type, disk,
		size, custom_properties, created_at, updated_at`

// SQLMediaRepository implements the MediaRepository interface using *sql.DB.
// Queries use MySQL placeholders and upsert syntax.
type SQLMediaRepository struct {
	db *sql.DB
}

// NewSQLMediaRepository creates a new SQLMediaRepository instance
func NewSQLMediaRepository(db *sql.DB) *SQLMediaRepository {
	return &SQLMediaRepository{
		db: db,
	}
}

// CreateTablesIfNotExist creates the media and media_meta tables
func (r *SQLMediaRepository) CreateTablesIfNotExist(ctx context.Context) error {
	queries := []string{`
	CREATE TABLE IF NOT EXISTS media (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		uuid VARCHAR(36) UNIQUE,
		collection_name VARCHAR(255),
		name VARCHAR(255),
		file_name VARCHAR(255),
		mime_type VARCHAR(255),
		disk VARCHAR(255),
		size BIGINT,
		custom_properties JSON,
		created_at TIMESTAMP,
		updated_at TIMESTAMP,
		INDEX idx_collection (collection_name)
	)`, `
	CREATE TABLE IF NOT EXISTS media_meta (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		media_id BIGINT UNSIGNED NOT NULL,
		meta_key VARCHAR(255) NOT NULL,
		meta_value LONGTEXT,
		UNIQUE KEY idx_media_meta_key (media_id, meta_key)
	)`}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*models.Media, error) {
	var media models.Media
	var uuidStr string
	var customProperties []byte

	err := row.Scan(
		&media.ID,
		&uuidStr,
		&media.CollectionName,
		&media.Name,
		&media.FileName,
		&media.MimeType,
		&media.Disk,
		&media.Size,
		&customProperties,
		&media.CreatedAt,
		&media.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.FromString(uuidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UUID string: %w", err)
	}
	media.UUID = &parsed
	media.CustomProperties = json.RawMessage(customProperties)

	return &media, nil
}

// Save creates or updates a media record
func (r *SQLMediaRepository) Save(ctx context.Context, media *models.Media) error {
	uuidStr := ""
	if media.UUID != nil {
		uuidStr = media.UUID.String()
	}

	if media.ID == 0 {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO media (
				uuid, collection_name, name, file_name, mime_type, disk,
				size, custom_properties, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuidStr,
			media.CollectionName,
			media.Name,
			media.FileName,
			media.MimeType,
			media.Disk,
			media.Size,
			[]byte(media.CustomProperties),
			media.CreatedAt,
			media.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create media record: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read media ID: %w", err)
		}
		media.ID = uint64(id)
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE media
		SET uuid = ?, collection_name = ?, name = ?, file_name = ?, mime_type = ?,
			disk = ?, size = ?, custom_properties = ?, updated_at = ?
		WHERE id = ?`,
		uuidStr,
		media.CollectionName,
		media.Name,
		media.FileName,
		media.MimeType,
		media.Disk,
		media.Size,
		[]byte(media.CustomProperties),
		time.Now(),
		media.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update media record: %w", err)
	}

	return nil
}

// FindByID retrieves a media record by ID
func (r *SQLMediaRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE id = ?", id)

	media, err := scanMedia(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by ID: %w", err)
	}

	return media, nil
}

// Delete removes a media record and its meta
func (r *SQLMediaRepository) Delete(ctx context.Context, media *models.Media) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM media_meta WHERE media_id = ?", media.ID); err != nil {
		return fmt.Errorf("failed to delete media meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM media WHERE id = ?", media.ID); err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}

	return tx.Commit()
}

// FindByCollection retrieves media records for a specific collection
func (r *SQLMediaRepository) FindByCollection(ctx context.Context, collection string) ([]*models.Media, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+mediaColumns+" FROM media WHERE collection_name = ? ORDER BY id", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to find media by collection: %w", err)
	}
	defer rows.Close()

	var mediaList []*models.Media
	for rows.Next() {
		media, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		mediaList = append(mediaList, media)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return mediaList, nil
}

// GetMeta returns the raw meta value, or nil when the key is not set
func (r *SQLMediaRepository) GetMeta(ctx context.Context, mediaID uint64, key string) (json.RawMessage, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT meta_value FROM media_meta WHERE media_id = ? AND meta_key = ?", mediaID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meta %s: %w", key, err)
	}

	return json.RawMessage(value), nil
}

// SaveMeta inserts or replaces a meta value
func (r *SQLMediaRepository) SaveMeta(ctx context.Context, mediaID uint64, key string, value json.RawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO media_meta (media_id, meta_key, meta_value) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE meta_value = VALUES(meta_value)`,
		mediaID, key, []byte(value))
	if err != nil {
		return fmt.Errorf("failed to save meta %s: %w", key, err)
	}

	return nil
}

// DeleteMeta removes a meta value
func (r *SQLMediaRepository) DeleteMeta(ctx context.Context, mediaID uint64, key string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM media_meta WHERE media_id = ? AND meta_key = ?", mediaID, key)
	if err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, err)
	}

	return nil
}

// FindMediaIDByMeta returns the first media ID whose meta value for key
// contains substr, or 0
func (r *SQLMediaRepository) FindMediaIDByMeta(ctx context.Context, key string, substr string) (uint64, error) {
	var id uint64
	err := r.db.QueryRowContext(ctx, `
		SELECT media_id
		FROM media_meta
		WHERE meta_key = ?
			AND meta_value LIKE ?
		ORDER BY media_id
		LIMIT 1`,
		key, "%"+EscapeLike(substr)+"%").Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to search meta %s: %w", key, err)
	}

	return id, nil
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Verify that SQLMediaRepository implements the MediaRepository interface
var _ medialibrary.MediaRepository = (*SQLMediaRepository)(nil)
