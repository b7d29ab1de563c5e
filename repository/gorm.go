package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vortechron/go-dynamic-image/medialibrary"
	"github.com/vortechron/go-dynamic-image/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormMediaRepository struct {
	db *gorm.DB
}

func NewGormMediaRepository(db *gorm.DB) *GormMediaRepository {
	return &GormMediaRepository{
		db: db,
	}
}

func (r *GormMediaRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&models.Media{}, &models.MediaMeta{}); err != nil {
		return fmt.Errorf("failed to migrate media models: %w", err)
	}
	return nil
}

func (r *GormMediaRepository) Save(ctx context.Context, media *models.Media) error {
	tx := r.db.WithContext(ctx)

	if media.ID == 0 {
		if err := tx.Create(media).Error; err != nil {
			return fmt.Errorf("failed to create media record: %w", err)
		}
	} else {
		if err := tx.Save(media).Error; err != nil {
			return fmt.Errorf("failed to update media record: %w", err)
		}
	}

	return nil
}

func (r *GormMediaRepository) FindByID(ctx context.Context, id uint64) (*models.Media, error) {
	var media models.Media

	tx := r.db.WithContext(ctx)
	if err := tx.Where("id = ?", id).First(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find media by ID: %w", err)
	}

	return &media, nil
}

func (r *GormMediaRepository) Delete(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("media_id = ?", media.ID).Delete(&models.MediaMeta{}).Error; err != nil {
			return fmt.Errorf("failed to delete media meta: %w", err)
		}
		if err := tx.Delete(media).Error; err != nil {
			return fmt.Errorf("failed to delete media: %w", err)
		}
		return nil
	})
}

func (r *GormMediaRepository) FindByCollection(ctx context.Context, collection string) ([]*models.Media, error) {
	var media []*models.Media

	tx := r.db.WithContext(ctx)
	if err := tx.Where("collection_name = ?", collection).Order("id").Find(&media).Error; err != nil {
		return nil, fmt.Errorf("failed to find media by collection: %w", err)
	}

	return media, nil
}

func (r *GormMediaRepository) GetMeta(ctx context.Context, mediaID uint64, key string) (json.RawMessage, error) {
	var meta models.MediaMeta

	tx := r.db.WithContext(ctx)
	if err := tx.Where("media_id = ? AND meta_key = ?", mediaID, key).First(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meta %s: %w", key, err)
	}

	return meta.MetaValue, nil
}

func (r *GormMediaRepository) SaveMeta(ctx context.Context, mediaID uint64, key string, value json.RawMessage) error {
	meta := models.MediaMeta{MediaID: mediaID, MetaKey: key, MetaValue: value}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "media_id"}, {Name: "meta_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"meta_value"}),
	})
	if err := tx.Create(&meta).Error; err != nil {
		return fmt.Errorf("failed to save meta %s: %w", key, err)
	}

	return nil
}

func (r *GormMediaRepository) DeleteMeta(ctx context.Context, mediaID uint64, key string) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("media_id = ? AND meta_key = ?", mediaID, key).Delete(&models.MediaMeta{}).Error; err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, err)
	}

	return nil
}

func (r *GormMediaRepository) FindMediaIDByMeta(ctx context.Context, key string, substr string) (uint64, error) {
	var meta models.MediaMeta

	tx := r.db.WithContext(ctx)
	err := tx.Where("meta_key = ? AND meta_value LIKE ?", key, "%"+EscapeLike(substr)+"%").
		Order("media_id").
		Limit(1).
		Find(&meta).Error
	if err != nil {
		return 0, fmt.Errorf("failed to search meta %s: %w", key, err)
	}

	return meta.MediaID, nil
}

var _ medialibrary.MediaRepository = (*GormMediaRepository)(nil)
