package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxvl-d/vabiko-demo/models"
)

// ImageNameRepository handles database operations for image/name associations
type ImageNameRepository struct {
	DB *gorm.DB
}

var _ ImageNameRepositoryInterface = (*ImageNameRepository)(nil)

// NewImageNameRepository creates a new instance of ImageNameRepository
func NewImageNameRepository(db *gorm.DB) *ImageNameRepository {
	return &ImageNameRepository{DB: db}
}

// UpsertBatch inserts associations, silently ignoring rows whose
// (image_urn, unified_name) pair already exists. Idempotent.
func (r *ImageNameRepository) UpsertBatch(associations []models.ImageName) error {
	if len(associations) == 0 {
		return nil
	}

	now := time.Now().Unix()
	for i := range associations {
		if associations[i].CreatedAt == 0 {
			associations[i].CreatedAt = now
		}
	}

	err := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&associations).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d image name associations: %w", len(associations), err)
	}
	return nil
}

// ListByImageURN returns the unified names associated with an archive image
func (r *ImageNameRepository) ListByImageURN(imageURN string) ([]models.ImageName, error) {
	var names []models.ImageName
	err := r.DB.Where("image_urn = ?", imageURN).Order("unified_name ASC").Find(&names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list names for image %s: %w", imageURN, err)
	}
	return names, nil
}

// ListByUnifiedName returns every image association recorded for a person
func (r *ImageNameRepository) ListByUnifiedName(unifiedName string) ([]models.ImageName, error) {
	var names []models.ImageName
	err := r.DB.Where("unified_name = ?", unifiedName).Order("image_urn ASC").Find(&names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list images for person %s: %w", unifiedName, err)
	}
	return names, nil
}
