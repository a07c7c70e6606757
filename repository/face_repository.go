package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxvl-d/vabiko-demo/models"
)

// FaceRepository handles database operations for Face entities
type FaceRepository struct {
	DB *gorm.DB
}

var _ FaceRepositoryInterface = (*FaceRepository)(nil)

// NewFaceRepository creates a new instance of FaceRepository
func NewFaceRepository(db *gorm.DB) *FaceRepository {
	return &FaceRepository{DB: db}
}

// Upsert writes a face record keyed by its face_hash. Re-ingesting the same
// logical face replaces the stored row in place; the row ID stays stable and
// no duplicate is created. Each call is one self-contained transaction.
func (r *FaceRepository) Upsert(face *models.Face) error {
	if face.CreatedAt == 0 {
		face.CreatedAt = time.Now().Unix()
	}

	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "face_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"image_urn", "face_index",
			"face_top", "face_right", "face_bottom", "face_left",
			"face_encoding", "face_image_path",
		}),
	}).Create(face).Error
	if err != nil {
		return fmt.Errorf("failed to upsert face %s for image %s: %w", face.FaceHash, face.ImageURN, err)
	}
	return nil
}

// GetByID retrieves a face by its ID
func (r *FaceRepository) GetByID(id uint) (*models.Face, error) {
	var face models.Face
	err := r.DB.First(&face, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get face by ID %d: %w", id, err)
	}
	return &face, nil
}

// GetByHash retrieves a face by its deterministic face hash
func (r *FaceRepository) GetByHash(faceHash string) (*models.Face, error) {
	var face models.Face
	err := r.DB.Where("face_hash = ?", faceHash).First(&face).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get face by hash %s: %w", faceHash, err)
	}
	return &face, nil
}

// ListAll returns every stored face. This is a full scan with no pagination;
// fine at archive scale (thousands of rows), a known limit beyond that.
func (r *FaceRepository) ListAll() ([]models.Face, error) {
	var faces []models.Face
	err := r.DB.Order("id ASC").Find(&faces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list all faces: %w", err)
	}
	return faces, nil
}

// ListByImageURN retrieves all faces detected in a given archive image
func (r *FaceRepository) ListByImageURN(imageURN string) ([]models.Face, error) {
	var faces []models.Face
	err := r.DB.Where("image_urn = ?", imageURN).Order("face_index ASC").Find(&faces).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list faces for image %s: %w", imageURN, err)
	}
	return faces, nil
}

// Random returns one uniformly random face, used to seed a browse session
func (r *FaceRepository) Random() (*models.Face, error) {
	var face models.Face
	err := r.DB.Order("RANDOM()").First(&face).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get random face: %w", err)
	}
	return &face, nil
}

// Count returns the number of stored face records
func (r *FaceRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&models.Face{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count faces: %w", err)
	}
	return count, nil
}
