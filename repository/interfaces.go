package repository

import (
	"github.com/rxvl-d/vabiko-demo/models"
)

// FaceRepositoryInterface defines the methods for face data operations
type FaceRepositoryInterface interface {
	Upsert(face *models.Face) error
	GetByID(id uint) (*models.Face, error)
	GetByHash(faceHash string) (*models.Face, error)
	ListAll() ([]models.Face, error)
	ListByImageURN(imageURN string) ([]models.Face, error)
	Random() (*models.Face, error)
	Count() (int64, error)
}

// ImageNameRepositoryInterface defines the methods for image/name association operations
type ImageNameRepositoryInterface interface {
	UpsertBatch(associations []models.ImageName) error
	ListByImageURN(imageURN string) ([]models.ImageName, error)
	ListByUnifiedName(unifiedName string) ([]models.ImageName, error)
}
