package services

import (
	"database/sql"
	"fmt"
	"log"
	"sort"

	"github.com/rxvl-d/vabiko-demo/database"
	"github.com/rxvl-d/vabiko-demo/models"
	"github.com/rxvl-d/vabiko-demo/repository"
)

// SimilarFace pairs a stored face with its similarity to a target face.
type SimilarFace struct {
	Face       models.Face        `json:"face"`
	Similarity float64            `json:"similarity"`
	Distance   float64            `json:"distance"`
	Names      []models.ImageName `json:"names"`
}

// FaceService answers face browsing queries against the store.
type FaceService struct {
	faceRepo repository.FaceRepositoryInterface
	nameRepo repository.ImageNameRepositoryInterface
	sqlDB    *sql.DB
}

func NewFaceService(
	faceRepo repository.FaceRepositoryInterface,
	nameRepo repository.ImageNameRepositoryInterface,
	sqlDB *sql.DB,
) *FaceService {
	return &FaceService{faceRepo: faceRepo, nameRepo: nameRepo, sqlDB: sqlDB}
}

// RandomFace picks one stored face at random along with the unified names
// recorded for its source image.
func (s *FaceService) RandomFace() (*models.Face, []models.ImageName, error) {
	face, err := s.faceRepo.Random()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to pick random face: %w", err)
	}

	names, err := s.nameRepo.ListByImageURN(face.ImageURN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load names for %s: %w", face.ImageURN, err)
	}
	return face, names, nil
}

// GetFace loads one face by ID.
func (s *FaceService) GetFace(faceID uint) (*models.Face, error) {
	return s.faceRepo.GetByID(faceID)
}

// NamesForImage returns the unified names associated with an image.
func (s *FaceService) NamesForImage(imageURN string) ([]models.ImageName, error) {
	return s.nameRepo.ListByImageURN(imageURN)
}

// FindSimilarFaces ranks every other stored face by similarity to the target
// face, most similar first, and returns up to limit of them. The ranking is
// unfiltered so that weak neighbours are still browsable.
func (s *FaceService) FindSimilarFaces(faceID uint, limit int) ([]SimilarFace, error) {
	target, err := s.faceRepo.GetByID(faceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load face %d: %w", faceID, err)
	}

	targetEncoding, err := target.GetEncoding()
	if err != nil {
		return nil, err
	}
	if len(targetEncoding) == 0 {
		return nil, fmt.Errorf("face %d has no stored encoding", faceID)
	}

	candidates, err := s.faceRepo.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list faces: %w", err)
	}

	similar := make([]SimilarFace, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == faceID {
			continue
		}

		encoding, err := candidate.GetEncoding()
		if err != nil {
			log.Printf("recognition: skipping face %d: %v", candidate.ID, err)
			continue
		}
		if len(encoding) != len(targetEncoding) {
			continue
		}

		distance := FaceDistance(targetEncoding, encoding)
		similar = append(similar, SimilarFace{
			Face:       candidate,
			Similarity: 1 - distance,
			Distance:   distance,
		})
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].Similarity > similar[j].Similarity
	})

	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}

	for i := range similar {
		names, err := s.nameRepo.ListByImageURN(similar[i].Face.ImageURN)
		if err != nil {
			log.Printf("recognition: failed to load names for %s: %v", similar[i].Face.ImageURN, err)
			continue
		}
		similar[i].Names = names
	}

	return similar, nil
}

// Stats reports store-wide face counts.
func (s *FaceService) Stats() (database.FaceStats, error) {
	return database.GetFaceStats(s.sqlDB)
}
