package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rxvl-d/vabiko-demo/models"
)

type fakeFaceRepo struct {
	faces []models.Face
}

func (r *fakeFaceRepo) Upsert(face *models.Face) error {
	r.faces = append(r.faces, *face)
	return nil
}

func (r *fakeFaceRepo) GetByID(id uint) (*models.Face, error) {
	for i := range r.faces {
		if r.faces[i].ID == id {
			face := r.faces[i]
			return &face, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFaceRepo) GetByHash(faceHash string) (*models.Face, error) {
	for i := range r.faces {
		if r.faces[i].FaceHash == faceHash {
			face := r.faces[i]
			return &face, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFaceRepo) ListAll() ([]models.Face, error) {
	return append([]models.Face(nil), r.faces...), nil
}

func (r *fakeFaceRepo) ListByImageURN(imageURN string) ([]models.Face, error) {
	var out []models.Face
	for _, face := range r.faces {
		if face.ImageURN == imageURN {
			out = append(out, face)
		}
	}
	return out, nil
}

func (r *fakeFaceRepo) Random() (*models.Face, error) {
	if len(r.faces) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	face := r.faces[0]
	return &face, nil
}

func (r *fakeFaceRepo) Count() (int64, error) {
	return int64(len(r.faces)), nil
}

type fakeNameRepo struct {
	names map[string][]models.ImageName
}

func (r *fakeNameRepo) UpsertBatch(associations []models.ImageName) error { return nil }

func (r *fakeNameRepo) ListByImageURN(imageURN string) ([]models.ImageName, error) {
	return r.names[imageURN], nil
}

func (r *fakeNameRepo) ListByUnifiedName(unifiedName string) ([]models.ImageName, error) {
	var out []models.ImageName
	for _, names := range r.names {
		for _, name := range names {
			if name.UnifiedName == unifiedName {
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func storedFace(id uint, urn string, encoding []float64) models.Face {
	face := models.Face{ID: id, FaceHash: urn, ImageURN: urn}
	face.SetEncoding(encoding)
	return face
}

func TestFindSimilarFacesRanking(t *testing.T) {
	corrupt := models.Face{ID: 4, FaceHash: "corrupt", ImageURN: "urn:x:4"}
	corrupt.FaceEncoding = []byte{1, 2, 3, 4, 5, 6, 7} // truncated blob

	faceRepo := &fakeFaceRepo{faces: []models.Face{
		storedFace(1, "urn:x:t", []float64{0, 0}),
		storedFace(2, "urn:x:2", []float64{0.3, 0}),
		storedFace(3, "urn:x:3", []float64{0.1, 0}),
		corrupt,
		storedFace(5, "urn:x:5", []float64{1, 2, 3}), // dimension mismatch
		storedFace(6, "urn:x:6", []float64{5, 0}),
	}}
	nameRepo := &fakeNameRepo{names: map[string][]models.ImageName{
		"urn:x:3": {{ImageURN: "urn:x:3", UnifiedName: "Kahn, Ernst", DisplayName: "Kahn, E."}},
	}}
	svc := NewFaceService(faceRepo, nameRepo, nil)

	similar, err := svc.FindSimilarFaces(1, 0)
	require.NoError(t, err)
	require.Len(t, similar, 3, "target, corrupt and mismatched faces are excluded")

	assert.Equal(t, uint(3), similar[0].Face.ID)
	assert.InDelta(t, 0.9, similar[0].Similarity, 1e-12)
	assert.Equal(t, uint(2), similar[1].Face.ID)
	assert.InDelta(t, 0.7, similar[1].Similarity, 1e-12)
	assert.Equal(t, uint(6), similar[2].Face.ID)
	assert.InDelta(t, -4.0, similar[2].Similarity, 1e-12, "weak neighbours keep their raw similarity")

	require.Len(t, similar[0].Names, 1)
	assert.Equal(t, "Kahn, Ernst", similar[0].Names[0].UnifiedName)
	assert.Empty(t, similar[1].Names)
}

func TestFindSimilarFacesLimit(t *testing.T) {
	faceRepo := &fakeFaceRepo{faces: []models.Face{
		storedFace(1, "urn:x:t", []float64{0, 0}),
		storedFace(2, "urn:x:2", []float64{0.3, 0}),
		storedFace(3, "urn:x:3", []float64{0.1, 0}),
		storedFace(4, "urn:x:4", []float64{0.2, 0}),
	}}
	svc := NewFaceService(faceRepo, &fakeNameRepo{}, nil)

	similar, err := svc.FindSimilarFaces(1, 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, uint(3), similar[0].Face.ID)
	assert.Equal(t, uint(4), similar[1].Face.ID)
}

func TestFindSimilarFacesTargetWithoutEncoding(t *testing.T) {
	faceRepo := &fakeFaceRepo{faces: []models.Face{
		{ID: 1, FaceHash: "empty", ImageURN: "urn:x:t"},
	}}
	svc := NewFaceService(faceRepo, &fakeNameRepo{}, nil)

	_, err := svc.FindSimilarFaces(1, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored encoding")
}

func TestFindSimilarFacesUnknownTarget(t *testing.T) {
	svc := NewFaceService(&fakeFaceRepo{}, &fakeNameRepo{}, nil)

	_, err := svc.FindSimilarFaces(42, 0)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRandomFaceAttachesNames(t *testing.T) {
	faceRepo := &fakeFaceRepo{faces: []models.Face{
		storedFace(1, "urn:x:1", []float64{0, 0}),
	}}
	nameRepo := &fakeNameRepo{names: map[string][]models.ImageName{
		"urn:x:1": {{ImageURN: "urn:x:1", UnifiedName: "Blum, Maria", DisplayName: "Blum, Maria"}},
	}}
	svc := NewFaceService(faceRepo, nameRepo, nil)

	face, names, err := svc.RandomFace()
	require.NoError(t, err)
	assert.Equal(t, uint(1), face.ID)
	require.Len(t, names, 1)
	assert.Equal(t, "Blum, Maria", names[0].UnifiedName)
}

func TestRandomFaceEmptyStore(t *testing.T) {
	svc := NewFaceService(&fakeFaceRepo{}, &fakeNameRepo{}, nil)

	_, _, err := svc.RandomFace()
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
