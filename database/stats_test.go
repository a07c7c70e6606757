package database

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/rxvl-d/vabiko-demo/models"
)

func statsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitGormDB(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	require.NoError(t, AutoMigrateModels(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestGetFaceStatsEmptyStore(t *testing.T) {
	db := statsTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	stats, err := GetFaceStats(sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalFaces)
	assert.Equal(t, int64(0), stats.UniqueImages)
	assert.Equal(t, int64(0), stats.NamedImages)
	assert.Equal(t, float64(0), stats.AvgFacesPerImage, "average must not divide by zero")
}

func TestGetFaceStats(t *testing.T) {
	db := statsTestDB(t)

	insert := func(urn string, idx int) {
		face := models.Face{
			FaceHash:  fmt.Sprintf("hash-%s-%d", urn, idx),
			ImageURN:  urn,
			FaceIndex: idx,
		}
		require.NoError(t, db.Create(&face).Error)
	}
	insert("urn:x:1", 0)
	insert("urn:x:1", 1)
	insert("urn:x:2", 0)

	require.NoError(t, db.Create(&models.ImageName{ImageURN: "urn:x:1", UnifiedName: "Kahn, Ernst", DisplayName: "Kahn, E."}).Error)
	require.NoError(t, db.Create(&models.ImageName{ImageURN: "urn:x:1", UnifiedName: "Blum, Maria", DisplayName: "Blum, Maria"}).Error)
	require.NoError(t, db.Create(&models.ImageName{ImageURN: "urn:x:9", UnifiedName: "Lens, Otto", DisplayName: "Lens, Otto"}).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)

	stats, err := GetFaceStats(sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalFaces)
	assert.Equal(t, int64(2), stats.UniqueImages)
	assert.Equal(t, int64(2), stats.NamedImages, "named images count distinct URNs, not rows")
	assert.InDelta(t, 1.5, stats.AvgFacesPerImage, 1e-9)
}
