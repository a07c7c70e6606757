package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// FaceStats summarizes the indexed face corpus.
type FaceStats struct {
	TotalFaces       int64   `json:"total_faces"`
	UniqueImages     int64   `json:"unique_images"`
	NamedImages      int64   `json:"named_images"`
	AvgFacesPerImage float64 `json:"avg_faces_per_image"`
}

// GetFaceStats computes corpus-level aggregates straight from SQLite.
func GetFaceStats(db *sql.DB) (FaceStats, error) {
	var stats FaceStats

	totalQuery := psql.Select("COUNT(*)").From("faces")
	sqlStr, args, err := totalQuery.ToSql()
	if err != nil {
		return FaceStats{}, fmt.Errorf("failed to build SQL for total face count: %w", err)
	}
	if err := db.QueryRow(sqlStr, args...).Scan(&stats.TotalFaces); err != nil {
		return FaceStats{}, fmt.Errorf("failed to count faces: %w", err)
	}

	imagesQuery := psql.Select("COUNT(DISTINCT image_urn)").From("faces")
	sqlStr, args, err = imagesQuery.ToSql()
	if err != nil {
		return FaceStats{}, fmt.Errorf("failed to build SQL for unique image count: %w", err)
	}
	if err := db.QueryRow(sqlStr, args...).Scan(&stats.UniqueImages); err != nil {
		return FaceStats{}, fmt.Errorf("failed to count unique images: %w", err)
	}

	namedQuery := psql.Select("COUNT(DISTINCT image_urn)").From("image_names")
	sqlStr, args, err = namedQuery.ToSql()
	if err != nil {
		return FaceStats{}, fmt.Errorf("failed to build SQL for named image count: %w", err)
	}
	if err := db.QueryRow(sqlStr, args...).Scan(&stats.NamedImages); err != nil {
		return FaceStats{}, fmt.Errorf("failed to count named images: %w", err)
	}

	if stats.UniqueImages > 0 {
		stats.AvgFacesPerImage = float64(stats.TotalFaces) / float64(stats.UniqueImages)
	}

	return stats, nil
}
