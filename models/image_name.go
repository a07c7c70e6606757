package models

// ImageName links an archive image to one unified person name depicted in
// it. It corresponds to the 'image_names' table. Rows are written once at
// ingestion and read-only afterwards; at most one row exists per
// (image_urn, unified_name) pair.
type ImageName struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageURN    string `gorm:"index;not null;uniqueIndex:idx_image_urn_unified_name;column:image_urn" json:"image_urn"`
	UnifiedName string `gorm:"index;not null;uniqueIndex:idx_image_urn_unified_name" json:"unified_name"`
	DisplayName string `gorm:"not null" json:"display_name"`
	CreatedAt   int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (ImageName) TableName() string {
	return "image_names"
}
