package models

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Face represents one detected face in an archive image, using GORM.
// It corresponds to the 'faces' table.
type Face struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FaceHash  string `gorm:"uniqueIndex;not null" json:"face_hash"`
	ImageURN  string `gorm:"index;not null;column:image_urn" json:"image_urn"`
	FaceIndex int    `gorm:"not null" json:"face_index"`

	// pixel bounds in the orientation chosen at detection time, which is
	// not necessarily the upright orientation of the stored file
	FaceTop    int `gorm:"not null" json:"face_top"`
	FaceRight  int `gorm:"not null" json:"face_right"`
	FaceBottom int `gorm:"not null" json:"face_bottom"`
	FaceLeft   int `gorm:"not null" json:"face_left"`

	FaceEncoding  []byte `gorm:"not null;column:face_encoding" json:"-"` // embedding vector as BLOB, one float64 per dimension
	FaceImagePath string `gorm:"column:face_image_path" json:"face_image_path"`
	CreatedAt     int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Face) TableName() string {
	return "faces"
}

// GetEncoding converts the BLOB data to []float64. A blob whose length is
// not a whole number of float64 values is a data integrity failure for this
// record; callers should skip the record and log.
func (f *Face) GetEncoding() ([]float64, error) {
	if len(f.FaceEncoding) == 0 {
		return nil, nil
	}
	if len(f.FaceEncoding)%8 != 0 {
		return nil, fmt.Errorf("face %d: encoding blob length %d is not a multiple of 8", f.ID, len(f.FaceEncoding))
	}

	encoding := make([]float64, len(f.FaceEncoding)/8) // 8 bytes per float64
	for i := 0; i < len(encoding); i++ {
		bits := binary.LittleEndian.Uint64(f.FaceEncoding[i*8:])
		encoding[i] = math.Float64frombits(bits)
	}
	return encoding, nil
}

// SetEncoding converts []float64 to BLOB data. The layout is little-endian
// IEEE-754 doubles so a persist/reload round trip is bit-for-bit.
func (f *Face) SetEncoding(encoding []float64) {
	if len(encoding) == 0 {
		f.FaceEncoding = nil
		return
	}

	f.FaceEncoding = make([]byte, len(encoding)*8) // 8 bytes per float64
	for i, val := range encoding {
		binary.LittleEndian.PutUint64(f.FaceEncoding[i*8:], math.Float64bits(val))
	}
}
