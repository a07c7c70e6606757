package media

import (
	"fmt"
	"image"
	"log"
	"os"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// ImageInfo holds the embedded metadata of an archive scan. Most scans
// carry little more than dimensions and the scanning software, so every
// field is optional.
type ImageInfo struct {
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	CameraMake   *string  `json:"camera_make,omitempty"`
	CameraModel  *string  `json:"camera_model,omitempty"`
	Software     *string  `json:"software,omitempty"`
	Artist       *string  `json:"artist,omitempty"`
	Description  *string  `json:"description,omitempty"`
	Aperture     *float64 `json:"aperture,omitempty"`
	ShutterSpeed *string  `json:"shutter_speed,omitempty"`
	ISO          *int     `json:"iso,omitempty"`
	TakenAt      *int64   `json:"taken_at,omitempty"`
}

// helper to safely get and convert a rational tag (like Aperture)
func getRational(exifData *exif.Exif, tagName exif.FieldName) *float64 {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// rational numbers are often stored as num/den
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		// sometimes stored as Int instead
		valInt, errInt := tag.Int(0)
		if errInt == nil {
			fVal := float64(valInt)
			return &fVal
		}
		return nil
	}
	val := float64(num) / float64(den)
	return &val
}

// helper to safely get and convert an integer tag (like ISO)
func getInt(exifData *exif.Exif, tagName exif.FieldName) *int {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	// ISO might be a slice, get the first value
	val, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &val
}

// helper to safely get a string tag, trimming null terminators
func getString(exifData *exif.Exif, tagName exif.FieldName) *string {
	tag, err := exifData.Get(tagName)
	if err != nil || tag == nil {
		return nil
	}
	val := strings.TrimRight(tag.String(), "\x00")
	if val == "" {
		return nil
	}
	return &val
}

// helper to get Shutter Speed specifically, formatting it nicely
func getShutterSpeed(exifData *exif.Exif) *string {
	tag, err := exifData.Get(exif.ExposureTime)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}

	if num == 1 && den > 1 {
		s := fmt.Sprintf("1/%d", den)
		return &s
	}

	val := float64(num) / float64(den)
	if val >= 1.0 {
		s := fmt.Sprintf("%.1fs", val)
		return &s
	}
	s := fmt.Sprintf("%.4fs", val)
	return &s
}

// GetImageMetadata extracts dimensions and EXIF fields from a scan. A file
// without EXIF data still yields its dimensions.
func GetImageMetadata(filePath string) (*ImageInfo, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("exif: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	var width, height *int
	if config, _, err := image.DecodeConfig(file); err == nil {
		w, h := config.Width, config.Height
		width = &w
		height = &h
	} else {
		log.Printf("exif: could not decode dimensions of %s: %v", filePath, err)
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("exif: failed to seek file %s: %w", filePath, err)
	}

	exifData, err := exif.Decode(file)
	if err != nil {
		// not fatal, archive scans frequently lack EXIF data
		return &ImageInfo{Width: width, Height: height}, nil
	}

	info := &ImageInfo{
		Width:        width,
		Height:       height,
		CameraMake:   getString(exifData, exif.Make),
		CameraModel:  getString(exifData, exif.Model),
		Software:     getString(exifData, exif.Software),
		Artist:       getString(exifData, exif.Artist),
		Description:  getString(exifData, exif.ImageDescription),
		Aperture:     getRational(exifData, exif.FNumber),
		ShutterSpeed: getShutterSpeed(exifData),
		ISO:          getInt(exifData, exif.ISOSpeedRatings),
	}

	if dt, err := exifData.DateTime(); err == nil {
		ts := dt.Unix()
		info.TakenAt = &ts
	}

	return info, nil
}
