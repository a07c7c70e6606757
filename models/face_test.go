package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFaceEncodingRoundTrip(t *testing.T) {
	original := []float64{0, 1, -1, 0.123456789, -273.15, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1), math.NaN()}

	var face Face
	face.SetEncoding(original)
	require.Len(t, face.FaceEncoding, len(original)*8)

	decoded, err := face.GetEncoding()
	require.NoError(t, err)
	require.Len(t, decoded, len(original))

	// the round trip must be bit-for-bit, including NaN payloads
	for i := range original {
		assert.Equal(t, math.Float64bits(original[i]), math.Float64bits(decoded[i]), "element %d", i)
	}
}

func TestFaceGetEncodingEmpty(t *testing.T) {
	var face Face
	decoded, err := face.GetEncoding()
	require.NoError(t, err)
	assert.Nil(t, decoded)

	face.SetEncoding(nil)
	assert.Nil(t, face.FaceEncoding)
}

func TestFaceGetEncodingTruncatedBlob(t *testing.T) {
	face := Face{ID: 7, FaceEncoding: make([]byte, 15)}
	_, err := face.GetEncoding()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a multiple of 8")
}
