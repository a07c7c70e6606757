package services

import (
	"log"
	"math"
	"sort"

	"github.com/rxvl-d/vabiko-demo/media"
)

const (
	// DefaultSimilarityThreshold is the similarity floor below which a face
	// pair is not reported as a match.
	DefaultSimilarityThreshold = 0.6
	// StrongMatchThreshold marks a match confident enough to treat as a
	// probable identity confirmation.
	StrongMatchThreshold = 0.8
)

// SimilarityMatch is one face pair that cleared the similarity threshold.
// Similarity is 1 - distance and may be negative for very distant pairs;
// it is reported unclamped.
type SimilarityMatch struct {
	ArchiveFaceIndex   int     `json:"archive_face_index"`
	ReferenceFaceIndex int     `json:"reference_face_index"`
	Similarity         float64 `json:"similarity"`
	Distance           float64 `json:"distance"`
	IsMatch            bool    `json:"is_match"`
}

// FaceDistance computes the Euclidean distance between two embedding
// vectors. Both vectors must have the same length.
func FaceDistance(a, b media.Encoding) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

// CompareEncodings compares every archive encoding against every reference
// encoding and returns the pairs whose similarity clears the threshold,
// sorted by similarity descending with ties in encounter order. The scan is
// exhaustive; candidate sets are small enough that no index is needed.
// Either side being empty yields an empty result. Pairs whose vector lengths
// disagree are skipped as per-record integrity failures.
func CompareEncodings(archive, reference []media.Encoding, threshold float64) []SimilarityMatch {
	var matches []SimilarityMatch

	for i, archiveEnc := range archive {
		for j, referenceEnc := range reference {
			if len(archiveEnc) == 0 || len(archiveEnc) != len(referenceEnc) {
				log.Printf("comparator: skipping pair (%d, %d): vector lengths %d and %d", i, j, len(archiveEnc), len(referenceEnc))
				continue
			}

			distance := FaceDistance(archiveEnc, referenceEnc)
			similarity := 1 - distance
			if similarity >= threshold {
				matches = append(matches, SimilarityMatch{
					ArchiveFaceIndex:   i,
					ReferenceFaceIndex: j,
					Similarity:         similarity,
					Distance:           distance,
					IsMatch:            true,
				})
			}
		}
	}

	sort.SliceStable(matches, func(x, y int) bool {
		return matches[x].Similarity > matches[y].Similarity
	})
	return matches
}
