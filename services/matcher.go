package services

import (
	"log"

	"github.com/rxvl-d/vabiko-demo/media"
	"github.com/rxvl-d/vabiko-demo/repository"
	"github.com/rxvl-d/vabiko-demo/wikidata"
)

// ArchiveResolver locates the image file behind an archive URN.
type ArchiveResolver interface {
	FindImagePath(urn string) (string, error)
}

// ReferenceResolver returns a local copy of a reference portrait, fetching
// and caching it on first use.
type ReferenceResolver interface {
	ResolveImage(wikidataURL string) (string, error)
}

// Detector produces regions and encodings for an image file. Absences come
// back as empty results, never as errors.
type Detector interface {
	DetectFile(imagePath string) media.OrientationResult
}

// TaggedMatch is a face-pair match annotated with the images it came from.
type TaggedMatch struct {
	SimilarityMatch
	ArchiveImageIndex   int    `json:"archive_image_index"`
	ReferenceImageIndex int    `json:"reference_image_index"`
	ArchiveImageURN     string `json:"archive_image_urn"`
	ReferenceImageURL   string `json:"reference_image_url"`
}

// ImageFaces reports how many faces one input image contributed.
type ImageFaces struct {
	Index     int    `json:"index"`
	ImageURN  string `json:"image_urn,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	FaceCount int    `json:"face_count"`
}

// MatchSummary aggregates a report's matches. All zero values when the
// report is empty.
type MatchSummary struct {
	TotalMatches      int     `json:"total_matches"`
	BestSimilarity    float64 `json:"best_similarity"`
	AverageSimilarity float64 `json:"average_similarity"`
	HasStrongMatch    bool    `json:"has_strong_match"`
}

// MatchReport is the outcome of comparing one person's archive images
// against their reference portraits. Matches keep per-image-pair grouping;
// within a pair they are ordered by similarity descending.
type MatchReport struct {
	ArchiveFaces   []ImageFaces  `json:"archive_faces"`
	ReferenceFaces []ImageFaces  `json:"reference_faces"`
	Matches        []TaggedMatch `json:"matches"`
	Summary        MatchSummary  `json:"summary"`
}

// PersonMatcher runs the cross-collection comparison: every face in a
// person's archive images against every face in their reference portraits.
type PersonMatcher struct {
	faceRepo  repository.FaceRepositoryInterface
	detector  Detector
	archive   ArchiveResolver
	reference ReferenceResolver
	encCache  *wikidata.EncodingCache
	threshold float64
}

// NewPersonMatcher wires the matcher. The encoding cache keeps reference
// portraits from being re-detected across calls.
func NewPersonMatcher(
	faceRepo repository.FaceRepositoryInterface,
	detector Detector,
	archive ArchiveResolver,
	reference ReferenceResolver,
	encCache *wikidata.EncodingCache,
	threshold float64,
) *PersonMatcher {
	return &PersonMatcher{
		faceRepo:  faceRepo,
		detector:  detector,
		archive:   archive,
		reference: reference,
		encCache:  encCache,
		threshold: threshold,
	}
}

// MatchPerson compares the faces in archiveURNs against the faces in
// referenceURLs and aggregates the result. Images that contribute no faces
// are skipped; a run with no usable input yields an empty report, not an
// error.
func (m *PersonMatcher) MatchPerson(archiveURNs, referenceURLs []string) MatchReport {
	report := MatchReport{Matches: []TaggedMatch{}}

	type sideEntry struct {
		index     int
		id        string
		encodings []media.Encoding
	}

	var archiveSide []sideEntry
	for i, urn := range archiveURNs {
		encodings := m.archiveEncodings(urn)
		if len(encodings) == 0 {
			continue
		}
		archiveSide = append(archiveSide, sideEntry{index: i, id: urn, encodings: encodings})
		report.ArchiveFaces = append(report.ArchiveFaces, ImageFaces{Index: i, ImageURN: urn, FaceCount: len(encodings)})
	}

	var referenceSide []sideEntry
	for j, url := range referenceURLs {
		encodings := m.referenceEncodings(url)
		if len(encodings) == 0 {
			continue
		}
		referenceSide = append(referenceSide, sideEntry{index: j, id: url, encodings: encodings})
		report.ReferenceFaces = append(report.ReferenceFaces, ImageFaces{Index: j, ImageURL: url, FaceCount: len(encodings)})
	}

	for _, a := range archiveSide {
		for _, r := range referenceSide {
			for _, match := range CompareEncodings(a.encodings, r.encodings, m.threshold) {
				report.Matches = append(report.Matches, TaggedMatch{
					SimilarityMatch:     match,
					ArchiveImageIndex:   a.index,
					ReferenceImageIndex: r.index,
					ArchiveImageURN:     a.id,
					ReferenceImageURL:   r.id,
				})
			}
		}
	}

	report.Summary = summarizeMatches(report.Matches)
	return report
}

// archiveEncodings reads a URN's face encodings from the store when the
// image was already ingested, falling back to a fresh detection pass.
func (m *PersonMatcher) archiveEncodings(urn string) []media.Encoding {
	faces, err := m.faceRepo.ListByImageURN(urn)
	if err != nil {
		log.Printf("matcher: failed to read stored faces for %s: %v", urn, err)
	} else if len(faces) > 0 {
		encodings := make([]media.Encoding, 0, len(faces))
		for _, face := range faces {
			encoding, err := face.GetEncoding()
			if err != nil {
				log.Printf("matcher: skipping stored face: %v", err)
				continue
			}
			if len(encoding) > 0 {
				encodings = append(encodings, encoding)
			}
		}
		if len(encodings) > 0 {
			return encodings
		}
	}

	imagePath, err := m.archive.FindImagePath(urn)
	if err != nil {
		log.Printf("matcher: no archive image for %s: %v", urn, err)
		return nil
	}
	return m.detector.DetectFile(imagePath).Encodings
}

// referenceEncodings resolves a portrait URL and detects its faces, caching
// the outcome. Failures cache as empty so the portrait is not refetched on
// every comparison; the cache clear command resets that.
func (m *PersonMatcher) referenceEncodings(url string) []media.Encoding {
	if encodings, ok := m.encCache.Get(url); ok {
		return encodings
	}

	localPath, err := m.reference.ResolveImage(url)
	if err != nil {
		log.Printf("matcher: failed to resolve reference portrait %s: %v", url, err)
		m.encCache.Put(url, nil)
		return nil
	}

	encodings := m.detector.DetectFile(localPath).Encodings
	m.encCache.Put(url, encodings)
	return encodings
}

func summarizeMatches(matches []TaggedMatch) MatchSummary {
	summary := MatchSummary{TotalMatches: len(matches)}
	if len(matches) == 0 {
		return summary
	}

	best := matches[0].Similarity
	var sum float64
	for _, match := range matches {
		sum += match.Similarity
		if match.Similarity > best {
			best = match.Similarity
		}
	}

	summary.BestSimilarity = best
	summary.AverageSimilarity = sum / float64(len(matches))
	summary.HasStrongMatch = best >= StrongMatchThreshold
	return summary
}
