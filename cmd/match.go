package cmd

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rxvl-d/vabiko-demo/media"
	"github.com/rxvl-d/vabiko-demo/services"
)

var matchCmd = &cobra.Command{
	Use:   "match <person-name>",
	Short: "Match a person's archive faces against their Wikidata portraits",
	Long: `Compares every face found in a person's archive photos against the
faces in their Wikidata reference portraits and reports the pairs that
clear the similarity threshold.

The name may be any catalog spelling; it is folded to the unified name
before lookups. Reference portraits are resolved through the local
Wikidata cache, so repeated runs do not re-download anything.

Examples:
  # Match a person by catalog name
  vabiko-demo match "Kahn, Ernst"

  # Stricter matching
  vabiko-demo match "Kahn, Ernst" --threshold 0.7

  # Full report as JSON
  vabiko-demo match "Kahn, Ernst" --json`,
	Args: cobra.ExactArgs(1),
	Run:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().Float64("threshold", services.DefaultSimilarityThreshold, "minimum similarity for a reported match")
	matchCmd.Flags().Bool("json", false, "print the full report as JSON")
}

func runMatch(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	name := args[0]
	jsonOutput := mustGetBool(cmd, "json")
	threshold := a.cfg.SimilarityThreshold
	if cmd.Flags().Changed("threshold") {
		threshold = mustGetFloat64(cmd, "threshold")
	}

	unified := a.persons.UnifiedName(name)
	urls := a.persons.WikidataURLs(unified)
	if len(urls) == 0 {
		log.Fatalf("FATAL: No Wikidata links recorded for %q", name)
	}
	urns := a.entities.URNsForUnifiedName(unified)
	if len(urns) == 0 {
		log.Fatalf("FATAL: No archive images found for %q", name)
	}

	engine, err := media.NewEngineFromConfig(a.cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to load face detection models: %v", err)
	}
	defer engine.Close()
	detector := media.NewOrientationDetector(engine)

	imageCache, encodingCache, err := a.newCaches()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	matcher := services.NewPersonMatcher(a.faceRepo, detector, a.arch, imageCache, encodingCache, threshold)
	report := matcher.MatchPerson(urns, urls)

	if jsonOutput {
		outputJSON(map[string]interface{}{
			"person":           name,
			"unified_name":     unified,
			"archive_images":   urns,
			"reference_images": urls,
			"report":           report,
		})
		return
	}

	fmt.Printf("Person: %s (unified: %s)\n", name, unified)
	fmt.Printf("Archive images: %d, reference portraits: %d\n", len(urns), len(urls))
	fmt.Printf("Matches >= %.2f: %d\n", threshold, report.Summary.TotalMatches)

	if report.Summary.TotalMatches > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ARCHIVE\tFACE\tREFERENCE\tFACE\tSIMILARITY")
		for _, m := range report.Matches {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.4f\n",
				m.ArchiveImageURN, m.ArchiveFaceIndex, m.ReferenceImageURL, m.ReferenceFaceIndex, m.Similarity)
		}
		w.Flush()
		fmt.Println()
	}

	fmt.Printf("Best similarity: %.4f, average: %.4f\n", report.Summary.BestSimilarity, report.Summary.AverageSimilarity)
	if report.Summary.HasStrongMatch {
		fmt.Println("Strong match found: these are very likely the same person.")
	} else {
		fmt.Println("No strong match.")
	}
}
