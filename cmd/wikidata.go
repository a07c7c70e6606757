package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var wikidataCmd = &cobra.Command{
	Use:   "wikidata",
	Short: "Wikidata reference cache commands",
	Long:  `Commands for inspecting and maintaining the local cache of Wikidata reference portraits.`,
}

var wikidataStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reference cache sizes",
	Run:   runWikidataStats,
}

var wikidataClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the reference caches",
	Long: `Clears the cached Wikidata portrait images and their face encodings.
Clearing also drops negative entries, so persons whose portrait lookup
failed before will be retried on the next match.`,
	Run: runWikidataClear,
}

var wikidataResolveCmd = &cobra.Command{
	Use:   "resolve <wikidata-url>",
	Short: "Resolve a Wikidata entity URL to a local portrait image",
	Args:  cobra.ExactArgs(1),
	Run:   runWikidataResolve,
}

func init() {
	rootCmd.AddCommand(wikidataCmd)
	wikidataCmd.AddCommand(wikidataStatsCmd)
	wikidataCmd.AddCommand(wikidataClearCmd)
	wikidataCmd.AddCommand(wikidataResolveCmd)

	wikidataClearCmd.Flags().Bool("images-only", false, "clear only the downloaded portrait images")
	wikidataClearCmd.Flags().Bool("encodings-only", false, "clear only the cached face encodings")
	wikidataStatsCmd.Flags().Bool("json", false, "print stats as JSON")
}

func runWikidataStats(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	imageCache, encodingCache, err := a.newCaches()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	entries, images, bytes := imageCache.Stats()
	if mustGetBool(cmd, "json") {
		outputJSON(map[string]interface{}{
			"image_cache": map[string]interface{}{
				"entries":     entries,
				"image_files": images,
				"total_bytes": bytes,
			},
			"encoding_cache": map[string]interface{}{
				"entries": encodingCache.Len(),
			},
		})
		return
	}

	fmt.Printf("Image cache: %d entries, %d files, %d bytes\n", entries, images, bytes)
	fmt.Printf("Encoding cache: %d entries\n", encodingCache.Len())
}

func runWikidataClear(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	imageCache, encodingCache, err := a.newCaches()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	imagesOnly := mustGetBool(cmd, "images-only")
	encodingsOnly := mustGetBool(cmd, "encodings-only")
	if imagesOnly && encodingsOnly {
		log.Fatalf("FATAL: --images-only and --encodings-only are mutually exclusive")
	}

	if !encodingsOnly {
		if err := imageCache.Clear(); err != nil {
			log.Fatalf("FATAL: Failed to clear image cache: %v", err)
		}
		fmt.Println("Image cache cleared.")
	}
	if !imagesOnly {
		if err := encodingCache.Clear(); err != nil {
			log.Fatalf("FATAL: Failed to clear encoding cache: %v", err)
		}
		fmt.Println("Encoding cache cleared.")
	}
}

func runWikidataResolve(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	imageCache, _, err := a.newCaches()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	path, err := imageCache.ResolveImage(args[0])
	if err != nil {
		log.Fatalf("FATAL: Failed to resolve %s: %v", args[0], err)
	}
	fmt.Println(path)
}
