package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/rxvl-d/vabiko-demo/workers"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Detect and store faces from the photo archive",
	Long: `Walks archive images through orientation-robust face detection and
stores every found face with its embedding, crop and catalog names.
Re-running over the same images is safe: face rows key on a content
hash, so nothing is duplicated.`,
	Run: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().Int("workers", 0, "parallel detection workers (overrides NUM_INGEST_WORKERS)")
	ingestCmd.Flags().Int("limit", 0, "only ingest the first N archive URNs (0 = all)")
	ingestCmd.Flags().StringSlice("urn", nil, "ingest only these URNs (repeatable)")
	ingestCmd.Flags().Bool("json", false, "print the run report as JSON")
}

func runIngest(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	defer a.close()

	jsonOutput := mustGetBool(cmd, "json")
	numWorkers := mustGetInt(cmd, "workers")
	if numWorkers <= 0 {
		numWorkers = a.cfg.NumIngestWorkers
	}

	urns := mustGetStringSlice(cmd, "urn")
	if len(urns) == 0 {
		urns, err = a.arch.ListURNs(mustGetInt(cmd, "limit"))
		if err != nil {
			log.Fatalf("FATAL: Failed to list archive URNs: %v", err)
		}
	}
	if len(urns) == 0 {
		log.Fatalf("FATAL: No archive images found under %s", a.cfg.ArchiveBase)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, finishing images in flight...")
		cancel()
	}()

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(urns),
			progressbar.OptionSetDescription("Ingesting faces"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	ingestor := workers.NewIngestor(a.faceRepo, a.nameRepo, a.arch, a.entities, a.engineFactory(), a.cfg.FaceCropsPath, nil)
	report, runErr := ingestor.Run(ctx, urns, numWorkers, bar)
	if bar != nil {
		fmt.Println()
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("FATAL: Ingestion failed: %v", runErr)
	}

	if jsonOutput {
		outputJSON(report)
		return
	}

	if errors.Is(runErr, context.Canceled) {
		fmt.Println("Ingestion cancelled, reporting partial results.")
	}
	fmt.Printf("Images processed: %d/%d (%d failed)\n", report.Processed, report.TotalImages, report.Failed)
	fmt.Printf("Faces stored this run: %d\n", report.FacesStored)
	fmt.Printf("Faces in store: %d\n", report.TotalFaces)
}
