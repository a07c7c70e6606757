package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vabiko-demo",
	Short: "Face indexing and similarity search for the VABiKo photo archive",
	Long: `VABiKo Demo indexes faces found in a historical photo archive and
compares them against Wikidata reference portraits.

The backend walks the archive export (one directory per URN), detects
faces in each scan with orientation correction, and stores crops and
embeddings in SQLite. On top of that store it serves browsing, similarity
search and person matching APIs.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
