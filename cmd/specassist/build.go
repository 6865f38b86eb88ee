package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/pipeline"
)

var buildPages string

var buildCmd = &cobra.Command{
	Use:   "build [document]",
	Short: "Segment, chunk and embed pages into a new index snapshot",
	Long: `Build a vector index snapshot in the index directory. With a document
argument pages are extracted from it first; otherwise pages.jsonl is read.
The previous snapshot stays in place unless every stage succeeds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var pages []corpus.Page
		if len(args) == 1 {
			pages, err = extractPages(args[0], a.Cleaner)
		} else {
			in := buildPages
			if in == "" {
				in = dataPath("pages.jsonl")
			}
			pages, err = corpus.ReadJSONLFile[corpus.Page](in)
		}
		if err != nil {
			return err
		}

		res, err := a.IndexBuilder().Run(cmd.Context(), pages, func(s pipeline.JobStatus) {
			log.Debug("stage", "stage", s)
		})
		if err != nil {
			return err
		}

		m := res.Snapshot.Manifest
		fmt.Fprintf(cmd.OutOrStdout(), "build %s: %d pages, %d sections, %d chunks, dim %d, metric %s, model %s\n",
			m.BuildID, len(pages), len(res.Sections), len(res.Chunks), m.Dimension, m.Metric, m.EmbeddingModel)
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildPages, "pages", "", "Pages input (default <data_dir>/pages.jsonl)")
	rootCmd.AddCommand(buildCmd)
}
