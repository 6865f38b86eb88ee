package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/parser"
	"github.com/dgallion1/specassist/internal/segment"
)

var (
	pagesOut    string
	sectionsIn  string
	sectionsOut string
	preambleID  string
)

var pagesCmd = &cobra.Command{
	Use:   "pages <document>",
	Short: "Extract cleaned page text to pages.jsonl",
	Long: `Extract one record per physical page from a PDF, DOCX, HTML, Markdown or
text document. Running header and footer lines are dropped and whitespace is
collapsed. Pages left empty are skipped; the rest keep their page numbers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cleaner, err := parser.NewCleaner(cfg.HeaderPattern, cfg.FooterPattern)
		if err != nil {
			return err
		}
		pages, err := extractPages(args[0], cleaner)
		if err != nil {
			return err
		}
		out := pagesOut
		if out == "" {
			out = dataPath("pages.jsonl")
		}
		if err := writeJSONL(out, pages); err != nil {
			return err
		}
		log.Info("pages written", "pages", len(pages), "path", out)
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections",
	Short: "Split pages.jsonl into numbered sections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := sectionsIn
		if in == "" {
			in = dataPath("pages.jsonl")
		}
		pages, err := corpus.ReadJSONLFile[corpus.Page](in)
		if err != nil {
			return err
		}
		var opts []segment.Option
		if preambleID != "" {
			opts = append(opts, segment.WithPreamble(preambleID))
		}
		sections, err := segment.New(opts...).Segment(pages)
		if err != nil {
			return err
		}
		out := sectionsOut
		if out == "" {
			out = dataPath("sections.jsonl")
		}
		if err := writeJSONL(out, sections); err != nil {
			return err
		}
		log.Info("sections written", "sections", len(sections), "path", out)
		fmt.Fprintf(cmd.OutOrStdout(), "%d pages -> %d sections\n", len(pages), len(sections))
		return nil
	},
}

func init() {
	pagesCmd.Flags().StringVarP(&pagesOut, "out", "o", "", "Output path (default <data_dir>/pages.jsonl)")
	sectionsCmd.Flags().StringVarP(&sectionsIn, "in", "i", "", "Pages input (default <data_dir>/pages.jsonl)")
	sectionsCmd.Flags().StringVarP(&sectionsOut, "out", "o", "", "Output path (default <data_dir>/sections.jsonl)")
	sectionsCmd.Flags().StringVar(&preambleID, "preamble", "", "Keep text before the first heading under this section id")

	rootCmd.AddCommand(pagesCmd, sectionsCmd)
}

func extractPages(path string, cleaner *parser.Cleaner) ([]corpus.Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	opts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
	pages, err := parser.Extract(f, filepath.Base(path), opts, cleaner)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", path, err)
	}
	return pages, nil
}

func writeJSONL[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return corpus.WriteJSONLFile(path, items)
}
