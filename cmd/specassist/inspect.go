package main

import (
	"fmt"
	"math/rand/v2"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dgallion1/specassist/internal/api"
	"github.com/dgallion1/specassist/internal/app"
	"github.com/dgallion1/specassist/internal/corpus"
	"github.com/dgallion1/specassist/internal/index"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	answerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1).
			Width(88)

	chunkStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(88)
)

var (
	inspectSection string
	inspectCount   int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show random chunks or every chunk of a section",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := index.Load(cfg.IndexDir)
		if err != nil {
			return err
		}
		if snap.Len() == 0 {
			return corpus.ErrEmptyIndex
		}
		out := cmd.OutOrStdout()
		m := snap.Manifest
		fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("build %s: %d chunks, %s %d/%d, metric %s, model %s",
			m.BuildID, m.Count, m.ChunkUnit, m.ChunkMaxSize, m.ChunkOverlap, m.Metric, m.EmbeddingModel)))

		var rows []corpus.Record
		if inspectSection != "" {
			for _, r := range snap.Records {
				if r.SectionID == inspectSection {
					rows = append(rows, r)
				}
			}
			if len(rows) == 0 {
				return fmt.Errorf("no chunks for section %s", inspectSection)
			}
		} else {
			for range max(inspectCount, 1) {
				rows = append(rows, snap.Records[rand.IntN(snap.Len())])
			}
		}

		for _, r := range rows {
			fmt.Fprintln(out, renderChunk(r, m.ChunkUnit))
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectSection, "section", "s", "", "Show every chunk of this section id")
	inspectCmd.Flags().IntVarP(&inspectCount, "count", "n", 1, "Number of random chunks")
	rootCmd.AddCommand(inspectCmd)
}

func renderChunk(r corpus.Record, unit string) string {
	if unit == "" {
		unit = "units"
	}
	title := titleStyle.Render(fmt.Sprintf("Chunk %d | Section %s | pages %d-%d | %d %ss",
		r.ID, r.SectionID, r.PageStart, r.PageEnd, r.Size, unit))
	return chunkStyle.Render(title + "\n\n" + r.Content)
}

func renderHit(rank int, score float64, r corpus.Record) string {
	title := titleStyle.Render(fmt.Sprintf("#%d  score %.4f | Section %s | pages %d-%d",
		rank, score, r.SectionID, r.PageStart, r.PageEnd))
	return chunkStyle.Render(title + "\n\n" + r.Content)
}

func serve(cmd *cobra.Command, a *app.App) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return api.Run(ctx, a)
}

