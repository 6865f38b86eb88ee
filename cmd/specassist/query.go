package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/specassist/internal/answer"
	"github.com/dgallion1/specassist/internal/app"
	"github.com/dgallion1/specassist/internal/corpus"
)

var (
	queryK    int
	askDebug  bool
	askFormat string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Show the top-k chunks for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadedApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Engine.Search(cmd.Context(), strings.Join(args, " "), kOrDefault())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		order := "higher is better"
		if !res.HigherIsBetter {
			order = "lower is better"
		}
		fmt.Fprintf(out, "metric %s (%s), build %s\n\n", res.Metric, order, res.BuildID)
		for i, h := range res.Hits {
			fmt.Fprintln(out, renderHit(i+1, h.Score, h.Record))
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question with cited sections",
	Long: `Answer a question from the indexed specification. Without an argument
questions are read one per line from stdin until EOF or "exit".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadedApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) > 0 {
			return askOne(cmd, a, strings.Join(args, " "))
		}

		in := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		for {
			fmt.Fprint(out, "\n> ")
			if !in.Scan() {
				return in.Err()
			}
			q := strings.TrimSpace(in.Text())
			if q == "" {
				continue
			}
			if q == "exit" || q == "quit" {
				return nil
			}
			if err := askOne(cmd, a, q); err != nil {
				fmt.Fprintln(out, errorStyle.Render(err.Error()))
			}
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return serve(cmd, a)
	},
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, askCmd} {
		c.Flags().IntVarP(&queryK, "top-k", "k", 0, "Number of chunks to retrieve (default top_k)")
	}
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "Print the retrieved context block")
	askCmd.Flags().StringVar(&askFormat, "format", "text", "Answer format: text or json")

	rootCmd.AddCommand(searchCmd, askCmd, serveCmd)
}

func kOrDefault() int {
	if queryK != 0 {
		return queryK
	}
	return cfg.TopK
}

func loadedApp() (*app.App, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if err := a.LoadIndex(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func askOne(cmd *cobra.Command, a *app.App, question string) error {
	resp, err := a.Answers.Answer(cmd.Context(), question, kOrDefault())
	if resp == nil {
		return err
	}
	out := cmd.OutOrStdout()
	if askFormat == "json" {
		if werr := corpus.WriteJSONL(out, []*answer.Response{resp}); werr != nil {
			return werr
		}
		return err
	}
	writeAnswer(out, resp)
	if askDebug {
		fmt.Fprintln(out, dimStyle.Render(resp.Debug.Context))
	}
	if err != nil && !errors.Is(err, corpus.ErrExternal) {
		return err
	}
	return nil
}

func writeAnswer(out io.Writer, resp *answer.Response) {
	if resp.GenerationError != "" {
		fmt.Fprintln(out, errorStyle.Render("generation failed: "+resp.GenerationError))
	} else {
		fmt.Fprintln(out, answerStyle.Render(resp.Answer))
	}
	fmt.Fprintln(out, titleStyle.Render("Sources"))
	for _, s := range resp.Sources {
		fmt.Fprintf(out, "  %s  pages %d-%d  score %.4f\n", s.SectionID, s.PageStart, s.PageEnd, s.Score)
	}
}
