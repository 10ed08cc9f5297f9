package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"clio-assistant/internal/app"
	"clio-assistant/internal/rag"
)

var noFilters bool

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&noFilters, "no-filters", false, "Search without year, category and page type filters")
}

// AskResult is the JSON output of the ask command.
type AskResult struct {
	Question              string                  `json:"question"`
	Answer                string                  `json:"answer"`
	Confidence            rag.Confidence          `json:"confidence"`
	HasAnswer             bool                    `json:"has_answer"`
	Sources               []rag.RetrievedDocument `json:"sources"`
	FiltersUsed           rag.FilterSet           `json:"filters_used"`
	ProcessingTimeSeconds float64                 `json:"processing_time_seconds"`
	Error                 string                  `json:"error,omitempty"`
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question about the Clio Awards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be empty")
		}

		ctx, application, err := setup(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer application.Close()

		res := application.Engine.Answer(ctx, question, !noFilters)

		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), newAskResult(question, res))
		}
		printAnswer(cmd.OutOrStdout(), res)
		return nil
	},
}

func newAskResult(question string, res rag.AnswerResult) AskResult {
	sources := res.Sources
	if sources == nil {
		sources = []rag.RetrievedDocument{}
	}
	return AskResult{
		Question:              question,
		Answer:                res.Answer,
		Confidence:            res.Confidence,
		HasAnswer:             res.HasAnswer,
		Sources:               sources,
		FiltersUsed:           res.FiltersUsed,
		ProcessingTimeSeconds: math.Round(res.ProcessingTime.Seconds()*100) / 100,
		Error:                 res.Error,
	}
}

func printAnswer(w io.Writer, res rag.AnswerResult) {
	fmt.Fprintf(w, "%s\n%s\n\n", headingStyle("Answer"), res.Answer)
	fmt.Fprintf(w, "Confidence: %s\n", confidenceStyle(res.Confidence))
	fmt.Fprintf(w, "Filters:    %s\n", formatFilters(res.FiltersUsed))
	fmt.Fprintf(w, "Time:       %.2fs\n", res.ProcessingTime.Seconds())
	if res.Error != "" {
		fmt.Fprintf(w, "%s %s\n", warnStyle("Generation failed, showing top result:"), res.Error)
	}

	if len(res.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", headingStyle("Sources"))
	for i, src := range res.Sources {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, src.Title, dimStyle(fmt.Sprintf("(%.3f)", src.Score)))
		fmt.Fprintf(w, "   %s\n", dimStyle(src.URL))
	}
}
