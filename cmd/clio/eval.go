package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clio-assistant/internal/app"
	"clio-assistant/internal/eval"
)

var casesPath string

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&casesPath, "cases", "", "YAML case file (defaults to the built-in smoke cases)")
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run evaluation cases through the answer pipeline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cases := eval.DefaultCases()
		if casesPath != "" {
			loaded, err := eval.LoadCases(casesPath)
			if err != nil {
				return withExit(ExitDataError, err)
			}
			cases = loaded
		}

		ctx, application, err := setup(cmd, app.Options{})
		if err != nil {
			return err
		}
		defer application.Close()

		report := eval.Run(ctx, application.Engine, cases)
		if err := printReport(cmd.OutOrStdout(), report); err != nil {
			return err
		}
		if !report.OK() {
			return withExit(ExitEvalFailed, fmt.Errorf("%d of %d cases failed", report.Failed, len(report.Results)))
		}
		return nil
	},
}

// EvalCaseOutput is one case in the JSON output of the eval command.
type EvalCaseOutput struct {
	Name     string    `json:"name"`
	Query    string    `json:"query"`
	Passed   bool      `json:"passed"`
	Failures []string  `json:"failures,omitempty"`
	Answer   AskResult `json:"answer"`
}

// EvalOutput is the JSON output of the eval command.
type EvalOutput struct {
	Passed          int              `json:"passed"`
	Failed          int              `json:"failed"`
	DurationSeconds float64          `json:"duration_seconds"`
	Cases           []EvalCaseOutput `json:"cases"`
}

func printReport(w io.Writer, report eval.Report) error {
	if jsonOutput {
		out := EvalOutput{
			Passed:          report.Passed,
			Failed:          report.Failed,
			DurationSeconds: report.Duration.Seconds(),
			Cases:           make([]EvalCaseOutput, 0, len(report.Results)),
		}
		for _, r := range report.Results {
			out.Cases = append(out.Cases, EvalCaseOutput{
				Name:     r.Name,
				Query:    r.Query,
				Passed:   r.Passed,
				Failures: r.Failures,
				Answer:   newAskResult(r.Query, r.Result),
			})
		}
		return writeJSON(w, out)
	}

	for _, r := range report.Results {
		status := okStyle("PASS")
		if !r.Passed {
			status = failStyle("FAIL")
		}
		fmt.Fprintf(w, "%s %s %s\n", status, r.Name, dimStyle(r.Query))
		fmt.Fprintf(w, "     filters: %s, confidence: %s, sources: %d\n",
			formatFilters(r.Result.FiltersUsed), confidenceStyle(r.Result.Confidence), len(r.Result.Sources))
		for _, f := range r.Failures {
			fmt.Fprintf(w, "     - %s\n", f)
		}
	}
	fmt.Fprintf(w, "\n%d passed, %d failed in %.1fs\n", report.Passed, report.Failed, report.Duration.Seconds())
	return nil
}
