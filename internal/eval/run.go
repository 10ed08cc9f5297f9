package eval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/rag"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name     string
	Query    string
	Passed   bool
	Failures []string
	Result   rag.AnswerResult
}

// Report summarizes a run.
type Report struct {
	Results  []CaseResult
	Passed   int
	Failed   int
	Duration time.Duration
}

// OK reports whether every case passed.
func (r Report) OK() bool {
	return r.Failed == 0
}

// Run answers every case in order and checks the expectations. It stops early
// only when ctx is done; the remaining cases are not reported.
func Run(ctx context.Context, engine rag.Engine, cases []Case) Report {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()
	report := Report{Results: make([]CaseResult, 0, len(cases))}

	for _, c := range cases {
		if ctx.Err() != nil {
			logger.WarnContext(ctx, "evaluation interrupted", "completed", len(report.Results), "total", len(cases))
			break
		}

		enableFilters := true
		if c.FiltersEnabled != nil {
			enableFilters = *c.FiltersEnabled
		}

		res := engine.Answer(ctx, c.Query, enableFilters)
		failures := Check(c.Expect, res)

		cr := CaseResult{
			Name:     c.Name,
			Query:    c.Query,
			Passed:   len(failures) == 0,
			Failures: failures,
			Result:   res,
		}
		if cr.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		logger.InfoContext(ctx, "evaluated case", "case", c.Name, "passed", cr.Passed, "confidence", res.Confidence)
		report.Results = append(report.Results, cr)
	}

	report.Duration = time.Since(start)
	return report
}

// Check returns one message per unmet expectation.
func Check(want Expectation, got rag.AnswerResult) []string {
	var failures []string

	if want.Filters != nil {
		f := *want.Filters
		if got.FiltersUsed.Year != f.Year {
			failures = append(failures, fmt.Sprintf("year filter = %d, want %d", got.FiltersUsed.Year, f.Year))
		}
		if got.FiltersUsed.Category != f.Category {
			failures = append(failures, fmt.Sprintf("category filter = %q, want %q", got.FiltersUsed.Category, f.Category))
		}
		if got.FiltersUsed.PageType != f.PageType {
			failures = append(failures, fmt.Sprintf("page_type filter = %q, want %q", got.FiltersUsed.PageType, f.PageType))
		}
	}
	if want.NoFilters && !got.FiltersUsed.IsEmpty() {
		failures = append(failures, fmt.Sprintf("filters = %+v, want none", got.FiltersUsed))
	}
	if want.HasAnswer != nil && got.HasAnswer != *want.HasAnswer {
		failures = append(failures, fmt.Sprintf("has_answer = %t, want %t", got.HasAnswer, *want.HasAnswer))
	}
	if want.Confidence != "" && got.Confidence != want.Confidence {
		failures = append(failures, fmt.Sprintf("confidence = %s, want %s", got.Confidence, want.Confidence))
	}
	if len(got.Sources) < want.MinSources {
		failures = append(failures, fmt.Sprintf("sources = %d, want at least %d", len(got.Sources), want.MinSources))
	}

	answer := strings.ToLower(got.Answer)
	for _, s := range want.AnswerContains {
		if !strings.Contains(answer, strings.ToLower(s)) {
			failures = append(failures, fmt.Sprintf("answer does not contain %q", s))
		}
	}
	if want.Abstain && got.HasAnswer && !abstains(answer) {
		failures = append(failures, "expected the answer to say the information is not available")
	}

	return failures
}

func abstains(lowerAnswer string) bool {
	for _, phrase := range []string{"don't have", "do not have", "couldn't find", "not available", "no information"} {
		if strings.Contains(lowerAnswer, phrase) {
			return true
		}
	}
	return false
}
