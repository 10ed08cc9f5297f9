package eval

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"clio-assistant/internal/rag"
	"clio-assistant/internal/rag/mocks"
)

func boolPtr(b bool) *bool { return &b }

func TestCheck(t *testing.T) {
	sports := rag.AnswerResult{
		Answer:      "Nike won the Grand Clio.",
		Confidence:  rag.ConfidenceHigh,
		HasAnswer:   true,
		Sources:     []rag.RetrievedDocument{{ID: "c1"}},
		FiltersUsed: rag.FilterSet{Year: 2025, Category: "Clio Sports", PageType: rag.PageTypeWinners},
	}

	tests := []struct {
		name         string
		want         Expectation
		got          rag.AnswerResult
		wantFailures int
	}{
		{name: "no expectations", want: Expectation{}, got: sports},
		{
			name: "all met",
			want: Expectation{
				Filters:        &rag.FilterSet{Year: 2025, Category: "Clio Sports", PageType: rag.PageTypeWinners},
				HasAnswer:      boolPtr(true),
				Confidence:     rag.ConfidenceHigh,
				MinSources:     1,
				AnswerContains: []string{"nike", "GRAND CLIO"},
			},
			got: sports,
		},
		{
			name:         "wrong filters",
			want:         Expectation{Filters: &rag.FilterSet{Year: 2024, PageType: rag.PageTypeJury}},
			got:          sports,
			wantFailures: 3,
		},
		{
			name: "extra year filter",
			want: Expectation{Filters: &rag.FilterSet{Category: "Clio Health", PageType: rag.PageTypeJury}},
			got: rag.AnswerResult{
				FiltersUsed: rag.FilterSet{Year: 2024, Category: "Clio Health", PageType: rag.PageTypeJury},
			},
			wantFailures: 1,
		},
		{
			name: "exact filters",
			want: Expectation{Filters: &rag.FilterSet{Category: "Clio Health", PageType: rag.PageTypeJury}},
			got: rag.AnswerResult{
				FiltersUsed: rag.FilterSet{Category: "Clio Health", PageType: rag.PageTypeJury},
			},
		},
		{name: "unexpected filters", want: Expectation{NoFilters: true}, got: sports, wantFailures: 1},
		{name: "too few sources", want: Expectation{MinSources: 3}, got: sports, wantFailures: 1},
		{name: "answer missing text", want: Expectation{AnswerContains: []string{"Adidas"}}, got: sports, wantFailures: 1},
		{name: "abstain violated", want: Expectation{Abstain: true}, got: sports, wantFailures: 1},
		{
			name: "abstain via no answer",
			want: Expectation{Abstain: true},
			got:  rag.AnswerResult{Answer: rag.NoInformationAnswer, Confidence: rag.ConfidenceLow},
		},
		{
			name: "abstain via wording",
			want: Expectation{Abstain: true},
			got:  rag.AnswerResult{Answer: "I don't have information about Paris.", HasAnswer: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failures := Check(tt.want, tt.got)
			if len(failures) != tt.wantFailures {
				t.Errorf("Check() = %v, want %d failures", failures, tt.wantFailures)
			}
		})
	}
}

func TestRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)

	gomock.InOrder(
		engine.EXPECT().Answer(gomock.Any(), "Who won Clio Sports 2025?", true).Return(rag.AnswerResult{
			Answer:      "Nike",
			HasAnswer:   true,
			Confidence:  rag.ConfidenceHigh,
			Sources:     []rag.RetrievedDocument{{ID: "c1"}},
			FiltersUsed: rag.FilterSet{Year: 2025, Category: "Clio Sports", PageType: rag.PageTypeWinners},
		}),
		engine.EXPECT().Answer(gomock.Any(), "Who are the jury members for Clio Health?", true).Return(rag.AnswerResult{
			Answer:      "Jurors",
			HasAnswer:   true,
			Confidence:  rag.ConfidenceHigh,
			FiltersUsed: rag.FilterSet{Category: "Clio Health", PageType: rag.PageTypeWinners},
		}),
		engine.EXPECT().Answer(gomock.Any(), "What is the capital of France?", true).Return(rag.AnswerResult{
			Answer:     rag.NoInformationAnswer,
			Confidence: rag.ConfidenceLow,
		}),
	)

	report := Run(context.Background(), engine, DefaultCases())

	if report.Passed != 2 || report.Failed != 1 || report.OK() {
		t.Fatalf("report = %d passed / %d failed", report.Passed, report.Failed)
	}
	if report.Results[1].Passed || len(report.Results[1].Failures) != 1 {
		t.Errorf("jury case = %+v", report.Results[1])
	}
}

func TestRun_FiltersDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Answer(gomock.Any(), "q", false).Return(rag.AnswerResult{Answer: "a"})

	report := Run(context.Background(), engine, []Case{{Name: "off", Query: "q", FiltersEnabled: boolPtr(false)}})
	if !report.OK() || len(report.Results) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_StopsWhenCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockEngine(ctrl)
	engine.EXPECT().Answer(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := Run(ctx, engine, DefaultCases())
	if len(report.Results) != 0 {
		t.Errorf("results = %d, want 0", len(report.Results))
	}
}
