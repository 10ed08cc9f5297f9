package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clio-assistant/internal/rag"
)

func TestDefaultCases(t *testing.T) {
	cases := DefaultCases()
	if len(cases) != 3 {
		t.Fatalf("DefaultCases() = %d cases, want 3", len(cases))
	}

	sports := cases[0]
	if sports.Query != "Who won Clio Sports 2025?" {
		t.Errorf("first query = %q", sports.Query)
	}
	want := rag.FilterSet{Year: 2025, Category: "Clio Sports", PageType: rag.PageTypeWinners}
	if sports.Expect.Filters == nil || *sports.Expect.Filters != want {
		t.Errorf("filters = %+v, want %+v", sports.Expect.Filters, want)
	}
	if sports.Expect.HasAnswer == nil || !*sports.Expect.HasAnswer {
		t.Error("first case should expect an answer")
	}
	if !cases[2].Expect.Abstain || !cases[2].Expect.NoFilters {
		t.Errorf("out-of-domain expectations = %+v", cases[2].Expect)
	}
}

func TestParseCases(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(*testing.T, []Case)
	}{
		{
			name: "defaults name and filters flag",
			yaml: "cases:\n  - query: Who won?\n  - name: off\n    query: x\n    filters_enabled: false\n",
			check: func(t *testing.T, cases []Case) {
				if cases[0].Name != "case-1" {
					t.Errorf("Name = %q, want case-1", cases[0].Name)
				}
				if cases[0].FiltersEnabled != nil {
					t.Error("FiltersEnabled should be nil when omitted")
				}
				if cases[1].FiltersEnabled == nil || *cases[1].FiltersEnabled {
					t.Error("FiltersEnabled should be false")
				}
			},
		},
		{name: "no cases", yaml: "cases: []\n", wantErr: "at least one case"},
		{name: "missing query", yaml: "cases:\n  - name: a\n", wantErr: "must have a query"},
		{name: "duplicate name", yaml: "cases:\n  - {name: a, query: x}\n  - {name: a, query: y}\n", wantErr: "duplicate"},
		{name: "bad confidence", yaml: "cases:\n  - query: x\n    expect: {confidence: certain}\n", wantErr: "unknown confidence"},
		{name: "invalid yaml", yaml: "cases: [", wantErr: "yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cases, err := ParseCases([]byte(tt.yaml))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("ParseCases() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCases() error = %v", err)
			}
			tt.check(t, cases)
		})
	}
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	if err := os.WriteFile(path, []byte("cases:\n  - name: jury\n    query: Clio Health jury\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases, err := LoadCases(path)
	if err != nil {
		t.Fatalf("LoadCases() error = %v", err)
	}
	if len(cases) != 1 || cases[0].Name != "jury" {
		t.Errorf("cases = %+v", cases)
	}

	if _, err := LoadCases(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
