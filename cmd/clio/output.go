package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"clio-assistant/internal/rag"
)

var (
	headingStyle = color.New(color.FgCyan, color.Bold).SprintFunc()
	okStyle      = color.New(color.FgGreen).SprintFunc()
	warnStyle    = color.New(color.FgYellow).SprintFunc()
	failStyle    = color.New(color.FgRed, color.Bold).SprintFunc()
	dimStyle     = color.New(color.Faint).SprintFunc()
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func confidenceStyle(c rag.Confidence) string {
	switch c {
	case rag.ConfidenceHigh:
		return okStyle(string(c))
	case rag.ConfidenceMedium:
		return warnStyle(string(c))
	default:
		return failStyle(string(c))
	}
}

func formatFilters(f rag.FilterSet) string {
	if f.IsEmpty() {
		return "none"
	}
	var parts []string
	if f.Year != 0 {
		parts = append(parts, fmt.Sprintf("year=%d", f.Year))
	}
	if f.Category != "" {
		parts = append(parts, "category="+f.Category)
	}
	if f.PageType != "" {
		parts = append(parts, "page_type="+string(f.PageType))
	}
	return strings.Join(parts, " ")
}
