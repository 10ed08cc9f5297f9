package rag

import (
	"regexp"
	"strconv"
	"strings"
)

var yearPattern = regexp.MustCompile(`\b(199\d|20[0-2]\d)\b`)

// categoryPhrases is checked in order and the first contained phrase wins,
// so "gold" in "Grand Clio gold" never shadows "grand clio".
var categoryPhrases = []struct {
	phrase string
	label  string
}{
	{"clio sports", "Clio Sports"},
	{"clio health", "Clio Health"},
	{"clio music", "Clio Music"},
	{"clio entertainment", "Clio Entertainment"},
	{"clio cannabis", "Clio Cannabis"},
	{"grand clio", "Grand Clio"},
	{"gold", "Gold"},
	{"silver", "Silver"},
	{"bronze", "Bronze"},
}

// Page type keywords in priority order: jury, then winners, then events.
var pageTypeKeywords = []struct {
	pageType PageType
	terms    []string
}{
	{PageTypeJury, []string{"jury", "juror", "judge"}},
	{PageTypeWinners, []string{"winner", "won", "award"}},
	{PageTypeEvents, []string{"event"}},
}

// ExtractFilters derives year, category and page type constraints from a query.
// Matching is plain substring search, so "awards" counts as an award term.
func ExtractFilters(query string) FilterSet {
	var f FilterSet

	if m := yearPattern.FindString(query); m != "" {
		f.Year, _ = strconv.Atoi(m)
	}

	lower := strings.ToLower(query)

	for _, c := range categoryPhrases {
		if strings.Contains(lower, c.phrase) {
			f.Category = c.label
			break
		}
	}

	for _, group := range pageTypeKeywords {
		if containsAny(lower, group.terms) {
			f.PageType = group.pageType
			break
		}
	}

	return f
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
