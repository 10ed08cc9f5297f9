package rag

import (
	"fmt"
	"strings"
)

// BuildContext formats retrieved documents into the grounding block for the generator.
// Each document is labelled "[Result N]" in input order and documents are separated by a blank line.
func BuildContext(results []RetrievedDocument) ContextBlock {
	parts := make([]string, 0, len(results))
	for i, doc := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "[Result %d]\n", i+1)

		title := doc.Title
		if title == "" {
			title = defaultTitle
		}
		fmt.Fprintf(&b, "Title: %s\n", title)

		var meta []string
		if doc.Year != 0 {
			meta = append(meta, fmt.Sprintf("Year: %d", doc.Year))
		}
		if doc.Category != "" {
			meta = append(meta, "Category: "+doc.Category)
		}
		if doc.PageType != "" {
			meta = append(meta, "Type: "+string(doc.PageType))
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, "Metadata: %s\n", strings.Join(meta, " | "))
		}

		content := doc.Excerpt
		if content == "" {
			content = doc.Content
		}
		fmt.Fprintf(&b, "Content: %s\n", content)

		parts = append(parts, b.String())
	}

	return ContextBlock{
		Text:        strings.Join(parts, "\n\n"),
		SourceCount: len(results),
	}
}
