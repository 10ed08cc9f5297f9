package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"clio-assistant/internal/contextutil"
	"clio-assistant/internal/llm"
	"clio-assistant/internal/metrics"
)

// NoInformationAnswer is returned when retrieval found nothing.
const NoInformationAnswer = "I couldn't find any relevant information in the database about that topic."

const defaultGenerationTimeout = 60 * time.Second

const promptTemplate = `You are a helpful assistant for the Clio Awards. Answer the user's question based on the provided context from the Clio Awards database.

User Question: %s

Context from Clio Awards Database:
%s

Instructions:
- Provide a clear, conversational answer based on the context above
- If the context contains specific information (winners, categories, years, jury members), include those details
- Be concise but informative
- If the context doesn't fully answer the question, acknowledge what information is available
- Do not make up information not present in the context
- Use a friendly, professional tone

Answer:`

// AnswerGenerator turns a question and its grounding context into an answer.
type AnswerGenerator struct {
	generator TextGenerator
	params    llm.GenerateParams
	timeout   time.Duration
}

// NewAnswerGenerator creates an AnswerGenerator. A non-positive timeout uses 60s.
func NewAnswerGenerator(generator TextGenerator, params llm.GenerateParams, timeout time.Duration) *AnswerGenerator {
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	return &AnswerGenerator{
		generator: generator,
		params:    params,
		timeout:   timeout,
	}
}

// Generate fills Answer, Confidence, HasAnswer and Error. It never fails:
// without sources it answers "no information" without calling the model,
// and a model failure falls back to a template over the top source.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, block ContextBlock, sources []RetrievedDocument) AnswerResult {
	logger := contextutil.LoggerFromContext(ctx)

	if len(sources) == 0 {
		return AnswerResult{
			Answer:     NoInformationAnswer,
			Confidence: ConfidenceLow,
			HasAnswer:  false,
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reply, err := g.generator.Generate(genCtx, BuildPrompt(query, block.Text), g.params)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("error").Inc()
		logger.ErrorContext(ctx, "answer generation failed, using fallback", "sources", len(sources), "error", err)
		return AnswerResult{
			Answer:     fallbackAnswer(sources[0]),
			Confidence: ConfidenceMedium,
			HasAnswer:  true,
			Error:      err.Error(),
		}
	}

	metrics.GenerationRequestsTotal.WithLabelValues("success").Inc()
	return AnswerResult{
		Answer:     strings.TrimSpace(reply),
		Confidence: ConfidenceHigh,
		HasAnswer:  true,
	}
}

// BuildPrompt renders the instruction template for a question and its context.
func BuildPrompt(query, contextText string) string {
	return fmt.Sprintf(promptTemplate, query, contextText)
}

func fallbackAnswer(top RetrievedDocument) string {
	var b strings.Builder
	b.WriteString("Based on the search results:\n\n")
	fmt.Fprintf(&b, "**%s**\n", top.Title)
	if top.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", top.Category)
	}
	if top.Year != 0 {
		fmt.Fprintf(&b, "Year: %d\n", top.Year)
	}

	body := top.Excerpt
	if body == "" {
		body = truncateRunes(top.Content, ExcerptLength)
	}
	b.WriteString("\n")
	b.WriteString(body)
	return b.String()
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
