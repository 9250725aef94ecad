// Package query answers questions over an indexed document graph. Graph
// reads are the default; the model is invoked lazily, only when a question
// actually needs prose, and always answers strictly from graph context.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
	"github.com/Rithanya654/Generic-RAG/pkg/summary"
)

// Query intents. Intent only widens behavior: every intent still answers
// from the same graph context.
const (
	IntentSummary   = "SUMMARY"
	IntentTemporal  = "TEMPORAL"
	IntentGraphOnly = "GRAPH_ONLY"
)

const (
	contextRowLimit  = 80
	contextLineLimit = 120
	answerTemp       = 0.1

	answerSystemRole = "You answer strictly from graph data."

	// NoContextAnswer is returned verbatim, without any backend call, when
	// the document graph holds nothing salient.
	NoContextAnswer = "No relevant information found in the document graph."
)

var summaryKeywords = []string{
	"summarize", "summary", "overview", "explain", "high level",
	"what is this about",
}

var temporalKeywords = []string{"compare", "trend", "over time"}

// DetectIntent classifies a question by keyword. Summary keywords win over
// temporal ones; everything else is graph-only.
func DetectIntent(question string) string {
	q := strings.ToLower(question)
	for _, k := range summaryKeywords {
		if strings.Contains(q, k) {
			return IntentSummary
		}
	}
	for _, k := range temporalKeywords {
		if strings.Contains(q, k) {
			return IntentTemporal
		}
	}
	return IntentGraphOnly
}

// Reference points an answer back at a source section.
type Reference struct {
	Section string `json:"section"`
	Page    int    `json:"page"`
}

// Result is one answered question.
type Result struct {
	Query      string      `json:"query"`
	Intent     string      `json:"intent"`
	Answer     string      `json:"answer"`
	References []Reference `json:"references"`
}

// Global answers a free-form question from the document's salient graph
// context. An empty context returns the fixed no-context answer without
// touching any backend. Summary-intent questions additionally append the
// community overview, generating community summaries on demand.
func Global(ctx context.Context, store graphstore.GraphStorage, client ai.Client, docID, question string) (Result, error) {
	intent := DetectIntent(question)
	logger.Info("[Query] answering", "intent", intent, "doc", docID)

	rows, err := store.FetchGraphContext(ctx, docID, contextRowLimit)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch graph context: %w", err)
	}
	if len(rows) == 0 {
		return Result{
			Query:      question,
			Intent:     intent,
			Answer:     NoContextAnswer,
			References: []Reference{},
		}, nil
	}

	lines := make([]string, 0, len(rows))
	var refs []Reference
	seen := map[Reference]bool{}

	for _, r := range rows {
		line := fmt.Sprintf("- %s (%s, %s)", r.Entity, r.Type, r.Salience)
		if r.FinancialConcept != "" {
			line += " -> " + r.FinancialConcept
		}
		if r.Description != "" {
			line += ": " + r.Description
		}
		lines = append(lines, line)

		if r.SectionTitle != "" {
			ref := Reference{Section: r.SectionTitle, Page: r.PageStart}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	if len(lines) > contextLineLimit {
		lines = lines[:contextLineLimit]
	}

	prompt := fmt.Sprintf(`You are answering using a DOCUMENT KNOWLEDGE GRAPH.

STRICT RULES:
- Answer SHARP and CONCISE (no fluff)
- Use ONLY the provided graph context
- Prefer CORE entities
- Do NOT hallucinate
- If unsure, say so clearly

GRAPH CONTEXT:
%s

QUESTION:
%s

ANSWER (2-5 sentences max):`, strings.Join(lines, "\n"), question)

	answer, err := client.GenerateCompletion(ctx, prompt,
		ai.WithSystemPrompts(answerSystemRole),
		ai.WithTemperature(answerTemp),
	)
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if intent == IntentSummary {
		communities, err := summary.Communities(ctx, store, client, docID)
		if err != nil {
			return Result{}, err
		}
		if len(communities) > 0 {
			var b strings.Builder
			b.WriteString(answer)
			b.WriteString("\n\nCOMMUNITY OVERVIEW:\n")
			for _, c := range communities {
				b.WriteString("- " + c.Summary + "\n")
			}
			answer = strings.TrimSpace(b.String())
		}
	}

	return Result{
		Query:      question,
		Intent:     intent,
		Answer:     answer,
		References: refs,
	}, nil
}

// ConceptTimeline is a financial concept's presence across time periods.
type ConceptTimeline struct {
	Concept string                     `json:"concept"`
	Periods []graphstore.ConceptPeriod `json:"periods"`
}

// ConceptOverTime reads a concept's timeline straight from the graph; no
// model involved.
func ConceptOverTime(ctx context.Context, store graphstore.GraphStorage, docID, concept string) (ConceptTimeline, error) {
	periods, err := store.ConceptPeriods(ctx, docID, concept)
	if err != nil {
		return ConceptTimeline{}, fmt.Errorf("failed to read concept periods: %w", err)
	}
	return ConceptTimeline{Concept: concept, Periods: periods}, nil
}

// CompareConcepts reads several concept timelines, preserving the requested
// order.
func CompareConcepts(ctx context.Context, store graphstore.GraphStorage, docID string, concepts []string) ([]ConceptTimeline, error) {
	timelines := make([]ConceptTimeline, 0, len(concepts))
	for _, concept := range concepts {
		tl, err := ConceptOverTime(ctx, store, docID, concept)
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, tl)
	}
	return timelines, nil
}

// FactsResult is the outcome of a financial fact query.
type FactsResult struct {
	MetricFilter string               `json:"metric_filter"`
	Facts        []graphstore.FactRow `json:"facts"`
}

// Facts lists the document's financial facts, optionally filtered to one
// canonical metric.
func Facts(ctx context.Context, store graphstore.GraphStorage, docID, metricFilter string) (FactsResult, error) {
	facts, err := store.ListFacts(ctx, docID, metricFilter)
	if err != nil {
		return FactsResult{}, fmt.Errorf("failed to list facts: %w", err)
	}
	filter := metricFilter
	if filter == "" {
		filter = "all"
	}
	return FactsResult{MetricFilter: filter, Facts: facts}, nil
}
