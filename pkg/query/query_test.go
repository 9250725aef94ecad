package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore/memory"
)

type fakeAI struct {
	t          *testing.T
	answer     string
	forbid     bool
	lastPrompt string
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	if f.forbid {
		f.t.Error("backend must not be called for this query")
	}
	f.lastPrompt = prompt
	return f.answer, nil
}

func (f *fakeAI) GenerateCompletionWithFormat(context.Context, string, string, string, any, ...ai.GenerateOption) error {
	return errors.New("not used")
}

func TestDetectIntent(t *testing.T) {
	cases := map[string]string{
		"Give me a summary of the report":       IntentSummary,
		"What is this about?":                   IntentSummary,
		"Compare revenue and profit":            IntentTemporal,
		"How did assets trend over time?":       IntentTemporal,
		"Who is the chief executive?":           IntentGraphOnly,
		"Summarize the revenue trend over time": IntentSummary,
	}
	for question, want := range cases {
		if got := DetectIntent(question); got != want {
			t.Errorf("DetectIntent(%q) = %q, want %q", question, got, want)
		}
	}
}

func TestGlobalWithoutContext(t *testing.T) {
	store := memory.New()
	client := &fakeAI{t: t, forbid: true}

	result, err := Global(context.Background(), store, client, "doc-1", "Who runs the company?")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if result.Answer != NoContextAnswer {
		t.Errorf("answer = %q, want the fixed no-context answer", result.Answer)
	}
	if len(result.References) != 0 {
		t.Errorf("references = %+v, want none", result.References)
	}
}

func seedContext(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()

	err := store.UpsertSection(ctx, "doc-1", document.Section{
		SectionID: "section_1", Title: "Financial Review", Level: 1, PageStart: 3, PageEnd: 5,
	})
	if err != nil {
		t.Fatalf("UpsertSection: %v", err)
	}

	for _, e := range []struct{ name, typ, salience string }{
		{"Revenue", "FINANCIAL", graphstore.SalienceCore},
		{"Acme Corp", "ORGANIZATION", graphstore.SalienceImportant},
		{"Footnote", "CONCEPT", graphstore.SalienceSupporting},
	} {
		if err := store.UpsertEntity(ctx, "doc-1", e.name, e.typ, "", e.salience); err != nil {
			t.Fatalf("UpsertEntity: %v", err)
		}
		if err := store.LinkEntityToSection(ctx, "doc-1", e.name, "section_1"); err != nil {
			t.Fatalf("LinkEntityToSection: %v", err)
		}
	}
}

func TestGlobalAnswersFromGraphContext(t *testing.T) {
	store := memory.New()
	seedContext(t, store)
	client := &fakeAI{t: t, answer: "Revenue is the core reported metric.\n"}

	result, err := Global(context.Background(), store, client, "doc-1", "What is the key metric?")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if result.Intent != IntentGraphOnly {
		t.Errorf("intent = %q", result.Intent)
	}
	if result.Answer != "Revenue is the core reported metric." {
		t.Errorf("answer not trimmed: %q", result.Answer)
	}

	// Salient entities appear in the prompt; SUPPORTING ones do not.
	if !strings.Contains(client.lastPrompt, "- Revenue (FINANCIAL, CORE)") {
		t.Errorf("prompt missing core entity:\n%s", client.lastPrompt)
	}
	if strings.Contains(client.lastPrompt, "Footnote") {
		t.Error("supporting entity leaked into the prompt")
	}

	// Both salient entities share one section: references deduplicate.
	if len(result.References) != 1 {
		t.Fatalf("references = %+v, want 1", result.References)
	}
	if result.References[0] != (Reference{Section: "Financial Review", Page: 3}) {
		t.Errorf("unexpected reference %+v", result.References[0])
	}
}

func TestGlobalSummaryAppendsCommunityOverview(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedContext(t, store)

	err := store.UpsertCommunity(ctx, "doc-1", graphstore.Community{
		CommunityID: "doc-1:community:0", Size: 1, Mode: graphstore.ModeSmall,
	})
	if err != nil {
		t.Fatalf("UpsertCommunity: %v", err)
	}
	if err := store.LinkCommunityToSection(ctx, "doc-1", "doc-1:community:0", "section_1"); err != nil {
		t.Fatalf("LinkCommunityToSection: %v", err)
	}

	client := &fakeAI{t: t, answer: "The document reviews financial performance."}
	result, err := Global(ctx, store, client, "doc-1", "Summarize this document")
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if result.Intent != IntentSummary {
		t.Errorf("intent = %q", result.Intent)
	}
	if !strings.Contains(result.Answer, "COMMUNITY OVERVIEW:") {
		t.Errorf("summary answer missing community overview:\n%s", result.Answer)
	}
}

func TestFactsFilterLabel(t *testing.T) {
	store := memory.New()

	all, err := Facts(context.Background(), store, "doc-1", "")
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if all.MetricFilter != "all" {
		t.Errorf("filter = %q, want all", all.MetricFilter)
	}

	filtered, err := Facts(context.Background(), store, "doc-1", "Revenue")
	if err != nil {
		t.Fatalf("Facts: %v", err)
	}
	if filtered.MetricFilter != "Revenue" {
		t.Errorf("filter = %q, want Revenue", filtered.MetricFilter)
	}
}

func TestFormatFactsCapsOutput(t *testing.T) {
	result := FactsResult{MetricFilter: "all"}
	for i := 0; i < 25; i++ {
		result.Facts = append(result.Facts, graphstore.FactRow{
			FinancialFact: graphstore.FinancialFact{
				Metric: "Revenue", Value: float64(i), Unit: "USD",
				Scale: "MILLIONS", PeriodType: "YEAR", PeriodValue: "2024", Confidence: "HIGH",
			},
		})
	}
	out := FormatFacts(result)
	if !strings.Contains(out, "... and 5 more facts") {
		t.Errorf("overflow note missing:\n%s", out)
	}
}
