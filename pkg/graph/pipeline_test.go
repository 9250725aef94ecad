package graph

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore/memory"
)

// fakeAI serves canned extraction JSON keyed by the section marker in the
// prompt. With forbid set, any call fails the test; with fail set, every
// call errors like a dead backend.
type fakeAI struct {
	t         *testing.T
	responses map[string]string

	fail   bool
	forbid bool

	mu    sync.Mutex
	calls int
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) GenerateCompletion(context.Context, string, ...ai.GenerateOption) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeAI) GenerateCompletionWithFormat(
	_ context.Context, _, _, prompt string, out any, _ ...ai.GenerateOption,
) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.forbid {
		f.t.Error("AI backend called for a stage that should have been skipped")
	}
	if f.fail {
		return errors.New("backend down")
	}

	for sectionID, raw := range f.responses {
		if strings.Contains(prompt, "[SECTION: "+sectionID+"]") {
			return json.Unmarshal([]byte(raw), out)
		}
	}
	return json.Unmarshal([]byte(`{"entities":[],"relationships":[]}`), out)
}

func testPipeline(t *testing.T, store *memory.Store, client ai.Client) *Pipeline {
	t.Helper()
	ch, err := chunker.New(chunker.NewParams{
		Encoder:      "cl100k_base",
		ChunkSize:    600,
		Overlap:      100,
		MaxChunkSize: 800,
	})
	if err != nil {
		t.Fatalf("chunker.New: %v", err)
	}
	cfg := &config.Config{
		ParallelAIRequests: 2,
		CheckpointDir:      t.TempDir(),
	}
	return NewPipeline(cfg, store, client, ch)
}

func testDocument() *document.Parsed {
	return &document.Parsed{
		Sections: []document.Section{
			{
				SectionID: "section_1",
				Title:     "Financial Review",
				Level:     1,
				PageStart: 1,
				PageEnd:   4,
				Text:      "FY2024 revenue grew strongly. See Section 2 for details.",
			},
			{
				SectionID: "section_2",
				Title:     "Consolidated Statements",
				Level:     1,
				PageStart: 5,
				PageEnd:   9,
				Text:      "The consolidated statement of financial position follows.",
			},
		},
		Tables: []document.Table{
			{
				TableID:  "table_1",
				Caption:  "Statement of financial position",
				Page:     6,
				Type:     "financial_statement",
				Currency: "$'000",
				Columns:  []string{"Item", "Group_2024"},
				Rows: []map[string]any{
					{"item": "Total assets", "Group_2024": "1,200"},
				},
			},
		},
	}
}

const sectionOneExtraction = `{
	"entities": [
		{"name": "Acme Corp", "type": "ORGANIZATION", "description": "The reporting company", "salience": "CORE"},
		{"name": "Revenue", "type": "FINANCIAL", "description": "Total revenue for the year", "salience": "IMPORTANT"}
	],
	"relationships": [
		{"source": "Acme Corp", "target": "Revenue", "type": "ASSOCIATED_WITH", "description": "Acme Corp reports revenue"}
	]
}`

func TestPipelineRunFullDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	client := &fakeAI{t: t, responses: map[string]string{"section_1": sectionOneExtraction}}
	p := testPipeline(t, store, client)

	stats, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if stats.Sections != 2 {
		t.Errorf("sections = %d, want 2", stats.Sections)
	}
	// Two extracted entities plus the Assets metric entity from the table.
	if stats.Entities != 3 {
		t.Errorf("entities = %d, want 3", stats.Entities)
	}
	if stats.Relationships != 1 {
		t.Errorf("relationships = %d, want 1", stats.Relationships)
	}
	if stats.References != 1 {
		t.Errorf("references = %d, want 1", stats.References)
	}
	if stats.TimePeriods != 1 {
		t.Errorf("time periods = %d, want 1", stats.TimePeriods)
	}
	if stats.FinancialFacts != 1 {
		t.Errorf("facts = %d, want 1", stats.FinancialFacts)
	}
	if stats.FinancialConcepts != 1 {
		t.Errorf("concepts = %d, want 1", stats.FinancialConcepts)
	}

	// The section reference resolved against the document's own structure.
	edges, err := store.SectionReferenceEdges(ctx, "doc-1")
	if err != nil {
		t.Fatalf("SectionReferenceEdges: %v", err)
	}
	if len(edges) != 1 || edges[0].Source != "section_1" || edges[0].Target != "section_2" {
		t.Errorf("unexpected reference edges %+v", edges)
	}

	// The fact's metric became a CORE financial entity.
	typ, _, salience, ok := store.Entity("doc-1", "Assets")
	if !ok {
		t.Fatal("metric entity Assets not created")
	}
	if typ != "FINANCIAL" || salience != "CORE" {
		t.Errorf("unexpected metric entity %s/%s", typ, salience)
	}
}

func TestPipelineDegradesOnBackendFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	client := &fakeAI{t: t, fail: true}
	p := testPipeline(t, store, client)

	stats, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1"})
	if err != nil {
		t.Fatalf("Run must not fail when extraction degrades: %v", err)
	}

	// No extracted entities, but the deterministic stages still ran.
	if stats.Entities != 1 {
		t.Errorf("entities = %d, want only the table metric entity", stats.Entities)
	}
	if stats.References != 1 || stats.FinancialFacts != 1 || stats.TimePeriods != 1 {
		t.Errorf("deterministic stages incomplete: %+v", stats)
	}
}

func TestPipelineResumesFromCheckpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	client := &fakeAI{t: t, responses: map[string]string{"section_1": sectionOneExtraction}}
	p := testPipeline(t, store, client)

	first, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Second run: every stage is checkpointed, so no backend call happens.
	client.forbid = true
	second, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1"})
	if err != nil {
		t.Fatalf("Run (resume): %v", err)
	}
	if first != second {
		t.Errorf("resumed run changed the graph: %+v vs %+v", first, second)
	}
}

func TestPipelineClearRebuildsIdempotently(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	client := &fakeAI{t: t, responses: map[string]string{"section_1": sectionOneExtraction}}
	p := testPipeline(t, store, client)

	first, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := p.Run(ctx, testDocument(), RunParams{DocID: "doc-1", Clear: true})
	if err != nil {
		t.Fatalf("Run (clear): %v", err)
	}
	if first != second {
		t.Errorf("clear-and-reindex changed the graph: %+v vs %+v", first, second)
	}
}

func TestDocIDFromPath(t *testing.T) {
	cases := map[string]string{
		"reports/Annual Report 2024.pdf": "Annual_Report_2024",
		"doc.json":                       "doc",
		"/data/q3 update.pdf":            "q3_update",
	}
	for path, want := range cases {
		if got := DocIDFromPath(path); got != want {
			t.Errorf("DocIDFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
