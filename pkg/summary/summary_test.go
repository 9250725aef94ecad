package summary

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
	t      *testing.T
	answer string
	forbid bool
	calls  int
}

func (f *fakeAI) Name() string { return "fake" }

func (f *fakeAI) GenerateCompletion(_ context.Context, prompt string, _ ...ai.GenerateOption) (string, error) {
	f.calls++
	if f.forbid {
		f.t.Errorf("unexpected backend call with prompt %q", prompt)
	}
	return f.answer + "\n", nil
}

func (f *fakeAI) GenerateCompletionWithFormat(context.Context, string, string, string, any, ...ai.GenerateOption) error {
	return errors.New("not used")
}

func seedSections(t *testing.T, store *memory.Store, docID string, titles ...string) {
	t.Helper()
	ctx := context.Background()
	for i, title := range titles {
		err := store.UpsertSection(ctx, docID, document.Section{
			SectionID: "section_" + string(rune('1'+i)),
			Title:     title,
			Level:     1,
			PageStart: i + 1,
			PageEnd:   i + 1,
		})
		if err != nil {
			t.Fatalf("UpsertSection: %v", err)
		}
	}
}

func TestCommunities(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedSections(t, store, "doc-1", "Financial Review", "Risk Management")

	err := store.UpsertCommunity(ctx, "doc-1", graphstore.Community{
		CommunityID: "doc-1:community:0",
		Size:        2,
		Mode:        graphstore.ModeSmall,
	})
	if err != nil {
		t.Fatalf("UpsertCommunity: %v", err)
	}
	for _, sid := range []string{"section_1", "section_2"} {
		if err := store.LinkCommunityToSection(ctx, "doc-1", "doc-1:community:0", sid); err != nil {
			t.Fatalf("LinkCommunityToSection: %v", err)
		}
	}

	client := &fakeAI{t: t, answer: "Both sections cover financial performance and its risks."}
	results, err := Communities(ctx, store, client, "doc-1")
	if err != nil {
		t.Fatalf("Communities: %v", err)
	}
	if len(results) != 1 || results[0].Sections != 2 {
		t.Fatalf("unexpected results %+v", results)
	}
	if strings.HasSuffix(results[0].Summary, "\n") {
		t.Error("summary must be trimmed")
	}

	communities, err := store.ListCommunities(ctx, "doc-1")
	if err != nil {
		t.Fatalf("ListCommunities: %v", err)
	}
	if communities[0].Summary != results[0].Summary {
		t.Error("summary not persisted")
	}
}

func TestSectionsUsesCache(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedSections(t, store, "doc-1", "Financial Review")

	client := &fakeAI{t: t, answer: "This section reviews the year's financial results."}
	first, err := Sections(ctx, store, client, "doc-1", []string{"section_1"})
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if first["section_1"] == "" {
		t.Fatal("missing generated summary")
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d, want 1", client.calls)
	}

	// Second request must hit the cache, not the backend.
	client.forbid = true
	second, err := Sections(ctx, store, client, "doc-1", []string{"section_1"})
	if err != nil {
		t.Fatalf("Sections (cached): %v", err)
	}
	if second["section_1"] != first["section_1"] {
		t.Error("cached summary differs")
	}
}

func TestSectionsSkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedSections(t, store, "doc-1", "Financial Review")

	client := &fakeAI{t: t, answer: "irrelevant", forbid: true}
	out, err := Sections(ctx, store, client, "doc-1", []string{"section_9"})
	if err != nil {
		t.Fatalf("Sections: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("unknown section produced a summary: %+v", out)
	}
}
