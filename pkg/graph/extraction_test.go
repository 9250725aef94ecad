package graph

import (
	"context"
	"testing"

	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
)

func TestSanitizeExtraction(t *testing.T) {
	result := sanitizeExtraction(ExtractionResult{
		Entities: []ExtractedEntity{
			{Name: "  Acme Corp  ", Type: "ORGANIZATION", Salience: "CORE"},
			{Name: "Thing", Type: "WIDGET", Salience: "maybe"},
			{Name: "   ", Type: "CONCEPT", Salience: "CORE"},
		},
		Relationships: []ExtractedRelationship{
			{Source: "Acme Corp", Target: "Thing", Type: "associated_with"},
			{Source: "Acme Corp", Target: " Acme  Corp ", Type: "DEFINES"},
			{Source: "Acme Corp", Target: "Thing", Type: "OWNS"},
			{Source: "", Target: "Thing", Type: "DETAILS"},
		},
	})

	if len(result.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(result.Entities))
	}
	if result.Entities[0].Name != "Acme Corp" {
		t.Errorf("name not normalized: %q", result.Entities[0].Name)
	}
	if result.Entities[1].Type != "OTHER" {
		t.Errorf("unknown type must fall back to OTHER, got %q", result.Entities[1].Type)
	}
	if result.Entities[1].Salience != "SUPPORTING" {
		t.Errorf("unknown salience must default to SUPPORTING, got %q", result.Entities[1].Salience)
	}

	// Only the case-fixed ASSOCIATED_WITH survives: self-loops, unknown
	// types, and empty endpoints are dropped.
	if len(result.Relationships) != 1 {
		t.Fatalf("relationships = %+v, want 1", result.Relationships)
	}
	if result.Relationships[0].Type != "ASSOCIATED_WITH" {
		t.Errorf("type not upcased: %q", result.Relationships[0].Type)
	}
}

func TestSanitizeExtractionEnforcesLimits(t *testing.T) {
	var in ExtractionResult
	for i := 0; i < 40; i++ {
		in.Entities = append(in.Entities, ExtractedEntity{
			Name: "Entity " + string(rune('A'+i%26)) + string(rune('A'+i/26)),
			Type: "CONCEPT", Salience: "SUPPORTING",
		})
	}
	out := sanitizeExtraction(in)
	if len(out.Entities) > maxEntitiesPerChunk {
		t.Errorf("entities = %d, want at most %d", len(out.Entities), maxEntitiesPerChunk)
	}
}

func TestExtractChunkSkipsEmptyChunks(t *testing.T) {
	client := &fakeAI{t: t, forbid: true}
	result := ExtractChunk(context.Background(), client, chunker.Chunk{
		ChunkID: "doc-1:section_1:1",
		IsEmpty: true,
	})
	if result.Failure != "" || len(result.Entities) != 0 {
		t.Errorf("empty chunk must short-circuit, got %+v", result)
	}
}
