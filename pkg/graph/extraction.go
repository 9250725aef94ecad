package graph

import (
	"context"
	"strings"

	"github.com/Rithanya654/Generic-RAG/internal/util"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

// Response size limits enforced after parsing; the model is told the same
// numbers in the prompt.
const (
	maxEntitiesPerChunk      = 25
	maxRelationshipsPerChunk = 30
)

var allowedEntityTypes = map[string]bool{
	"PERSON":       true,
	"ORGANIZATION": true,
	"FINANCIAL":    true,
	"GOVERNANCE":   true,
	"RISK":         true,
	"CONCEPT":      true,
	"EVENT":        true,
	"OTHER":        true,
}

const extractionSystemPrompt = "Return valid JSON only."

const extractionPrompt = `You are a knowledge graph extraction engine.

RULES (MANDATORY):
- Output MUST be valid JSON
- Output MUST contain ONLY these keys:
  - entities
  - relationships
- No markdown
- No comments
- No trailing text

STRICT CONSTRAINTS:
- Use ONLY the provided section text
- Do NOT invent facts, numbers, tables, or references
- Do NOT infer values not explicitly stated
- Prefer precision over coverage

FAIL-SAFE RULE:
- If you cannot produce COMPLETE and VALID JSON, return EXACTLY:
  { "entities": [], "relationships": [] }
- Do NOT return partial JSON
- Do NOT explain errors

ENTITY TYPES: PERSON, ORGANIZATION, FINANCIAL, GOVERNANCE, RISK, CONCEPT, EVENT, OTHER
SALIENCE LEVELS: CORE, IMPORTANT, SUPPORTING
RELATIONSHIP TYPES: DEFINES, DETAILS, REFERS_TO, ASSOCIATED_WITH

LIMITS:
- Max 25 entities
- Max 30 relationships

TEXT:
`

// ExtractedEntity is one entity in the model's structured response.
type ExtractedEntity struct {
	Name        string `json:"name"`
	Type        string `json:"type" jsonschema:"enum=PERSON,enum=ORGANIZATION,enum=FINANCIAL,enum=GOVERNANCE,enum=RISK,enum=CONCEPT,enum=EVENT,enum=OTHER"`
	Description string `json:"description"`
	Salience    string `json:"salience" jsonschema:"enum=CORE,enum=IMPORTANT,enum=SUPPORTING"`
}

// ExtractedRelationship is one relationship in the model's structured
// response.
type ExtractedRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type" jsonschema:"enum=DEFINES,enum=DETAILS,enum=REFERS_TO,enum=ASSOCIATED_WITH"`
	Description string `json:"description"`
}

// ExtractionResult is one chunk's extraction outcome. A backend or parse
// failure never aborts the pipeline: Failure carries the reason and both
// slices stay empty.
type ExtractionResult struct {
	Entities      []ExtractedEntity       `json:"entities"`
	Relationships []ExtractedRelationship `json:"relationships"`
	Failure       string                  `json:"-"`
}

// ExtractChunk runs one chunk through the model. Empty marker chunks
// short-circuit without a backend call. Extra options (temperature, token
// cap) are forwarded to the backend after the extraction defaults.
func ExtractChunk(ctx context.Context, client ai.Client, chunk chunker.Chunk, opts ...ai.GenerateOption) ExtractionResult {
	if chunk.IsEmpty || strings.TrimSpace(chunk.Text) == "" {
		return ExtractionResult{}
	}

	prompt := extractionPrompt + "[SECTION: " + chunk.SectionID + "]\n" + chunk.Text

	var result ExtractionResult
	err := client.GenerateCompletionWithFormat(
		ctx,
		"graph_extraction",
		"Entities and relationships extracted from one document chunk.",
		prompt,
		&result,
		append([]ai.GenerateOption{ai.WithSystemPrompts(extractionSystemPrompt)}, opts...)...,
	)
	if err != nil {
		logger.Warn("[Extract] chunk failed safely", "chunk", chunk.ChunkID, "err", err)
		return ExtractionResult{Failure: err.Error()}
	}

	return sanitizeExtraction(result)
}

// sanitizeExtraction enforces limits and drops malformed items so only
// persistence-safe data reaches the store.
func sanitizeExtraction(result ExtractionResult) ExtractionResult {
	if len(result.Entities) > maxEntitiesPerChunk {
		result.Entities = result.Entities[:maxEntitiesPerChunk]
	}
	if len(result.Relationships) > maxRelationshipsPerChunk {
		result.Relationships = result.Relationships[:maxRelationshipsPerChunk]
	}

	entities := result.Entities[:0]
	for _, e := range result.Entities {
		e.Name = util.NormalizeName(e.Name)
		if e.Name == "" {
			continue
		}
		if !allowedEntityTypes[e.Type] {
			e.Type = "OTHER"
		}
		switch e.Salience {
		case graphstore.SalienceCore, graphstore.SalienceImportant, graphstore.SalienceSupporting:
		default:
			e.Salience = graphstore.SalienceSupporting
		}
		entities = append(entities, e)
	}
	result.Entities = entities

	relationships := result.Relationships[:0]
	for _, r := range result.Relationships {
		r.Source = util.NormalizeName(r.Source)
		r.Target = util.NormalizeName(r.Target)
		r.Type = strings.ToUpper(strings.TrimSpace(r.Type))
		if r.Source == "" || r.Target == "" || r.Source == r.Target {
			continue
		}
		if !graphstore.AllowedRelationship(r.Type) {
			continue
		}
		relationships = append(relationships, r)
	}
	result.Relationships = relationships

	return result
}
