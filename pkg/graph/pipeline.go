// Package graph orchestrates the indexing pipeline: parsed document in,
// knowledge graph out. Stages run in a fixed order and write through the
// idempotent store, so a crashed run can resume from its checkpoint without
// duplicating graph data.
package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Rithanya654/Generic-RAG/internal/checkpoint"
	"github.com/Rithanya654/Generic-RAG/internal/config"
	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/chunker"
	"github.com/Rithanya654/Generic-RAG/pkg/community"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/extract"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

// Pipeline stage names, used as checkpoint keys.
const (
	StageSections    = "sections"
	StageExtraction  = "extraction"
	StageReferences  = "references"
	StageConcepts    = "concepts"
	StageTimePeriods = "time_periods"
	StageFacts       = "facts"
	StageCommunities = "communities"
)

// Pipeline wires one document run: chunking, LLM extraction, the
// deterministic extractors, and community detection, all writing through a
// single GraphStorage.
type Pipeline struct {
	cfg     *config.Config
	store   graphstore.GraphStorage
	ai      ai.Client
	chunker *chunker.Chunker
}

// NewPipeline assembles a Pipeline from already-constructed collaborators.
func NewPipeline(cfg *config.Config, store graphstore.GraphStorage, client ai.Client, ch *chunker.Chunker) *Pipeline {
	return &Pipeline{cfg: cfg, store: store, ai: client, chunker: ch}
}

// RunParams controls one indexing run.
type RunParams struct {
	DocID string
	// Clear removes the document's existing graph (and its checkpoint)
	// before indexing.
	Clear bool
	// ClearAll wipes the whole graph first, global nodes included.
	ClearAll bool
}

// DocIDFromPath derives the document id from a file path: the file stem
// with spaces replaced by underscores.
func DocIDFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.ReplaceAll(stem, " ", "_")
}

// Run executes every stage in order and returns the document's graph stats.
// Store connectivity is checked first and is the only fatal precondition;
// individual chunk extraction failures degrade to empty results.
func (p *Pipeline) Run(ctx context.Context, parsed *document.Parsed, params RunParams) (graphstore.Stats, error) {
	if err := parsed.Validate(); err != nil {
		return graphstore.Stats{}, err
	}
	parsed.AssignTables()

	if err := p.store.Ping(ctx); err != nil {
		return graphstore.Stats{}, fmt.Errorf("graph store unreachable: %w", err)
	}
	if err := p.store.Migrate(ctx); err != nil {
		return graphstore.Stats{}, fmt.Errorf("failed to migrate graph store: %w", err)
	}

	cp, err := checkpoint.New(p.cfg.CheckpointDir, params.DocID)
	if err != nil {
		return graphstore.Stats{}, err
	}

	switch {
	case params.ClearAll:
		logger.Warn("[Pipeline] clearing entire graph")
		if err := p.store.ClearAll(ctx); err != nil {
			return graphstore.Stats{}, fmt.Errorf("failed to clear graph: %w", err)
		}
		if err := cp.Reset(); err != nil {
			return graphstore.Stats{}, err
		}
	case params.Clear:
		logger.Info("[Pipeline] clearing document graph", "doc", params.DocID)
		if err := p.store.ClearDocument(ctx, params.DocID); err != nil {
			return graphstore.Stats{}, fmt.Errorf("failed to clear document: %w", err)
		}
		if err := cp.Reset(); err != nil {
			return graphstore.Stats{}, err
		}
	}

	sections := p.effectiveSections(parsed)

	stages := []struct {
		name string
		run  func(context.Context, *document.Parsed, []document.Section, string) error
	}{
		{StageSections, p.runSections},
		{StageExtraction, p.runExtraction},
		{StageReferences, p.runReferences},
		{StageConcepts, p.runConcepts},
		{StageTimePeriods, p.runTimePeriods},
		{StageFacts, p.runFacts},
		{StageCommunities, p.runCommunities},
	}

	for _, stage := range stages {
		if cp.IsCompleted(stage.name) {
			logger.Info("[Pipeline] stage already completed, skipping", "stage", stage.name)
			continue
		}
		logger.Info("[Pipeline] running stage", "stage", stage.name)
		if err := stage.run(ctx, parsed, sections, params.DocID); err != nil {
			return graphstore.Stats{}, fmt.Errorf("stage %s: %w", stage.name, err)
		}
		if err := cp.MarkCompleted(stage.name); err != nil {
			return graphstore.Stats{}, err
		}
	}

	stats, err := p.store.Stats(ctx, params.DocID)
	if err != nil {
		return graphstore.Stats{}, fmt.Errorf("failed to read graph stats: %w", err)
	}
	logger.Info("[Pipeline] indexing complete",
		"doc", params.DocID,
		"sections", stats.Sections,
		"entities", stats.Entities,
		"relationships", stats.Relationships,
		"references", stats.References,
		"facts", stats.FinancialFacts,
		"communities", stats.Communities,
	)
	return stats, nil
}

// effectiveSections returns the document's sections, or a single synthetic
// whole-document section when the parser produced none. The synthetic id
// matches the chunker's no-section fallback.
func (p *Pipeline) effectiveSections(parsed *document.Parsed) []document.Section {
	if len(parsed.Sections) > 0 {
		return parsed.Sections
	}
	return []document.Section{{
		SectionID: "section_0",
		Title:     "Document",
		Level:     1,
		PageStart: 1,
		PageEnd:   1,
		Synthetic: true,
		Source:    "no_sections_fallback",
		Text:      parsed.Text,
	}}
}

func (p *Pipeline) runSections(ctx context.Context, _ *document.Parsed, sections []document.Section, docID string) error {
	for _, section := range sections {
		if err := p.store.UpsertSection(ctx, docID, section); err != nil {
			return fmt.Errorf("failed to upsert section %s: %w", section.SectionID, err)
		}
	}
	return nil
}

// runExtraction fans chunk extraction out across the AI backends, bounded
// by the configured parallelism. Store writes are serialized: the merge
// rules are order-insensitive but the store is not assumed to be
// write-concurrent.
func (p *Pipeline) runExtraction(ctx context.Context, parsed *document.Parsed, sections []document.Section, docID string) error {
	var (
		chunks []chunker.Chunk
		err    error
	)
	if len(parsed.Sections) > 0 {
		chunks, err = p.chunker.BuildChunks(docID, parsed.Sections)
	} else {
		chunks, err = p.chunker.BuildChunksWithoutSections(docID, parsed.Text)
	}
	if err != nil {
		return err
	}
	logger.Info("[Pipeline] chunks built", "count", len(chunks))

	var (
		mu       sync.Mutex
		failures int
	)

	g, gctx := errgroup.WithContext(ctx)
	limit := p.cfg.ParallelAIRequests
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, chunk := range chunks {
		g.Go(func() error {
			result := ExtractChunk(gctx, p.ai, chunk, ai.WithTemperature(p.cfg.Temperature))

			mu.Lock()
			defer mu.Unlock()

			if result.Failure != "" {
				failures++
				return nil
			}
			return p.persistExtraction(gctx, docID, chunk.SectionID, result)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if failures > 0 {
		logger.Warn("[Pipeline] chunks degraded to empty extraction", "count", failures)
	}
	return nil
}

func (p *Pipeline) persistExtraction(ctx context.Context, docID, sectionID string, result ExtractionResult) error {
	for _, e := range result.Entities {
		if err := p.store.UpsertEntity(ctx, docID, e.Name, e.Type, e.Description, e.Salience); err != nil {
			return fmt.Errorf("failed to upsert entity %q: %w", e.Name, err)
		}
		if err := p.store.LinkEntityToSection(ctx, docID, e.Name, sectionID); err != nil {
			return fmt.Errorf("failed to link entity %q: %w", e.Name, err)
		}
	}
	for _, r := range result.Relationships {
		if _, err := p.store.UpsertRelationship(ctx, docID, r.Source, r.Target, r.Type, r.Description); err != nil {
			return fmt.Errorf("failed to upsert relationship %s-%s: %w", r.Source, r.Target, err)
		}
	}
	return nil
}

// runReferences extracts cross-references from each section's text and
// resolves locators against the document's own structure before persisting.
func (p *Pipeline) runReferences(ctx context.Context, parsed *document.Parsed, sections []document.Section, docID string) error {
	sectionIDs := make(map[string]bool, len(sections))
	for _, s := range sections {
		sectionIDs[s.SectionID] = true
	}

	count := 0
	for _, section := range sections {
		if strings.TrimSpace(section.Text) == "" {
			continue
		}
		for _, ref := range extract.References(section.Text, section.SectionID, docID) {
			ref.TargetSectionID = resolveTarget(ref, parsed, sections, sectionIDs)
			if err := p.store.UpsertReference(ctx, docID, ref); err != nil {
				return fmt.Errorf("failed to upsert reference %s: %w", ref.ReferenceID, err)
			}
			count++
		}
	}
	logger.Info("[Pipeline] references extracted", "count", count)
	return nil
}

// resolveTarget maps a reference locator to a section id. Section numbers
// resolve directly, pages resolve through section page ranges, and table
// numbers resolve through the table's grounded section. Appendix and figure
// locators stay unresolved; the parser does not model them as sections.
func resolveTarget(
	ref graphstore.Reference,
	parsed *document.Parsed,
	sections []document.Section,
	sectionIDs map[string]bool,
) string {
	switch ref.Type {
	case extract.RefSection:
		target := "section_" + ref.Locator
		if sectionIDs[target] && target != ref.FromSectionID {
			return target
		}
	case extract.RefPage:
		page, err := strconv.Atoi(ref.Locator)
		if err != nil {
			return ""
		}
		for _, s := range sections {
			if s.PageStart <= page && page <= s.PageEnd && s.SectionID != ref.FromSectionID {
				return s.SectionID
			}
		}
	case extract.RefTable:
		tableID := "table_" + ref.Locator
		for _, t := range parsed.Tables {
			if t.TableID == tableID && t.SectionID != "" && t.SectionID != ref.FromSectionID {
				return t.SectionID
			}
		}
	}
	return ""
}

// runConcepts normalizes extracted entity names against the financial
// concept registry and links matches to their canonical concept nodes.
func (p *Pipeline) runConcepts(ctx context.Context, _ *document.Parsed, _ []document.Section, docID string) error {
	registry, err := extract.LoadConceptRegistry()
	if err != nil {
		return err
	}

	names, err := p.store.ListEntityNames(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}

	linked := 0
	for _, name := range names {
		concept, ok := registry.Lookup(name)
		if !ok {
			continue
		}
		if err := p.store.UpsertFinancialConcept(ctx, concept.Name, concept.Category); err != nil {
			return fmt.Errorf("failed to upsert concept %q: %w", concept.Name, err)
		}
		if err := p.store.LinkEntityToConcept(ctx, docID, name, concept.Name); err != nil {
			return fmt.Errorf("failed to link entity %q to concept: %w", name, err)
		}
		linked++
	}
	logger.Info("[Pipeline] entities linked to financial concepts", "count", linked)
	return nil
}

func (p *Pipeline) runTimePeriods(ctx context.Context, _ *document.Parsed, sections []document.Section, docID string) error {
	count := 0
	for _, section := range sections {
		for _, period := range extract.TimePeriods(section.Text) {
			if err := p.store.UpsertTimePeriod(ctx, period); err != nil {
				return fmt.Errorf("failed to upsert time period %s: %w", period.Label, err)
			}
			if err := p.store.LinkSectionToTimePeriod(ctx, docID, section.SectionID, period.Label); err != nil {
				return fmt.Errorf("failed to link section to period %s: %w", period.Label, err)
			}
			count++
		}
	}
	logger.Info("[Pipeline] time periods linked", "count", count)
	return nil
}

// runFacts reads financial-statement tables into typed facts. Each fact's
// metric also becomes a CORE financial entity anchored to the table's
// section, so facts surface through the entity-centric readers too.
func (p *Pipeline) runFacts(ctx context.Context, parsed *document.Parsed, _ []document.Section, docID string) error {
	count := 0
	for _, table := range parsed.Tables {
		for _, tf := range extract.FactsFromTable(table) {
			if err := p.store.UpsertFinancialFact(ctx, docID, tf.Fact); err != nil {
				return fmt.Errorf("failed to upsert fact %s: %w", tf.Metric, err)
			}
			key := tf.Fact.Key()

			if table.SectionID != "" {
				if err := p.store.LinkFactToSection(ctx, docID, key, table.SectionID); err != nil {
					return fmt.Errorf("failed to link fact to section: %w", err)
				}
			}

			description := fmt.Sprintf("%s reported for %s (%s scope)", tf.Metric, tf.Fact.PeriodValue, tf.Scope)
			if err := p.store.UpsertEntity(ctx, docID, tf.Metric, "FINANCIAL", description, graphstore.SalienceCore); err != nil {
				return fmt.Errorf("failed to upsert metric entity %q: %w", tf.Metric, err)
			}
			if table.SectionID != "" {
				if err := p.store.LinkEntityToSection(ctx, docID, tf.Metric, table.SectionID); err != nil {
					return fmt.Errorf("failed to link metric entity %q: %w", tf.Metric, err)
				}
			}
			if err := p.store.LinkFactToEntity(ctx, docID, key, tf.Metric); err != nil {
				return fmt.Errorf("failed to link fact to entity %q: %w", tf.Metric, err)
			}
			count++
		}
	}
	logger.Info("[Pipeline] financial facts extracted", "count", count)
	return nil
}

func (p *Pipeline) runCommunities(ctx context.Context, _ *document.Parsed, _ []document.Section, docID string) error {
	result, err := community.Detect(ctx, p.store, docID)
	if err != nil {
		return err
	}
	logger.Info("[Pipeline] community detection finished",
		"status", result.Status,
		"mode", result.Mode,
		"communities", result.Communities,
		"modularity", result.Modularity,
	)
	return nil
}
