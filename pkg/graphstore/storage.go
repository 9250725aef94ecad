// Package graphstore defines the doc-scoped knowledge-graph data model and
// the idempotent upsert surface every pipeline stage writes through. Every
// write merges on a natural composite key, so any stage can safely re-run
// against partial progress. Two node types (FinancialConcept, TimePeriod)
// are global and merge by their own key regardless of document.
package graphstore

import (
	"context"

	"github.com/Rithanya654/Generic-RAG/pkg/document"
)

// Entity salience levels. Salience only ever moves SUPPORTING→CORE or
// SUPPORTING→IMPORTANT; CORE and IMPORTANT are immutable once set.
const (
	SalienceCore       = "CORE"
	SalienceImportant  = "IMPORTANT"
	SalienceSupporting = "SUPPORTING"
)

// Allowed entity→entity relationship types. Anything else is a no-op write.
const (
	RelDefines        = "DEFINES"
	RelDetails        = "DETAILS"
	RelRefersTo       = "REFERS_TO"
	RelAssociatedWith = "ASSOCIATED_WITH"
)

// AllowedRelationship reports whether relType is in the closed relationship
// set.
func AllowedRelationship(relType string) bool {
	switch relType {
	case RelDefines, RelDetails, RelRefersTo, RelAssociatedWith:
		return true
	}
	return false
}

// Time period types, in display priority order (ANNUAL sorts first).
const (
	PeriodAnnual   = "ANNUAL"
	PeriodHalf     = "HALF"
	PeriodQuarter  = "QUARTER"
	PeriodCalendar = "CALENDAR"
)

// Community detection modes.
const (
	ModeSmall  = "small"
	ModeNormal = "normal"
)

// Reference is a detected cross-section pointer. Its identity is
// docID:sectionID:type:locator. TargetSectionID is the resolved target
// section, empty when the locator could not be resolved.
type Reference struct {
	ReferenceID     string
	Type            string
	Locator         string
	FromSectionID   string
	TargetSectionID string
	Reason          string
}

// TimePeriod is a GLOBAL node keyed by label (e.g. FY2024, Q1FY2024,
// CY2024).
type TimePeriod struct {
	Label      string
	Year       int
	PeriodType string
}

// FinancialFact identity is (docID, metric, value, periodValue).
type FinancialFact struct {
	Metric      string
	Value       float64
	Unit        string
	Scale       string
	PeriodType  string
	PeriodValue string
	Confidence  string
}

// FactKey is the doc-scoped natural key of a financial fact, used when
// linking facts to sections and entities.
type FactKey struct {
	Metric      string
	Value       float64
	PeriodValue string
}

// Key returns the fact's natural key.
func (f FinancialFact) Key() FactKey {
	return FactKey{Metric: f.Metric, Value: f.Value, PeriodValue: f.PeriodValue}
}

// Community is a detected grouping of sections within one document.
type Community struct {
	CommunityID string
	Size        int
	Modularity  float64
	Mode        string
	Summary     string
}

// SectionInfo is the minimal section projection used by graph readers.
type SectionInfo struct {
	SectionID string
	Title     string
	PageStart int
}

// SectionEdge is an undirected section pair produced by the edge readers.
type SectionEdge struct {
	Source string
	Target string
	// Shared is the distinct shared salient entity count (entity edges
	// only; zero for reference edges).
	Shared int
}

// ContextRow is one row of the bounded graph context the query orchestrator
// renders. FinancialConcept and TimePeriod are optional annotations.
type ContextRow struct {
	SectionID        string
	SectionTitle     string
	PageStart        int
	Entity           string
	Type             string
	Description      string
	Salience         string
	FinancialConcept string
	TimePeriod       string
}

// ConceptPeriod aggregates a financial concept's presence in one time
// period.
type ConceptPeriod struct {
	TimePeriod  string
	PeriodType  string
	EntityCount int
	Entities    []string
}

// FactRow is a financial fact joined with its provenance for query output.
type FactRow struct {
	FinancialFact
	SectionTitle string
	Entities     []string
}

// Stats summarizes one document's graph.
type Stats struct {
	Sections          int
	Entities          int
	Relationships     int
	References        int
	FinancialConcepts int
	TimePeriods       int
	FinancialFacts    int
	Communities       int
}

// GraphStorage is the persistence contract shared by all pipeline stages
// and the query orchestrator. Implementations must make every write an
// idempotent merge-by-natural-key; callers tolerate at-least-once
// re-execution of any stage.
type GraphStorage interface {
	// Ping verifies store connectivity. The pipeline calls it once before
	// any stage runs; failure is fatal to the whole run.
	Ping(ctx context.Context) error
	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) error
	// ClearDocument removes every doc-scoped node of one document.
	// Global nodes are never touched.
	ClearDocument(ctx context.Context, docID string) error
	// ClearAll destroys the whole graph. Used only in explicit
	// clear-and-reindex mode.
	ClearAll(ctx context.Context) error

	UpsertSection(ctx context.Context, docID string, section document.Section) error
	// UpsertEntity creates or refreshes a doc-scoped entity. On
	// re-encounter the description wins only if strictly longer and
	// salience follows the promotion rules.
	UpsertEntity(ctx context.Context, docID, name, entityType, description, salience string) error
	LinkEntityToSection(ctx context.Context, docID, entityName, sectionID string) error
	// UpsertRelationship returns false (without error) when the type is
	// outside the allowed set or source and target normalize to the same
	// name.
	UpsertRelationship(ctx context.Context, docID, source, target, relType, description string) (bool, error)
	UpsertReference(ctx context.Context, docID string, ref Reference) error

	UpsertFinancialConcept(ctx context.Context, name, category string) error
	LinkEntityToConcept(ctx context.Context, docID, entityName, conceptName string) error

	UpsertTimePeriod(ctx context.Context, period TimePeriod) error
	LinkSectionToTimePeriod(ctx context.Context, docID, sectionID, label string) error

	UpsertFinancialFact(ctx context.Context, docID string, fact FinancialFact) error
	LinkFactToSection(ctx context.Context, docID string, key FactKey, sectionID string) error
	LinkFactToEntity(ctx context.Context, docID string, key FactKey, entityName string) error

	UpsertCommunity(ctx context.Context, docID string, community Community) error
	LinkCommunityToSection(ctx context.Context, docID, communityID, sectionID string) error
	UpsertCommunitySummary(ctx context.Context, docID, communityID, summary string) error
	UpsertSectionSummary(ctx context.Context, docID, sectionID, summary string) error
	GetSectionSummary(ctx context.Context, docID, sectionID string) (string, bool, error)

	ListSections(ctx context.Context, docID string) ([]SectionInfo, error)
	ListEntityNames(ctx context.Context, docID string) ([]string, error)
	// SectionReferenceEdges returns resolved cross-section reference pairs
	// (strong community signal).
	SectionReferenceEdges(ctx context.Context, docID string) ([]SectionEdge, error)
	// SharedSalientEntityEdges returns section pairs co-mentioning at
	// least one CORE/IMPORTANT entity, with the distinct shared count
	// (soft community signal).
	SharedSalientEntityEdges(ctx context.Context, docID string) ([]SectionEdge, error)
	// FetchGraphContext returns the salience-ordered bounded context used
	// for answering.
	FetchGraphContext(ctx context.Context, docID string, limit int) ([]ContextRow, error)
	ListCommunities(ctx context.Context, docID string) ([]Community, error)
	CommunitySectionTitles(ctx context.Context, docID, communityID string) ([]string, error)
	SectionEntityNames(ctx context.Context, docID, sectionID string, limit int) ([]string, error)
	ConceptPeriods(ctx context.Context, docID, concept string) ([]ConceptPeriod, error)
	ListFacts(ctx context.Context, docID, metricFilter string) ([]FactRow, error)
	Stats(ctx context.Context, docID string) (Stats, error)
}

// MergeDescription implements the longer-description-wins rule.
func MergeDescription(existing, incoming string) string {
	if len(incoming) > len(existing) {
		return incoming
	}
	return existing
}

// MergeSalience implements the promotion rules: only SUPPORTING may be
// promoted, and only to CORE or IMPORTANT. There is no lateral movement
// between CORE and IMPORTANT.
func MergeSalience(existing, incoming string) string {
	if existing == SalienceSupporting &&
		(incoming == SalienceCore || incoming == SalienceImportant) {
		return incoming
	}
	return existing
}
