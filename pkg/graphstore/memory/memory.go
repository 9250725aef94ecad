// Package memory provides an in-process GraphStorage implementation. It is
// the reference for the merge semantics and backs tests that must run
// without Postgres.
package memory

import (
	"context"
	"sync"

	"github.com/Rithanya654/Generic-RAG/internal/util"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

type entityNode struct {
	Name        string
	Type        string
	Description string
	Salience    string
}

type relKey struct {
	Source string
	Target string
	Type   string
}

type docGraph struct {
	sections      map[string]document.Section
	sectionOrder  []string
	entities      map[string]*entityNode
	mentions      map[string]map[string]bool
	relationships map[relKey]string
	references    map[string]graphstore.Reference

	entityConcepts map[string]string
	sectionPeriods map[string]map[string]bool

	facts        map[graphstore.FactKey]graphstore.FinancialFact
	factSections map[graphstore.FactKey]map[string]bool
	factEntities map[graphstore.FactKey]map[string]bool

	communities        map[string]graphstore.Community
	communitySections  map[string]map[string]bool
	communitySummaries map[string]string
	sectionSummaries   map[string]string
}

func newDocGraph() *docGraph {
	return &docGraph{
		sections:           map[string]document.Section{},
		entities:           map[string]*entityNode{},
		mentions:           map[string]map[string]bool{},
		relationships:      map[relKey]string{},
		references:         map[string]graphstore.Reference{},
		entityConcepts:     map[string]string{},
		sectionPeriods:     map[string]map[string]bool{},
		facts:              map[graphstore.FactKey]graphstore.FinancialFact{},
		factSections:       map[graphstore.FactKey]map[string]bool{},
		factEntities:       map[graphstore.FactKey]map[string]bool{},
		communities:        map[string]graphstore.Community{},
		communitySections:  map[string]map[string]bool{},
		communitySummaries: map[string]string{},
		sectionSummaries:   map[string]string{},
	}
}

type conceptNode struct {
	Name     string
	Category string
}

// Store is a mutex-guarded in-memory graph.
type Store struct {
	mu       sync.Mutex
	docs     map[string]*docGraph
	concepts map[string]conceptNode
	periods  map[string]graphstore.TimePeriod
}

var _ graphstore.GraphStorage = (*Store)(nil)

func New() *Store {
	return &Store{
		docs:     map[string]*docGraph{},
		concepts: map[string]conceptNode{},
		periods:  map[string]graphstore.TimePeriod{},
	}
}

func (s *Store) doc(docID string) *docGraph {
	g, ok := s.docs[docID]
	if !ok {
		g = newDocGraph()
		s.docs[docID] = g
	}
	return g
}

func (s *Store) Ping(ctx context.Context) error    { return nil }
func (s *Store) Migrate(ctx context.Context) error { return nil }

func (s *Store) ClearDocument(ctx context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, docID)
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = map[string]*docGraph{}
	s.concepts = map[string]conceptNode{}
	s.periods = map[string]graphstore.TimePeriod{}
	return nil
}

func (s *Store) UpsertSection(ctx context.Context, docID string, section document.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if _, exists := g.sections[section.SectionID]; !exists {
		g.sections[section.SectionID] = section
		g.sectionOrder = append(g.sectionOrder, section.SectionID)
	}
	return nil
}

func (s *Store) UpsertEntity(ctx context.Context, docID, name, entityType, description, salience string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	existing, ok := g.entities[name]
	if !ok {
		g.entities[name] = &entityNode{
			Name:        name,
			Type:        entityType,
			Description: description,
			Salience:    salience,
		}
		return nil
	}
	existing.Description = graphstore.MergeDescription(existing.Description, description)
	existing.Salience = graphstore.MergeSalience(existing.Salience, salience)
	return nil
}

func (s *Store) LinkEntityToSection(ctx context.Context, docID, entityName, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if g.mentions[sectionID] == nil {
		g.mentions[sectionID] = map[string]bool{}
	}
	g.mentions[sectionID][entityName] = true
	return nil
}

func (s *Store) UpsertRelationship(ctx context.Context, docID, source, target, relType, description string) (bool, error) {
	if !graphstore.AllowedRelationship(relType) {
		return false, nil
	}
	source = util.NormalizeName(source)
	target = util.NormalizeName(target)
	if source == "" || target == "" || source == target {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if _, ok := g.entities[source]; !ok {
		return false, nil
	}
	if _, ok := g.entities[target]; !ok {
		return false, nil
	}
	g.relationships[relKey{Source: source, Target: target, Type: relType}] = description
	return true, nil
}

func (s *Store) UpsertReference(ctx context.Context, docID string, ref graphstore.Reference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc(docID).references[ref.ReferenceID] = ref
	return nil
}

func (s *Store) UpsertFinancialConcept(ctx context.Context, name, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.concepts[name]; !ok {
		s.concepts[name] = conceptNode{Name: name, Category: category}
	}
	return nil
}

func (s *Store) LinkEntityToConcept(ctx context.Context, docID, entityName, conceptName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc(docID).entityConcepts[entityName] = conceptName
	return nil
}

func (s *Store) UpsertTimePeriod(ctx context.Context, period graphstore.TimePeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.periods[period.Label]; !ok {
		s.periods[period.Label] = period
	}
	return nil
}

func (s *Store) LinkSectionToTimePeriod(ctx context.Context, docID, sectionID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if g.sectionPeriods[sectionID] == nil {
		g.sectionPeriods[sectionID] = map[string]bool{}
	}
	g.sectionPeriods[sectionID][label] = true
	return nil
}

func (s *Store) UpsertFinancialFact(ctx context.Context, docID string, fact graphstore.FinancialFact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Merge refreshes the non-key attributes.
	s.doc(docID).facts[fact.Key()] = fact
	return nil
}

func (s *Store) LinkFactToSection(ctx context.Context, docID string, key graphstore.FactKey, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if g.factSections[key] == nil {
		g.factSections[key] = map[string]bool{}
	}
	g.factSections[key][sectionID] = true
	return nil
}

func (s *Store) LinkFactToEntity(ctx context.Context, docID string, key graphstore.FactKey, entityName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if g.factEntities[key] == nil {
		g.factEntities[key] = map[string]bool{}
	}
	g.factEntities[key][entityName] = true
	return nil
}

func (s *Store) UpsertCommunity(ctx context.Context, docID string, community graphstore.Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if existing, ok := g.communities[community.CommunityID]; ok {
		community.Summary = existing.Summary
	}
	g.communities[community.CommunityID] = community
	return nil
}

func (s *Store) LinkCommunityToSection(ctx context.Context, docID, communityID, sectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	if g.communitySections[communityID] == nil {
		g.communitySections[communityID] = map[string]bool{}
	}
	g.communitySections[communityID][sectionID] = true
	return nil
}

func (s *Store) UpsertCommunitySummary(ctx context.Context, docID, communityID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)
	g.communitySummaries[communityID] = summary
	if c, ok := g.communities[communityID]; ok {
		c.Summary = summary
		g.communities[communityID] = c
	}
	return nil
}

func (s *Store) UpsertSectionSummary(ctx context.Context, docID, sectionID, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc(docID).sectionSummaries[sectionID] = summary
	return nil
}

func (s *Store) GetSectionSummary(ctx context.Context, docID, sectionID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.doc(docID).sectionSummaries[sectionID]
	return summary, ok, nil
}

// Entity returns a snapshot of one entity for assertions in tests.
func (s *Store) Entity(docID, name string) (typ, description, salience string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, exists := s.docs[docID]
	if !exists {
		return "", "", "", false
	}
	e, exists := g.entities[name]
	if !exists {
		return "", "", "", false
	}
	return e.Type, e.Description, e.Salience, true
}

// RelationshipCount reports the number of stored entity relationships.
func (s *Store) RelationshipCount(docID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.docs[docID]
	if !ok {
		return 0
	}
	return len(g.relationships)
}
