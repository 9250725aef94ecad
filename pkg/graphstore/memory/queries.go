package memory

import (
	"context"
	"sort"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

func (s *Store) ListSections(ctx context.Context, docID string) ([]graphstore.SectionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	infos := make([]graphstore.SectionInfo, 0, len(g.sectionOrder))
	for _, id := range g.sectionOrder {
		section := g.sections[id]
		infos = append(infos, graphstore.SectionInfo{
			SectionID: section.SectionID,
			Title:     section.Title,
			PageStart: section.PageStart,
		})
	}
	return infos, nil
}

func (s *Store) ListEntityNames(ctx context.Context, docID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	names := make([]string, 0, len(g.entities))
	for name := range g.entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) SectionReferenceEdges(ctx context.Context, docID string) ([]graphstore.SectionEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	seen := map[[2]string]bool{}
	var edges []graphstore.SectionEdge
	for _, ref := range g.references {
		if ref.TargetSectionID == "" || ref.TargetSectionID == ref.FromSectionID {
			continue
		}
		pair := orderedPair(ref.FromSectionID, ref.TargetSectionID)
		if seen[pair] {
			continue
		}
		seen[pair] = true
		edges = append(edges, graphstore.SectionEdge{Source: pair[0], Target: pair[1]})
	}
	sortEdges(edges)
	return edges, nil
}

func (s *Store) SharedSalientEntityEdges(ctx context.Context, docID string) ([]graphstore.SectionEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	// sections that mention each salient entity
	salientSections := map[string][]string{}
	for sectionID, names := range g.mentions {
		for name := range names {
			e, ok := g.entities[name]
			if !ok {
				continue
			}
			if e.Salience != graphstore.SalienceCore && e.Salience != graphstore.SalienceImportant {
				continue
			}
			salientSections[name] = append(salientSections[name], sectionID)
		}
	}

	shared := map[[2]string]int{}
	for _, sections := range salientSections {
		sort.Strings(sections)
		for i := 0; i < len(sections); i++ {
			for j := i + 1; j < len(sections); j++ {
				shared[orderedPair(sections[i], sections[j])]++
			}
		}
	}

	edges := make([]graphstore.SectionEdge, 0, len(shared))
	for pair, count := range shared {
		edges = append(edges, graphstore.SectionEdge{Source: pair[0], Target: pair[1], Shared: count})
	}
	sortEdges(edges)
	return edges, nil
}

func (s *Store) FetchGraphContext(ctx context.Context, docID string, limit int) ([]graphstore.ContextRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	var rows []graphstore.ContextRow
	for _, sectionID := range g.sectionOrder {
		section := g.sections[sectionID]

		names := make([]string, 0, len(g.mentions[sectionID]))
		for name := range g.mentions[sectionID] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			e, ok := g.entities[name]
			if !ok {
				continue
			}
			if e.Salience != graphstore.SalienceCore && e.Salience != graphstore.SalienceImportant {
				continue
			}
			rows = append(rows, graphstore.ContextRow{
				SectionID:        sectionID,
				SectionTitle:     section.Title,
				PageStart:        section.PageStart,
				Entity:           e.Name,
				Type:             e.Type,
				Description:      e.Description,
				Salience:         e.Salience,
				FinancialConcept: g.entityConcepts[e.Name],
				TimePeriod:       firstPeriod(g.sectionPeriods[sectionID]),
			})
		}
	}

	// CORE rows first, stable within salience.
	sort.SliceStable(rows, func(i, j int) bool {
		return salienceRank(rows[i].Salience) < salienceRank(rows[j].Salience)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (s *Store) ListCommunities(ctx context.Context, docID string) ([]graphstore.Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	communities := make([]graphstore.Community, 0, len(g.communities))
	for _, c := range g.communities {
		communities = append(communities, c)
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].CommunityID < communities[j].CommunityID
	})
	return communities, nil
}

func (s *Store) CommunitySectionTitles(ctx context.Context, docID, communityID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	var titles []string
	for _, sectionID := range g.sectionOrder {
		if g.communitySections[communityID][sectionID] {
			titles = append(titles, g.sections[sectionID].Title)
		}
	}
	return titles, nil
}

func (s *Store) SectionEntityNames(ctx context.Context, docID, sectionID string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	names := make([]string, 0, len(g.mentions[sectionID]))
	for name := range g.mentions[sectionID] {
		names = append(names, name)
	}
	sort.Strings(names)
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names, nil
}

func (s *Store) ConceptPeriods(ctx context.Context, docID, concept string) ([]graphstore.ConceptPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	// entities linked to the concept
	linked := map[string]bool{}
	for entity, c := range g.entityConcepts {
		if c == concept {
			linked[entity] = true
		}
	}

	// periods of sections mentioning those entities
	periodEntities := map[string]map[string]bool{}
	for sectionID, names := range g.mentions {
		hasLinked := false
		for name := range names {
			if linked[name] {
				hasLinked = true
				break
			}
		}
		if !hasLinked {
			continue
		}
		for label := range g.sectionPeriods[sectionID] {
			if periodEntities[label] == nil {
				periodEntities[label] = map[string]bool{}
			}
			for name := range names {
				if linked[name] {
					periodEntities[label][name] = true
				}
			}
		}
	}

	result := make([]graphstore.ConceptPeriod, 0, len(periodEntities))
	for label, entities := range periodEntities {
		names := make([]string, 0, len(entities))
		for name := range entities {
			names = append(names, name)
		}
		sort.Strings(names)
		result = append(result, graphstore.ConceptPeriod{
			TimePeriod:  label,
			PeriodType:  s.periods[label].PeriodType,
			EntityCount: len(names),
			Entities:    names,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		yi, yj := s.periods[result[i].TimePeriod].Year, s.periods[result[j].TimePeriod].Year
		if yi != yj {
			return yi < yj
		}
		return result[i].TimePeriod < result[j].TimePeriod
	})
	return result, nil
}

func (s *Store) ListFacts(ctx context.Context, docID, metricFilter string) ([]graphstore.FactRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	var rows []graphstore.FactRow
	for key, fact := range g.facts {
		if metricFilter != "" && fact.Metric != metricFilter {
			continue
		}
		row := graphstore.FactRow{FinancialFact: fact}

		for _, sectionID := range g.sectionOrder {
			if g.factSections[key][sectionID] {
				row.SectionTitle = g.sections[sectionID].Title
				break
			}
		}
		for name := range g.factEntities[key] {
			row.Entities = append(row.Entities, name)
		}
		sort.Strings(row.Entities)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Metric != rows[j].Metric {
			return rows[i].Metric < rows[j].Metric
		}
		if rows[i].PeriodValue != rows[j].PeriodValue {
			return rows[i].PeriodValue < rows[j].PeriodValue
		}
		return rows[i].Value < rows[j].Value
	})
	return rows, nil
}

func (s *Store) Stats(ctx context.Context, docID string) (graphstore.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.doc(docID)

	concepts := map[string]bool{}
	for _, c := range g.entityConcepts {
		concepts[c] = true
	}
	periods := map[string]bool{}
	for _, labels := range g.sectionPeriods {
		for label := range labels {
			periods[label] = true
		}
	}

	return graphstore.Stats{
		Sections:          len(g.sections),
		Entities:          len(g.entities),
		Relationships:     len(g.relationships),
		References:        len(g.references),
		FinancialConcepts: len(concepts),
		TimePeriods:       len(periods),
		FinancialFacts:    len(g.facts),
		Communities:       len(g.communities),
	}, nil
}

func orderedPair(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

func sortEdges(edges []graphstore.SectionEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}

func salienceRank(salience string) int {
	switch salience {
	case graphstore.SalienceCore:
		return 0
	case graphstore.SalienceImportant:
		return 1
	}
	return 2
}

func firstPeriod(labels map[string]bool) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for label := range labels {
		keys = append(keys, label)
	}
	sort.Strings(keys)
	return keys[0]
}
