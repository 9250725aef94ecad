package pgx

import (
	"context"
	"errors"
	"fmt"

	pgxv5 "github.com/jackc/pgx/v5"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

func (s *Store) GetSectionSummary(ctx context.Context, docID, sectionID string) (string, bool, error) {
	var summary string
	err := s.pool.QueryRow(ctx,
		`SELECT summary FROM sections WHERE doc_id = $1 AND section_id = $2`,
		docID, sectionID,
	).Scan(&summary)
	if errors.Is(err, pgxv5.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read section summary: %w", err)
	}
	return summary, summary != "", nil
}

func (s *Store) ListSections(ctx context.Context, docID string) ([]graphstore.SectionInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT section_id, title, page_start FROM sections WHERE doc_id = $1 ORDER BY id`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer rows.Close()

	var infos []graphstore.SectionInfo
	for rows.Next() {
		var info graphstore.SectionInfo
		if err := rows.Scan(&info.SectionID, &info.Title, &info.PageStart); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (s *Store) ListEntityNames(ctx context.Context, docID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM entities WHERE doc_id = $1 ORDER BY name`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) SectionReferenceEdges(ctx context.Context, docID string) ([]graphstore.SectionEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT
			LEAST(from_section_id, target_section_id),
			GREATEST(from_section_id, target_section_id)
		FROM doc_references
		WHERE doc_id = $1
		  AND target_section_id <> ''
		  AND target_section_id <> from_section_id
		ORDER BY 1, 2`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference edges: %w", err)
	}
	defer rows.Close()

	var edges []graphstore.SectionEdge
	for rows.Next() {
		var edge graphstore.SectionEdge
		if err := rows.Scan(&edge.Source, &edge.Target); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (s *Store) SharedSalientEntityEdges(ctx context.Context, docID string) ([]graphstore.SectionEdge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT m1.section_id, m2.section_id, COUNT(DISTINCT m1.entity_name)
		FROM entity_mentions m1
		JOIN entity_mentions m2
		  ON m1.doc_id = m2.doc_id
		 AND m1.entity_name = m2.entity_name
		 AND m1.section_id < m2.section_id
		JOIN entities e
		  ON e.doc_id = m1.doc_id AND e.name = m1.entity_name
		WHERE m1.doc_id = $1
		  AND e.salience IN ('CORE', 'IMPORTANT')
		GROUP BY m1.section_id, m2.section_id
		ORDER BY m1.section_id, m2.section_id`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read entity edges: %w", err)
	}
	defer rows.Close()

	var edges []graphstore.SectionEdge
	for rows.Next() {
		var edge graphstore.SectionEdge
		if err := rows.Scan(&edge.Source, &edge.Target, &edge.Shared); err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, rows.Err()
}

func (s *Store) FetchGraphContext(ctx context.Context, docID string, limit int) ([]graphstore.ContextRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT
			sec.section_id, sec.title, sec.page_start,
			e.name, e.type, e.description, e.salience,
			COALESCE(ec.concept_name, ''),
			COALESCE((
				SELECT sp.label FROM section_periods sp
				WHERE sp.doc_id = sec.doc_id AND sp.section_id = sec.section_id
				ORDER BY sp.label LIMIT 1
			), '')
		FROM entity_mentions m
		JOIN entities e ON e.doc_id = m.doc_id AND e.name = m.entity_name
		JOIN sections sec ON sec.doc_id = m.doc_id AND sec.section_id = m.section_id
		LEFT JOIN entity_concepts ec ON ec.doc_id = m.doc_id AND ec.entity_name = e.name
		WHERE m.doc_id = $1
		  AND e.salience IN ('CORE', 'IMPORTANT')
		ORDER BY CASE e.salience WHEN 'CORE' THEN 0 ELSE 1 END, sec.id, e.name
		LIMIT $2`,
		docID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graph context: %w", err)
	}
	defer rows.Close()

	var result []graphstore.ContextRow
	for rows.Next() {
		var row graphstore.ContextRow
		err := rows.Scan(
			&row.SectionID, &row.SectionTitle, &row.PageStart,
			&row.Entity, &row.Type, &row.Description, &row.Salience,
			&row.FinancialConcept, &row.TimePeriod,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *Store) ListCommunities(ctx context.Context, docID string) ([]graphstore.Community, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT community_id, size, modularity, mode, summary
		FROM communities WHERE doc_id = $1 ORDER BY community_id`,
		docID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var communities []graphstore.Community
	for rows.Next() {
		var c graphstore.Community
		if err := rows.Scan(&c.CommunityID, &c.Size, &c.Modularity, &c.Mode, &c.Summary); err != nil {
			return nil, err
		}
		communities = append(communities, c)
	}
	return communities, rows.Err()
}

func (s *Store) CommunitySectionTitles(ctx context.Context, docID, communityID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sec.title
		FROM community_sections cs
		JOIN sections sec ON sec.doc_id = cs.doc_id AND sec.section_id = cs.section_id
		WHERE cs.doc_id = $1 AND cs.community_id = $2
		ORDER BY sec.id`,
		docID, communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read community sections: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (s *Store) SectionEntityNames(ctx context.Context, docID, sectionID string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT entity_name FROM entity_mentions
		WHERE doc_id = $1 AND section_id = $2
		ORDER BY entity_name LIMIT $3`,
		docID, sectionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read section entities: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *Store) ConceptPeriods(ctx context.Context, docID, concept string) ([]graphstore.ConceptPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sp.label, tp.period_type,
			ARRAY_AGG(DISTINCT ec.entity_name ORDER BY ec.entity_name)
		FROM entity_concepts ec
		JOIN entity_mentions m ON m.doc_id = ec.doc_id AND m.entity_name = ec.entity_name
		JOIN section_periods sp ON sp.doc_id = m.doc_id AND sp.section_id = m.section_id
		JOIN time_periods tp ON tp.label = sp.label
		WHERE ec.doc_id = $1 AND ec.concept_name = $2
		GROUP BY sp.label, tp.period_type, tp.year
		ORDER BY tp.year, sp.label`,
		docID, concept,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read concept periods: %w", err)
	}
	defer rows.Close()

	var result []graphstore.ConceptPeriod
	for rows.Next() {
		var cp graphstore.ConceptPeriod
		if err := rows.Scan(&cp.TimePeriod, &cp.PeriodType, &cp.Entities); err != nil {
			return nil, err
		}
		cp.EntityCount = len(cp.Entities)
		result = append(result, cp)
	}
	return result, rows.Err()
}

func (s *Store) ListFacts(ctx context.Context, docID, metricFilter string) ([]graphstore.FactRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT f.metric, f.value, f.unit, f.scale, f.period_type, f.period_value, f.confidence,
			COALESCE((
				SELECT sec.title
				FROM fact_sections fs
				JOIN sections sec ON sec.doc_id = fs.doc_id AND sec.section_id = fs.section_id
				WHERE fs.doc_id = f.doc_id AND fs.metric = f.metric
				  AND fs.value = f.value AND fs.period_value = f.period_value
				ORDER BY sec.id LIMIT 1
			), ''),
			COALESCE((
				SELECT ARRAY_AGG(fe.entity_name ORDER BY fe.entity_name)
				FROM fact_entities fe
				WHERE fe.doc_id = f.doc_id AND fe.metric = f.metric
				  AND fe.value = f.value AND fe.period_value = f.period_value
			), '{}')
		FROM financial_facts f
		WHERE f.doc_id = $1 AND ($2 = '' OR f.metric = $2)
		ORDER BY f.metric, f.period_value, f.value`,
		docID, metricFilter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list facts: %w", err)
	}
	defer rows.Close()

	var result []graphstore.FactRow
	for rows.Next() {
		var row graphstore.FactRow
		err := rows.Scan(
			&row.Metric, &row.Value, &row.Unit, &row.Scale,
			&row.PeriodType, &row.PeriodValue, &row.Confidence,
			&row.SectionTitle, &row.Entities,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (s *Store) Stats(ctx context.Context, docID string) (graphstore.Stats, error) {
	var stats graphstore.Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sections WHERE doc_id = $1),
			(SELECT COUNT(*) FROM entities WHERE doc_id = $1),
			(SELECT COUNT(*) FROM relationships WHERE doc_id = $1),
			(SELECT COUNT(*) FROM doc_references WHERE doc_id = $1),
			(SELECT COUNT(DISTINCT concept_name) FROM entity_concepts WHERE doc_id = $1),
			(SELECT COUNT(DISTINCT label) FROM section_periods WHERE doc_id = $1),
			(SELECT COUNT(*) FROM financial_facts WHERE doc_id = $1),
			(SELECT COUNT(*) FROM communities WHERE doc_id = $1)`,
		docID,
	).Scan(
		&stats.Sections, &stats.Entities, &stats.Relationships,
		&stats.References, &stats.FinancialConcepts, &stats.TimePeriods,
		&stats.FinancialFacts, &stats.Communities,
	)
	if err != nil {
		return graphstore.Stats{}, fmt.Errorf("failed to read stats: %w", err)
	}
	return stats, nil
}
