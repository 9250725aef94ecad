package pgx

import (
	"context"
	"fmt"

	"github.com/Rithanya654/Generic-RAG/internal/util"
	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

func (s *Store) UpsertSection(ctx context.Context, docID string, section document.Section) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sections (doc_id, section_id, title, level, page_start, page_end, parent_id, synthetic, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (doc_id, section_id) DO NOTHING`,
		docID, section.SectionID, section.Title, section.Level,
		section.PageStart, section.PageEnd, section.ParentID,
		section.Synthetic, section.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert section %s: %w", section.SectionID, err)
	}
	return nil
}

func (s *Store) UpsertEntity(ctx context.Context, docID, name, entityType, description, salience string) error {
	// Description wins only when strictly longer; salience only promotes
	// SUPPORTING to CORE or IMPORTANT.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entities (doc_id, name, type, description, salience)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doc_id, name) DO UPDATE SET
			description = CASE
				WHEN length(EXCLUDED.description) > length(entities.description)
				THEN EXCLUDED.description ELSE entities.description END,
			salience = CASE
				WHEN entities.salience = 'SUPPORTING' AND EXCLUDED.salience IN ('CORE', 'IMPORTANT')
				THEN EXCLUDED.salience ELSE entities.salience END`,
		docID, name, entityType, description, salience,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entity %s: %w", name, err)
	}
	return nil
}

func (s *Store) LinkEntityToSection(ctx context.Context, docID, entityName, sectionID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entity_mentions (doc_id, entity_name, section_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		docID, entityName, sectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to link entity %s to section %s: %w", entityName, sectionID, err)
	}
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

	// The join against entities makes a missing endpoint a silent no-op.
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO relationships (doc_id, source, target, type, description)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (SELECT 1 FROM entities WHERE doc_id = $1 AND name = $2)
		  AND EXISTS (SELECT 1 FROM entities WHERE doc_id = $1 AND name = $3)
		ON CONFLICT (doc_id, source, target, type) DO UPDATE SET
			description = EXCLUDED.description`,
		docID, source, target, relType, description,
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert relationship %s-%s: %w", source, target, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) UpsertReference(ctx context.Context, docID string, ref graphstore.Reference) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO doc_references (doc_id, reference_id, type, locator, from_section_id, target_section_id, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (doc_id, reference_id) DO UPDATE SET
			target_section_id = EXCLUDED.target_section_id,
			reason = EXCLUDED.reason`,
		docID, ref.ReferenceID, ref.Type, ref.Locator,
		ref.FromSectionID, ref.TargetSectionID, ref.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reference %s: %w", ref.ReferenceID, err)
	}
	return nil
}

func (s *Store) UpsertFinancialConcept(ctx context.Context, name, category string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO financial_concepts (name, category)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING`,
		name, category,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert concept %s: %w", name, err)
	}
	return nil
}

func (s *Store) LinkEntityToConcept(ctx context.Context, docID, entityName, conceptName string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO entity_concepts (doc_id, entity_name, concept_name)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		docID, entityName, conceptName,
	)
	if err != nil {
		return fmt.Errorf("failed to link entity %s to concept %s: %w", entityName, conceptName, err)
	}
	return nil
}

func (s *Store) UpsertTimePeriod(ctx context.Context, period graphstore.TimePeriod) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO time_periods (label, year, period_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (label) DO NOTHING`,
		period.Label, period.Year, period.PeriodType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert time period %s: %w", period.Label, err)
	}
	return nil
}

func (s *Store) LinkSectionToTimePeriod(ctx context.Context, docID, sectionID, label string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO section_periods (doc_id, section_id, label)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		docID, sectionID, label,
	)
	if err != nil {
		return fmt.Errorf("failed to link section %s to period %s: %w", sectionID, label, err)
	}
	return nil
}

func (s *Store) UpsertFinancialFact(ctx context.Context, docID string, fact graphstore.FinancialFact) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO financial_facts (doc_id, metric, value, unit, scale, period_type, period_value, confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (doc_id, metric, value, period_value) DO UPDATE SET
			unit = EXCLUDED.unit,
			scale = EXCLUDED.scale,
			period_type = EXCLUDED.period_type,
			confidence = EXCLUDED.confidence`,
		docID, fact.Metric, fact.Value, fact.Unit, fact.Scale,
		fact.PeriodType, fact.PeriodValue, fact.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert fact %s=%v: %w", fact.Metric, fact.Value, err)
	}
	return nil
}

func (s *Store) LinkFactToSection(ctx context.Context, docID string, key graphstore.FactKey, sectionID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fact_sections (doc_id, metric, value, period_value, section_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		docID, key.Metric, key.Value, key.PeriodValue, sectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to link fact %s to section %s: %w", key.Metric, sectionID, err)
	}
	return nil
}

func (s *Store) LinkFactToEntity(ctx context.Context, docID string, key graphstore.FactKey, entityName string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO fact_entities (doc_id, metric, value, period_value, entity_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		docID, key.Metric, key.Value, key.PeriodValue, entityName,
	)
	if err != nil {
		return fmt.Errorf("failed to link fact %s to entity %s: %w", key.Metric, entityName, err)
	}
	return nil
}

func (s *Store) UpsertCommunity(ctx context.Context, docID string, community graphstore.Community) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO communities (doc_id, community_id, size, modularity, mode)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (doc_id, community_id) DO UPDATE SET
			size = EXCLUDED.size,
			modularity = EXCLUDED.modularity,
			mode = EXCLUDED.mode`,
		docID, community.CommunityID, community.Size, community.Modularity, community.Mode,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert community %s: %w", community.CommunityID, err)
	}
	return nil
}

func (s *Store) LinkCommunityToSection(ctx context.Context, docID, communityID, sectionID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO community_sections (doc_id, community_id, section_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		docID, communityID, sectionID,
	)
	if err != nil {
		return fmt.Errorf("failed to link community %s to section %s: %w", communityID, sectionID, err)
	}
	return nil
}

func (s *Store) UpsertCommunitySummary(ctx context.Context, docID, communityID, summary string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE communities SET summary = $3
		WHERE doc_id = $1 AND community_id = $2`,
		docID, communityID, summary,
	)
	if err != nil {
		return fmt.Errorf("failed to store community summary %s: %w", communityID, err)
	}
	return nil
}

func (s *Store) UpsertSectionSummary(ctx context.Context, docID, sectionID, summary string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sections SET summary = $3
		WHERE doc_id = $1 AND section_id = $2`,
		docID, sectionID, summary,
	)
	if err != nil {
		return fmt.Errorf("failed to store section summary %s: %w", sectionID, err)
	}
	return nil
}
