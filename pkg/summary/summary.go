// Package summary produces LLM summaries of communities and sections, on
// demand only. It never mutates graph structure and is never run as part of
// indexing; callers invoke it explicitly and results are cached in the
// store.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rithanya654/Generic-RAG/pkg/ai"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
	"github.com/Rithanya654/Generic-RAG/pkg/logger"
)

const (
	summaryTemperature  = 0.2
	sectionEntityLimit  = 8
	communitySystemRole = "You summarize corporate documents precisely."
	sectionSystemRole   = "You summarize corporate documents accurately."
)

// CommunitySummary pairs a community with its generated summary.
type CommunitySummary struct {
	CommunityID string
	Sections    int
	Summary     string
}

// Communities summarizes every community of the document from its member
// section titles and persists each summary. Communities without member
// sections are skipped.
func Communities(ctx context.Context, store graphstore.GraphStorage, client ai.Client, docID string) ([]CommunitySummary, error) {
	communities, err := store.ListCommunities(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}

	var results []CommunitySummary
	for _, c := range communities {
		titles, err := store.CommunitySectionTitles(ctx, docID, c.CommunityID)
		if err != nil {
			return nil, fmt.Errorf("failed to list community sections: %w", err)
		}
		if len(titles) == 0 {
			continue
		}

		var b strings.Builder
		b.WriteString("Summarize the common theme of these document sections.\n\nSections:\n")
		for _, title := range titles {
			b.WriteString("- " + title + "\n")
		}
		b.WriteString("\nWrite 2-3 precise sentences capturing the shared topic.\nAvoid vague language.")

		text, err := client.GenerateCompletion(ctx, b.String(),
			ai.WithSystemPrompts(communitySystemRole),
			ai.WithTemperature(summaryTemperature),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize community %s: %w", c.CommunityID, err)
		}
		text = strings.TrimSpace(text)

		if err := store.UpsertCommunitySummary(ctx, docID, c.CommunityID, text); err != nil {
			return nil, fmt.Errorf("failed to persist community summary: %w", err)
		}
		results = append(results, CommunitySummary{
			CommunityID: c.CommunityID,
			Sections:    len(titles),
			Summary:     text,
		})
	}

	logger.Info("[Summary] communities summarized", "doc", docID, "count", len(results))
	return results, nil
}

// Sections summarizes the requested sections from their titles and most
// salient entities. Cached summaries are returned without a backend call.
func Sections(ctx context.Context, store graphstore.GraphStorage, client ai.Client, docID string, sectionIDs []string) (map[string]string, error) {
	sections, err := store.ListSections(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	titles := make(map[string]string, len(sections))
	for _, s := range sections {
		titles[s.SectionID] = s.Title
	}

	summaries := make(map[string]string, len(sectionIDs))
	for _, sectionID := range sectionIDs {
		title, known := titles[sectionID]
		if !known {
			continue
		}

		cached, ok, err := store.GetSectionSummary(ctx, docID, sectionID)
		if err != nil {
			return nil, fmt.Errorf("failed to read section summary: %w", err)
		}
		if ok {
			summaries[sectionID] = cached
			continue
		}

		entities, err := store.SectionEntityNames(ctx, docID, sectionID, sectionEntityLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list section entities: %w", err)
		}

		prompt := fmt.Sprintf(
			"Summarize the following document section.\n\nTitle: %s\nKey entities: %s\n\nWrite 2-3 precise sentences describing what this section covers.",
			title, strings.Join(entities, ", "),
		)

		text, err := client.GenerateCompletion(ctx, prompt,
			ai.WithSystemPrompts(sectionSystemRole),
			ai.WithTemperature(summaryTemperature),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize section %s: %w", sectionID, err)
		}
		text = strings.TrimSpace(text)

		if err := store.UpsertSectionSummary(ctx, docID, sectionID, text); err != nil {
			return nil, fmt.Errorf("failed to persist section summary: %w", err)
		}
		summaries[sectionID] = text
	}
	return summaries, nil
}
