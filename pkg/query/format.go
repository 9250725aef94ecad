package query

import (
	"fmt"
	"strings"
)

const factDisplayLimit = 20

// FormatGlobal renders an answered question for the terminal.
func FormatGlobal(result Result) string {
	lines := []string{
		"QUERY: " + result.Query,
		strings.Repeat("=", 60),
		"ANSWER:",
		result.Answer,
		"",
		"REFERENCES:",
	}
	for _, ref := range result.References {
		page := "Page N/A"
		if ref.Page > 0 {
			page = fmt.Sprintf("Page %d", ref.Page)
		}
		lines = append(lines, fmt.Sprintf("- %s (%s)", ref.Section, page))
	}
	return strings.Join(lines, "\n")
}

// FormatConceptTimeline renders one concept's period breakdown.
func FormatConceptTimeline(tl ConceptTimeline) string {
	lines := []string{
		"Financial Concept: " + tl.Concept,
		strings.Repeat("=", 50),
	}
	for _, p := range tl.Periods {
		lines = append(lines,
			fmt.Sprintf("\n%s (%s)", p.TimePeriod, p.PeriodType),
			fmt.Sprintf("   Entities: %d", p.EntityCount),
			"   Mentions: "+strings.Join(capStrings(p.Entities, 5), ", "),
		)
	}
	return strings.Join(lines, "\n")
}

// FormatComparison renders several concept timelines side by side.
func FormatComparison(timelines []ConceptTimeline) string {
	names := make([]string, len(timelines))
	for i, tl := range timelines {
		names[i] = tl.Concept
	}
	lines := []string{
		"Financial Comparison: " + strings.Join(names, ", "),
		strings.Repeat("=", 50),
	}
	for _, tl := range timelines {
		lines = append(lines, "\n"+tl.Concept)
		if len(tl.Periods) == 0 {
			lines = append(lines, "   No data found")
			continue
		}
		for _, p := range tl.Periods {
			lines = append(lines, fmt.Sprintf("   %s: %d entities", p.TimePeriod, p.EntityCount))
		}
	}
	return strings.Join(lines, "\n")
}

// FormatFacts renders the fact listing, capped at the display limit.
func FormatFacts(result FactsResult) string {
	lines := []string{
		fmt.Sprintf("Financial Facts (%s)", result.MetricFilter),
		strings.Repeat("=", 50),
	}

	shown := result.Facts
	if len(shown) > factDisplayLimit {
		shown = shown[:factDisplayLimit]
	}
	for _, f := range shown {
		lines = append(lines,
			fmt.Sprintf("\n%s: %v %s", f.Metric, f.Value, f.Unit),
			"   Scale: "+f.Scale,
			fmt.Sprintf("   Period: %s (%s)", f.PeriodValue, f.PeriodType),
			"   Confidence: "+f.Confidence,
		)
		if f.SectionTitle != "" {
			lines = append(lines, "   Section: "+f.SectionTitle)
		}
		if len(f.Entities) > 0 {
			lines = append(lines, "   Entities: "+strings.Join(capStrings(f.Entities, 3), ", "))
		}
	}
	if len(result.Facts) > factDisplayLimit {
		lines = append(lines, fmt.Sprintf("\n... and %d more facts", len(result.Facts)-factDisplayLimit))
	}
	return strings.Join(lines, "\n")
}

func capStrings(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
