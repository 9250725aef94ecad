// Package extract holds the deterministic extraction stages: cross-section
// references, time periods, financial facts from tables, and financial
// concept normalization. No model calls, no storage access; pure text and
// table input to structured signals.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

// Reference types.
const (
	RefPage     = "PAGE"
	RefSection  = "SECTION"
	RefAppendix = "APPENDIX"
	RefTable    = "TABLE"
	RefFigure   = "FIGURE"
)

// Reference reasons, inferred from the cue window. DEFINED_IN takes
// priority over DETAILED_IN.
const (
	ReasonDefinedIn    = "DEFINED_IN"
	ReasonDetailedIn   = "DETAILED_IN"
	ReasonReferencedIn = "REFERENCED_IN"
)

// cueWindow is how many characters around a locator match are scanned for
// cue words.
const cueWindow = 60

type refPattern struct {
	re      *regexp.Regexp
	refType string
}

var refPatterns = []refPattern{
	{regexp.MustCompile(`(?i)\bpage\s+(\d+)\b`), RefPage},
	{regexp.MustCompile(`(?i)\bsection\s+(\d+(?:\.\d+)*)\b`), RefSection},
	{regexp.MustCompile(`(?i)\bappendix\s+([A-Z])\b`), RefAppendix},
	{regexp.MustCompile(`(?i)\btable\s+(\d+(?:\.\d+)*)\b`), RefTable},
	{regexp.MustCompile(`(?i)\bfigure\s+(\d+(?:\.\d+)*)\b`), RefFigure},
	{regexp.MustCompile(`(?i)\bfig\.\s*(\d+(?:\.\d+)*)\b`), RefFigure},
}

var cueWords = []string{"see", "refer", "defined", "detailed", "explained", "shown"}

// References extracts high-confidence cross-section references from section
// text. A locator match only counts when a cue word appears within the
// surrounding window; bare mentions like "Total assets were 42." yield
// nothing. TargetSectionID is left empty; resolution happens later against
// the section inventory.
func References(text, sectionID, docID string) []graphstore.Reference {
	var refs []graphstore.Reference
	seen := map[string]bool{}

	for _, p := range refPatterns {
		for _, match := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := match[0], match[1]
			locator := text[match[2]:match[3]]

			window := strings.ToLower(text[max(0, start-cueWindow):min(len(text), end+cueWindow)])
			if !containsAny(window, cueWords) {
				continue
			}

			id := fmt.Sprintf("%s:%s:%s:%s", docID, sectionID, p.refType, locator)
			if seen[id] {
				continue
			}
			seen[id] = true

			refs = append(refs, graphstore.Reference{
				ReferenceID:   id,
				Type:          p.refType,
				Locator:       locator,
				FromSectionID: sectionID,
				Reason:        inferReason(window),
			})
		}
	}
	return refs
}

func inferReason(window string) string {
	if strings.Contains(window, "defined") {
		return ReasonDefinedIn
	}
	if containsAny(window, []string{"detailed", "explained", "described"}) {
		return ReasonDetailedIn
	}
	return ReasonReferencedIn
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Mention is a table or figure mention detected in section text, with no
// cue-word requirement.
type Mention struct {
	ID        string
	Label     string
	SectionID string
}

var (
	tableMentionRe  = regexp.MustCompile(`(?i)\btable\s+(\d+(?:\.\d+)*)\b`)
	figureMentionRe = regexp.MustCompile(`(?i)\b(?:fig(?:ure)?\.?)\s*(\d+(?:\.\d+)*)\b`)
)

// TableMentions detects table number mentions in section text.
func TableMentions(text, sectionID, docID string) []Mention {
	return mentions(tableMentionRe, text, sectionID, docID, "table")
}

// FigureMentions detects figure number mentions in section text.
func FigureMentions(text, sectionID, docID string) []Mention {
	return mentions(figureMentionRe, text, sectionID, docID, "figure")
}

func mentions(re *regexp.Regexp, text, sectionID, docID, kind string) []Mention {
	var out []Mention
	seen := map[string]bool{}
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		label := match[1]
		id := fmt.Sprintf("%s:%s:%s", docID, kind, label)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, Mention{ID: id, Label: label, SectionID: sectionID})
	}
	return out
}
