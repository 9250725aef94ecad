// Package document defines the canonical section model produced by the
// document-layout boundary. The layout parser itself (PDF, OCR, ...) is an
// external collaborator; only its output schema crosses into this package.
// Pre-parsed JSON documents are handled directly by JSONParser.
package document

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument marks input errors: missing files, unparseable JSON,
// or documents violating the section invariants. These are fatal to the
// current run; no partial graph write is attempted.
var ErrInvalidDocument = errors.New("invalid document")

// Section is one node of a document's hierarchical structure. Level is 1 or
// 2; ParentID, when set, names the nearest preceding level-1 section.
// Synthetic sections come from the page-based fallback rather than real
// heading detection.
type Section struct {
	SectionID string `json:"section_id"`
	Title     string `json:"title"`
	Level     int    `json:"level"`
	PageStart int    `json:"page_start"`
	PageEnd   int    `json:"page_end"`
	ParentID  string `json:"parent_id,omitempty"`
	Synthetic bool   `json:"synthetic"`
	Source    string `json:"source"`
	Text      string `json:"text,omitempty"`
}

// Table carries lightweight table metadata grounded to a section, plus the
// parsed cells for tables the upstream parser tagged as financial
// statements (those are the only tables the fact extractor reads).
type Table struct {
	TableID   string           `json:"table_id"`
	Caption   string           `json:"caption"`
	Page      int              `json:"page"`
	SectionID string           `json:"section_id,omitempty"`
	Type      string           `json:"type,omitempty"`
	Currency  string           `json:"currency,omitempty"`
	Columns   []string         `json:"columns,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
}

// Parsed is the full output of the layout boundary for one document.
type Parsed struct {
	Text     string    `json:"text"`
	Sections []Section `json:"sections"`
	Tables   []Table   `json:"tables"`
}

// Parser converts a document at path into the canonical section model.
// JSONParser is the shipped implementation; PDF layout parsing is an
// external collaborator behind this interface.
type Parser interface {
	Parse(path string) (*Parsed, error)
}

// Validate checks the section invariants the rest of the pipeline relies
// on. It fails fast with ErrInvalidDocument so malformed upstream data
// never reaches persistence.
func (p *Parsed) Validate() error {
	ids := make(map[string]struct{}, len(p.Sections))
	for _, s := range p.Sections {
		if s.SectionID == "" {
			return fmt.Errorf("%w: section with empty section_id", ErrInvalidDocument)
		}
		if _, dup := ids[s.SectionID]; dup {
			return fmt.Errorf("%w: duplicate section_id %q", ErrInvalidDocument, s.SectionID)
		}
		ids[s.SectionID] = struct{}{}

		if s.Level != 1 && s.Level != 2 {
			return fmt.Errorf("%w: section %q has level %d, want 1 or 2", ErrInvalidDocument, s.SectionID, s.Level)
		}
		if s.PageStart > s.PageEnd {
			return fmt.Errorf("%w: section %q has page_start %d > page_end %d",
				ErrInvalidDocument, s.SectionID, s.PageStart, s.PageEnd)
		}
		if s.ParentID != "" {
			if _, ok := ids[s.ParentID]; !ok {
				return fmt.Errorf("%w: section %q references unknown parent %q",
					ErrInvalidDocument, s.SectionID, s.ParentID)
			}
		}
	}
	for _, t := range p.Tables {
		if t.SectionID != "" {
			if _, ok := ids[t.SectionID]; !ok {
				return fmt.Errorf("%w: table %q references unknown section %q",
					ErrInvalidDocument, t.TableID, t.SectionID)
			}
		}
	}
	return nil
}

// AssignTables grounds each table to the section whose page range contains
// the table's page. Tables outside every section keep an empty SectionID.
func (p *Parsed) AssignTables() {
	for i := range p.Tables {
		if p.Tables[i].SectionID != "" {
			continue
		}
		for _, s := range p.Sections {
			if s.PageStart <= p.Tables[i].Page && p.Tables[i].Page <= s.PageEnd {
				p.Tables[i].SectionID = s.SectionID
				break
			}
		}
	}
}

// LimitPages truncates the document to its first maxPages pages: sections
// starting beyond the limit are dropped, straddling sections are clamped,
// and tables on later pages are removed. A non-positive limit is a no-op.
func (p *Parsed) LimitPages(maxPages int) {
	if maxPages <= 0 {
		return
	}

	sections := p.Sections[:0]
	for _, s := range p.Sections {
		if s.PageStart > maxPages {
			continue
		}
		if s.PageEnd > maxPages {
			s.PageEnd = maxPages
		}
		sections = append(sections, s)
	}
	p.Sections = sections

	tables := p.Tables[:0]
	for _, t := range p.Tables {
		if t.Page <= maxPages {
			tables = append(tables, t)
		}
	}
	p.Tables = tables
}

// SectionTables returns the tables grounded to the given section.
func (p *Parsed) SectionTables(sectionID string) []Table {
	var out []Table
	for _, t := range p.Tables {
		if t.SectionID == sectionID {
			out = append(out, t)
		}
	}
	return out
}

// wireParents links every level-2 section to the nearest preceding level-1
// section and extends each section's page range up to the next heading.
func wireParents(sections []Section, lastPage int) {
	for i := range sections {
		if sections[i].Level == 2 {
			for j := i - 1; j >= 0; j-- {
				if sections[j].Level == 1 {
					sections[i].ParentID = sections[j].SectionID
					break
				}
			}
		}
		if i < len(sections)-1 {
			if end := sections[i+1].PageStart - 1; end >= sections[i].PageStart {
				sections[i].PageEnd = end
			}
		} else if lastPage >= sections[i].PageStart {
			sections[i].PageEnd = lastPage
		}
	}
}

// minPagesPerSection and fallbackDivisor shape the page-based fallback used
// when a document exposes no real headings.
const (
	minPagesPerSection = 2
	fallbackDivisor    = 6
)

// SyntheticSections builds the page-based fallback structure for documents
// without any real headings.
func SyntheticSections(totalPages int) []Section {
	if totalPages < 1 {
		totalPages = 1
	}
	perSection := totalPages / fallbackDivisor
	if perSection < minPagesPerSection {
		perSection = minPagesPerSection
	}

	var sections []Section
	for start := 1; start <= totalPages; start += perSection {
		end := start + perSection - 1
		if end > totalPages {
			end = totalPages
		}
		sections = append(sections, Section{
			SectionID: fmt.Sprintf("section_%d", len(sections)+1),
			Title:     fmt.Sprintf("Pages %d-%d", start, end),
			Level:     1,
			PageStart: start,
			PageEnd:   end,
			Synthetic: true,
			Source:    "page_fallback",
		})
	}
	return sections
}
