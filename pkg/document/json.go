package document

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// jsonDocument is the fixed schema of pre-parsed JSON input. Heading
// elements of level 1 or 2 open sections; every element's markdown is
// accumulated into the section it falls under.
type jsonDocument struct {
	Pages  []jsonPage  `json:"pages" validate:"required,min=1"`
	Tables []jsonTable `json:"tables"`
}

type jsonPage struct {
	Elements []jsonElement `json:"elements"`
}

type jsonElement struct {
	Type    string      `json:"type"`
	Level   int         `json:"level"`
	Content jsonContent `json:"content"`
}

type jsonContent struct {
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
}

type jsonTable struct {
	TableID  string           `json:"table_id"`
	Caption  string           `json:"caption"`
	Page     int              `json:"page" validate:"min=1"`
	Type     string           `json:"type"`
	Currency string           `json:"currency"`
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
}

// JSONParser parses pre-extracted JSON documents into the canonical
// section model. It implements Parser.
type JSONParser struct {
	validate *validator.Validate
}

func NewJSONParser() *JSONParser {
	return &JSONParser{
		validate: validator.New(),
	}
}

// Parse reads a pre-parsed JSON document, builds the markdown text, the
// section hierarchy with page boundaries and per-section text, and the
// table metadata. When no real headings exist, the page-based fallback
// supplies synthetic sections.
func (p *JSONParser) Parse(path string) (*Parsed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return p.ParseBytes(raw)
}

// ParseBytes is Parse for in-memory documents (e.g. objects fetched from
// blob storage).
func (p *JSONParser) ParseBytes(raw []byte) (*Parsed, error) {
	var doc jsonDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: unparseable JSON: %v", ErrInvalidDocument, err)
	}
	if err := p.validate.Struct(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var (
		markdown []string
		sections []Section
		current  = -1
		lastPage = 0
	)

	for i, page := range doc.Pages {
		lastPage = i + 1

		for _, el := range page.Elements {
			if el.Content.Markdown != "" {
				markdown = append(markdown, el.Content.Markdown)
			}

			if el.Type == "heading" && (el.Level == 1 || el.Level == 2) {
				sections = append(sections, Section{
					SectionID: fmt.Sprintf("section_%d", len(sections)+1),
					Title:     strings.TrimSpace(el.Content.Text),
					Level:     el.Level,
					PageStart: lastPage,
					PageEnd:   lastPage,
					Synthetic: false,
					Source:    "json_heading",
				})
				current = len(sections) - 1
				continue
			}

			if current >= 0 && el.Content.Markdown != "" {
				if sections[current].Text != "" {
					sections[current].Text += "\n\n"
				}
				sections[current].Text += el.Content.Markdown
			}
		}
	}

	if len(sections) == 0 {
		sections = SyntheticSections(lastPage)
	} else {
		wireParents(sections, lastPage)
	}

	parsed := &Parsed{
		Text:     strings.Join(markdown, "\n\n"),
		Sections: sections,
	}

	for i, t := range doc.Tables {
		id := t.TableID
		if id == "" {
			id = fmt.Sprintf("table_%d", i+1)
		}
		parsed.Tables = append(parsed.Tables, Table{
			TableID:  id,
			Caption:  strings.TrimSpace(t.Caption),
			Page:     t.Page,
			Type:     t.Type,
			Currency: t.Currency,
			Columns:  t.Columns,
			Rows:     t.Rows,
		})
	}
	parsed.AssignTables()

	if err := parsed.Validate(); err != nil {
		return nil, err
	}
	return parsed, nil
}
