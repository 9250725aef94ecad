package document

import (
	"errors"
	"testing"
)

func twoSections() *Parsed {
	return &Parsed{
		Sections: []Section{
			{SectionID: "section_1", Title: "Overview", Level: 1, PageStart: 1, PageEnd: 4},
			{SectionID: "section_2", Title: "Details", Level: 2, PageStart: 5, PageEnd: 9, ParentID: "section_1"},
		},
		Tables: []Table{
			{TableID: "table_1", Page: 6},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Parsed)
		ok     bool
	}{
		{"valid", func(*Parsed) {}, true},
		{"duplicate section id", func(p *Parsed) { p.Sections[1].SectionID = "section_1" }, false},
		{"bad level", func(p *Parsed) { p.Sections[0].Level = 3 }, false},
		{"inverted page range", func(p *Parsed) { p.Sections[0].PageEnd = 0 }, false},
		{"unknown parent", func(p *Parsed) { p.Sections[1].ParentID = "section_9" }, false},
		{"table with unknown section", func(p *Parsed) { p.Tables[0].SectionID = "section_9" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := twoSections()
			tc.mutate(p)
			err := p.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("expected validation error")
				}
				if !errors.Is(err, ErrInvalidDocument) {
					t.Errorf("error not wrapping ErrInvalidDocument: %v", err)
				}
			}
		})
	}
}

func TestAssignTables(t *testing.T) {
	p := twoSections()
	p.Tables = append(p.Tables, Table{TableID: "table_2", Page: 99})
	p.AssignTables()

	if p.Tables[0].SectionID != "section_2" {
		t.Errorf("table_1 assigned to %q, want section_2", p.Tables[0].SectionID)
	}
	if p.Tables[1].SectionID != "" {
		t.Errorf("table outside every section must stay unassigned, got %q", p.Tables[1].SectionID)
	}
}

func TestSyntheticSections(t *testing.T) {
	sections := SyntheticSections(24)
	if len(sections) != 6 {
		t.Fatalf("sections = %d, want 6", len(sections))
	}
	for i, s := range sections {
		if !s.Synthetic || s.Level != 1 {
			t.Errorf("section %d: %+v", i, s)
		}
	}
	if sections[0].PageStart != 1 || sections[5].PageEnd != 24 {
		t.Errorf("page coverage broken: %+v ... %+v", sections[0], sections[5])
	}

	// Tiny documents still get at least two pages per section.
	small := SyntheticSections(3)
	if len(small) != 2 || small[0].PageEnd != 2 {
		t.Errorf("unexpected small fallback %+v", small)
	}
}

func TestLimitPages(t *testing.T) {
	p := twoSections()
	p.LimitPages(5)

	if len(p.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(p.Sections))
	}
	if p.Sections[1].PageEnd != 5 {
		t.Errorf("straddling section not clamped: %+v", p.Sections[1])
	}
	if len(p.Tables) != 0 {
		t.Errorf("table beyond the limit kept: %+v", p.Tables)
	}

	p.LimitPages(0)
	if len(p.Sections) != 2 {
		t.Error("non-positive limit must be a no-op")
	}
}
