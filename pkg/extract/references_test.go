package extract

import "testing"

func TestReferences(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantCount  int
		wantType   string
		wantReason string
	}{
		{
			name:      "bare number without cue word",
			text:      "Total assets were 42.",
			wantCount: 0,
		},
		{
			name:       "table with cue word",
			text:       "see Table 2 for details",
			wantCount:  1,
			wantType:   RefTable,
			wantReason: ReasonDetailedIn,
		},
		{
			name:       "defined wins over detailed",
			text:       "Fair value is defined in section 3.2 and detailed there.",
			wantCount:  1,
			wantType:   RefSection,
			wantReason: ReasonDefinedIn,
		},
		{
			name:       "page reference",
			text:       "Refer to page 12 for the full statement.",
			wantCount:  1,
			wantType:   RefPage,
			wantReason: ReasonReferencedIn,
		},
		{
			name:      "page mention without cue word",
			text:      "Continued on page 12.",
			wantCount: 0,
		},
		{
			name:       "fig abbreviation",
			text:       "as shown in fig. 4 above",
			wantCount:  1,
			wantType:   RefFigure,
			wantReason: ReasonReferencedIn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := References(tt.text, "section_1", "doc-1")
			if len(refs) != tt.wantCount {
				t.Fatalf("got %d references, want %d: %+v", len(refs), tt.wantCount, refs)
			}
			if tt.wantCount == 0 {
				return
			}
			if refs[0].Type != tt.wantType {
				t.Errorf("type = %q, want %q", refs[0].Type, tt.wantType)
			}
			if refs[0].Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", refs[0].Reason, tt.wantReason)
			}
			if refs[0].TargetSectionID != "" {
				t.Errorf("target must stay unresolved at extraction time, got %q", refs[0].TargetSectionID)
			}
		})
	}
}

func TestReferencesDeduplicate(t *testing.T) {
	text := "see Table 2. Later, see Table 2 again for details."
	refs := References(text, "section_1", "doc-1")
	if len(refs) != 1 {
		t.Fatalf("duplicate locator must collapse to one reference, got %d", len(refs))
	}
	if refs[0].ReferenceID != "doc-1:section_1:TABLE:2" {
		t.Errorf("unexpected reference id %q", refs[0].ReferenceID)
	}
}

func TestTableAndFigureMentions(t *testing.T) {
	text := "Table 3 shows revenue. Figure 1 and fig. 1 repeat. Table 3 again."

	tables := TableMentions(text, "section_1", "doc-1")
	if len(tables) != 1 || tables[0].Label != "3" {
		t.Fatalf("unexpected table mentions: %+v", tables)
	}

	figures := FigureMentions(text, "section_1", "doc-1")
	if len(figures) != 1 || figures[0].Label != "1" {
		t.Fatalf("figure mentions must deduplicate across spellings: %+v", figures)
	}
}
