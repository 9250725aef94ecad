package extract

import (
	"testing"

	"github.com/Rithanya654/Generic-RAG/pkg/document"
)

func TestParseColumn(t *testing.T) {
	tests := []struct {
		col       string
		wantScope string
		wantYear  string
		wantOK    bool
	}{
		{"Group_2024", "GROUP", "2024", true},
		{"Company_2023", "COMPANY", "2023", true},
		{"group_2024", "GROUP", "2024", true},
		{"Revenue_24", "", "", false},
		{"Group_24x", "", "", false},
		{"item", "", "", false},
		{"Restated", "", "", false},
		{"Group_", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.col, func(t *testing.T) {
			scope, year, ok := ParseColumn(tt.col)
			if ok != tt.wantOK || scope != tt.wantScope || year != tt.wantYear {
				t.Errorf("ParseColumn(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.col, scope, year, ok, tt.wantScope, tt.wantYear, tt.wantOK)
			}
		})
	}
}

func TestClassifyMetric(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Total assets", "Assets"},
		{"Current liabilities", "Liabilities"},
		{"Profit for the year", "Profit"},
		{"Loss before tax", "Profit"},
		{"Cash and cash equivalents", "CashFlow"},
		{"Directors' remuneration", ""},
	}
	for _, tt := range tests {
		if got := ClassifyMetric(tt.label); got != tt.want {
			t.Errorf("ClassifyMetric(%q) = %q, want %q", tt.label, got, tt.want)
		}
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{"plain", "4200", 4200, true},
		{"thousands separator", "1,234,567.89", 1234567.89, true},
		{"negative", "-500", -500, true},
		{"dash placeholder", "-", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"float from json", float64(42), 42, true},
		{"garbage", "n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeNumber(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("NormalizeNumber(%v) = (%v, %v), want (%v, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestInferScale(t *testing.T) {
	tests := []struct {
		currency string
		want     string
	}{
		{"Rs.'000", ScaleThousands},
		{"USD million", ScaleMillions},
		{"EUR billion", ScaleBillions},
		{"LKR", ScaleUnit},
		{"", ScaleUnit},
	}
	for _, tt := range tests {
		if got := InferScale(tt.currency); got != tt.want {
			t.Errorf("InferScale(%q) = %q, want %q", tt.currency, got, tt.want)
		}
	}
}

func TestFactsFromTable(t *testing.T) {
	table := document.Table{
		TableID:  "table_1",
		Type:     "financial_statement",
		Currency: "Rs.'000",
		Columns:  []string{"item", "Group_2024", "Group_2023", "Restated"},
		Rows: []map[string]any{
			{"item": "Total assets", "Group_2024": "1,200", "Group_2023": "1,000"},
			{"item": "Revenue", "Group_2024": "500", "Group_2023": "-"},
			{"item": "Directors' fees", "Group_2024": "10", "Group_2023": "9"},
		},
	}

	facts := FactsFromTable(table)
	if len(facts) != 3 {
		t.Fatalf("expected 3 facts (dash cell and unclassified row skipped), got %d: %+v", len(facts), facts)
	}

	first := facts[0]
	if first.Fact.Metric != "Assets" || first.Fact.Value != 1200 || first.Fact.PeriodValue != "2024" {
		t.Errorf("unexpected first fact: %+v", first.Fact)
	}
	if first.Fact.Scale != ScaleThousands || first.Fact.PeriodType != FactPeriodYear {
		t.Errorf("unexpected fact scale or period type: %+v", first.Fact)
	}
	if first.Scope != "GROUP" {
		t.Errorf("unexpected scope %q", first.Scope)
	}
}

func TestFactsFromTableIgnoresNonFinancialTables(t *testing.T) {
	table := document.Table{
		TableID: "table_2",
		Type:    "other",
		Columns: []string{"item", "Group_2024"},
		Rows:    []map[string]any{{"item": "Total assets", "Group_2024": "1"}},
	}
	if facts := FactsFromTable(table); facts != nil {
		t.Fatalf("non financial_statement tables must be skipped, got %+v", facts)
	}
}
