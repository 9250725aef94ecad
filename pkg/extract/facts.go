package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Rithanya654/Generic-RAG/pkg/document"
	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

// FactPeriodYear is the period type of table-derived facts; their
// period_value is the bare column year.
const FactPeriodYear = "YEAR"

// Value scales inferred from a table's currency string.
const (
	ScaleUnit      = "UNIT"
	ScaleThousands = "THOUSANDS"
	ScaleMillions  = "MILLIONS"
	ScaleBillions  = "BILLIONS"
)

// canonicalMetrics maps row-label substrings to canonical metric names.
// Order matters; the first matching key wins.
var canonicalMetrics = []struct {
	substr string
	metric string
}{
	{"asset", "Assets"},
	{"liabilit", "Liabilities"},
	{"equity", "Equity"},
	{"revenue", "Revenue"},
	{"profit", "Profit"},
	{"loss", "Profit"},
	{"cash", "CashFlow"},
}

// ClassifyMetric maps a table row label to a canonical metric name, or ""
// when the label matches nothing.
func ClassifyMetric(label string) string {
	l := strings.ToLower(label)
	for _, cm := range canonicalMetrics {
		if strings.Contains(l, cm.substr) {
			return cm.metric
		}
	}
	return ""
}

// ParseColumn splits a Scope_Year column name: "Group_2024" yields
// ("GROUP", "2024"). Scope must be GROUP or COMPANY and the year all
// digits; anything else ("item", "Revenue_24x", "Restated") is rejected.
func ParseColumn(col string) (scope, year string, ok bool) {
	scope, year, found := strings.Cut(col, "_")
	if !found {
		return "", "", false
	}
	if year == "" {
		return "", "", false
	}
	for _, r := range year {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	scope = strings.ToUpper(scope)
	if scope != "GROUP" && scope != "COMPANY" {
		return "", "", false
	}
	return scope, year, true
}

// NormalizeNumber parses a table cell into a float, stripping thousands
// separators. Empty cells and dash placeholders are rejected.
func NormalizeNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" || s == "-" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	f, err := strconv.ParseFloat(fmt.Sprint(value), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// InferScale derives the value scale from a currency string like "Rs.'000".
func InferScale(currency string) string {
	if currency == "" {
		return ScaleUnit
	}
	c := strings.ToLower(currency)
	switch {
	case strings.Contains(c, "000"):
		return ScaleThousands
	case strings.Contains(c, "million"):
		return ScaleMillions
	case strings.Contains(c, "billion"):
		return ScaleBillions
	}
	return ScaleUnit
}

// TableFact is an extracted financial fact plus the metric entity it
// anchors to.
type TableFact struct {
	Fact   graphstore.FinancialFact
	Metric string
	Scope  string
}

// FactsFromTable extracts financial facts from one table. Only tables
// typed financial_statement are considered; each parseable Scope_Year
// column crossed with each classifiable row label yields one fact.
func FactsFromTable(table document.Table) []TableFact {
	if table.Type != "financial_statement" {
		return nil
	}

	scale := InferScale(table.Currency)

	type colMeta struct {
		key   string
		scope string
		year  string
	}
	var cols []colMeta
	for _, col := range table.Columns {
		if scope, year, ok := ParseColumn(col); ok {
			cols = append(cols, colMeta{key: col, scope: scope, year: year})
		}
	}
	if len(cols) == 0 {
		return nil
	}

	var facts []TableFact
	for _, row := range table.Rows {
		label, _ := row["item"].(string)
		if label == "" {
			continue
		}
		metric := ClassifyMetric(label)
		if metric == "" {
			continue
		}

		for _, col := range cols {
			value, ok := NormalizeNumber(rowValue(row, col.key))
			if !ok {
				continue
			}
			facts = append(facts, TableFact{
				Fact: graphstore.FinancialFact{
					Metric:      metric,
					Value:       value,
					Unit:        table.Currency,
					Scale:       scale,
					PeriodType:  FactPeriodYear,
					PeriodValue: col.year,
					Confidence:  "HIGH",
				},
				Metric: metric,
				Scope:  col.scope,
			})
		}
	}
	return facts
}

// rowValue looks a column up case-insensitively; parsed table rows are not
// consistent about column-name casing.
func rowValue(row map[string]any, key string) any {
	if v, ok := row[key]; ok {
		return v
	}
	lower := strings.ToLower(key)
	for k, v := range row {
		if strings.ToLower(k) == lower {
			return v
		}
	}
	return nil
}
