package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Rithanya654/Generic-RAG/pkg/graphstore"
)

// Year sanity range for all extracted periods.
const (
	minYear = 1990
	maxYear = 2050
)

// calendarContextWindow is how many characters around a bare calendar year
// are scanned for financial context.
const calendarContextWindow = 30

type timeRule struct {
	re    *regexp.Regexp
	build func(groups []string) (label string, year int)
	ptype string
}

// Ordered rule list; earlier rules claim their label first during dedup.
var timeRules = []timeRule{
	{
		re:    regexp.MustCompile(`(?i)\bFY\s?(\d{4})\b`),
		build: func(g []string) (string, int) { return "FY" + g[0], atoi(g[0]) },
		ptype: graphstore.PeriodAnnual,
	},
	{
		re:    regexp.MustCompile(`(?i)\bfiscal\s+year\s+(\d{4})\b`),
		build: func(g []string) (string, int) { return "FY" + g[0], atoi(g[0]) },
		ptype: graphstore.PeriodAnnual,
	},
	{
		// Two-digit fiscal years pivot at 50: FY24 is 2024, FY99 is 1999.
		re: regexp.MustCompile(`(?i)\bFY\s?(\d{2})\b`),
		build: func(g []string) (string, int) {
			year := atoi(g[0])
			if year < 50 {
				year += 2000
			} else {
				year += 1900
			}
			return fmt.Sprintf("FY%d", year), year
		},
		ptype: graphstore.PeriodAnnual,
	},
	{
		re:    regexp.MustCompile(`(?i)\bQ([1-4])\s?FY\s?(\d{4})\b`),
		build: func(g []string) (string, int) { return "Q" + g[0] + "FY" + g[1], atoi(g[1]) },
		ptype: graphstore.PeriodQuarter,
	},
	{
		re:    regexp.MustCompile(`(?i)\bQ([1-4])\s+(\d{4})\b`),
		build: func(g []string) (string, int) { return "Q" + g[0] + "CY" + g[1], atoi(g[1]) },
		ptype: graphstore.PeriodQuarter,
	},
	{
		re:    regexp.MustCompile(`(?i)\bquarter\s+([1-4])\s+(?:of\s+)?(?:FY|fiscal\s+year)?\s*(\d{4})\b`),
		build: func(g []string) (string, int) { return "Q" + g[0] + "FY" + g[1], atoi(g[1]) },
		ptype: graphstore.PeriodQuarter,
	},
	{
		re:    regexp.MustCompile(`(?i)\bH([1-2])\s?FY\s?(\d{4})\b`),
		build: func(g []string) (string, int) { return "H" + g[0] + "FY" + g[1], atoi(g[1]) },
		ptype: graphstore.PeriodHalf,
	},
}

var calendarYearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// Bare calendar years only count near financial context.
var calendarContext = []string{"year", "fy", "fiscal", "quarter", "results", "revenue", "income"}

// TimePeriods extracts unique, high-confidence time periods from text,
// deduplicated by label and sorted by year then period type (ANNUAL before
// HALF before QUARTER before CALENDAR).
func TimePeriods(text string) []graphstore.TimePeriod {
	var periods []graphstore.TimePeriod

	for _, rule := range timeRules {
		for _, match := range rule.re.FindAllStringSubmatch(text, -1) {
			label, year := rule.build(match[1:])
			if year < minYear || year > maxYear {
				continue
			}
			periods = append(periods, graphstore.TimePeriod{
				Label:      label,
				Year:       year,
				PeriodType: rule.ptype,
			})
		}
	}

	for _, match := range calendarYearRe.FindAllStringSubmatchIndex(text, -1) {
		year := atoi(text[match[2]:match[3]])
		if year < minYear || year > maxYear {
			continue
		}
		window := strings.ToLower(text[max(0, match[0]-calendarContextWindow):min(len(text), match[1]+calendarContextWindow)])
		if !containsAny(window, calendarContext) {
			continue
		}
		periods = append(periods, graphstore.TimePeriod{
			Label:      fmt.Sprintf("CY%d", year),
			Year:       year,
			PeriodType: graphstore.PeriodCalendar,
		})
	}

	seen := map[string]bool{}
	unique := periods[:0]
	for _, p := range periods {
		if seen[p.Label] {
			continue
		}
		seen[p.Label] = true
		unique = append(unique, p)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		if unique[i].Year != unique[j].Year {
			return unique[i].Year < unique[j].Year
		}
		return periodTypeOrder(unique[i].PeriodType) < periodTypeOrder(unique[j].PeriodType)
	})
	return unique
}

func periodTypeOrder(ptype string) int {
	switch ptype {
	case graphstore.PeriodAnnual:
		return 0
	case graphstore.PeriodHalf:
		return 1
	case graphstore.PeriodQuarter:
		return 2
	case graphstore.PeriodCalendar:
		return 3
	}
	return 99
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
