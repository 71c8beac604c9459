package edgar

import (
	"time"
)

// MetricTags maps friendly metric names to their us-gaap XBRL tags.
var MetricTags = map[string]string{
	"shares_outstanding":               "CommonStockSharesOutstanding",
	"eps_basic":                        "EarningsPerShareBasic",
	"eps_diluted":                      "EarningsPerShareDiluted",
	"dividends_per_share":              "CommonStockDividendsPerShareDeclared",
	"revenue":                          "Revenues",
	"net_income":                       "NetIncomeLoss",
	"total_assets":                     "Assets",
	"total_liabilities":                "Liabilities",
	"equity":                           "StockholdersEquity",
	"cash_and_cash_equivalents":        "CashAndCashEquivalentsAtCarryingValue",
	"operating_cash_flow":              "NetCashProvidedByUsedInOperatingActivities",
	"capital_expenditures":             "PaymentsToAcquirePropertyPlantAndEquipment",
	"gross_profit":                     "GrossProfit",
	"operating_income":                 "OperatingIncomeLoss",
	"research_and_development_expense": "ResearchAndDevelopmentExpense",
}

// CompanyFacts is the EDGAR companyfacts document: every XBRL fact the
// company has filed, grouped by taxonomy and tag.
type CompanyFacts struct {
	CIK        int                           `json:"cik"`
	EntityName string                        `json:"entityName"`
	Facts      map[string]map[string]Concept `json:"facts"`
}

// Concept is one XBRL tag with its reported values per unit.
type Concept struct {
	Label       string            `json:"label"`
	Description string            `json:"description"`
	Units       map[string][]Fact `json:"units"`
}

// Fact is a single reported value for a concept.
type Fact struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Val   float64 `json:"val"`
	Accn  string  `json:"accn"`
	FY    int     `json:"fy"`
	FP    string  `json:"fp"`
	Form  string  `json:"form"`
	Filed string  `json:"filed"`
	Frame string  `json:"frame,omitempty"`
}

// PeriodType classifies the span a fact covers.
type PeriodType string

const (
	PeriodQuarterly  PeriodType = "Quarterly"
	PeriodHalfYear   PeriodType = "Half-Year"
	PeriodYearToDate PeriodType = "Year-to-Date"
	PeriodAnnual     PeriodType = "Annual"
)

// MetricPoint is one extracted data point for a metric.
type MetricPoint struct {
	Start      string     `json:"start"`
	End        string     `json:"end"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Accn       string     `json:"accn"`
	FY         int        `json:"fy"`
	FP         string     `json:"fp"`
	Form       string     `json:"form"`
	Filed      string     `json:"filed"`
	PeriodType PeriodType `json:"period_type"`
}

// FinancialData bundles extracted metrics with company identity.
type FinancialData struct {
	Ticker      string                   `json:"ticker"`
	CompanyName string                   `json:"company_name"`
	CIK         string                   `json:"cik"`
	Metrics     map[string][]MetricPoint `json:"metrics"`
}

const factDateLayout = "2006-01-02"

// ExtractMetric collects all values reported under the us-gaap tag whose
// period end falls within [start, end]. Zero times disable the
// corresponding bound. Facts without parseable start/end dates are skipped.
func (cf *CompanyFacts) ExtractMetric(tag string, start, end time.Time) []MetricPoint {
	usGAAP, ok := cf.Facts["us-gaap"]
	if !ok {
		return nil
	}
	concept, ok := usGAAP[tag]
	if !ok {
		return nil
	}

	var points []MetricPoint
	for unit, facts := range concept.Units {
		for _, fact := range facts {
			factEnd, err := time.Parse(factDateLayout, fact.End)
			if err != nil {
				continue
			}
			factStart, err := time.Parse(factDateLayout, fact.Start)
			if err != nil {
				continue
			}
			if !start.IsZero() && factEnd.Before(start) {
				continue
			}
			if !end.IsZero() && factEnd.After(end) {
				continue
			}

			points = append(points, MetricPoint{
				Start:      fact.Start,
				End:        fact.End,
				Value:      fact.Val,
				Unit:       unit,
				Accn:       fact.Accn,
				FY:         fact.FY,
				FP:         fact.FP,
				Form:       fact.Form,
				Filed:      fact.Filed,
				PeriodType: classifyPeriod(factStart, factEnd),
			})
		}
	}
	return points
}

// classifyPeriod buckets a reporting span by its length in days.
func classifyPeriod(start, end time.Time) PeriodType {
	days := int(end.Sub(start).Hours() / 24)
	switch {
	case days <= 95:
		return PeriodQuarterly
	case days <= 185:
		return PeriodHalfYear
	case days <= 280:
		return PeriodYearToDate
	default:
		return PeriodAnnual
	}
}
