package edgar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factsWith(facts ...Fact) *CompanyFacts {
	return &CompanyFacts{
		CIK:        320193,
		EntityName: "Apple Inc.",
		Facts: map[string]map[string]Concept{
			"us-gaap": {
				"Revenues": {
					Label: "Revenues",
					Units: map[string][]Fact{"USD": facts},
				},
			},
		},
	}
}

func TestExtractMetric(t *testing.T) {
	cf := factsWith(
		Fact{Start: "2023-01-01", End: "2023-03-31", Val: 100, Form: "10-Q", FY: 2023, FP: "Q1"},
		Fact{Start: "2023-01-01", End: "2023-12-31", Val: 400, Form: "10-K", FY: 2023, FP: "FY"},
	)

	points := cf.ExtractMetric("Revenues", time.Time{}, time.Time{})
	require.Len(t, points, 2)
	assert.Equal(t, 100.0, points[0].Value)
	assert.Equal(t, "USD", points[0].Unit)
	assert.Equal(t, PeriodQuarterly, points[0].PeriodType)
	assert.Equal(t, PeriodAnnual, points[1].PeriodType)
}

func TestExtractMetricDateBounds(t *testing.T) {
	cf := factsWith(
		Fact{Start: "2022-01-01", End: "2022-12-31", Val: 1},
		Fact{Start: "2023-01-01", End: "2023-12-31", Val: 2},
		Fact{Start: "2024-01-01", End: "2024-12-31", Val: 3},
	)

	// The bound applies to the fact's period end.
	points := cf.ExtractMetric("Revenues",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Value)

	// Zero start keeps everything up to end.
	points = cf.ExtractMetric("Revenues", time.Time{},
		time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
	assert.Len(t, points, 2)

	// Zero end keeps everything from start on.
	points = cf.ExtractMetric("Revenues",
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Time{})
	assert.Len(t, points, 2)
}

func TestExtractMetricSkipsInstantFacts(t *testing.T) {
	// Point-in-time facts carry no start date and are not period metrics.
	cf := factsWith(
		Fact{End: "2023-12-31", Val: 15550061000},
		Fact{Start: "2023-01-01", End: "2023-12-31", Val: 400},
	)

	points := cf.ExtractMetric("Revenues", time.Time{}, time.Time{})
	require.Len(t, points, 1)
	assert.Equal(t, 400.0, points[0].Value)
}

func TestExtractMetricMissingTag(t *testing.T) {
	cf := factsWith(Fact{Start: "2023-01-01", End: "2023-03-31", Val: 100})

	assert.Nil(t, cf.ExtractMetric("NetIncomeLoss", time.Time{}, time.Time{}))

	empty := &CompanyFacts{Facts: map[string]map[string]Concept{}}
	assert.Nil(t, empty.ExtractMetric("Revenues", time.Time{}, time.Time{}))
}

func TestClassifyPeriod(t *testing.T) {
	day := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02", s)
		require.NoError(t, err)
		return ts
	}

	tests := []struct {
		start, end string
		want       PeriodType
	}{
		{"2023-01-01", "2023-03-31", PeriodQuarterly},
		{"2023-01-01", "2023-06-30", PeriodHalfYear},
		{"2023-01-01", "2023-09-30", PeriodYearToDate},
		{"2023-01-01", "2023-12-31", PeriodAnnual},
		{"2023-01-01", "2023-01-31", PeriodQuarterly},
	}

	for _, tt := range tests {
		got := classifyPeriod(day(tt.start), day(tt.end))
		assert.Equal(t, tt.want, got, "%s..%s", tt.start, tt.end)
	}
}

func TestMetricTagsCoverCoreFinancials(t *testing.T) {
	for _, name := range []string{"revenue", "net_income", "eps_basic", "total_assets", "operating_cash_flow"} {
		assert.Contains(t, MetricTags, name)
	}
	assert.Equal(t, "Revenues", MetricTags["revenue"])
	assert.Equal(t, "NetIncomeLoss", MetricTags["net_income"])
}
