package dataprocessing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/pkg/contracts/domain"
)

var testColumns = map[domain.Field]string{
	domain.FieldPrimaryOutcomeArea:    "C",
	domain.FieldIndicatorCategory:     "D",
	domain.FieldIndicatorName:         "E",
	domain.FieldIndicatorDescription:  "F",
	domain.FieldOutputTargetNumber:    "G",
	domain.FieldCompletedOutputNumber: "H",
	domain.FieldProjectStatus:         "I",
	domain.FieldProgressNotes:         "J",
	domain.FieldSupportingDocument:    "K",
}

func num(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func quarter(entity string, year, q, row int) domain.QuarterRecord {
	return domain.QuarterRecord{
		EntityID: entity,
		Period:   domain.Period{Year: year, Quarter: q},
		Source:   domain.SourceRef{File: "a.xlsx", Sheet: "RBMF", Row: row, Columns: testColumns},
	}
}

func group(records ...domain.QuarterRecord) QuarterGroup {
	return QuarterGroup{
		File:     records[0].Source.File,
		EntityID: records[0].EntityID,
		HalfYear: records[0].Period.Half(),
		Records:  records,
	}
}

func TestAggregateSumsCompleted(t *testing.T) {
	q1 := quarter("E1", 2024, 1, 2)
	q1.PrimaryOutcomeArea = "Energy"
	q1.CompletedOutputNumber = num("5")
	q1.OutputTargetNumber = num("10")
	q1.ProjectStatus = "Active"

	q2 := quarter("E1", 2024, 2, 3)
	q2.PrimaryOutcomeArea = "Energy"
	q2.CompletedOutputNumber = num("3")
	q2.OutputTargetNumber = num("10")
	q2.ProjectStatus = "Active"

	log := NewValidationLog()
	out, ok := NewAggregator(nil).Aggregate(group(q1, q2), log)
	require.True(t, ok)

	assert.Equal(t, "E1", out.EntityID)
	assert.Equal(t, "2024H1", out.HalfYear.Cycle())
	assert.Equal(t, "8", domain.FormatNullDecimal(out.PeriodicalResult))
	assert.Equal(t, "10", domain.FormatNullDecimal(out.PeriodicalTarget))
	assert.Equal(t, "Active", out.IndicatorStatus)
	assert.Equal(t, []int{1, 2}, out.Quarters)
	assert.Zero(t, log.Len())
}

func TestAggregateDivergentOutcome(t *testing.T) {
	q1 := quarter("E2", 2024, 1, 5)
	q1.PrimaryOutcomeArea = "Energy"
	q2 := quarter("E2", 2024, 2, 9)
	q2.PrimaryOutcomeArea = "Environment"

	log := NewValidationLog()
	out, ok := NewAggregator(nil).Aggregate(group(q1, q2), log)
	require.True(t, ok)

	assert.Equal(t, "Energy", out.PrimaryOutcomeArea)
	require.Equal(t, 1, log.Len())

	e := log.Entries()[0]
	assert.Equal(t, domain.FieldPrimaryOutcomeArea, e.Field)
	assert.Equal(t, 1, e.ChosenQuarter)
	assert.Equal(t, "Energy", e.Resolution)
	assert.Equal(t, "RBMF!C5, RBMF!C9", e.Locator)
	assert.Equal(t, []domain.QuarterValue{
		{Quarter: 1, Value: "Energy", Cell: "RBMF!C5"},
		{Quarter: 2, Value: "Environment", Cell: "RBMF!C9"},
	}, e.Values)
}

func TestAggregateSecondHalfPartial(t *testing.T) {
	q4 := quarter("E3", 2024, 4, 7)
	q4.CompletedOutputNumber = num("4")
	q4.ProjectStatus = "Completed"

	out, ok := NewAggregator(nil).Aggregate(group(q4), NewValidationLog())
	require.True(t, ok)

	assert.Equal(t, "2024H2", out.HalfYear.Cycle())
	assert.Equal(t, "4", domain.FormatNullDecimal(out.PeriodicalResult))
	assert.Equal(t, []int{4}, out.Quarters)
}

func TestAggregateAllNullResult(t *testing.T) {
	q1 := quarter("E4", 2024, 1, 2)
	q2 := quarter("E4", 2024, 2, 3)

	out, ok := NewAggregator(nil).Aggregate(group(q1, q2), NewValidationLog())
	require.True(t, ok)

	assert.False(t, out.PeriodicalResult.Valid, "all-null quarters must not sum to zero")
	assert.Equal(t, "", domain.FormatNullDecimal(out.PeriodicalResult))
}

func TestAggregateZeroIsNotNull(t *testing.T) {
	q1 := quarter("E5", 2024, 1, 2)
	q1.CompletedOutputNumber = num("0")
	q2 := quarter("E5", 2024, 2, 3)

	out, _ := NewAggregator(nil).Aggregate(group(q1, q2), nil)
	assert.True(t, out.PeriodicalResult.Valid)
	assert.Equal(t, "0", domain.FormatNullDecimal(out.PeriodicalResult))
}

func TestAggregateStatusTakesLatest(t *testing.T) {
	q1 := quarter("E6", 2024, 1, 2)
	q1.ProjectStatus = "Active"
	q1.SupportingDocument = "q1.pdf"
	q2 := quarter("E6", 2024, 2, 3)
	q2.ProjectStatus = "Completed"
	q2.SupportingDocument = "q2.pdf"

	log := NewValidationLog()
	out, _ := NewAggregator(nil).Aggregate(group(q1, q2), log)

	assert.Equal(t, "Completed", out.IndicatorStatus)
	assert.Equal(t, "q2.pdf", out.SupportingDocument)
	assert.Zero(t, log.Len(), "status changes are expected and not logged")
}

func TestAggregateStatusFallsBackToEarlierQuarter(t *testing.T) {
	q1 := quarter("E7", 2024, 1, 2)
	q1.ProjectStatus = "Active"
	q1.SupportingDocument = "q1.pdf"
	q2 := quarter("E7", 2024, 2, 3)
	q2.SupportingDocument = "q2.pdf"

	out, _ := NewAggregator(nil).Aggregate(group(q1, q2), nil)

	assert.Equal(t, "Active", out.IndicatorStatus)
	assert.Equal(t, "q1.pdf", out.SupportingDocument)
}

func TestAggregateEmptyGroup(t *testing.T) {
	_, ok := NewAggregator(nil).Aggregate(QuarterGroup{EntityID: "E8"}, nil)
	assert.False(t, ok)
}

func TestSumPresent(t *testing.T) {
	assert.False(t, SumPresent(nil).Valid)
	assert.Equal(t, "7.5", SumPresent([]decimal.NullDecimal{num("2.5"), {}, num("5")}).Decimal.String())
}

func TestGroupRecords(t *testing.T) {
	b1 := quarter("B", 2024, 3, 4)
	a2 := quarter("A", 2024, 2, 3)
	a1 := quarter("A", 2024, 1, 2)
	a4 := quarter("A", 2024, 4, 5)
	dup := quarter("A", 2024, 1, 6)
	other := quarter("A", 2024, 1, 2)
	other.Source.File = "b.xlsx"
	prev := quarter("A", 2023, 4, 7)

	groups, dups := GroupRecords([]domain.QuarterRecord{b1, a2, a1, a4, dup, other, prev})

	require.Len(t, dups, 1)
	assert.Equal(t, 6, dups[0].Source.Row)

	require.Len(t, groups, 5)
	keys := make([]string, len(groups))
	for i, g := range groups {
		keys[i] = g.File + "/" + g.EntityID + "/" + g.HalfYear.String()
	}
	assert.Equal(t, []string{
		"a.xlsx/A/2023-H2",
		"a.xlsx/A/2024-H1",
		"a.xlsx/A/2024-H2",
		"a.xlsx/B/2024-H2",
		"b.xlsx/A/2024-H1",
	}, keys)

	h1 := groups[1]
	require.Len(t, h1.Records, 2)
	assert.Equal(t, 1, h1.Records[0].Period.Quarter)
	assert.Equal(t, 2, h1.Records[1].Period.Quarter)
}

func TestLatestPresent(t *testing.T) {
	_, ok := latestPresent(nil)
	assert.False(t, ok)

	cands := []candidate{{quarter: 3, value: "Active"}, {quarter: 4, value: "Closed"}}
	chosen, ok := latestPresent(cands)
	require.True(t, ok)
	assert.Equal(t, "Closed", chosen.value)

	earliest, _, _ := earliestPresent(cands)
	assert.Equal(t, "Active", earliest.value, "the two policies pick opposite ends")
}
