package dataprocessing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/pkg/contracts/domain"
)

func TestValidationLogRender(t *testing.T) {
	log := NewValidationLog()
	log.Append(domain.DiscrepancyEntry{
		File:     "a.xlsx",
		EntityID: "E2",
		Field:    domain.FieldPrimaryOutcomeArea,
		Column:   "Primary Outcome Area",
		Values: []domain.QuarterValue{
			{Quarter: 1, Value: "Energy", Cell: "RBMF!C5"},
			{Quarter: 2, Value: "Environment", Cell: "RBMF!C9"},
		},
		ChosenQuarter: 1,
		Resolution:    "Energy",
		HalfYear:      domain.HalfYear{Year: 2024, Half: 1},
		Locator:       "RBMF!C5, RBMF!C9",
	})

	want := "File: a.xlsx\n" +
		"Issue: Primary Outcome Area differs between quarters\n" +
		"Details: Q1=Energy, Q2=Environment for entity E2\n" +
		"Action: Used Q1 value 'Energy' for 2024-H1\n" +
		"Row/Column: RBMF!C5, RBMF!C9\n" +
		"\n"
	assert.Equal(t, want, log.String())
}

func TestValidationLogIssueFallsBackToField(t *testing.T) {
	log := NewValidationLog()
	log.Append(domain.DiscrepancyEntry{
		File:     "a.xlsx",
		EntityID: "E2",
		Field:    domain.FieldProjectStatus,
		HalfYear: domain.HalfYear{Year: 2024, Half: 1},
	})
	assert.Contains(t, log.String(), "Issue: project_status differs between quarters\n")
}

func TestValidationLogOrderAndCopy(t *testing.T) {
	log := NewValidationLog()
	assert.Equal(t, "", log.String())

	log.Append(domain.DiscrepancyEntry{EntityID: "A"})
	log.Append(domain.DiscrepancyEntry{EntityID: "B"})

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "A", entries[0].EntityID)
	assert.Equal(t, "B", entries[1].EntityID)

	entries[0].EntityID = "changed"
	assert.Equal(t, "A", log.Entries()[0].EntityID)

	assert.Equal(t, 2, strings.Count(log.String(), "File: "))
}
