package dataprocessing

import (
	"strings"

	"github.com/shopspring/decimal"

	"rbmfcli/pkg/contracts/domain"
)

// ExpectedConstantFields should not change between the quarters of a half.
// Discrepancies are logged in this order.
var ExpectedConstantFields = []domain.Field{
	domain.FieldPrimaryOutcomeArea,
	domain.FieldIndicatorCategory,
	domain.FieldIndicatorName,
	domain.FieldIndicatorDescription,
	domain.FieldOutputTargetNumber,
	domain.FieldProgressNotes,
}

// QuarterGroup holds the records of one entity within one half-year,
// ascending by quarter.
type QuarterGroup struct {
	File     string
	EntityID string
	HalfYear domain.HalfYear
	Records  []domain.QuarterRecord
}

// Resolved carries the checker's choice for every expected-constant field
type Resolved struct {
	PrimaryOutcomeArea   string
	IndicatorCategory    string
	IndicatorName        string
	IndicatorDescription string
	OutputTargetNumber   decimal.NullDecimal
	ProgressNotes        string
}

// candidate is one quarter's non-null value for a field
type candidate struct {
	quarter int
	value   string
	cell    string
	index   int // position in the group's records
}

// earliestPresent picks the chronologically earliest non-null value. divergent
// reports whether any other present value differs from it.
func earliestPresent(cands []candidate) (chosen candidate, divergent bool, ok bool) {
	if len(cands) == 0 {
		return candidate{}, false, false
	}
	chosen = cands[0]
	for _, c := range cands[1:] {
		if c.value != chosen.value {
			divergent = true
		}
	}
	return chosen, divergent, true
}

// Checker detects cross-quarter divergence in expected-constant fields
type Checker struct{}

// NewChecker creates a consistency checker
func NewChecker() *Checker {
	return &Checker{}
}

// Check resolves every expected-constant field of the group with the
// earliest-present rule and appends one entry per divergent field to log.
func (c *Checker) Check(g QuarterGroup, log *ValidationLog) Resolved {
	var res Resolved
	for _, field := range ExpectedConstantFields {
		cands := fieldCandidates(g.Records, field)
		chosen, divergent, ok := earliestPresent(cands)
		if !ok {
			continue
		}
		if divergent && log != nil {
			log.Append(discrepancy(g, field, cands, chosen))
		}

		switch field {
		case domain.FieldPrimaryOutcomeArea:
			res.PrimaryOutcomeArea = chosen.value
		case domain.FieldIndicatorCategory:
			res.IndicatorCategory = chosen.value
		case domain.FieldIndicatorName:
			res.IndicatorName = chosen.value
		case domain.FieldIndicatorDescription:
			res.IndicatorDescription = chosen.value
		case domain.FieldOutputTargetNumber:
			res.OutputTargetNumber = g.Records[chosen.index].OutputTargetNumber
		case domain.FieldProgressNotes:
			res.ProgressNotes = chosen.value
		}
	}
	return res
}

func fieldCandidates(records []domain.QuarterRecord, field domain.Field) []candidate {
	cands := make([]candidate, 0, len(records))
	for i, rec := range records {
		var v string
		switch field {
		case domain.FieldPrimaryOutcomeArea:
			v = rec.PrimaryOutcomeArea
		case domain.FieldIndicatorCategory:
			v = rec.IndicatorCategory
		case domain.FieldIndicatorName:
			v = rec.IndicatorName
		case domain.FieldIndicatorDescription:
			v = rec.IndicatorDescription
		case domain.FieldOutputTargetNumber:
			v = domain.FormatNullDecimal(rec.OutputTargetNumber)
		case domain.FieldProgressNotes:
			v = rec.ProgressNotes
		case domain.FieldProjectStatus:
			v = rec.ProjectStatus
		}
		if strings.TrimSpace(v) == "" {
			continue
		}
		cands = append(cands, candidate{
			quarter: rec.Period.Quarter,
			value:   v,
			cell:    rec.Source.Cell(field),
			index:   i,
		})
	}
	return cands
}

func discrepancy(g QuarterGroup, field domain.Field, cands []candidate, chosen candidate) domain.DiscrepancyEntry {
	values := make([]domain.QuarterValue, len(cands))
	cells := make([]string, len(cands))
	for i, c := range cands {
		values[i] = domain.QuarterValue{Quarter: c.quarter, Value: c.value, Cell: c.cell}
		cells[i] = c.cell
	}
	return domain.DiscrepancyEntry{
		File:          g.File,
		EntityID:      g.EntityID,
		Field:         field,
		Column:        g.Records[chosen.index].Source.Header(field),
		Values:        values,
		ChosenQuarter: chosen.quarter,
		Resolution:    chosen.value,
		HalfYear:      g.HalfYear,
		Locator:       strings.Join(cells, ", "),
	}
}
