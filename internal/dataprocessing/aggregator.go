package dataprocessing

import (
	"sort"

	"github.com/shopspring/decimal"

	"rbmfcli/pkg/contracts/domain"
)

// latestPresent picks the chronologically latest non-null value. It is the
// status rule and runs opposite to earliestPresent.
func latestPresent(cands []candidate) (candidate, bool) {
	if len(cands) == 0 {
		return candidate{}, false
	}
	return cands[len(cands)-1], true
}

// SumPresent adds the non-null values. All-null input yields null.
func SumPresent(values []decimal.NullDecimal) decimal.NullDecimal {
	var (
		total   decimal.Decimal
		present bool
	)
	for _, v := range values {
		if !v.Valid {
			continue
		}
		total = total.Add(v.Decimal)
		present = true
	}
	if !present {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(total)
}

// Aggregator merges the quarters of one half into a HalfYearRecord
type Aggregator struct {
	checker *Checker
}

// NewAggregator creates an aggregator; a nil checker gets the default one
func NewAggregator(checker *Checker) *Aggregator {
	if checker == nil {
		checker = NewChecker()
	}
	return &Aggregator{checker: checker}
}

// Aggregate returns false when the group has no quarters.
func (a *Aggregator) Aggregate(g QuarterGroup, log *ValidationLog) (domain.HalfYearRecord, bool) {
	if len(g.Records) == 0 {
		return domain.HalfYearRecord{}, false
	}

	resolved := a.checker.Check(g, log)

	completed := make([]decimal.NullDecimal, len(g.Records))
	quarters := make([]int, len(g.Records))
	for i, rec := range g.Records {
		completed[i] = rec.CompletedOutputNumber
		quarters[i] = rec.Period.Quarter
	}

	// the status source quarter also supplies the supporting document
	statusSource := g.Records[len(g.Records)-1]
	status := ""
	if chosen, ok := latestPresent(fieldCandidates(g.Records, domain.FieldProjectStatus)); ok {
		status = chosen.value
		statusSource = g.Records[chosen.index]
	}

	return domain.HalfYearRecord{
		EntityID:             g.EntityID,
		HalfYear:             g.HalfYear,
		PrimaryOutcomeArea:   resolved.PrimaryOutcomeArea,
		PeriodicalTarget:     resolved.OutputTargetNumber,
		PeriodicalResult:     SumPresent(completed),
		IndicatorStatus:      status,
		IndicatorCategory:    resolved.IndicatorCategory,
		IndicatorName:        resolved.IndicatorName,
		IndicatorDescription: resolved.IndicatorDescription,
		ResultNotes:          resolved.ProgressNotes,
		SupportingDocument:   statusSource.SupportingDocument,
		SourceFile:           g.File,
		Quarters:             quarters,
	}, true
}

// GroupRecords partitions records by (file, entity, half-year). Groups come
// back sorted by file, entity and half; records inside a group ascend by
// quarter. A second record for the same file, entity and period is returned
// in duplicates and left out of the groups.
func GroupRecords(records []domain.QuarterRecord) (groups []QuarterGroup, duplicates []domain.QuarterRecord) {
	type groupKey struct {
		file   string
		entity string
		half   domain.HalfYear
	}
	type periodKey struct {
		file   string
		entity string
		period domain.Period
	}

	seen := make(map[periodKey]bool, len(records))
	index := make(map[groupKey]int)
	for _, rec := range records {
		pk := periodKey{rec.Source.File, rec.EntityID, rec.Period}
		if seen[pk] {
			duplicates = append(duplicates, rec)
			continue
		}
		seen[pk] = true

		gk := groupKey{rec.Source.File, rec.EntityID, rec.Period.Half()}
		i, ok := index[gk]
		if !ok {
			i = len(groups)
			index[gk] = i
			groups = append(groups, QuarterGroup{File: gk.file, EntityID: gk.entity, HalfYear: gk.half})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	for i := range groups {
		recs := groups[i].Records
		sort.SliceStable(recs, func(a, b int) bool { return recs[a].Period.Before(recs[b].Period) })
	}
	sort.SliceStable(groups, func(a, b int) bool {
		ga, gb := groups[a], groups[b]
		if ga.File != gb.File {
			return ga.File < gb.File
		}
		if ga.EntityID != gb.EntityID {
			return ga.EntityID < gb.EntityID
		}
		return ga.HalfYear.Before(gb.HalfYear)
	})
	return groups, duplicates
}
