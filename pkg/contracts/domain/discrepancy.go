package domain

// QuarterValue is one side of a cross-quarter conflict
type QuarterValue struct {
	Quarter int    `json:"quarter"`
	Value   string `json:"value"`
	Cell    string `json:"cell"`
}

// DiscrepancyEntry records one expected-constant field whose value differs
// between the quarters of a half-year. Entries are never mutated after they
// are appended to a log.
type DiscrepancyEntry struct {
	File          string         `json:"file"`
	EntityID      string         `json:"entity_id"`
	Field         Field          `json:"field"`
	Column        string         `json:"column,omitempty"` // source header of Field
	Values        []QuarterValue `json:"values"`
	ChosenQuarter int            `json:"chosen_quarter"`
	Resolution    string         `json:"resolution"`
	HalfYear      HalfYear       `json:"half_year"`
	Locator       string         `json:"locator"`
}
