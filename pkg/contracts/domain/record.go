package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Field names a logical RBMF column independent of its source header
type Field string

const (
	FieldPeriod                Field = "period"
	FieldEntityID              Field = "entity_id"
	FieldPrimaryOutcomeArea    Field = "primary_outcome_area"
	FieldIndicatorCategory     Field = "indicator_category"
	FieldIndicatorName         Field = "indicator_name"
	FieldIndicatorDescription  Field = "indicator_description"
	FieldCompletedOutputNumber Field = "completed_output_number"
	FieldOutputTargetNumber    Field = "output_target_number"
	FieldProjectStatus         Field = "project_status"
	FieldProgressNotes         Field = "progress_notes"
	FieldSupportingDocument    Field = "supporting_document"
)

// SourceRef locates a record in its source workbook
type SourceRef struct {
	File    string           `json:"file"`
	Sheet   string           `json:"sheet"`
	Row     int              `json:"row"`
	Columns map[Field]string `json:"columns,omitempty"` // column letters, shared read-only
	Headers map[Field]string `json:"-"`                 // source headers, shared read-only
}

// Header returns the source column header of a field, or the field name when
// the header is unknown.
func (s SourceRef) Header(field Field) string {
	if h, ok := s.Headers[field]; ok && h != "" {
		return h
	}
	return string(field)
}

// Cell returns the sheet!cell reference of a field, or the row reference when
// the field has no source column.
func (s SourceRef) Cell(field Field) string {
	if col, ok := s.Columns[field]; ok && col != "" {
		return s.Sheet + "!" + col + strconv.Itoa(s.Row)
	}
	return s.Sheet + "!" + strconv.Itoa(s.Row) + ":" + strconv.Itoa(s.Row)
}

// QuarterRecord is one normalized row of quarterly RBMF data
type QuarterRecord struct {
	EntityID              string              `json:"entity_id" validate:"required"`
	Period                Period              `json:"period"`
	PrimaryOutcomeArea    string              `json:"primary_outcome_area"`
	IndicatorCategory     string              `json:"indicator_category"`
	IndicatorName         string              `json:"indicator_name"`
	IndicatorDescription  string              `json:"indicator_description"`
	CompletedOutputNumber decimal.NullDecimal `json:"completed_output_number"`
	OutputTargetNumber    decimal.NullDecimal `json:"output_target_number"`
	ProjectStatus         string              `json:"project_status"`
	ProgressNotes         string              `json:"progress_notes"`
	SupportingDocument    string              `json:"supporting_document"`
	Source                SourceRef           `json:"source"`
}

// HalfYearRecord is one output row aggregated from one or two quarters
type HalfYearRecord struct {
	EntityID             string              `json:"entity_id"`
	HalfYear             HalfYear            `json:"half_year"`
	PrimaryOutcomeArea   string              `json:"primary_outcome_area"`
	PeriodicalTarget     decimal.NullDecimal `json:"periodical_target"`
	PeriodicalResult     decimal.NullDecimal `json:"periodical_result"`
	IndicatorStatus      string              `json:"indicator_status"`
	IndicatorCategory    string              `json:"indicator_category"`
	IndicatorName        string              `json:"indicator_name"`
	IndicatorDescription string              `json:"indicator_description"`
	ResultNotes          string              `json:"result_notes"`
	SupportingDocument   string              `json:"supporting_document"`

	// Provenance, not part of the output columns
	SourceFile string `json:"source_file"`
	ProjectID  string `json:"project_id,omitempty"`
	Quarters   []int  `json:"quarters"`
}
