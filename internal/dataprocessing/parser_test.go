package dataprocessing

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbmfcli/internal/shared/testutil"
	"rbmfcli/pkg/contracts/domain"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		token   string
		want    domain.Period
		wantErr bool
	}{
		{token: "2024-1", want: domain.Period{Year: 2024, Quarter: 1}},
		{token: "2024 - Q3", want: domain.Period{Year: 2024, Quarter: 3}},
		{token: " 2025-q4 ", want: domain.Period{Year: 2025, Quarter: 4}},
		{token: "2024-Q5", wantErr: true},
		{token: "2024-0", wantErr: true},
		{token: "2024", wantErr: true},
		{token: "Q1-2024", wantErr: true},
		{token: "2024-1-2", wantErr: true},
		{token: "24-1", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParsePeriod(tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNullDecimal(t *testing.T) {
	v, err := ParseNullDecimal("")
	require.NoError(t, err)
	assert.False(t, v.Valid, "blank must be null, not zero")

	v, err = ParseNullDecimal("0")
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.True(t, v.Decimal.IsZero())

	v, err = ParseNullDecimal(" 1,250.5 ")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", v.Decimal.String())

	_, err = ParseNullDecimal("n/a")
	assert.Error(t, err)
}

func rawRow(values map[string]string) RawRow {
	return RawRow{
		File:    "a.xlsx",
		Sheet:   "RBMF",
		Index:   5,
		Values:  values,
		Columns: map[string]string{"Indicator_ID": "A", "Reporting Year - Quarter": "B", "Primary Outcome Area": "C"},
	}
}

func TestParseRow(t *testing.T) {
	mapping := DefaultColumnMapping()

	t.Run("valid row", func(t *testing.T) {
		rec, err := ParseRow(rawRow(map[string]string{
			"Indicator_ID":             "E 1",
			"Reporting Year - Quarter": "2024-2",
			"Primary Outcome Area":     "Energy",
			"Completed Output Number":  "3",
			"Output Target Number":     "",
		}), mapping)
		require.NoError(t, err)

		assert.Equal(t, "E1", rec.EntityID)
		assert.Equal(t, domain.Period{Year: 2024, Quarter: 2}, rec.Period)
		assert.Equal(t, "Energy", rec.PrimaryOutcomeArea)
		assert.Equal(t, "3", rec.CompletedOutputNumber.Decimal.String())
		assert.False(t, rec.OutputTargetNumber.Valid)
		assert.Equal(t, "RBMF!C5", rec.Source.Cell(domain.FieldPrimaryOutcomeArea))
		assert.Equal(t, "RBMF!5:5", rec.Source.Cell(domain.FieldProgressNotes))
		assert.Equal(t, "Primary Outcome Area", rec.Source.Header(domain.FieldPrimaryOutcomeArea))
	})

	t.Run("bad period", func(t *testing.T) {
		_, err := ParseRow(rawRow(map[string]string{
			"Indicator_ID":             "E1",
			"Reporting Year - Quarter": "2024-Q5",
		}), mapping)
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 5, pe.Row)
		assert.Equal(t, "Reporting Year - Quarter", pe.Field)
		assert.Equal(t, "2024-Q5", pe.Value)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := ParseRow(rawRow(map[string]string{"Indicator_ID": "E1"}), mapping)
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "missing required column", pe.Reason)
	})

	t.Run("empty id", func(t *testing.T) {
		_, err := ParseRow(rawRow(map[string]string{
			"Indicator_ID":             " ",
			"Reporting Year - Quarter": "2024-1",
		}), mapping)
		assert.Error(t, err)
	})

	t.Run("non-numeric completed", func(t *testing.T) {
		_, err := ParseRow(rawRow(map[string]string{
			"Indicator_ID":             "E1",
			"Reporting Year - Quarter": "2024-1",
			"Completed Output Number":  "five",
		}), mapping)
		var pe *ParseError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, "Completed Output Number", pe.Field)
	})
}

func TestColumnMappingMerge(t *testing.T) {
	base := DefaultColumnMapping()
	merged := base.Merge(map[string]string{
		string(domain.FieldEntityID): " ID ",
		string(domain.FieldPeriod):   "",
	})

	assert.Equal(t, "ID", merged[domain.FieldEntityID])
	assert.Equal(t, "Reporting Year - Quarter", merged[domain.FieldPeriod])
	assert.Equal(t, "Indicator_ID", base[domain.FieldEntityID], "base must not change")
}

type upperNormalizer struct{}

func (upperNormalizer) Normalize(header, value string) string {
	if header == "Primary Outcome Area" {
		return "Energy"
	}
	return value
}

func TestSheetReaderReadFile(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)

	t.Run("reads rows below header", func(t *testing.T) {
		path := filepath.Join(dir, "banner.xlsx")
		testutil.WriteWorkbook(t, path, map[string][][]string{
			"RBMF": {
				{"Quarterly report"},
				{},
				testutil.RBMFHeaders,
				testutil.RBMFRow{ID: "E1", Period: "2024-1", Outcome: "energy", Completed: "5"}.Cells(),
				{},
				testutil.RBMFRow{ID: "E1", Period: "2024-2", Outcome: "Energy", Completed: "3"}.Cells(),
			},
		})

		reader := NewSheetReader("", nil, upperNormalizer{}, logger)
		rows, err := reader.ReadFile(path, "banner.xlsx")
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 4, rows[0].Index)
		assert.Equal(t, 6, rows[1].Index)
		assert.Equal(t, "Energy", rows[0].Values["Primary Outcome Area"])
		assert.Equal(t, "C", rows[0].Columns["Primary Outcome Area"])
		assert.Equal(t, "banner.xlsx", rows[0].File)
	})

	t.Run("case-insensitive sheet name", func(t *testing.T) {
		path := filepath.Join(dir, "lower.xlsx")
		testutil.WriteWorkbook(t, path, map[string][][]string{
			"rbmf": {testutil.RBMFHeaders, testutil.RBMFRow{ID: "E1", Period: "2024-1"}.Cells()},
		})

		rows, err := NewSheetReader("RBMF", nil, nil, logger).ReadFile(path, "lower.xlsx")
		require.NoError(t, err)
		assert.Len(t, rows, 1)
		assert.Equal(t, "rbmf", rows[0].Sheet)
	})

	t.Run("missing tab", func(t *testing.T) {
		path := filepath.Join(dir, "other.xlsx")
		testutil.WriteWorkbook(t, path, map[string][][]string{"Summary": {{"x"}}})

		_, err := NewSheetReader("RBMF", nil, nil, logger).ReadFile(path, "other.xlsx")
		var mt *MissingTabError
		require.True(t, errors.As(err, &mt))
		assert.Equal(t, "other.xlsx", mt.File)
	})

	t.Run("unreadable file", func(t *testing.T) {
		_, err := NewSheetReader("RBMF", nil, nil, logger).ReadFile(filepath.Join(dir, "nope.xlsx"), "nope.xlsx")
		assert.Error(t, err)
	})
}
