// Package mapping rewrites free-text cell values and resolves project IDs
// from the JSON mapping files kept next to the output.
package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/hbollon/go-edlib"
)

// DefaultFuzzyThreshold is the minimum similarity score (0-100) for a fuzzy match
const DefaultFuzzyThreshold = 90

// FuzzyColumns are the only source headers whose values are remapped
var FuzzyColumns = []string{"Primary Outcome Area", "Indicators"}

// columnAliases maps the column names used in older mapping files to source headers
var columnAliases = map[string]string{
	"Strategic Outcome": "Primary Outcome Area",
	"Indicator name":    "Indicators",
}

// ValueMapping is one entry of column_mapping.json
type ValueMapping struct {
	Column        string `json:"column"`
	OriginalValue string `json:"original_value"`
	NewValue      string `json:"new_value"`
}

// ValueMapper replaces known variants of a cell value with its canonical form.
// It satisfies dataprocessing.Normalizer.
type ValueMapper struct {
	threshold int
	byColumn  map[string][]ValueMapping
	logger    *slog.Logger
}

// NewValueMapper builds a mapper over entries. Entries for columns outside
// FuzzyColumns are ignored.
func NewValueMapper(entries []ValueMapping, threshold int, logger *slog.Logger) *ValueMapper {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultFuzzyThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]bool, len(FuzzyColumns))
	for _, c := range FuzzyColumns {
		allowed[c] = true
	}

	byColumn := make(map[string][]ValueMapping)
	for _, e := range entries {
		col := strings.TrimSpace(e.Column)
		if alias, ok := columnAliases[col]; ok {
			col = alias
		}
		if !allowed[col] || strings.TrimSpace(e.OriginalValue) == "" {
			continue
		}
		e.Column = col
		byColumn[col] = append(byColumn[col], e)
	}

	return &ValueMapper{
		threshold: threshold,
		byColumn:  byColumn,
		logger:    logger.With(slog.String("component", "value_mapper")),
	}
}

// LoadValueMapper reads column_mapping.json. A missing file yields a mapper
// that changes nothing.
func LoadValueMapper(path string, threshold int, logger *slog.Logger) (*ValueMapper, error) {
	if path == "" {
		return NewValueMapper(nil, threshold, logger), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Warn("column mapping not found", slog.String("path", path))
		}
		return NewValueMapper(nil, threshold, logger), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read column mapping: %w", err)
	}

	var entries []ValueMapping
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse column mapping %s: %w", path, err)
	}
	m := NewValueMapper(entries, threshold, logger)
	m.logger.Info("column mapping loaded", slog.String("path", path), slog.Int("entries", m.Len()))
	return m, nil
}

// Len returns the number of usable entries
func (m *ValueMapper) Len() int {
	n := 0
	for _, list := range m.byColumn {
		n += len(list)
	}
	return n
}

// Normalize returns the mapped value for header, or value unchanged when no
// entry matches. An exact match wins over any fuzzy one.
func (m *ValueMapper) Normalize(header, value string) string {
	list := m.byColumn[header]
	if len(list) == 0 || strings.TrimSpace(value) == "" {
		return value
	}
	v := strings.TrimSpace(value)

	for _, e := range list {
		if strings.TrimSpace(e.OriginalValue) == v {
			return m.replace(e, value, 100)
		}
	}

	var (
		best      *ValueMapping
		bestScore int
	)
	for i := range list {
		score := Ratio(v, strings.TrimSpace(list[i].OriginalValue))
		if score >= m.threshold && score > bestScore {
			best = &list[i]
			bestScore = score
		}
	}
	if best == nil {
		return value
	}
	return m.replace(*best, value, bestScore)
}

func (m *ValueMapper) replace(e ValueMapping, value string, score int) string {
	if e.NewValue == "" {
		m.logger.Warn("mapping has empty new value, keeping original",
			slog.String("column", e.Column),
			slog.String("value", value))
		return value
	}
	if e.NewValue != value {
		m.logger.Debug("value remapped",
			slog.String("column", e.Column),
			slog.String("from", value),
			slog.String("to", e.NewValue),
			slog.Int("score", score))
	}
	return e.NewValue
}

// Ratio scores the similarity of a and b from 0 to 100 as the normalized
// Levenshtein similarity, rounded. Identical strings score 100 and an empty
// string against a non-empty one scores 0.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	sim, err := edlib.StringsSimilarity(a, b, edlib.Levenshtein)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(sim) * 100))
}
