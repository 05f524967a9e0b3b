package application

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-fcem/internal/domain"
)

// minSuggestionSimilarity is the lowest normalized Levenshtein similarity
// for which an unknown name gets a "did you mean" hint.
const minSuggestionSimilarity = 0.5

// RowMapper converts named readings into rows ordered like the model's
// KPIs. Names are matched after Unicode case folding and trimming, so
// "Availability" and " availability " address the same KPI.
//
// A RowMapper is immutable after construction and safe for concurrent use.
type RowMapper struct {
	names    []string
	index    map[string]int
	defaults map[int]float64
}

// RowMapperOption configures a RowMapper.
type RowMapperOption func(*rowMapperOptions)

type rowMapperOptions struct {
	defaults map[string]float64
}

// WithDefaults supplies readings used for KPIs absent from a record.
// Keys are KPI names and are matched like record keys.
func WithDefaults(defaults map[string]float64) RowMapperOption {
	return func(o *rowMapperOptions) {
		o.defaults = defaults
	}
}

// NewRowMapper creates a mapper for the given KPI names in model order.
// Names must be non-empty and unique after case folding. Default readings
// must be finite and name known KPIs.
func NewRowMapper(kpiNames []string, opts ...RowMapperOption) (*RowMapper, error) {
	var o rowMapperOptions
	for _, opt := range opts {
		opt(&o)
	}

	rm := &RowMapper{
		names:    append([]string(nil), kpiNames...),
		index:    make(map[string]int, len(kpiNames)),
		defaults: make(map[int]float64, len(o.defaults)),
	}

	for i, name := range kpiNames {
		key := foldName(name)
		if key == "" {
			return nil, fmt.Errorf("%w: KPI %d has an empty name", domain.ErrInvalidConfiguration, i)
		}
		if prev, ok := rm.index[key]; ok {
			return nil, fmt.Errorf("%w: KPI names %q and %q collide", domain.ErrInvalidConfiguration, kpiNames[prev], name)
		}
		rm.index[key] = i
	}

	for name, v := range o.defaults {
		i, err := rm.lookup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: default reading: %w", domain.ErrInvalidConfiguration, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: default reading for %q is not finite", domain.ErrInvalidConfiguration, name)
		}
		rm.defaults[i] = v
	}

	return rm, nil
}

// Names returns the KPI names in row order.
func (rm *RowMapper) Names() []string {
	return append([]string(nil), rm.names...)
}

// Row orders a single record. Unknown names fail with ErrShapeMismatch and
// a suggestion when a KPI name is close. Missing KPIs without a default
// fail with ErrShapeMismatch.
func (rm *RowMapper) Row(record map[string]float64) ([]float64, error) {
	row := make([]float64, len(rm.names))
	seen := make([]bool, len(rm.names))

	// Sorted keys keep error messages deterministic.
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		i, err := rm.lookup(k)
		if err != nil {
			return nil, err
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: reading for KPI %q given more than once", domain.ErrShapeMismatch, rm.names[i])
		}
		seen[i] = true
		row[i] = record[k]
	}

	var missing []string
	for i, ok := range seen {
		if ok {
			continue
		}
		if v, has := rm.defaults[i]; has {
			row[i] = v
			continue
		}
		missing = append(missing, rm.names[i])
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing readings for %s", domain.ErrShapeMismatch, strings.Join(missing, ", "))
	}

	return row, nil
}

// Rows orders every record. The first failing record aborts the batch and
// is reported by index.
func (rm *RowMapper) Rows(records []map[string]float64) ([][]float64, error) {
	rows := make([][]float64, len(records))
	for i, rec := range records {
		row, err := rm.Row(rec)
		if err != nil {
			return nil, domain.NewEvaluationError("map", i, err)
		}
		rows[i] = row
	}
	return rows, nil
}

// Columns resolves a tabular header to KPI positions. The result holds,
// for each column, the KPI index it feeds. Every KPI without a default
// must appear exactly once.
func (rm *RowMapper) Columns(header []string) ([]int, error) {
	cols := make([]int, len(header))
	seen := make([]bool, len(rm.names))

	for c, name := range header {
		i, err := rm.lookup(name)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", c, err)
		}
		if seen[i] {
			return nil, fmt.Errorf("%w: column %d repeats KPI %q", domain.ErrShapeMismatch, c, rm.names[i])
		}
		seen[i] = true
		cols[c] = i
	}

	for i, ok := range seen {
		if _, has := rm.defaults[i]; !ok && !has {
			return nil, fmt.Errorf("%w: header has no column for KPI %q", domain.ErrShapeMismatch, rm.names[i])
		}
	}

	return cols, nil
}

// Assemble builds a row from values ordered by cols, as returned by
// Columns, filling absent KPIs from defaults.
func (rm *RowMapper) Assemble(cols []int, values []float64) ([]float64, error) {
	if len(values) != len(cols) {
		return nil, fmt.Errorf("%w: got %d values for %d columns", domain.ErrShapeMismatch, len(values), len(cols))
	}

	row := make([]float64, len(rm.names))
	for i, v := range rm.defaults {
		row[i] = v
	}
	for c, i := range cols {
		row[i] = values[c]
	}
	return row, nil
}

func (rm *RowMapper) lookup(name string) (int, error) {
	key := foldName(name)
	if i, ok := rm.index[key]; ok {
		return i, nil
	}

	if s := rm.suggest(key); s != "" {
		return -1, fmt.Errorf("%w: unknown KPI %q, did you mean %q?", domain.ErrShapeMismatch, name, s)
	}
	return -1, fmt.Errorf("%w: unknown KPI %q", domain.ErrShapeMismatch, name)
}

// suggest returns the KPI name closest to key, or "" when nothing is
// similar enough. Ties go to the earlier KPI.
func (rm *RowMapper) suggest(key string) string {
	best, bestSim := -1, 0.0
	for i, name := range rm.names {
		sim := similarity(key, foldName(name))
		if sim > bestSim {
			best, bestSim = i, sim
		}
	}
	if best < 0 || bestSim < minSuggestionSimilarity {
		return ""
	}
	return rm.names[best]
}

// similarity normalizes the rune-level edit distance into [0, 1].
func similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func foldName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
