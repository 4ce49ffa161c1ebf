package logfile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Series is the merged time-dependent output of every thermo table in a log.
// Consecutive runs of one simulation may print different column sets; rows
// from a run that lacks a column carry NaN for it, so all columns always have
// the same length.
type Series struct {
	order []string
	data  map[string][]float64
	rows  int
}

// NewSeries returns an empty series.
func NewSeries() *Series {
	return &Series{data: make(map[string][]float64)}
}

// Append adds one table row. Columns seen for the first time are backfilled
// with NaN for earlier rows; known columns absent from cols get NaN for this
// row.
func (S *Series) Append(cols []string, vals []float64) {
	for _, col := range cols {
		if _, ok := S.data[col]; !ok {
			back := make([]float64, S.rows, S.rows+1)
			for i := range back {
				back[i] = math.NaN()
			}
			S.data[col] = back
			S.order = append(S.order, col)
		}
	}
	present := make(map[string]float64, len(cols))
	for i, col := range cols {
		present[col] = vals[i]
	}
	for _, col := range S.order {
		if v, ok := present[col]; ok {
			S.data[col] = append(S.data[col], v)
		} else {
			S.data[col] = append(S.data[col], math.NaN())
		}
	}
	S.rows++
}

// Len returns the number of rows.
func (S *Series) Len() int {
	return S.rows
}

// Columns returns the column names in order of first appearance.
func (S *Series) Columns() []string {
	return append([]string(nil), S.order...)
}

// Column returns the values of one column, or nil if absent.
func (S *Series) Column(name string) []float64 {
	col, ok := S.data[name]
	if !ok {
		return nil
	}
	return append([]float64(nil), col...)
}

// Steps returns the Step column, which the input generator guarantees to be
// first in every table.
func (S *Series) Steps() []float64 {
	return S.Column("Step")
}

// Last returns the value of the final row of a column, skipping trailing
// NaN padding. Returns false when the column is absent or all-NaN.
func (S *Series) Last(name string) (float64, bool) {
	col, ok := S.data[name]
	if !ok {
		return 0, false
	}
	for i := len(col) - 1; i >= 0; i-- {
		if !math.IsNaN(col[i]) {
			return col[i], true
		}
	}
	return 0, false
}

// Matrix returns the series as a rows x columns dense matrix in column
// order, with NaN for missing values.
func (S *Series) Matrix() *mat.Dense {
	if S.rows == 0 || len(S.order) == 0 {
		return nil
	}
	m := mat.NewDense(S.rows, len(S.order), nil)
	for j, col := range S.order {
		for i, v := range S.data[col] {
			m.Set(i, j, v)
		}
	}
	return m
}

// Map returns a copy of the underlying columns, keyed by name.
func (S *Series) Map() map[string][]float64 {
	out := make(map[string][]float64, len(S.data))
	keys := make([]string, 0, len(S.data))
	for k := range S.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = append([]float64(nil), S.data[k]...)
	}
	return out
}
