// Package stats provides the small set of null-aware descriptive statistics
// used by the dashboard: mean, median and Pearson correlation.
package stats

import (
	"math"
	"slices"
)

// Mean returns the arithmetic mean of the non-nil values, or nil if there are none.
func Mean(values []*float64) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	m := sum / float64(n)
	return &m
}

// Known returns the non-nil values in order.
func Known(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// Median returns the median of values, averaging the two middle elements
// for even lengths. It returns nil for an empty input.
func Median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	m := sorted[mid]
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}

// Pearson returns the correlation coefficient of x and y. It is nil when the
// series differ in length, have fewer than two points, or either is constant.
func Pearson(x, y []float64) *float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return nil
	}
	var mx, my float64
	for i := range n {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)

	var sxy, sxx, syy float64
	for i := range n {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nil
	}
	r := sxy / math.Sqrt(sxx*syy)
	return &r
}

// Matrix is a labelled square correlation matrix. Cells are nil where the
// coefficient is undefined.
type Matrix struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
}

// CorrelationMatrix computes pairwise Pearson coefficients between columns.
// All columns must have the same length.
func CorrelationMatrix(labels []string, columns [][]float64) Matrix {
	m := Matrix{Labels: labels, Values: make([][]*float64, len(columns))}
	for i := range columns {
		m.Values[i] = make([]*float64, len(columns))
		for j := range columns {
			if i == j && len(columns[i]) > 1 {
				if Pearson(columns[i], columns[j]) != nil {
					one := 1.0
					m.Values[i][j] = &one
				}
				continue
			}
			m.Values[i][j] = Pearson(columns[i], columns[j])
		}
	}
	return m
}
