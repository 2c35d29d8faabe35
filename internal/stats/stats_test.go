package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestMean(t *testing.T) {
	assert.Nil(t, Mean(nil))
	assert.Nil(t, Mean([]*float64{nil, nil}))

	m := Mean([]*float64{f(50), nil, f(70)})
	require.NotNil(t, m)
	assert.InDelta(t, 60.0, *m, 1e-9)
}

func TestKnown(t *testing.T) {
	assert.Equal(t, []float64{1, 3}, Known([]*float64{f(1), nil, f(3)}))
	assert.Empty(t, Known(nil))
}

func TestMedian(t *testing.T) {
	assert.Nil(t, Median(nil))
	assert.InDelta(t, 2.0, *Median([]float64{3, 1, 2}), 1e-9)
	assert.InDelta(t, 2.5, *Median([]float64{4, 1, 3, 2}), 1e-9)
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal(t, []float64{3, 1, 2}, in)
}

func TestPearson(t *testing.T) {
	r := Pearson([]float64{1, 2, 3}, []float64{2, 4, 6})
	require.NotNil(t, r)
	assert.InDelta(t, 1.0, *r, 1e-9)

	r = Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	require.NotNil(t, r)
	assert.InDelta(t, -1.0, *r, 1e-9)

	assert.Nil(t, Pearson([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Nil(t, Pearson([]float64{1}, []float64{1}))
	assert.Nil(t, Pearson([]float64{1, 2}, []float64{1}))
}

func TestCorrelationMatrix(t *testing.T) {
	m := CorrelationMatrix(
		[]string{"a", "b", "c"},
		[][]float64{{1, 2, 3}, {2, 4, 7}, {5, 5, 5}},
	)
	require.Len(t, m.Values, 3)
	assert.InDelta(t, 1.0, *m.Values[0][0], 1e-9)
	assert.Equal(t, m.Values[0][1], m.Values[1][0])
	assert.Nil(t, m.Values[2][2])
	assert.Nil(t, m.Values[0][2])
}
