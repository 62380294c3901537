package model

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Isotonic is a non-decreasing piecewise-linear map fitted with the
// pool adjacent violators algorithm. Inputs outside the fitted range are
// clipped to the end points.
type Isotonic struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

type block struct {
	sum    float64
	weight float64
	first  int
	last   int
}

func (b block) value() float64 {
	return b.sum / b.weight
}

// FitIsotonic fits y as a non-decreasing function of x.
func FitIsotonic(x, y []float64) (*Isotonic, error) {
	if len(x) == 0 {
		return nil, errors.New("isotonic regression requires at least one point")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("x (%d) and y (%d) differ in length", len(x), len(y))
	}

	order := make([]int, len(x))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(x[a], x[b])
	})

	// ties in x collapse into one weighted point
	ux := make([]float64, 0, len(x))
	uy := make([]float64, 0, len(x))
	uw := make([]float64, 0, len(x))
	for _, i := range order {
		if n := len(ux); n > 0 && ux[n-1] == x[i] {
			uy[n-1] += y[i]
			uw[n-1]++
			continue
		}
		ux = append(ux, x[i])
		uy = append(uy, y[i])
		uw = append(uw, 1)
	}

	blocks := make([]block, 0, len(ux))
	for i := range ux {
		blocks = append(blocks, block{sum: uy[i], weight: uw[i], first: i, last: i})
		for len(blocks) > 1 {
			k := len(blocks) - 1
			if blocks[k-1].value() <= blocks[k].value() {
				break
			}
			blocks[k-1].sum += blocks[k].sum
			blocks[k-1].weight += blocks[k].weight
			blocks[k-1].last = blocks[k].last
			blocks = blocks[:k]
		}
	}

	// interior points of a flat block do not change the interpolation
	iso := &Isotonic{
		X: make([]float64, 0, 2*len(blocks)),
		Y: make([]float64, 0, 2*len(blocks)),
	}
	for _, b := range blocks {
		v := b.value()
		iso.X = append(iso.X, ux[b.first])
		iso.Y = append(iso.Y, v)
		if b.last != b.first {
			iso.X = append(iso.X, ux[b.last])
			iso.Y = append(iso.Y, v)
		}
	}

	return iso, nil
}

// Predict interpolates the fitted curve at v.
func (iso *Isotonic) Predict(v float64) float64 {
	n := len(iso.X)
	if n == 0 {
		return 0
	}
	if v <= iso.X[0] {
		return iso.Y[0]
	}
	if v >= iso.X[n-1] {
		return iso.Y[n-1]
	}

	// first index with X > v
	hi := sort.Search(n, func(i int) bool { return iso.X[i] > v })
	if hi == n {
		// NaN
		return iso.Y[n-1]
	}
	lo := hi - 1
	x0, x1 := iso.X[lo], iso.X[hi]
	y0, y1 := iso.Y[lo], iso.Y[hi]
	if y0 == y1 {
		return y0
	}
	return y0 + (v-x0)*(y1-y0)/(x1-x0)
}
