package util

import "golang.org/x/exp/constraints"

// Matrix2 is a sparse two-dimensional map keyed first by X then by Y.
type Matrix2[X, Y constraints.Ordered, E any] map[X]map[Y]E

func NewMatrix2[X, Y constraints.Ordered, E any]() Matrix2[X, Y, E] {
	return map[X]map[Y]E{}
}

// Set sets the element at (x, y).
func (m Matrix2[X, Y, E]) Set(x X, y Y, e E) {
	row, ok := m[x]
	if !ok {
		row = map[Y]E{}
		m[x] = row
	}
	row[y] = e
}

// Get returns the element at (x, y). If no element is set there, nil is
// returned.
func (m Matrix2[X, Y, E]) Get(x X, y Y) *E {
	row, ok := m[x]
	if !ok {
		return nil
	}
	e, ok := row[y]
	if !ok {
		return nil
	}
	return &e
}

// Xs returns all X keys in ascending order.
func (m Matrix2[X, Y, E]) Xs() []X {
	return OrderedKeys(m)
}

// Ys returns every Y key used in any row, in ascending order.
func (m Matrix2[X, Y, E]) Ys() []Y {
	all := map[Y]bool{}
	for x := range m {
		for y := range m[x] {
			all[y] = true
		}
	}
	return OrderedKeys(all)
}

// Len returns the number of populated cells.
func (m Matrix2[X, Y, E]) Len() int {
	var n int
	for x := range m {
		n += len(m[x])
	}
	return n
}
