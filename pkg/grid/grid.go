// Package grid converts between linear indexes and coordinates of row-major
// cell grids.
package grid

// GetGridCoords returns the column and row of index in a grid cols wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// GetIndex returns the linear index of (x, y) in a grid cols wide.
func GetIndex(x, y, cols int) int {
	return y*cols + x
}

// Wrap folds v into [0, size).
func Wrap(v, size int) int {
	v %= size
	if v < 0 {
		v += size
	}
	return v
}
