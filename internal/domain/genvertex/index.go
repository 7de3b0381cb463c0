package genvertex

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// cell addresses one cube of the spatial grid.
type cell struct {
	x, y, z int64
}

// spatialIndex buckets positions on a regular 3D grid whose cell size equals
// the query radius, so every neighbour of a point lies in the surrounding
// 3x3x3 block of cells.
type spatialIndex struct {
	size  float64
	grid  map[cell][]int
	items []r3.Vec
}

func newSpatialIndex(size float64, items []r3.Vec) *spatialIndex {
	si := &spatialIndex{
		size:  size,
		grid:  make(map[cell][]int, len(items)),
		items: items,
	}
	for i, p := range items {
		c := si.cellOf(p)
		si.grid[c] = append(si.grid[c], i)
	}
	return si
}

// maxCell bounds cell coordinates so the neighbour offsets cannot overflow.
const maxCell = 1 << 62

func (si *spatialIndex) cellOf(p r3.Vec) cell {
	return cell{
		x: si.coord(p.X),
		y: si.coord(p.Y),
		z: si.coord(p.Z),
	}
}

// coord clamps far-away positions into the outermost cells; the distance
// check in within keeps them exact.
func (si *spatialIndex) coord(v float64) int64 {
	f := math.Floor(v / si.size)
	switch {
	case f >= maxCell:
		return maxCell
	case f <= -maxCell:
		return -maxCell
	}
	return int64(f)
}

// within calls fn with the index of every item at distance <= radius from p.
// Iteration stops early when fn returns false. radius must not exceed the
// cell size.
func (si *spatialIndex) within(p r3.Vec, radius float64, fn func(i int) bool) {
	c := si.cellOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, i := range si.grid[cell{c.x + dx, c.y + dy, c.z + dz}] {
					if r3.Norm(r3.Sub(si.items[i], p)) <= radius {
						if !fn(i) {
							return
						}
					}
				}
			}
		}
	}
}

// any reports whether some item lies within radius of p.
func (si *spatialIndex) any(p r3.Vec, radius float64) bool {
	found := false
	si.within(p, radius, func(int) bool {
		found = true
		return false
	})
	return found
}
