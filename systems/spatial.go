package systems

import "math"

// SpatialHash is a uniform cell grid over the toroidal world. It returns
// candidate sets only: queries enumerate whole cells and callers must re-check
// exact distances.
type SpatialHash[T comparable] struct {
	cellSize float64
	cols     int
	rows     int
	width    float64
	height   float64
	cells    [][]T
}

// NewSpatialHash creates a grid covering the given world size. Cells tile
// the world exactly so index wrapping matches toroidal adjacency; a world
// size that is not a multiple of the cell size leaves the seam column and
// row narrower than the rest.
func NewSpatialHash[T comparable](width, height, cellSize float64) *SpatialHash[T] {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]T, cols*rows)
	for i := range cells {
		cells[i] = make([]T, 0, 8)
	}

	return &SpatialHash[T]{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Clear removes all items, retaining cell capacity.
func (g *SpatialHash[T]) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an item at the given position.
func (g *SpatialHash[T]) Insert(item T, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], item)
}

// QueryRadius returns every item stored in the (2⌈r/cell⌉+1)² cell
// neighborhood around the center's cell, wrapping indices toroidally.
func (g *SpatialHash[T]) QueryRadius(x, y, radius float64) []T {
	cellRadius := int(math.Ceil(radius / g.cellSize))

	centerCol := int(x / g.cellSize)
	centerRow := int(y / g.cellSize)

	var out []T
	for dr := -cellRadius; dr <= cellRadius; dr++ {
		for dc := -cellRadius; dc <= cellRadius; dc++ {
			col := ((centerCol+dc)%g.cols + g.cols) % g.cols
			row := ((centerRow+dr)%g.rows + g.rows) % g.rows
			out = append(out, g.cells[row*g.cols+col]...)
		}
	}
	return out
}

// QueryRay returns the deduplicated union of all items in cells covered by
// the segment's axis-aligned bounding box expanded by margin. A box that
// straddles the wrap seam is enumerated as the raw index range with each
// index wrapped; cross-seam segments may over- or under-cover, which callers
// tolerate because results are candidates only.
func (g *SpatialHash[T]) QueryRay(x1, y1, x2, y2, margin float64) []T {
	minX := math.Min(x1, x2) - margin
	maxX := math.Max(x1, x2) + margin
	minY := math.Min(y1, y2) - margin
	maxY := math.Max(y1, y2) + margin

	c0 := int(math.Floor(minX / g.cellSize))
	c1 := int(math.Floor(maxX / g.cellSize))
	r0 := int(math.Floor(minY / g.cellSize))
	r1 := int(math.Floor(maxY / g.cellSize))

	if c1-c0+1 > g.cols {
		c0, c1 = 0, g.cols-1
	}
	if r1-r0+1 > g.rows {
		r0, r1 = 0, g.rows-1
	}

	var out []T
	seen := make(map[T]struct{})
	for r := r0; r <= r1; r++ {
		row := (r%g.rows + g.rows) % g.rows
		for c := c0; c <= c1; c++ {
			col := (c%g.cols + g.cols) % g.cols
			for _, item := range g.cells[row*g.cols+col] {
				if _, dup := seen[item]; dup {
					continue
				}
				seen[item] = struct{}{}
				out = append(out, item)
			}
		}
	}
	return out
}

func (g *SpatialHash[T]) cellIndex(x, y float64) int {
	col := int(x / g.cellSize)
	row := int(y / g.cellSize)

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}
