package model

import "math"

// TerrainType classifies one cell of the arena floor plan.
type TerrainType byte

const (
	Floor TerrainType = 0 // open ground
	Wall  TerrainType = 1 // blocks movement and sight
	Glass TerrainType = 2 // blocks movement, not sight
)

// BlocksMovement reports whether hulls collide with the cell.
func (t TerrainType) BlocksMovement() bool { return t == Wall || t == Glass }

// BlocksSight reports whether line-of-sight traces stop at the cell.
func (t TerrainType) BlocksSight() bool { return t == Wall }

// TerrainGrid is a row-major floor plan of square cells anchored at the world
// origin. Everything outside the grid is treated as Wall so actors can never
// leave the arena.
type TerrainGrid struct {
	Cols     int
	Rows     int
	CellSize float64
	Grid     []TerrainType // row-major: Grid[row*Cols + col]
}

// At returns the terrain type at grid coordinates (col, row).
func (g *TerrainGrid) At(col, row int) TerrainType {
	if g == nil {
		return Floor
	}
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return Wall
	}
	idx := row*g.Cols + col
	if idx >= len(g.Grid) {
		return Floor
	}
	return g.Grid[idx]
}

// CellOf converts world coordinates into grid coordinates.
func (g *TerrainGrid) CellOf(x, y float64) (int, int) {
	if g == nil || g.CellSize <= 0 {
		return 0, 0
	}
	return int(math.Floor(x / g.CellSize)), int(math.Floor(y / g.CellSize))
}

// AtPos returns the terrain type under a world position.
func (g *TerrainGrid) AtPos(x, y float64) TerrainType {
	if g == nil || g.CellSize <= 0 {
		return Floor
	}
	col, row := g.CellOf(x, y)
	return g.At(col, row)
}

// CellCenter returns the world coordinates of the center of cell (col, row).
func (g *TerrainGrid) CellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * g.CellSize, (float64(row) + 0.5) * g.CellSize
}

// Width and Height return the arena extent in world units.
func (g *TerrainGrid) Width() float64  { return float64(g.Cols) * g.CellSize }
func (g *TerrainGrid) Height() float64 { return float64(g.Rows) * g.CellSize }

// Overlaps reports whether a circle of the given radius at (x, y) touches any
// cell for which match returns true.
func (g *TerrainGrid) Overlaps(x, y, radius float64, match func(TerrainType) bool) bool {
	if g == nil || g.CellSize <= 0 {
		return false
	}
	minCol, minRow := g.CellOf(x-radius, y-radius)
	maxCol, maxRow := g.CellOf(x+radius, y+radius)
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			if !match(g.At(col, row)) {
				continue
			}
			// closest point of the cell to the circle center
			cx := clampf(x, float64(col)*g.CellSize, float64(col+1)*g.CellSize)
			cy := clampf(y, float64(row)*g.CellSize, float64(row+1)*g.CellSize)
			if math.Hypot(x-cx, y-cy) < radius || (radius == 0 && cx == x && cy == y) {
				return true
			}
		}
	}
	return false
}

// OpenGrid builds an all-floor grid. The boundary walls are implicit.
func OpenGrid(cols, rows int, cellSize float64) *TerrainGrid {
	g := &TerrainGrid{Cols: cols, Rows: rows, CellSize: cellSize, Grid: make([]TerrainType, cols*rows)}
	return g
}

// Set changes one cell; out-of-range coordinates are ignored.
func (g *TerrainGrid) Set(col, row int, t TerrainType) {
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return
	}
	g.Grid[row*g.Cols+col] = t
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
