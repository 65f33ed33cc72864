package geom

import "fmt"

type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func (c Cell) Add(o Cell) Cell { return Cell{X: c.X + o.X, Z: c.Z + o.Z} }
func (c Cell) Sub(o Cell) Cell { return Cell{X: c.X - o.X, Z: c.Z - o.Z} }

func (c Cell) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Z) }

// Size is a footprint extent in cells along x and z.
type Size struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Rotated swaps the axes, as a quarter turn does.
func (s Size) Rotated() Size { return Size{X: s.Z, Z: s.X} }

func (s Size) IsSquare() bool { return s.X == s.Z }

// IsCentered reports whether a pivot cell sits exactly at the geometric center,
// which needs both extents to be odd.
func (s Size) IsCentered() bool { return s.X%2 != 0 && s.Z%2 != 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.X, s.Z) }

// Rect is an inclusive cell rectangle.
type Rect struct {
	MinX, MinZ int
	MaxX, MaxZ int
}

func RectOf(c Cell) Rect { return Rect{MinX: c.X, MinZ: c.Z, MaxX: c.X, MaxZ: c.Z} }

func (r Rect) Width() int { return r.MaxX - r.MinX + 1 }
func (r Rect) Depth() int { return r.MaxZ - r.MinZ + 1 }
func (r Rect) Size() Size { return Size{X: r.Width(), Z: r.Depth()} }

func (r Rect) Contains(c Cell) bool {
	return c.X >= r.MinX && c.X <= r.MaxX && c.Z >= r.MinZ && c.Z <= r.MaxZ
}

// Encapsulate grows r to include c.
func (r Rect) Encapsulate(c Cell) Rect {
	r.MinX = min(r.MinX, c.X)
	r.MinZ = min(r.MinZ, c.Z)
	r.MaxX = max(r.MaxX, c.X)
	r.MaxZ = max(r.MaxZ, c.Z)
	return r
}

func (r Rect) Union(o Rect) Rect {
	return r.Encapsulate(Cell{X: o.MinX, Z: o.MinZ}).Encapsulate(Cell{X: o.MaxX, Z: o.MaxZ})
}

// Cells lists the rect row by row, bottom to top.
func (r Rect) Cells() []Cell {
	if r.MaxX < r.MinX || r.MaxZ < r.MinZ {
		return nil
	}
	out := make([]Cell, 0, r.Width()*r.Depth())
	for z := r.MinZ; z <= r.MaxZ; z++ {
		for x := r.MinX; x <= r.MaxX; x++ {
			out = append(out, Cell{X: x, Z: z})
		}
	}
	return out
}

// CenterCell is the origin of a rect in its unrotated orientation: the lower-left
// cell shifted by half the extent, rounding down.
func (r Rect) CenterCell() Cell {
	return Cell{X: r.MinX + (r.Width()-1)/2, Z: r.MinZ + (r.Depth()-1)/2}
}

// BoundingRect returns the smallest rect covering every cell. ok is false for an
// empty input.
func BoundingRect(cells []Cell) (r Rect, ok bool) {
	if len(cells) == 0 {
		return Rect{}, false
	}
	r = RectOf(cells[0])
	for _, c := range cells[1:] {
		r = r.Encapsulate(c)
	}
	return r, true
}
