package geom

// TrueCenter2 returns the geometric center of a footprint relative to its pivot
// cell, in half-cell units, for a footprint of size facing rot.
func TrueCenter2(size Size, rot Rot4) Cell {
	if size.X == 1 && size.Z == 1 {
		return Cell{}
	}
	rot = NormalizeRotation(int(rot))
	s := size
	if rot.IsHorizontal() {
		s = s.Rotated()
	}
	var c Cell
	switch rot {
	case North:
		c.X, c.Z = evenStep(s.X, 1), evenStep(s.Z, 1)
	case East:
		c.X, c.Z = evenStep(s.X, 1), evenStep(s.Z, -1)
	case South:
		c.X, c.Z = evenStep(s.X, -1), evenStep(s.Z, -1)
	case West:
		c.X, c.Z = evenStep(s.X, -1), evenStep(s.Z, 1)
	}
	return c
}

func evenStep(extent, sign int) int {
	if extent%2 == 0 {
		return sign
	}
	return 0
}

// PivotOffset is the whole-cell shift between the true center of a footprint
// facing from and the same footprint facing to. Half cells truncate toward zero.
func PivotOffset(size Size, from, to Rot4) Cell {
	a := TrueCenter2(size, from)
	b := TrueCenter2(size, to)
	return Cell{X: (a.X - b.X) / 2, Z: (a.Z - b.Z) / 2}
}

// OccupiedRect returns the cells covered by a footprint of size whose pivot is at
// pos and which faces rot.
func OccupiedRect(pos Cell, rot Rot4, size Size) Rect {
	if size.X <= 1 && size.Z <= 1 {
		return RectOf(pos)
	}
	rot = NormalizeRotation(int(rot))
	s := size
	if rot.IsHorizontal() {
		s = s.Rotated()
	}
	c := pos
	switch rot {
	case East:
		if s.Z%2 == 0 {
			c.Z--
		}
	case South:
		if s.X%2 == 0 {
			c.X--
		}
		if s.Z%2 == 0 {
			c.Z--
		}
	case West:
		if s.X%2 == 0 {
			c.X--
		}
	}
	minX := c.X - (s.X-1)/2
	minZ := c.Z - (s.Z-1)/2
	return Rect{MinX: minX, MinZ: minZ, MaxX: minX + s.X - 1, MaxZ: minZ + s.Z - 1}
}

// CardinalDirections are the unit steps North, East, South, West in that order.
var CardinalDirections = [4]Cell{
	{X: 0, Z: 1},
	{X: 1, Z: 0},
	{X: 0, Z: -1},
	{X: -1, Z: 0},
}

// LinkDirections is a bitmask of the cardinal neighbours a linked graphic connects
// to, in CardinalDirections order.
type LinkDirections uint8

const (
	LinkUp LinkDirections = 1 << iota
	LinkRight
	LinkDown
	LinkLeft
)

func (l LinkDirections) Has(d LinkDirections) bool { return l&d != 0 }
