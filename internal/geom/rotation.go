package geom

// Rot4 is a quarter-turn facing: North=0, East=1, South=2, West=3.
type Rot4 int

const (
	North Rot4 = iota
	East
	South
	West
)

type RotationDirection int

const (
	Clockwise RotationDirection = iota + 1
	Counterclockwise
)

func (d RotationDirection) String() string {
	switch d {
	case Clockwise:
		return "cw"
	case Counterclockwise:
		return "ccw"
	default:
		return "none"
	}
}

// ParseDirection accepts "cw"/"ccw" and the long forms.
func ParseDirection(s string) (RotationDirection, bool) {
	switch s {
	case "cw", "clockwise", "right":
		return Clockwise, true
	case "ccw", "counterclockwise", "left":
		return Counterclockwise, true
	}
	return 0, false
}

// NormalizeRotation converts a client-provided rotation value into a stable
// quarter-turn count in [0,3].
//
// It accepts either quarter-turns (0..3) or degrees (multiples of 90).
func NormalizeRotation(r int) Rot4 {
	// Treat large multiples of 90 as degrees.
	if r%90 == 0 && (r > 3 || r < -3) {
		r = r / 90
	}
	r %= 4
	if r < 0 {
		r += 4
	}
	return Rot4(r)
}

func (r Rot4) AsInt() int { return int(NormalizeRotation(int(r))) }

func (r Rot4) IsHorizontal() bool { return r.AsInt()%2 == 1 }

// Rotate advances r by one quarter turn in dir.
func (r Rot4) Rotate(dir RotationDirection) Rot4 {
	switch dir {
	case Clockwise:
		return NormalizeRotation(int(r) + 1)
	case Counterclockwise:
		return NormalizeRotation(int(r) + 3)
	}
	return r
}

func (r Rot4) Opposite() Rot4 { return NormalizeRotation(int(r) + 2) }

func (r Rot4) String() string {
	switch r.AsInt() {
	case 0:
		return "North"
	case 1:
		return "East"
	case 2:
		return "South"
	default:
		return "West"
	}
}

// RotateXZ rotates an (x,z) offset around the origin by rot*90 degrees
// clockwise. rot must be a normalized quarter-turn count in [0,3].
func RotateXZ(x, z int, rot Rot4) (rx, rz int) {
	switch rot & 3 {
	case North:
		return x, z
	case East:
		return z, -x
	case South:
		return -x, -z
	default: // West
		return -z, x
	}
}

// RotatedBy rotates c about the origin the same way a footprint turning from
// North to rot would.
func (c Cell) RotatedBy(rot Rot4) Cell {
	x, z := RotateXZ(c.X, c.Z, NormalizeRotation(int(rot)))
	return Cell{X: x, Z: z}
}

// Turn rotates c one quarter turn in dir.
func (c Cell) Turn(dir RotationDirection) Cell {
	if dir == Counterclockwise {
		return c.RotatedBy(West)
	}
	return c.RotatedBy(East)
}
