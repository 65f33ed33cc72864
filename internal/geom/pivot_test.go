package geom

import "testing"

func TestTrueCenterSingleCellIsPivot(t *testing.T) {
	for r := North; r <= West; r++ {
		if got := TrueCenter2(Size{X: 1, Z: 1}, r); got != (Cell{}) {
			t.Fatalf("rot %v: got %v", r, got)
		}
	}
}

func TestOccupiedRectMatchesTrueCenter(t *testing.T) {
	sizes := []Size{{X: 2, Z: 1}, {X: 1, Z: 2}, {X: 2, Z: 2}, {X: 3, Z: 2}, {X: 3, Z: 3}, {X: 4, Z: 1}}
	pos := Cell{X: 10, Z: -4}
	for _, s := range sizes {
		for r := North; r <= West; r++ {
			rect := OccupiedRect(pos, r, s)
			want := s
			if r.IsHorizontal() {
				want = s.Rotated()
			}
			if rect.Size() != want {
				t.Fatalf("size %v rot %v: rect size %v want %v", s, r, rect.Size(), want)
			}
			// doubled rect center minus doubled pivot equals the half-cell true center
			cx := rect.MinX + rect.MaxX - 2*pos.X
			cz := rect.MinZ + rect.MaxZ - 2*pos.Z
			tc := TrueCenter2(s, r)
			if cx != tc.X || cz != tc.Z {
				t.Fatalf("size %v rot %v: rect center (%d,%d) true center %v", s, r, cx, cz, tc)
			}
		}
	}
}

func TestPivotOffset(t *testing.T) {
	cases := []struct {
		size     Size
		from, to Rot4
		want     Cell
	}{
		{size: Size{X: 2, Z: 2}, from: North, to: North, want: Cell{}},
		{size: Size{X: 2, Z: 2}, from: North, to: East, want: Cell{X: 0, Z: 1}},
		{size: Size{X: 2, Z: 2}, from: North, to: South, want: Cell{X: 1, Z: 1}},
		{size: Size{X: 2, Z: 2}, from: North, to: West, want: Cell{X: 1, Z: 0}},
		{size: Size{X: 2, Z: 1}, from: South, to: North, want: Cell{X: -1, Z: 0}},
		{size: Size{X: 2, Z: 1}, from: West, to: East, want: Cell{X: 0, Z: 1}},
		{size: Size{X: 3, Z: 3}, from: North, to: West, want: Cell{}},
	}
	for _, c := range cases {
		if got := PivotOffset(c.size, c.from, c.to); got != c.want {
			t.Fatalf("PivotOffset(%v,%v,%v)=%v want %v", c.size, c.from, c.to, got, c.want)
		}
	}
}
