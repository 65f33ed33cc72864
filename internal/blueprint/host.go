package blueprint

import (
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

// Stage is how far along a thing in the world is.
type Stage int

const (
	StageBuilt Stage = iota
	StageBlueprint
	StageFrame
)

func (s Stage) String() string {
	switch s {
	case StageBlueprint:
		return "blueprint"
	case StageFrame:
		return "frame"
	default:
		return "built"
	}
}

// Thing is an occupant of a world cell. For blueprint and frame stages Def (or
// Terrain, for floors) names what will be built.
type Thing struct {
	Def      *catalogs.ThingDef
	Terrain  *catalogs.TerrainDef
	Stuff    *catalogs.StuffDef
	Stage    Stage
	Position geom.Cell
	Rotation geom.Rot4
	Faction  string
}

// OccupiedRect is the footprint of t at its position and rotation.
func (t *Thing) OccupiedRect() geom.Rect {
	if t.Def == nil {
		return geom.RectOf(t.Position)
	}
	return geom.OccupiedRect(t.Position, t.Rotation, t.Def.Size)
}

// Builds reports whether t is, or will become, b.
func (t *Thing) Builds(b catalogs.Buildable) bool {
	switch d := b.(type) {
	case *catalogs.ThingDef:
		return t.Def != nil && t.Def == d
	case *catalogs.TerrainDef:
		return t.Terrain != nil && t.Terrain == d
	}
	return false
}

// Room is a region of cells sharing a role. An empty Role means no role.
type Room struct {
	ID   int
	Role string
}

// World is the part of the host map the template engine reads and plans on.
type World interface {
	InBounds(c geom.Cell) bool
	ThingsAt(c geom.Cell) []*Thing
	TerrainAt(c geom.Cell) *catalogs.TerrainDef
	RoomAt(c geom.Cell) (Room, bool)

	IsCapturableThing(t *Thing) bool
	IsCapturableTerrain(d *catalogs.TerrainDef) bool

	HasPlan(c geom.Cell) bool
	AddPlan(c geom.Cell)
}

// Designator is the host's placement command for one buildable.
type Designator interface {
	// Visible is false until the buildable's prerequisites are met.
	Visible() bool
	SetStuff(s *catalogs.StuffDef)
	SetRotation(r geom.Rot4)
	Rotation() geom.Rot4
	Accepts(c geom.Cell) bool
	DesignateSingleCell(c geom.Cell) error
}

type Host interface {
	World
	NewDesignator(b catalogs.Buildable) Designator
}

// Finder looks up a live template by name.
type Finder interface {
	Find(name string) *Template
}

// GhostRenderer draws preview ghosts, coloured by placement report.
type GhostRenderer interface {
	DrawGhostThing(c geom.Cell, rot geom.Rot4, def *catalogs.ThingDef, report PlacementReport)
	DrawGhostLinked(c geom.Cell, def *catalogs.ThingDef, links geom.LinkDirections, report PlacementReport)
	DrawGhostTerrain(c geom.Cell, def *catalogs.TerrainDef, report PlacementReport)
}
