package blueprint

import (
	"fmt"

	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

// Entry is one captured building or terrain cell of a template. Exactly one of
// thing and terrain is set.
type Entry struct {
	thing    *catalogs.ThingDef
	terrain  *catalogs.TerrainDef
	stuff    *catalogs.StuffDef
	position geom.Cell
	rotation geom.Rot4

	// owning template, used for sibling lookups and the host
	template *Template
	// derived from the fields above, rebuilt when the host changes
	designator Designator
}

// NewThingEntry builds an entry for a building at pos relative to the template
// origin.
func NewThingEntry(def *catalogs.ThingDef, stuff *catalogs.StuffDef, pos geom.Cell, rot geom.Rot4) *Entry {
	if def == nil {
		panic("blueprint: thing entry without def")
	}
	return &Entry{thing: def, stuff: stuff, position: pos, rotation: geom.NormalizeRotation(int(rot))}
}

// NewTerrainEntry builds an entry for a terrain cell at pos relative to the
// template origin.
func NewTerrainEntry(def *catalogs.TerrainDef, pos geom.Cell) *Entry {
	if def == nil {
		panic("blueprint: terrain entry without def")
	}
	return &Entry{terrain: def, position: pos}
}

// entryFromThing captures a world thing (built, blueprint or frame) relative to
// origin.
func entryFromThing(t *Thing, origin geom.Cell) *Entry {
	if t.Def == nil {
		return NewTerrainEntry(t.Terrain, t.Position.Sub(origin))
	}
	return NewThingEntry(t.Def, t.Stuff, t.Position.Sub(origin), t.Rotation)
}

func (e *Entry) Thing() *catalogs.ThingDef     { return e.thing }
func (e *Entry) Terrain() *catalogs.TerrainDef { return e.terrain }
func (e *Entry) Stuff() *catalogs.StuffDef     { return e.stuff }
func (e *Entry) Rotation() geom.Rot4           { return e.rotation }
func (e *Entry) IsTerrain() bool               { return e.terrain != nil }

// RelativePosition is the stored offset from the template origin, without any
// pivot correction.
func (e *Entry) RelativePosition() geom.Cell { return e.position }

func (e *Entry) Buildable() catalogs.Buildable {
	if e.thing != nil {
		return e.thing
	}
	return e.terrain
}

func (e *Entry) Rotatable() bool { return e.thing != nil && e.thing.Rotatable }

func (e *Entry) Linked() bool { return e.thing != nil && e.thing.Linked() }

func (e *Entry) Square() bool { return e.thing == nil || e.thing.Size.IsSquare() }

// Centered reports whether the pivot cell is the geometric center. Terrain is
// always centered.
func (e *Entry) Centered() bool { return e.thing == nil || e.thing.Size.IsCentered() }

// Position is where the entry is placed relative to the origin. Square,
// non-rotatable buildings with an off-center pivot are shifted so they cover the
// same cells whatever their rotation.
func (e *Entry) Position() geom.Cell {
	if e.thing == nil || e.thing.Rotatable || e.Centered() || !e.Square() {
		return e.position
	}
	return e.position.Sub(geom.PivotOffset(e.thing.Size, geom.North, e.rotation))
}

func (e *Entry) host() Host {
	if e.template == nil {
		return nil
	}
	return e.template.host
}

// Designator returns the placement command for this entry, building it on first
// use. It is nil while the template has no host.
func (e *Entry) Designator() Designator {
	if e.designator == nil {
		h := e.host()
		if h == nil {
			return nil
		}
		e.designator = e.newDesignator(h)
	}
	return e.designator
}

func (e *Entry) newDesignator(h Host) Designator {
	d := h.NewDesignator(e.Buildable())
	if e.thing != nil {
		if s := e.stuffOrDefault(); s != nil {
			d.SetStuff(s)
		}
		d.SetRotation(e.rotation)
	}
	return d
}

func (e *Entry) stuffOrDefault() *catalogs.StuffDef {
	if e.stuff != nil || e.thing == nil {
		return e.stuff
	}
	return e.thing.DefaultStuff
}

func (e *Entry) SetStuff(s *catalogs.StuffDef) {
	e.stuff = s
	if e.designator != nil {
		if s := e.stuffOrDefault(); s != nil {
			e.designator.SetStuff(s)
		}
	}
}

func (e *Entry) syncRotation() {
	if e.designator != nil && (e.Rotatable() || e.Linked()) {
		e.designator.SetRotation(e.rotation)
	}
}

// CostListAdjusted is the entry's build cost with its chosen stuff.
func (e *Entry) CostListAdjusted() []catalogs.ItemCount {
	return e.Buildable().CostListAdjusted(e.stuff)
}

// CanPlace checks the entry against the cell it would occupy when the template
// origin is at origin.
func (e *Entry) CanPlace(origin geom.Cell) PlacementReport {
	h := e.host()
	if h == nil {
		return CanNotPlace
	}
	cell := origin.Add(e.Position())
	if !h.InBounds(cell) {
		return CanNotPlace
	}
	if d := e.Designator(); d != nil && d.Accepts(cell) {
		return CanPlace
	}

	if e.terrain != nil && h.TerrainAt(cell) == e.terrain {
		return AlreadyPlaced
	}
	b := e.Buildable()
	for _, t := range h.ThingsAt(cell) {
		if t.Builds(b) {
			return AlreadyPlaced
		}
	}
	return CanNotPlace
}

// Designate issues the placement command at the entry's cell.
func (e *Entry) Designate(origin geom.Cell) error {
	d := e.Designator()
	if d == nil {
		return fmt.Errorf("designate %s: no designator", e)
	}
	return d.DesignateSingleCell(origin.Add(e.Position()))
}

// Plan marks the entry's cell with a plan designation. Only wall-linked things
// are planned; it reports whether a plan was added.
func (e *Entry) Plan(origin geom.Cell) bool {
	if e.thing == nil || e.thing.LinkFlags&catalogs.LinkWall == 0 {
		return false
	}
	h := e.host()
	if h == nil {
		return false
	}
	cell := origin.Add(e.Position())
	if h.HasPlan(cell) {
		return false
	}
	h.AddPlan(cell)
	return true
}

// Rotate turns the entry a quarter turn about the template origin.
func (e *Entry) Rotate(dir geom.RotationDirection) FailReason {
	e.position = e.position.Turn(dir)
	if e.thing == nil {
		return Success()
	}

	e.rotation = e.rotation.Rotate(dir)
	e.syncRotation()

	if !e.Rotatable() && !e.Centered() {
		label := e.thing.LabelCap()
		if !e.Square() {
			if e.thing.HasInteractionCell {
				return Fail(tr(msgUnrotatableNonSquareInteraction, label))
			}
			return Fail(tr(msgUnrotatableNonSquare, label))
		}
		// square footprints are re-offset through Position
		if e.thing.HasInteractionCell {
			return Fail(tr(msgUnrotatableInteraction, label))
		}
	}
	return Success()
}

// Flip mirrors the entry across the template's vertical axis.
func (e *Entry) Flip() FailReason {
	e.position.X = -e.position.X
	if e.thing == nil {
		return Success()
	}

	if !e.Centered() {
		off := geom.PivotOffset(e.thing.Size, e.rotation.Opposite(), e.rotation)
		if e.rotation.IsHorizontal() {
			e.position.Z -= off.Z
		} else {
			e.position.X += off.X
		}
	}

	// east and west swap, north and south are their own mirror
	if e.rotation.IsHorizontal() {
		e.rotation = e.rotation.Opposite()
	}
	e.syncRotation()

	if !e.Rotatable() && !e.Centered() && e.thing.HasInteractionCell {
		return Fail(tr(msgUnflippableInteraction, e.thing.LabelCap()))
	}
	return Success()
}

// DrawGhost draws the entry's preview for a template origin at origin.
func (e *Entry) DrawGhost(origin geom.Cell, r GhostRenderer) {
	cell := origin.Add(e.Position())
	report := e.CanPlace(origin)
	switch {
	case e.thing == nil:
		r.DrawGhostTerrain(cell, e.terrain, report)
	case !e.thing.Linked():
		rot := geom.North
		if e.thing.Rotatable {
			rot = e.rotation
		}
		r.DrawGhostThing(cell, rot, e.thing, report)
	default:
		r.DrawGhostLinked(cell, e.thing, e.links(), report)
	}
}

func (e *Entry) links() geom.LinkDirections {
	if e.template == nil {
		return 0
	}
	var links geom.LinkDirections
	pos := e.Position()
	for i, dir := range geom.CardinalDirections {
		if e.template.ShouldLinkWith(pos.Add(dir), e.thing) {
			links |= 1 << i
		}
	}
	return links
}

// Equals compares building type and stored position only; it is meant for
// spotting duplicates within one template.
func (e *Entry) Equals(o *Entry) bool {
	if o == nil {
		return false
	}
	return e.thing == o.thing && e.position == o.position
}

func (e *Entry) String() string {
	b := e.Buildable()
	return fmt.Sprintf("%s pos: %v, rot: %v, rotPos: %v, cat: %s",
		b.LabelCap(), e.position, e.rotation, e.Position(), b.Category())
}
