package grid

import (
	"errors"
	"fmt"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

var ErrNotAccepted = errors.New("cell does not accept the buildable")

// Designator places blueprint-stage things on a Map.
type Designator struct {
	m     *Map
	def   catalogs.Buildable
	stuff *catalogs.StuffDef
	rot   geom.Rot4
}

func (d *Designator) Visible() bool { return d.m.Unlocked(d.def.ResearchPrerequisite()) }

func (d *Designator) SetStuff(s *catalogs.StuffDef) { d.stuff = s }
func (d *Designator) Stuff() *catalogs.StuffDef     { return d.stuff }
func (d *Designator) SetRotation(r geom.Rot4)       { d.rot = geom.NormalizeRotation(int(r)) }
func (d *Designator) Rotation() geom.Rot4           { return d.rot }

// Accepts is true when a building's whole footprint is in bounds and free of
// other buildings, or when a floor differs from the cell's terrain and none is
// pending there.
func (d *Designator) Accepts(c geom.Cell) bool {
	switch def := d.def.(type) {
	case *catalogs.ThingDef:
		for _, cell := range geom.OccupiedRect(c, d.rot, def.Size).Cells() {
			if !d.m.InBounds(cell) {
				return false
			}
			for _, t := range d.m.cells[cell] {
				if t.Def != nil {
					return false
				}
			}
		}
		return true
	case *catalogs.TerrainDef:
		if !d.m.InBounds(c) || d.m.TerrainAt(c) == def {
			return false
		}
		for _, t := range d.m.cells[c] {
			if t.Def == nil && t.Terrain != nil {
				return false
			}
		}
		return true
	}
	return false
}

func (d *Designator) DesignateSingleCell(c geom.Cell) error {
	if !d.Accepts(c) {
		return fmt.Errorf("designate %s at %v: %w", d.def.DefName(), c, ErrNotAccepted)
	}
	t := &blueprint.Thing{
		Stage:    blueprint.StageBlueprint,
		Position: c,
		Rotation: d.rot,
		Faction:  d.m.faction,
	}
	switch def := d.def.(type) {
	case *catalogs.ThingDef:
		t.Def = def
		t.Stuff = d.stuff
	case *catalogs.TerrainDef:
		t.Terrain = def
	}
	return d.m.Spawn(t)
}
