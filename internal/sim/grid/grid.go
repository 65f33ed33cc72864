package grid

import (
	"fmt"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

const PlayerFaction = "player"

// Map is a rectangular in-memory world with cells [0,width) x [0,depth).
type Map struct {
	width, depth int

	terrain []*catalogs.TerrainDef
	things  []*blueprint.Thing
	cells   map[geom.Cell][]*blueprint.Thing
	rooms   map[geom.Cell]blueprint.Room
	plans   map[geom.Cell]struct{}

	faction  string
	research map[string]bool
	nextRoom int
}

var _ blueprint.Host = (*Map)(nil)

func New(width, depth int, base *catalogs.TerrainDef) *Map {
	m := &Map{
		width:    width,
		depth:    depth,
		terrain:  make([]*catalogs.TerrainDef, width*depth),
		cells:    map[geom.Cell][]*blueprint.Thing{},
		rooms:    map[geom.Cell]blueprint.Room{},
		plans:    map[geom.Cell]struct{}{},
		faction:  PlayerFaction,
		research: map[string]bool{},
	}
	for i := range m.terrain {
		m.terrain[i] = base
	}
	return m
}

func (m *Map) Width() int      { return m.width }
func (m *Map) Depth() int      { return m.depth }
func (m *Map) Faction() string { return m.faction }

func (m *Map) SetFaction(f string) { m.faction = f }

func (m *Map) InBounds(c geom.Cell) bool {
	return c.X >= 0 && c.Z >= 0 && c.X < m.width && c.Z < m.depth
}

func (m *Map) index(c geom.Cell) int { return c.Z*m.width + c.X }

func (m *Map) TerrainAt(c geom.Cell) *catalogs.TerrainDef {
	if !m.InBounds(c) {
		return nil
	}
	return m.terrain[m.index(c)]
}

func (m *Map) SetTerrain(c geom.Cell, d *catalogs.TerrainDef) {
	if m.InBounds(c) {
		m.terrain[m.index(c)] = d
	}
}

func (m *Map) ThingsAt(c geom.Cell) []*blueprint.Thing {
	return append([]*blueprint.Thing(nil), m.cells[c]...)
}

// Things lists every spawned thing in spawn order.
func (m *Map) Things() []*blueprint.Thing {
	return append([]*blueprint.Thing(nil), m.things...)
}

// Spawn adds t to the map. Its whole footprint must be in bounds.
func (m *Map) Spawn(t *blueprint.Thing) error {
	if t == nil || (t.Def == nil && t.Terrain == nil) {
		return fmt.Errorf("spawn: thing without def")
	}
	rect := t.OccupiedRect()
	cells := rect.Cells()
	for _, c := range cells {
		if !m.InBounds(c) {
			return fmt.Errorf("spawn %s: %v out of bounds", defName(t), c)
		}
	}
	if t.Faction == "" {
		t.Faction = m.faction
	}
	m.things = append(m.things, t)
	for _, c := range cells {
		m.cells[c] = append(m.cells[c], t)
	}
	return nil
}

func (m *Map) Despawn(t *blueprint.Thing) {
	for i, have := range m.things {
		if have == t {
			m.things = append(m.things[:i], m.things[i+1:]...)
			break
		}
	}
	for _, c := range t.OccupiedRect().Cells() {
		list := m.cells[c]
		for i, have := range list {
			if have == t {
				m.cells[c] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(m.cells[c]) == 0 {
			delete(m.cells, c)
		}
	}
}

// AddRoom assigns every cell of rect to a new room with role.
func (m *Map) AddRoom(rect geom.Rect, role string) blueprint.Room {
	m.nextRoom++
	r := blueprint.Room{ID: m.nextRoom, Role: role}
	for _, c := range rect.Cells() {
		if m.InBounds(c) {
			m.rooms[c] = r
		}
	}
	return r
}

func (m *Map) RoomAt(c geom.Cell) (blueprint.Room, bool) {
	r, ok := m.rooms[c]
	return r, ok
}

func (m *Map) IsCapturableThing(t *blueprint.Thing) bool {
	if t == nil || t.Faction != m.faction {
		return false
	}
	switch {
	case t.Def != nil:
		return t.Def.DesignationCategory != ""
	case t.Terrain != nil:
		return t.Terrain.DesignationCategory != ""
	}
	return false
}

func (m *Map) IsCapturableTerrain(d *catalogs.TerrainDef) bool {
	return d != nil && d.DesignationCategory != ""
}

func (m *Map) HasPlan(c geom.Cell) bool {
	_, ok := m.plans[c]
	return ok
}

func (m *Map) AddPlan(c geom.Cell) { m.plans[c] = struct{}{} }

func (m *Map) PlanCount() int { return len(m.plans) }

func (m *Map) Unlock(research string) { m.research[research] = true }

// Unlocked reports whether research is done. No prerequisite is always done.
func (m *Map) Unlocked(research string) bool {
	return research == "" || m.research[research]
}

func (m *Map) NewDesignator(b catalogs.Buildable) blueprint.Designator {
	return &Designator{m: m, def: b}
}

func defName(t *blueprint.Thing) string {
	if t.Def != nil {
		return t.Def.Name
	}
	return t.Terrain.Name
}
