package blueprint

import (
	"errors"

	"github.com/zyedidia/generic/mapset"

	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

var ErrNothingSelected = errors.New("nothing selected")

// Create captures every capturable building and terrain in cells. The footprint
// grows to cover buildings that stick out of the selection, never shrinks below
// it. The returned template is bound to h but not registered anywhere.
func Create(cells []geom.Cell, h Host, names Finder) (*Template, error) {
	if len(cells) == 0 {
		return nil, ErrNothingSelected
	}

	seenCells := mapset.New[geom.Cell]()
	selected := make([]geom.Cell, 0, len(cells))
	for _, c := range cells {
		if seenCells.Has(c) {
			continue
		}
		seenCells.Put(c)
		selected = append(selected, c)
	}

	seenThings := mapset.New[*Thing]()
	var things []*Thing
	for _, c := range selected {
		for _, t := range h.ThingsAt(c) {
			if seenThings.Has(t) || !h.IsCapturableThing(t) {
				continue
			}
			seenThings.Put(t)
			things = append(things, t)
		}
	}

	type terrainCell struct {
		def  *catalogs.TerrainDef
		cell geom.Cell
	}
	var terrains []terrainCell
	for _, c := range selected {
		if d := h.TerrainAt(c); d != nil && h.IsCapturableTerrain(d) {
			terrains = append(terrains, terrainCell{def: d, cell: c})
		}
	}
	if len(things) == 0 && len(terrains) == 0 {
		return nil, ErrNothingSelected
	}

	all := append([]geom.Cell(nil), selected...)
	for _, t := range things {
		all = append(all, t.OccupiedRect().Cells()...)
	}
	bounds, _ := geom.BoundingRect(all)
	origin := bounds.CenterCell()

	entries := make([]*Entry, 0, len(things)+len(terrains))
	for _, t := range things {
		entries = append(entries, entryFromThing(t, origin))
	}
	for _, tc := range terrains {
		entries = append(entries, NewTerrainEntry(tc.def, tc.cell.Sub(origin)))
	}

	t := New(entries, bounds.Size(), roomName(all, h), names)
	t.SetHost(h)
	return t, nil
}

// CreateFromThings captures the given things, named after the selection. A
// thing listed more than once, as when collected cell by cell, yields one
// entry.
func CreateFromThings(things []*Thing, names Finder) (*Template, error) {
	seen := mapset.New[*Thing]()
	var unique []*Thing
	for _, t := range things {
		if t == nil || seen.Has(t) {
			continue
		}
		seen.Put(t)
		unique = append(unique, t)
	}
	things = unique
	if len(things) == 0 {
		return nil, ErrNothingSelected
	}
	bounds := things[0].OccupiedRect()
	for _, t := range things[1:] {
		bounds = bounds.Union(t.OccupiedRect())
	}
	origin := bounds.CenterCell()

	entries := make([]*Entry, 0, len(things))
	for _, t := range things {
		entries = append(entries, entryFromThing(t, origin))
	}
	return New(entries, bounds.Size(), tr(msgSelectionName), names), nil
}

// roomName proposes a name when every room touched by cells shares one role:
// the role label, pluralized for more than one room.
func roomName(cells []geom.Cell, w World) string {
	type roleRooms struct {
		role  string
		rooms mapset.Set[int]
	}
	var roles []*roleRooms
	for _, c := range cells {
		room, ok := w.RoomAt(c)
		if !ok || room.Role == "" {
			continue
		}
		var rr *roleRooms
		for _, r := range roles {
			if r.role == room.Role {
				rr = r
				break
			}
		}
		if rr == nil {
			rr = &roleRooms{role: room.Role, rooms: mapset.New[int]()}
			roles = append(roles, rr)
		}
		rr.rooms.Put(room.ID)
	}
	if len(roles) != 1 {
		return ""
	}
	if roles[0].rooms.Size() > 1 {
		return tr(msgPlural, roles[0].role)
	}
	return roles[0].role
}
