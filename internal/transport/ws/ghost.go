package ws

import (
	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/protocol"
)

// ghostCollector records ghost draws as wire cells.
type ghostCollector struct {
	cells []protocol.GhostCell
}

var _ blueprint.GhostRenderer = (*ghostCollector)(nil)

func (g *ghostCollector) DrawGhostThing(c geom.Cell, rot geom.Rot4, def *catalogs.ThingDef, report blueprint.PlacementReport) {
	g.cells = append(g.cells, protocol.GhostCell{
		Pos: [2]int{c.X, c.Z}, Kind: "thing", Def: def.Name, Rot: int(rot), Report: report.String(),
	})
}

func (g *ghostCollector) DrawGhostLinked(c geom.Cell, def *catalogs.ThingDef, links geom.LinkDirections, report blueprint.PlacementReport) {
	g.cells = append(g.cells, protocol.GhostCell{
		Pos: [2]int{c.X, c.Z}, Kind: "linked", Def: def.Name, Links: int(links), Report: report.String(),
	})
}

func (g *ghostCollector) DrawGhostTerrain(c geom.Cell, def *catalogs.TerrainDef, report blueprint.PlacementReport) {
	g.cells = append(g.cells, protocol.GhostCell{
		Pos: [2]int{c.X, c.Z}, Kind: "terrain", Def: def.Name, Report: report.String(),
	})
}

func ghostOf(t *blueprint.Template, origin geom.Cell) protocol.GhostMsg {
	g := &ghostCollector{}
	t.DrawGhost(origin, g)
	cells := g.cells
	if cells == nil {
		cells = []protocol.GhostCell{}
	}
	return protocol.GhostMsg{
		Type:      protocol.TypeGhost,
		Template:  t.Name(),
		Origin:    [2]int{origin.X, origin.Z},
		Size:      [2]int{t.Size().X, t.Size().Z},
		CanPlace:  t.CanPlace(origin),
		Cells:     cells,
		Cost:      itemCounts(t.CostListAdjusted()),
		Remaining: itemCounts(t.RemainingCost(origin)),
	}
}

func itemCounts(in []catalogs.ItemCount) []protocol.ItemCount {
	out := make([]protocol.ItemCount, 0, len(in))
	for _, c := range in {
		out = append(out, protocol.ItemCount{Item: c.Item, Count: c.Count})
	}
	return out
}
