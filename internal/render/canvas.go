// Package render draws template previews as coloured text.
package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/tuning"
)

// linkGlyphs is indexed by geom.LinkDirections.
var linkGlyphs = [16]rune{
	'■', '╵', '╶', '└', '╷', '│', '┌', '├',
	'╴', '┘', '─', '┴', '┐', '┤', '┬', '┼',
}

var facingGlyphs = [4]rune{'^', '>', 'v', '<'}

const (
	emptyGlyph = '.'
	floorGlyph = ':'
)

type layer int

const (
	layerWorld layer = iota
	layerTerrain
	layerThing
)

type cell struct {
	r      rune
	layer  layer
	ghost  bool
	report blueprint.PlacementReport
}

// Canvas is a character grid over a rectangle of world cells. Row 0 of the
// output is the northmost row.
type Canvas struct {
	view   geom.Rect
	cells  []cell
	styles [3]lipgloss.Style
	world  lipgloss.Style
}

var _ blueprint.GhostRenderer = (*Canvas)(nil)

func NewCanvas(view geom.Rect, colors tuning.Ghost) *Canvas {
	c := &Canvas{
		view:  view,
		cells: make([]cell, view.Width()*view.Depth()),
		world: lipgloss.NewStyle().Faint(true),
	}
	c.styles[blueprint.CanNotPlace] = lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Blocked)).Bold(true)
	c.styles[blueprint.CanPlace] = lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Placeable)).Bold(true)
	c.styles[blueprint.AlreadyPlaced] = lipgloss.NewStyle().Foreground(lipgloss.Color(colors.Present))
	for i := range c.cells {
		c.cells[i].r = emptyGlyph
	}
	return c
}

func (c *Canvas) at(p geom.Cell) *cell {
	if !c.view.Contains(p) {
		return nil
	}
	x := p.X - c.view.MinX
	z := p.Z - c.view.MinZ
	return &c.cells[z*c.view.Width()+x]
}

func (c *Canvas) put(p geom.Cell, r rune, l layer, ghost bool, report blueprint.PlacementReport) {
	dst := c.at(p)
	if dst == nil {
		return
	}
	// ghosts cover the world; within a kind, buildings cover floors
	if dst.ghost == ghost && dst.layer > l {
		return
	}
	if dst.ghost && !ghost {
		return
	}
	*dst = cell{r: r, layer: l, ghost: ghost, report: report}
}

// DrawWorld paints what the world already holds under the view, dimmed.
func (c *Canvas) DrawWorld(w blueprint.World) {
	for _, p := range c.view.Cells() {
		if !w.InBounds(p) {
			continue
		}
		if d := w.TerrainAt(p); d != nil && d.DesignationCategory != "" {
			c.put(p, floorGlyph, layerTerrain, false, 0)
		}
		for _, t := range w.ThingsAt(p) {
			switch {
			case t.Def != nil:
				c.put(p, initial(t.Def.LabelCap()), layerThing, false, 0)
			case t.Terrain != nil:
				c.put(p, floorGlyph, layerTerrain, false, 0)
			}
		}
	}
}

func (c *Canvas) DrawGhostThing(p geom.Cell, rot geom.Rot4, def *catalogs.ThingDef, report blueprint.PlacementReport) {
	r := initial(def.LabelCap())
	for _, q := range geom.OccupiedRect(p, rot, def.Size).Cells() {
		c.put(q, r, layerThing, true, report)
	}
	if def.Rotatable {
		c.put(p, facingGlyphs[rot.AsInt()], layerThing, true, report)
	}
}

func (c *Canvas) DrawGhostLinked(p geom.Cell, _ *catalogs.ThingDef, links geom.LinkDirections, report blueprint.PlacementReport) {
	c.put(p, linkGlyphs[links&0xf], layerThing, true, report)
}

func (c *Canvas) DrawGhostTerrain(p geom.Cell, _ *catalogs.TerrainDef, report blueprint.PlacementReport) {
	c.put(p, floorGlyph, layerTerrain, true, report)
}

// Report returns the placement report drawn at p and whether a ghost is there.
func (c *Canvas) Report(p geom.Cell) (blueprint.PlacementReport, bool) {
	dst := c.at(p)
	if dst == nil || !dst.ghost {
		return 0, false
	}
	return dst.report, true
}

// Plain renders the canvas without styling.
func (c *Canvas) Plain() string {
	return c.render(func(cl cell) string { return string(cl.r) })
}

func (c *Canvas) String() string {
	return c.render(func(cl cell) string {
		switch {
		case cl.ghost:
			return c.styles[cl.report].Render(string(cl.r))
		case cl.r != emptyGlyph:
			return c.world.Render(string(cl.r))
		}
		return string(cl.r)
	})
}

func (c *Canvas) render(glyph func(cell) string) string {
	var b strings.Builder
	w := c.view.Width()
	for z := c.view.Depth() - 1; z >= 0; z-- {
		for x := 0; x < w; x++ {
			b.WriteString(glyph(c.cells[z*w+x]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend explains the three ghost colours.
func (c *Canvas) Legend() string {
	parts := []string{
		c.styles[blueprint.CanPlace].Render("placeable"),
		c.styles[blueprint.CanNotPlace].Render("blocked"),
		c.styles[blueprint.AlreadyPlaced].Render("present"),
	}
	return strings.Join(parts, "  ")
}

func initial(label string) rune {
	for _, r := range label {
		return unicode.ToUpper(r)
	}
	return '?'
}
