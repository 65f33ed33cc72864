// Package gridtest builds small catalogs and maps for tests.
package gridtest

import (
	"testing"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/sim/grid"
)

const ResearchElectricity = "Electricity"

// Catalogs returns a fixed def set covering every footprint shape the template
// engine distinguishes.
func Catalogs(t testing.TB) *catalogs.Catalogs {
	t.Helper()
	stuff := []*catalogs.StuffDef{
		{Name: "Steel", Label: "steel", Categories: []string{"Metallic"}},
		{Name: "WoodLog", Label: "wood", Categories: []string{"Woody"}},
		{Name: "BlocksGranite", Label: "granite blocks", Categories: []string{"Stony"}},
	}
	terrains := []*catalogs.TerrainDef{
		{Name: "Soil", Label: "soil"},
		{Name: "WoodPlankFloor", Label: "wood floor", DesignationCategory: "Floors",
			CostList: []catalogs.ItemCount{{Item: "WoodLog", Count: 3}}},
		{Name: "Concrete", Label: "concrete", DesignationCategory: "Floors",
			CostList: []catalogs.ItemCount{{Item: "Steel", Count: 1}}},
	}
	things := []*catalogs.ThingDef{
		{Name: "Wall", Label: "wall", LinkFlagNames: []string{"wall"}, DesignationCategory: "Structure",
			CostStuffCount: 5, StuffCategories: []string{"Metallic", "Woody", "Stony"}},
		{Name: "Sandbags", Label: "sandbags", LinkFlagNames: []string{"sandbags"}, DesignationCategory: "Security",
			CostList: []catalogs.ItemCount{{Item: "Steel", Count: 2}}},
		{Name: "Bed", Label: "bed", Size: geom.Size{X: 1, Z: 2}, Rotatable: true, DesignationCategory: "Furniture",
			CostStuffCount: 45, StuffCategories: []string{"Woody", "Metallic"}},
		{Name: "Bench", Label: "bench", Size: geom.Size{X: 2, Z: 1}, Rotatable: true, DesignationCategory: "Furniture",
			CostStuffCount: 20, StuffCategories: []string{"Woody"}},
		{Name: "Statue", Label: "statue", Size: geom.Size{X: 2, Z: 1}, DesignationCategory: "Art",
			CostStuffCount: 50, StuffCategories: []string{"Stony"}},
		{Name: "Console", Label: "console", Size: geom.Size{X: 2, Z: 1}, HasInteractionCell: true, DesignationCategory: "Production",
			CostList: []catalogs.ItemCount{{Item: "Steel", Count: 60}}},
		{Name: "Pedestal", Label: "pedestal", Size: geom.Size{X: 2, Z: 2}, DesignationCategory: "Art",
			CostList: []catalogs.ItemCount{{Item: "BlocksGranite", Count: 40}}},
		{Name: "Kiosk", Label: "kiosk", Size: geom.Size{X: 2, Z: 2}, HasInteractionCell: true, DesignationCategory: "Production",
			CostList: []catalogs.ItemCount{{Item: "Steel", Count: 30}}},
		{Name: "Table", Label: "table", Size: geom.Size{X: 3, Z: 3}, DesignationCategory: "Furniture",
			CostStuffCount: 60, StuffCategories: []string{"Woody", "Metallic"}},
		{Name: "Lamp", Label: "lamp", DesignationCategory: "Furniture", Research: ResearchElectricity,
			CostList: []catalogs.ItemCount{{Item: "Steel", Count: 20}}},
	}
	c, err := catalogs.New(things, terrains, stuff)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return c
}

func Thing(t testing.TB, c *catalogs.Catalogs, name string) *catalogs.ThingDef {
	t.Helper()
	d, ok := c.Thing(name)
	if !ok {
		t.Fatalf("missing thing %q", name)
	}
	return d
}

func Terrain(t testing.TB, c *catalogs.Catalogs, name string) *catalogs.TerrainDef {
	t.Helper()
	d, ok := c.Terrain(name)
	if !ok {
		t.Fatalf("missing terrain %q", name)
	}
	return d
}

func Stuff(t testing.TB, c *catalogs.Catalogs, name string) *catalogs.StuffDef {
	t.Helper()
	d, ok := c.StuffDef(name)
	if !ok {
		t.Fatalf("missing stuff %q", name)
	}
	return d
}

// Map returns an empty soil map.
func Map(t testing.TB, c *catalogs.Catalogs, width, depth int) *grid.Map {
	t.Helper()
	return grid.New(width, depth, Terrain(t, c, "Soil"))
}

func Spawn(t testing.TB, m *grid.Map, th *blueprint.Thing) *blueprint.Thing {
	t.Helper()
	if err := m.Spawn(th); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return th
}

// BuildRoom3x3 surrounds a wood-floored cell with eight steel walls. corner is
// the lower-left wall. It returns the 3x3 rect.
func BuildRoom3x3(t testing.TB, m *grid.Map, c *catalogs.Catalogs, corner geom.Cell, role string) geom.Rect {
	t.Helper()
	rect := geom.Rect{MinX: corner.X, MinZ: corner.Z, MaxX: corner.X + 2, MaxZ: corner.Z + 2}
	wall := Thing(t, c, "Wall")
	steel := Stuff(t, c, "Steel")
	center := geom.Cell{X: corner.X + 1, Z: corner.Z + 1}
	for _, cell := range rect.Cells() {
		if cell == center {
			m.SetTerrain(cell, Terrain(t, c, "WoodPlankFloor"))
			continue
		}
		Spawn(t, m, &blueprint.Thing{Def: wall, Stuff: steel, Position: cell})
	}
	if role != "" {
		m.AddRoom(rect, role)
	}
	return rect
}
