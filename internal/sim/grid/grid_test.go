package grid_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/sim/grid"
	"blueprints.ai/internal/sim/gridtest"
)

func TestSpawnIndexesWholeFootprint(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 10, 10)
	bed := gridtest.Spawn(t, m, &blueprint.Thing{Def: gridtest.Thing(t, cats, "Bed"), Position: geom.Cell{X: 4, Z: 4}})

	for _, c := range []geom.Cell{{X: 4, Z: 4}, {X: 4, Z: 5}} {
		if got := m.ThingsAt(c); len(got) != 1 || got[0] != bed {
			t.Fatalf("cell %v: %v", c, got)
		}
	}
	if got := m.ThingsAt(geom.Cell{X: 4, Z: 3}); len(got) != 0 {
		t.Fatalf("unexpected occupant below bed")
	}
	if bed.Faction != grid.PlayerFaction {
		t.Fatalf("faction defaulted to %q", bed.Faction)
	}

	m.Despawn(bed)
	if len(m.ThingsAt(geom.Cell{X: 4, Z: 5})) != 0 || len(m.Things()) != 0 {
		t.Fatalf("despawn left the bed behind")
	}
}

func TestSpawnRejectsOutOfBounds(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 4, 4)
	err := m.Spawn(&blueprint.Thing{Def: gridtest.Thing(t, cats, "Bed"), Position: geom.Cell{X: 0, Z: 3}})
	if err == nil {
		t.Fatalf("expected out of bounds error")
	}
}

func TestDesignatorAcceptsAndDesignates(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 6, 6)
	gridtest.Spawn(t, m, &blueprint.Thing{Def: gridtest.Thing(t, cats, "Wall"), Position: geom.Cell{X: 2, Z: 3}})

	d := m.NewDesignator(gridtest.Thing(t, cats, "Bed"))
	if d.Accepts(geom.Cell{X: 2, Z: 2}) {
		t.Fatalf("bed footprint overlaps the wall")
	}
	d.SetRotation(geom.East)
	if !d.Accepts(geom.Cell{X: 2, Z: 2}) {
		t.Fatalf("east-facing bed at (2,2) covers (2,2)-(3,2) and should fit")
	}
	if err := d.DesignateSingleCell(geom.Cell{X: 2, Z: 2}); err != nil {
		t.Fatalf("designate bed: %v", err)
	}
	got := m.ThingsAt(geom.Cell{X: 3, Z: 2})
	if len(got) != 1 || got[0].Stage != blueprint.StageBlueprint || got[0].Rotation != geom.East {
		t.Fatalf("expected east bed blueprint, got %+v", got)
	}

	floor := m.NewDesignator(gridtest.Terrain(t, cats, "WoodPlankFloor"))
	if !floor.Accepts(geom.Cell{X: 0, Z: 0}) {
		t.Fatalf("floor should be accepted on soil")
	}
	if err := floor.DesignateSingleCell(geom.Cell{X: 0, Z: 0}); err != nil {
		t.Fatalf("designate floor: %v", err)
	}
	if floor.Accepts(geom.Cell{X: 0, Z: 0}) {
		t.Fatalf("floor blueprint already pending")
	}
	if err := floor.DesignateSingleCell(geom.Cell{X: 0, Z: 0}); !errors.Is(err, grid.ErrNotAccepted) {
		t.Fatalf("second floor designation: got %v, want ErrNotAccepted", err)
	}
	if got := m.ThingsAt(geom.Cell{X: 0, Z: 0}); len(got) != 1 {
		t.Fatalf("refused designation still spawned: %d things", len(got))
	}
}

func TestDesignatorVisibilityFollowsResearch(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 3, 3)
	d := m.NewDesignator(gridtest.Thing(t, cats, "Lamp"))
	if d.Visible() {
		t.Fatalf("lamp needs research")
	}
	m.Unlock(gridtest.ResearchElectricity)
	if !d.Visible() {
		t.Fatalf("lamp should be visible after research")
	}
}

func TestLoadScene(t *testing.T) {
	cats := gridtest.Catalogs(t)
	path := filepath.Join(t.TempDir(), "scene.yaml")
	body := `
width: 12
depth: 8
base_terrain: Soil
research: [Electricity]
terrain:
  - {terrain: Concrete, rect: [0, 0, 2, 1]}
things:
  - {def: Wall, stuff: Steel, pos: [5, 5]}
  - {def: Bed, pos: [7, 2], rot: 90, stage: frame}
  - {floor: WoodPlankFloor, pos: [9, 1], stage: blueprint}
  - {def: Wall, pos: [1, 6], faction: pirates}
rooms:
  - {role: Bedroom, rect: [6, 1, 8, 4]}
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	m, err := grid.LoadScene(path, cats)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Width() != 12 || m.Depth() != 8 {
		t.Fatalf("size %dx%d", m.Width(), m.Depth())
	}
	if got := m.TerrainAt(geom.Cell{X: 2, Z: 1}); got == nil || got.Name != "Concrete" {
		t.Fatalf("terrain = %v", got)
	}
	if len(m.Things()) != 4 {
		t.Fatalf("things = %d", len(m.Things()))
	}
	bed := m.ThingsAt(geom.Cell{X: 7, Z: 2})[0]
	if bed.Rotation != geom.East || bed.Stage != blueprint.StageFrame {
		t.Fatalf("bed = %+v", bed)
	}
	pirate := m.ThingsAt(geom.Cell{X: 1, Z: 6})[0]
	if m.IsCapturableThing(pirate) {
		t.Fatalf("other factions are not capturable")
	}
	if r, ok := m.RoomAt(geom.Cell{X: 8, Z: 4}); !ok || r.Role != "Bedroom" {
		t.Fatalf("room = %+v %v", r, ok)
	}
	if !m.Unlocked(gridtest.ResearchElectricity) {
		t.Fatalf("research not unlocked")
	}
}

func TestLoadShippedScene(t *testing.T) {
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	m, err := grid.LoadScene(filepath.Join("..", "..", "..", "configs", "scene.yaml"), cats)
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	if m.Width() != 32 || m.Depth() != 20 {
		t.Fatalf("size %dx%d", m.Width(), m.Depth())
	}
	if r, ok := m.RoomAt(geom.Cell{X: 4, Z: 3}); !ok || r.Role != "Bedroom" {
		t.Fatalf("room = %+v %v", r, ok)
	}
	tpl, err := blueprint.Create(geom.Rect{MinX: 1, MinZ: 1, MaxX: 7, MaxZ: 6}.Cells(), m, nil)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if tpl.Name() != "Bedroom_1" || tpl.Size() != (geom.Size{X: 7, Z: 6}) {
		t.Fatalf("template = %v", tpl)
	}
}
