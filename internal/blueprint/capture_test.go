package blueprint_test

import (
	"errors"
	"reflect"
	"testing"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/sim/gridtest"
)

// names is a minimal Finder over already registered templates.
type names map[string]*blueprint.Template

func (n names) Find(name string) *blueprint.Template { return n[name] }

func (n names) add(t *blueprint.Template) { n[t.Name()] = t }

func TestCreateCapturesRoom(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 8, 8)
	rect := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{X: 2, Z: 2}, "Bedroom")

	tpl, err := blueprint.Create(rect.Cells(), m, names{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.Size() != (geom.Size{X: 3, Z: 3}) {
		t.Fatalf("size = %v", tpl.Size())
	}
	if tpl.Len() != 9 {
		t.Fatalf("entries = %d", tpl.Len())
	}
	if tpl.Name() != "Bedroom_1" {
		t.Fatalf("name = %q", tpl.Name())
	}
	if tpl.Exported() {
		t.Fatalf("fresh capture is not exported")
	}
	want := []catalogs.ItemCount{{Item: "Steel", Count: 40}, {Item: "WoodLog", Count: 3}}
	if got := tpl.CostListAdjusted(); !reflect.DeepEqual(got, want) {
		t.Fatalf("cost = %v want %v", got, want)
	}

	// origin is the room center
	var floor *blueprint.Entry
	for _, e := range tpl.Entries() {
		if e.IsTerrain() {
			floor = e
		}
	}
	if floor == nil || floor.RelativePosition() != (geom.Cell{}) {
		t.Fatalf("floor entry %v", floor)
	}
	if tpl.Entries()[0].IsTerrain() {
		t.Fatalf("buildings come before terrain")
	}

	// stamping over the source finds everything in place
	if res := tpl.Stamp(geom.Cell{X: 3, Z: 3}, false); res.Skipped != 9 {
		t.Fatalf("stamp over source %+v", res)
	}
}

func TestCreateGrowsForOverhangingBuildings(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 8, 8)
	gridtest.Spawn(t, m, &blueprint.Thing{Def: gridtest.Thing(t, cats, "Bed"), Position: geom.Cell{X: 5, Z: 5}})

	tpl, err := blueprint.Create([]geom.Cell{{X: 5, Z: 5}}, m, names{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.Size() != (geom.Size{X: 1, Z: 2}) {
		t.Fatalf("size = %v", tpl.Size())
	}
	if tpl.Len() != 1 {
		t.Fatalf("entries = %d", tpl.Len())
	}
}

func TestCreateDedupesCellsAndMultiCellThings(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 8, 8)
	gridtest.Spawn(t, m, &blueprint.Thing{Def: gridtest.Thing(t, cats, "Table"), Position: geom.Cell{X: 3, Z: 3}})

	cells := geom.Rect{MinX: 2, MinZ: 2, MaxX: 4, MaxZ: 4}.Cells()
	cells = append(cells, geom.Cell{X: 3, Z: 3})
	tpl, err := blueprint.Create(cells, m, names{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.Len() != 1 {
		t.Fatalf("table covering nine cells captured %d times", tpl.Len())
	}
	if tpl.Name() != "Blueprint_1" {
		t.Fatalf("name = %q", tpl.Name())
	}
}

func TestCreateNothingSelected(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 4, 4)
	if _, err := blueprint.Create(nil, m, names{}); !errors.Is(err, blueprint.ErrNothingSelected) {
		t.Fatalf("empty selection: %v", err)
	}
	// bare soil has no designation category
	if _, err := blueprint.Create([]geom.Cell{{X: 1, Z: 1}}, m, names{}); !errors.Is(err, blueprint.ErrNothingSelected) {
		t.Fatalf("nothing capturable: %v", err)
	}
}

func TestCreateSkipsForeignThings(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 4, 4)
	wall := gridtest.Thing(t, cats, "Wall")
	gridtest.Spawn(t, m, &blueprint.Thing{Def: wall, Position: geom.Cell{X: 1, Z: 1}, Faction: "raiders"})
	gridtest.Spawn(t, m, &blueprint.Thing{Def: wall, Position: geom.Cell{X: 2, Z: 1}})

	tpl, err := blueprint.Create([]geom.Cell{{X: 1, Z: 1}, {X: 2, Z: 1}}, m, names{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.Len() != 1 {
		t.Fatalf("entries = %d", tpl.Len())
	}
}

func TestCreateNamesFromRooms(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 12, 6)
	a := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{X: 0, Z: 0}, "Bedroom")
	b := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{X: 4, Z: 0}, "Bedroom")
	c := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{X: 8, Z: 0}, "Kitchen")

	reg := names{}
	first, err := blueprint.Create(a.Cells(), m, reg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	reg.add(first)
	second, err := blueprint.Create(a.Cells(), m, reg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Name() != "Bedroom_1" || second.Name() != "Bedroom_2" {
		t.Fatalf("names %q %q", first.Name(), second.Name())
	}

	both, err := blueprint.Create(append(a.Cells(), b.Cells()...), m, reg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if both.Name() != "Bedrooms_1" {
		t.Fatalf("two bedrooms named %q", both.Name())
	}

	mixed, err := blueprint.Create(append(b.Cells(), c.Cells()...), m, reg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if mixed.Name() != "Blueprint_1" {
		t.Fatalf("mixed roles named %q", mixed.Name())
	}
}

func TestCreateSanitizesRoomLabel(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 4, 4)
	rect := gridtest.BuildRoom3x3(t, m, cats, geom.Cell{}, "dining room")
	tpl, err := blueprint.Create(rect.Cells(), m, names{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tpl.Name() != "dining_room_1" {
		t.Fatalf("name = %q", tpl.Name())
	}
}

func TestCreateFromThings(t *testing.T) {
	cats := gridtest.Catalogs(t)
	things := []*blueprint.Thing{
		{Def: gridtest.Thing(t, cats, "Bench"), Position: geom.Cell{X: 10, Z: 10}, Rotation: geom.East},
		{Terrain: gridtest.Terrain(t, cats, "Concrete"), Stage: blueprint.StageBlueprint, Position: geom.Cell{X: 12, Z: 10}},
	}
	tpl, err := blueprint.CreateFromThings(things, names{})
	if err != nil {
		t.Fatalf("CreateFromThings: %v", err)
	}
	if tpl.Name() != "Selection_1" {
		t.Fatalf("name = %q", tpl.Name())
	}
	// east-facing bench covers (10,9)-(10,10)
	if tpl.Size() != (geom.Size{X: 3, Z: 2}) {
		t.Fatalf("size = %v", tpl.Size())
	}
	if tpl.Host() != nil {
		t.Fatalf("copied selection has no host")
	}
	if !tpl.Entries()[1].IsTerrain() {
		t.Fatalf("floor blueprint should become a terrain entry")
	}
	if _, err := blueprint.CreateFromThings(nil, names{}); !errors.Is(err, blueprint.ErrNothingSelected) {
		t.Fatalf("empty: %v", err)
	}
}

func TestCreateFromThingsCountsEachThingOnce(t *testing.T) {
	cats := gridtest.Catalogs(t)
	m := gridtest.Map(t, cats, 8, 8)
	gridtest.Spawn(t, m, &blueprint.Thing{Def: gridtest.Thing(t, cats, "Pedestal"), Position: geom.Cell{X: 3, Z: 3}})

	var things []*blueprint.Thing
	for _, c := range (geom.Rect{MinX: 1, MinZ: 1, MaxX: 6, MaxZ: 6}).Cells() {
		things = append(things, m.ThingsAt(c)...)
	}
	if len(things) != 4 {
		t.Fatalf("a 2x2 pedestal shows up in %d cells", len(things))
	}
	tpl, err := blueprint.CreateFromThings(things, names{})
	if err != nil {
		t.Fatalf("CreateFromThings: %v", err)
	}
	if tpl.Len() != 1 {
		t.Fatalf("got %d entries", tpl.Len())
	}
	cost := tpl.CostListAdjusted()
	if len(cost) != 1 || cost[0].Count != 40 {
		t.Fatalf("cost = %+v", cost)
	}
}
