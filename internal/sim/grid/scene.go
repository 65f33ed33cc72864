package grid

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

// Scene describes a starting map in yaml.
type Scene struct {
	Width       int           `yaml:"width"`
	Depth       int           `yaml:"depth"`
	Faction     string        `yaml:"faction"`
	BaseTerrain string        `yaml:"base_terrain"`
	Research    []string      `yaml:"research"`
	Terrain     []TerrainSpec `yaml:"terrain"`
	Things      []ThingSpec   `yaml:"things"`
	Rooms       []RoomSpec    `yaml:"rooms"`
}

type TerrainSpec struct {
	Terrain string `yaml:"terrain"`
	Rect    [4]int `yaml:"rect"`
}

type ThingSpec struct {
	Def     string `yaml:"def"`
	Floor   string `yaml:"floor"`
	Stuff   string `yaml:"stuff"`
	Pos     [2]int `yaml:"pos"`
	Rot     int    `yaml:"rot"`
	Stage   string `yaml:"stage"`
	Faction string `yaml:"faction"`
}

type RoomSpec struct {
	Role string `yaml:"role"`
	Rect [4]int `yaml:"rect"`
}

func rectOf(r [4]int) geom.Rect {
	return geom.Rect{MinX: min(r[0], r[2]), MinZ: min(r[1], r[3]), MaxX: max(r[0], r[2]), MaxZ: max(r[1], r[3])}
}

func LoadScene(path string, cats *catalogs.Catalogs) (*Map, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Scene
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	m, err := s.Build(cats)
	if err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}
	return m, nil
}

// Build creates the map the scene describes.
func (s Scene) Build(cats *catalogs.Catalogs) (*Map, error) {
	if s.Width <= 0 || s.Depth <= 0 {
		return nil, fmt.Errorf("bad size %dx%d", s.Width, s.Depth)
	}
	var base *catalogs.TerrainDef
	if s.BaseTerrain != "" {
		d, ok := cats.Terrain(s.BaseTerrain)
		if !ok {
			return nil, fmt.Errorf("unknown terrain %q", s.BaseTerrain)
		}
		base = d
	}
	m := New(s.Width, s.Depth, base)
	if s.Faction != "" {
		m.SetFaction(s.Faction)
	}
	for _, r := range s.Research {
		m.Unlock(r)
	}

	for _, ts := range s.Terrain {
		d, ok := cats.Terrain(ts.Terrain)
		if !ok {
			return nil, fmt.Errorf("unknown terrain %q", ts.Terrain)
		}
		for _, c := range rectOf(ts.Rect).Cells() {
			m.SetTerrain(c, d)
		}
	}

	for i, ts := range s.Things {
		t, err := ts.thing(cats)
		if err != nil {
			return nil, fmt.Errorf("things[%d]: %w", i, err)
		}
		if err := m.Spawn(t); err != nil {
			return nil, fmt.Errorf("things[%d]: %w", i, err)
		}
	}

	for _, rs := range s.Rooms {
		m.AddRoom(rectOf(rs.Rect), rs.Role)
	}
	return m, nil
}

func (ts ThingSpec) thing(cats *catalogs.Catalogs) (*blueprint.Thing, error) {
	t := &blueprint.Thing{
		Position: geom.Cell{X: ts.Pos[0], Z: ts.Pos[1]},
		Rotation: geom.NormalizeRotation(ts.Rot),
		Faction:  ts.Faction,
	}
	switch strings.ToLower(ts.Stage) {
	case "", "built":
		t.Stage = blueprint.StageBuilt
	case "blueprint":
		t.Stage = blueprint.StageBlueprint
	case "frame":
		t.Stage = blueprint.StageFrame
	default:
		return nil, fmt.Errorf("unknown stage %q", ts.Stage)
	}

	switch {
	case ts.Def != "":
		d, ok := cats.Thing(ts.Def)
		if !ok {
			return nil, fmt.Errorf("unknown thing %q", ts.Def)
		}
		t.Def = d
	case ts.Floor != "":
		if t.Stage == blueprint.StageBuilt {
			return nil, fmt.Errorf("built floor %q belongs in terrain", ts.Floor)
		}
		d, ok := cats.Terrain(ts.Floor)
		if !ok {
			return nil, fmt.Errorf("unknown terrain %q", ts.Floor)
		}
		t.Terrain = d
	default:
		return nil, fmt.Errorf("thing without def or floor")
	}

	if ts.Stuff != "" {
		s, ok := cats.StuffDef(ts.Stuff)
		if !ok {
			return nil, fmt.Errorf("unknown stuff %q", ts.Stuff)
		}
		t.Stuff = s
	}
	return t, nil
}
