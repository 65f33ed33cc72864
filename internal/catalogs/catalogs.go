package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"blueprints.ai/internal/geom"
)

type Catalogs struct {
	Things   ThingCatalog
	Terrains TerrainCatalog
	Stuff    StuffCatalog
}

type ThingCatalog struct {
	Names  []string
	Defs   map[string]*ThingDef
	Digest string
}

type TerrainCatalog struct {
	Names  []string
	Defs   map[string]*TerrainDef
	Digest string
}

type StuffCatalog struct {
	Names  []string
	Defs   map[string]*StuffDef
	Digest string
}

// Load reads things.json, terrains.json and stuff.json from configDir. The files
// may carry // and /* */ comments.
func Load(configDir string) (*Catalogs, error) {
	var (
		things   []*ThingDef
		terrains []*TerrainDef
		stuff    []*StuffDef
	)
	thingDigest, err := readDefs(filepath.Join(configDir, "things.json"), &things)
	if err != nil {
		return nil, err
	}
	terrainDigest, err := readDefs(filepath.Join(configDir, "terrains.json"), &terrains)
	if err != nil {
		return nil, err
	}
	stuffDigest, err := readDefs(filepath.Join(configDir, "stuff.json"), &stuff)
	if err != nil {
		return nil, err
	}

	c, err := New(things, terrains, stuff)
	if err != nil {
		return nil, err
	}
	c.Things.Digest = thingDigest
	c.Terrains.Digest = terrainDigest
	c.Stuff.Digest = stuffDigest
	return c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func readDefs(path string, out any) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := json.Unmarshal(jsonc.ToJSON(raw), out); err != nil {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return sha256Hex(raw), nil
}

// New indexes the given defs and resolves cross references (default stuff, link
// flags). Digests are computed over the canonical JSON of each list.
func New(things []*ThingDef, terrains []*TerrainDef, stuff []*StuffDef) (*Catalogs, error) {
	c := &Catalogs{
		Things:   ThingCatalog{Defs: map[string]*ThingDef{}},
		Terrains: TerrainCatalog{Defs: map[string]*TerrainDef{}},
		Stuff:    StuffCatalog{Defs: map[string]*StuffDef{}},
	}

	for _, s := range stuff {
		if s == nil || s.Name == "" {
			return nil, fmt.Errorf("stuff.json: empty name")
		}
		if _, dup := c.Stuff.Defs[s.Name]; dup {
			return nil, fmt.Errorf("stuff.json: duplicate name %q", s.Name)
		}
		if s.VolumePerUnit <= 0 {
			s.VolumePerUnit = 1
		}
		c.Stuff.Defs[s.Name] = s
	}
	c.Stuff.Names = sortedKeys(c.Stuff.Defs)

	for _, d := range terrains {
		if d == nil || d.Name == "" {
			return nil, fmt.Errorf("terrains.json: empty name")
		}
		if _, dup := c.Terrains.Defs[d.Name]; dup {
			return nil, fmt.Errorf("terrains.json: duplicate name %q", d.Name)
		}
		c.Terrains.Defs[d.Name] = d
	}
	c.Terrains.Names = sortedKeys(c.Terrains.Defs)

	for _, d := range things {
		if d == nil || d.Name == "" {
			return nil, fmt.Errorf("things.json: empty name")
		}
		if _, dup := c.Things.Defs[d.Name]; dup {
			return nil, fmt.Errorf("things.json: duplicate name %q", d.Name)
		}
		if err := c.resolveThing(d); err != nil {
			return nil, fmt.Errorf("things.json: %s: %w", d.Name, err)
		}
		c.Things.Defs[d.Name] = d
	}
	c.Things.Names = sortedKeys(c.Things.Defs)

	c.Things.Digest = digestOf(things)
	c.Terrains.Digest = digestOf(terrains)
	c.Stuff.Digest = digestOf(stuff)
	return c, nil
}

func (c *Catalogs) resolveThing(d *ThingDef) error {
	if d.Size.X == 0 && d.Size.Z == 0 {
		d.Size = geom.Size{X: 1, Z: 1}
	}
	if d.Size.X <= 0 || d.Size.Z <= 0 {
		return fmt.Errorf("bad size %v", d.Size)
	}
	flags, err := ParseLinkFlags(d.LinkFlagNames)
	if err != nil {
		return err
	}
	d.LinkFlags = flags

	if d.DefaultStuffName != "" {
		s, ok := c.Stuff.Defs[d.DefaultStuffName]
		if !ok {
			return fmt.Errorf("unknown default_stuff %q", d.DefaultStuffName)
		}
		d.DefaultStuff = s
	} else if d.MadeFromStuff() {
		for _, name := range c.Stuff.Names {
			if s := c.Stuff.Defs[name]; s.Fits(d) {
				d.DefaultStuff = s
				break
			}
		}
	}
	return nil
}

func digestOf(v any) string {
	b, _ := json.Marshal(v)
	return sha256Hex(b)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalogs) Thing(name string) (*ThingDef, bool) {
	d, ok := c.Things.Defs[name]
	return d, ok
}

func (c *Catalogs) Terrain(name string) (*TerrainDef, bool) {
	d, ok := c.Terrains.Defs[name]
	return d, ok
}

func (c *Catalogs) StuffDef(name string) (*StuffDef, bool) {
	d, ok := c.Stuff.Defs[name]
	return d, ok
}

// StuffOptionsFor lists, by name, every stuff the thing can be built from.
func (c *Catalogs) StuffOptionsFor(d *ThingDef) []*StuffDef {
	if d == nil || !d.MadeFromStuff() {
		return nil
	}
	var out []*StuffDef
	for _, name := range c.Stuff.Names {
		if s := c.Stuff.Defs[name]; s.Fits(d) {
			out = append(out, s)
		}
	}
	return out
}
