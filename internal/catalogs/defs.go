package catalogs

import (
	"fmt"
	"strings"

	"blueprints.ai/internal/geom"
)

type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Buildable is the part of a def that a template entry can place.
type Buildable interface {
	DefName() string
	LabelCap() string
	Category() string
	ResearchPrerequisite() string
	CostListAdjusted(stuff *StuffDef) []ItemCount
}

type LinkFlags uint16

const (
	LinkWall LinkFlags = 1 << iota
	LinkRock
	LinkSandbags
	LinkFences
	LinkPowerConduit
	LinkBarricades
)

var linkFlagNames = map[string]LinkFlags{
	"wall":          LinkWall,
	"rock":          LinkRock,
	"sandbags":      LinkSandbags,
	"fences":        LinkFences,
	"power_conduit": LinkPowerConduit,
	"barricades":    LinkBarricades,
}

func ParseLinkFlags(names []string) (LinkFlags, error) {
	var f LinkFlags
	for _, n := range names {
		v, ok := linkFlagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown link flag %q", n)
		}
		f |= v
	}
	return f, nil
}

type ThingDef struct {
	Name                string      `json:"name"`
	Label               string      `json:"label"`
	Size                geom.Size   `json:"size"`
	Rotatable           bool        `json:"rotatable"`
	LinkFlagNames       []string    `json:"link_flags,omitempty"`
	HasInteractionCell  bool        `json:"has_interaction_cell,omitempty"`
	DesignationCategory string      `json:"designation_category,omitempty"`
	CostList            []ItemCount `json:"cost_list,omitempty"`
	CostStuffCount      int         `json:"cost_stuff_count,omitempty"`
	StuffCategories     []string    `json:"stuff_categories,omitempty"`
	DefaultStuffName    string      `json:"default_stuff,omitempty"`
	Research            string      `json:"research,omitempty"`

	LinkFlags    LinkFlags `json:"-"`
	DefaultStuff *StuffDef `json:"-"`
}

func (d *ThingDef) DefName() string              { return d.Name }
func (d *ThingDef) Category() string             { return d.DesignationCategory }
func (d *ThingDef) ResearchPrerequisite() string { return d.Research }

func (d *ThingDef) LabelCap() string { return labelCap(d.Label, d.Name) }

func (d *ThingDef) Linked() bool { return d.LinkFlags != 0 }

func (d *ThingDef) MadeFromStuff() bool {
	return d.CostStuffCount > 0 && len(d.StuffCategories) > 0
}

// CostListAdjusted is the fixed cost list plus the stuff cost for stuff, or the
// default stuff when stuff is nil. Zero and unnamed rows are dropped.
func (d *ThingDef) CostListAdjusted(stuff *StuffDef) []ItemCount {
	out := make([]ItemCount, 0, len(d.CostList)+1)
	if d.MadeFromStuff() {
		if stuff == nil {
			stuff = d.DefaultStuff
		}
		if stuff != nil {
			n := (d.CostStuffCount + stuff.VolumePerUnit - 1) / stuff.VolumePerUnit
			out = addCost(out, ItemCount{Item: stuff.Name, Count: n})
		}
	}
	for _, c := range d.CostList {
		out = addCost(out, c)
	}
	return out
}

func addCost(out []ItemCount, c ItemCount) []ItemCount {
	if c.Item == "" || c.Count <= 0 {
		return out
	}
	for i := range out {
		if out[i].Item == c.Item {
			out[i].Count += c.Count
			return out
		}
	}
	return append(out, c)
}

type TerrainDef struct {
	Name                string      `json:"name"`
	Label               string      `json:"label"`
	DesignationCategory string      `json:"designation_category,omitempty"`
	CostList            []ItemCount `json:"cost_list,omitempty"`
	Research            string      `json:"research,omitempty"`
}

func (d *TerrainDef) DefName() string              { return d.Name }
func (d *TerrainDef) LabelCap() string             { return labelCap(d.Label, d.Name) }
func (d *TerrainDef) Category() string             { return d.DesignationCategory }
func (d *TerrainDef) ResearchPrerequisite() string { return d.Research }

func (d *TerrainDef) CostListAdjusted(*StuffDef) []ItemCount {
	out := make([]ItemCount, 0, len(d.CostList))
	for _, c := range d.CostList {
		out = addCost(out, c)
	}
	return out
}

type StuffDef struct {
	Name          string   `json:"name"`
	Label         string   `json:"label"`
	Categories    []string `json:"categories"`
	VolumePerUnit int      `json:"volume_per_unit,omitempty"`
}

func (s *StuffDef) LabelCap() string { return labelCap(s.Label, s.Name) }

// Fits reports whether s shares a stuff category with d.
func (s *StuffDef) Fits(d *ThingDef) bool {
	for _, want := range d.StuffCategories {
		for _, have := range s.Categories {
			if want == have {
				return true
			}
		}
	}
	return false
}

func labelCap(label, fallback string) string {
	if label == "" {
		label = fallback
	}
	r := []rune(label)
	if len(r) == 0 {
		return ""
	}
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
