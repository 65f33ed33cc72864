package blueprint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
)

var ErrStuffNotApplicable = errors.New("stuff does not fit buildable")

// Template is a captured footprint of buildings and terrain, relative to an
// origin cell, that can be rotated, mirrored and stamped elsewhere.
type Template struct {
	name     string
	exported bool
	size     geom.Size
	entries  []*Entry

	host Host

	// warnings already shown for this template
	mentioned mapset.Set[string]

	cache *contentsCache
}

type contentsCache struct {
	available  []*Entry
	buildables []catalogs.Buildable
	groups     []Group
	costs      []catalogs.ItemCount
}

// Group is every available entry of one buildable, in capture order.
type Group struct {
	Buildable catalogs.Buildable
	Entries   []*Entry
}

// New creates a not-yet-exported template. The name is derived from
// defaultName (or a generic name when it is not a valid name) with a numeric
// suffix that no template known to names uses yet.
func New(entries []*Entry, size geom.Size, defaultName string, names Finder) *Template {
	base := sanitizeName(defaultName)
	if !CouldBeValidName(base) {
		base = DefaultName()
	}
	t := Restore(UniqueName(base, names), size, false, entries)
	return t
}

// Restore rebuilds a template from persisted state as is.
func Restore(name string, size geom.Size, exported bool, entries []*Entry) *Template {
	t := &Template{
		name:      name,
		exported:  exported,
		size:      size,
		entries:   entries,
		mentioned: mapset.New[string](),
	}
	for _, e := range entries {
		e.template = t
		e.designator = nil
	}
	return t
}

func (t *Template) Name() string    { return t.name }
func (t *Template) Size() geom.Size { return t.size }
func (t *Template) Exported() bool  { return t.exported }
func (t *Template) Len() int        { return len(t.entries) }
func (t *Template) Host() Host      { return t.host }

// Entries returns the entries in capture order.
func (t *Template) Entries() []*Entry {
	return append([]*Entry(nil), t.entries...)
}

func (t *Template) MarkExported() { t.exported = true }

// Rename sets the name without any uniqueness check; callers go through the
// registry for that.
func (t *Template) Rename(name string) { t.name = name }

// SetHost binds the template to a world. Placement commands built for a
// previous host are dropped.
func (t *Template) SetHost(h Host) {
	t.host = h
	for _, e := range t.entries {
		e.designator = nil
	}
	t.RecacheBuildables()
}

// RecacheBuildables drops availability and everything derived from it. Call it
// when prerequisites may have changed.
func (t *Template) RecacheBuildables() {
	t.cache = nil
}

func (t *Template) contents() *contentsCache {
	if t.cache != nil {
		return t.cache
	}
	c := &contentsCache{}
	for _, e := range t.entries {
		// without a host there is no gating to consult
		if t.host != nil {
			if d := e.Designator(); d == nil || !d.Visible() {
				continue
			}
		}
		c.available = append(c.available, e)
	}

	index := map[catalogs.Buildable]int{}
	for _, e := range c.available {
		b := e.Buildable()
		i, ok := index[b]
		if !ok {
			i = len(c.groups)
			index[b] = i
			c.groups = append(c.groups, Group{Buildable: b})
			c.buildables = append(c.buildables, b)
		}
		c.groups[i].Entries = append(c.groups[i].Entries, e)
	}

	c.costs = sumCosts(c.available)
	t.cache = c
	return c
}

// AvailableContents are the entries whose buildable can currently be built.
func (t *Template) AvailableContents() []*Entry { return t.contents().available }

// Buildables lists the distinct buildables of the available entries.
func (t *Template) Buildables() []catalogs.Buildable { return t.contents().buildables }

func (t *Template) GroupedBuildables() []Group { return t.contents().groups }

// CostListAdjusted is the summed cost of every available entry, largest first.
func (t *Template) CostListAdjusted() []catalogs.ItemCount { return t.contents().costs }

// CanPlace reports whether no available entry is blocked at origin.
func (t *Template) CanPlace(origin geom.Cell) bool {
	for _, e := range t.AvailableContents() {
		if e.CanPlace(origin) == CanNotPlace {
			return false
		}
	}
	return true
}

// Rotate turns the whole template a quarter turn. It returns the warnings that
// this template has not reported before.
func (t *Template) Rotate(dir geom.RotationDirection) []FailReason {
	t.size = t.size.Rotated()
	t.exported = false
	var out []FailReason
	for _, e := range t.entries {
		out = t.surface(out, e.Rotate(dir))
	}
	return out
}

// Flip mirrors the template across its vertical axis. Warnings are reported
// as for Rotate.
func (t *Template) Flip() []FailReason {
	t.exported = false
	var out []FailReason
	for _, e := range t.entries {
		out = t.surface(out, e.Flip())
	}
	return out
}

func (t *Template) surface(out []FailReason, f FailReason) []FailReason {
	if f.OK() || t.mentioned.Has(f.Reason()) {
		return out
	}
	t.mentioned.Put(f.Reason())
	return append(out, f)
}

// SetStuffFor builds every entry of b from stuff and drops the caches.
func (t *Template) SetStuffFor(b catalogs.Buildable, stuff *catalogs.StuffDef) error {
	def, ok := b.(*catalogs.ThingDef)
	if !ok || !def.MadeFromStuff() {
		return fmt.Errorf("%w: %s is not made from stuff", ErrStuffNotApplicable, b.DefName())
	}
	if stuff != nil && !stuff.Fits(def) {
		return fmt.Errorf("%w: %s cannot be made from %s", ErrStuffNotApplicable, def.Name, stuff.Name)
	}
	for _, e := range t.entries {
		if e.thing == def {
			e.SetStuff(stuff)
		}
	}
	t.exported = false
	t.RecacheBuildables()
	return nil
}

// ShouldLinkWith reports whether an available building at pos shares a link
// flag with def.
func (t *Template) ShouldLinkWith(pos geom.Cell, def *catalogs.ThingDef) bool {
	if def == nil {
		return false
	}
	for _, e := range t.AvailableContents() {
		if e.thing != nil && e.Position() == pos && e.thing.LinkFlags&def.LinkFlags != 0 {
			return true
		}
	}
	return false
}

func (t *Template) DrawGhost(origin geom.Cell, r GhostRenderer) {
	for _, e := range t.AvailableContents() {
		e.DrawGhost(origin, r)
	}
}

type StampResult struct {
	Designated int
	Planned    int
	Skipped    int
	Blocked    int
}

func (r StampResult) Succeeded() bool { return r.Designated > 0 || r.Planned > 0 }

// AllInPlace is true when a stamp over available entries found every one of
// them already built or pending.
func (r StampResult) AllInPlace(available int) bool {
	return available > 0 && r.Skipped == available
}

// Stamp places the template with its origin at origin. Each entry is checked
// on its own: already placed entries are skipped and blocked ones left out.
// In planning mode wall-linked entries get plan designations instead.
func (t *Template) Stamp(origin geom.Cell, planning bool) StampResult {
	var res StampResult
	for _, e := range t.AvailableContents() {
		report := e.CanPlace(origin)
		switch {
		case report == AlreadyPlaced:
			res.Skipped++
		case planning:
			if e.Plan(origin) {
				res.Planned++
			}
		case report == CanPlace:
			if err := e.Designate(origin); err != nil {
				res.Blocked++
				continue
			}
			res.Designated++
		default:
			res.Blocked++
		}
	}
	return res
}

// RemainingCost is the cost still to pay for stamping at origin, leaving out
// entries that are already in place.
func (t *Template) RemainingCost(origin geom.Cell) []catalogs.ItemCount {
	var placed []*Entry
	for _, e := range t.AvailableContents() {
		if e.CanPlace(origin) == AlreadyPlaced {
			placed = append(placed, e)
		}
	}
	correct := map[string]int{}
	for _, c := range sumCosts(placed) {
		correct[c.Item] = c.Count
	}
	return subtractCosts(t.CostListAdjusted(), correct)
}

func (t *Template) String() string {
	return fmt.Sprintf("%s (%v, %d entries)", t.name, t.size, len(t.entries))
}

func sumCosts(entries []*Entry) []catalogs.ItemCount {
	var out []catalogs.ItemCount
	index := map[string]int{}
	for _, e := range entries {
		for _, c := range e.CostListAdjusted() {
			if c.Item == "" {
				continue
			}
			i, ok := index[c.Item]
			if !ok {
				index[c.Item] = len(out)
				out = append(out, c)
				continue
			}
			out[i].Count += c.Count
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
