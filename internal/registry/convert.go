package registry

import (
	"log"
	"time"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/persistence/record"
)

// ToRecord is the persisted form of t. Every entry is written, available or not.
func ToRecord(t *blueprint.Template) record.RecordV1 {
	rec := record.RecordV1{
		Name:     t.Name(),
		Size:     [2]int{t.Size().X, t.Size().Z},
		Exported: t.Exported(),
		Entries:  make([]record.EntryV1, 0, t.Len()),
	}
	for _, e := range t.Entries() {
		pos := e.RelativePosition()
		re := record.EntryV1{Pos: [2]int{pos.X, pos.Z}}
		if e.IsTerrain() {
			re.Terrain = e.Terrain().Name
		} else {
			re.Thing = e.Thing().Name
			re.Rot = e.Rotation().AsInt()
			if s := e.Stuff(); s != nil {
				re.Stuff = s.Name
			}
		}
		rec.Entries = append(rec.Entries, re)
	}
	return rec
}

// FromRecord rebuilds the entries of rec against cats. Entries whose def no
// longer exists are dropped; an unknown stuff falls back to the default.
func FromRecord(rec record.RecordV1, cats *catalogs.Catalogs, logger *log.Logger) ([]*blueprint.Entry, int) {
	entries := make([]*blueprint.Entry, 0, len(rec.Entries))
	dropped := 0
	for _, re := range rec.Entries {
		pos := geom.Cell{X: re.Pos[0], Z: re.Pos[1]}
		if re.Terrain != "" {
			d, ok := cats.Terrain(re.Terrain)
			if !ok {
				logger.Printf("template %s: dropping entry at %v: unknown terrain %q", rec.Name, pos, re.Terrain)
				dropped++
				continue
			}
			entries = append(entries, blueprint.NewTerrainEntry(d, pos))
			continue
		}

		d, ok := cats.Thing(re.Thing)
		if !ok {
			logger.Printf("template %s: dropping entry at %v: unknown thing %q", rec.Name, pos, re.Thing)
			dropped++
			continue
		}
		var stuff *catalogs.StuffDef
		if re.Stuff != "" {
			s, ok := cats.StuffDef(re.Stuff)
			switch {
			case !ok:
				logger.Printf("template %s: %s at %v: unknown stuff %q, using default", rec.Name, d.Name, pos, re.Stuff)
			case !s.Fits(d):
				logger.Printf("template %s: %s at %v: %s does not fit, using default", rec.Name, d.Name, pos, s.Name)
			default:
				stuff = s
			}
		}
		entries = append(entries, blueprint.NewThingEntry(d, stuff, pos, geom.NormalizeRotation(re.Rot)))
	}
	return entries, dropped
}

func timeOf(h record.Header) time.Time { return time.UnixMilli(h.SavedAt) }
