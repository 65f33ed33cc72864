package registry

import (
	"errors"
	"fmt"
	"io"
	"log"

	"blueprints.ai/internal/blueprint"
	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/persistence/indexdb"
	"blueprints.ai/internal/persistence/record"
)

var ErrNotFound = errors.New("template not found")

// Index mirrors saves and deletes into a secondary index.
type Index interface {
	Upsert(r indexdb.Row) error
	Delete(name string) error
}

type Options struct {
	Store    *record.Store
	Index    Index
	Catalogs *catalogs.Catalogs
	Host     blueprint.Host
	Logger   *log.Logger
	Audit    AuditLogger
}

// Controller runs template operations against the registry, the host world
// and the record store. It is not safe for concurrent use.
type Controller struct {
	reg    *Registry
	store  *record.Store
	index  Index
	cats   *catalogs.Catalogs
	host   blueprint.Host
	logger *log.Logger

	auditLog AuditLogger

	active *blueprint.Template
}

func NewController(reg *Registry, opts Options) *Controller {
	if reg == nil {
		reg = New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Controller{
		reg:    reg,
		store:  opts.Store,
		index:  opts.Index,
		cats:   opts.Catalogs,
		host:   opts.Host,
		logger: logger,

		auditLog: opts.Audit,
	}
}

func (c *Controller) Registry() *Registry          { return c.reg }
func (c *Controller) Host() blueprint.Host         { return c.host }
func (c *Controller) Catalogs() *catalogs.Catalogs { return c.cats }
func (c *Controller) Active() *blueprint.Template  { return c.active }

// Create captures cells from the host and registers the result.
func (c *Controller) Create(cells []geom.Cell) (*blueprint.Template, error) {
	t, err := blueprint.Create(cells, c.host, c.reg)
	if err != nil {
		return nil, err
	}
	if err := c.reg.Add(t); err != nil {
		return nil, err
	}
	c.logger.Printf("captured %s", t)
	c.audit(AuditEntry{Op: OpCapture, Name: t.Name()})
	return t, nil
}

// CreateFromThings copies the capturable things among things and registers
// the result.
func (c *Controller) CreateFromThings(things []*blueprint.Thing) (*blueprint.Template, error) {
	if c.host != nil {
		capturable := make([]*blueprint.Thing, 0, len(things))
		for _, t := range things {
			if c.host.IsCapturableThing(t) {
				capturable = append(capturable, t)
			}
		}
		things = capturable
	}
	t, err := blueprint.CreateFromThings(things, c.reg)
	if err != nil {
		return nil, err
	}
	t.SetHost(c.host)
	if err := c.reg.Add(t); err != nil {
		return nil, err
	}
	c.logger.Printf("copied %s", t)
	c.audit(AuditEntry{Op: OpCapture, Name: t.Name()})
	return t, nil
}

// Select makes t the template being placed. Availability is recomputed since
// prerequisites may have changed since it was last shown.
func (c *Controller) Select(t *blueprint.Template) error {
	if t == nil {
		c.active = nil
		return nil
	}
	if c.reg.Find(t.Name()) != t {
		return fmt.Errorf("%w: %q", ErrNotFound, t.Name())
	}
	if t.Host() != c.host {
		t.SetHost(c.host)
	} else {
		t.RecacheBuildables()
	}
	c.active = t
	return nil
}

func (c *Controller) SelectByName(name string) (*blueprint.Template, error) {
	t := c.reg.Find(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return t, c.Select(t)
}

// Stamp places t at origin. A stamp where everything is already in place is
// logged and changes nothing.
func (c *Controller) Stamp(t *blueprint.Template, origin geom.Cell, planning bool) blueprint.StampResult {
	res := t.Stamp(origin, planning)
	if res.AllInPlace(len(t.AvailableContents())) {
		c.logger.Printf("stamp %s at %v: already in place", t.Name(), origin)
		return res
	}
	c.logger.Printf("stamp %s at %v: designated=%d planned=%d skipped=%d blocked=%d",
		t.Name(), origin, res.Designated, res.Planned, res.Skipped, res.Blocked)
	c.audit(AuditEntry{
		Op:     OpStamp,
		Name:   t.Name(),
		Origin: &[2]int{origin.X, origin.Z},
		Result: map[string]int{"designated": res.Designated, "planned": res.Planned, "skipped": res.Skipped, "blocked": res.Blocked},
	})
	return res
}

// Save writes t to the store and marks it exported. On failure t stays
// unexported.
func (c *Controller) Save(t *blueprint.Template) error {
	if c.store == nil {
		return fmt.Errorf("save %s: no store", t.Name())
	}
	rec := ToRecord(t)
	rec.Exported = true
	h, err := c.store.Write(rec)
	if err != nil {
		c.logger.Printf("save %s: %v", t.Name(), err)
		return err
	}
	t.MarkExported()
	c.indexSaved(rec, h)
	c.audit(AuditEntry{Op: OpSave, Name: t.Name()})
	return nil
}

func (c *Controller) indexSaved(rec record.RecordV1, h record.Header) {
	if c.index == nil {
		return
	}
	err := c.index.Upsert(indexdb.Row{
		Name:    rec.Name,
		Path:    c.store.Path(rec.Name),
		Digest:  record.Digest(rec),
		Entries: len(rec.Entries),
		Width:   rec.Size[0],
		Depth:   rec.Size[1],
		SavedAt: timeOf(h),
	})
	if err != nil {
		// the record file is the source of truth
		c.logger.Printf("index %s: %v", rec.Name, err)
	}
}

// SavedNames lists stored templates, most recently saved first.
func (c *Controller) SavedNames() ([]string, error) {
	if c.store == nil {
		return nil, nil
	}
	infos, err := c.store.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, in := range infos {
		names = append(names, in.Name)
	}
	return names, nil
}

// Load reads a stored template and registers it. Entries whose defs are gone
// are dropped.
func (c *Controller) Load(name string) (*blueprint.Template, error) {
	if c.store == nil {
		return nil, fmt.Errorf("load %s: no store", name)
	}
	if !blueprint.CouldBeValidName(name) {
		return nil, fmt.Errorf("load: %w: %q", blueprint.ErrInvalidName, name)
	}
	if c.reg.Find(name) != nil {
		return nil, fmt.Errorf("%w: %q", blueprint.ErrNameTaken, name)
	}
	_, rec, err := c.store.Read(name)
	if err != nil {
		c.logger.Printf("load %s: %v", name, err)
		return nil, err
	}
	if rec.Name != name {
		c.logger.Printf("load %s: file holds %q, using file name", name, rec.Name)
	}
	entries, dropped := FromRecord(rec, c.cats, c.logger)
	t := blueprint.Restore(name, geom.Size{X: rec.Size[0], Z: rec.Size[1]}, rec.Exported && dropped == 0, entries)
	t.SetHost(c.host)
	if err := c.reg.Add(t); err != nil {
		return nil, err
	}
	c.logger.Printf("loaded %s", t)
	return t, nil
}

// LoadAll loads every stored template that is not live yet. A failing file is
// logged and skipped; the joined errors are returned with what did load.
func (c *Controller) LoadAll() ([]*blueprint.Template, error) {
	names, err := c.SavedNames()
	if err != nil {
		return nil, err
	}
	var (
		out  []*blueprint.Template
		errs []error
	)
	for _, n := range names {
		if c.reg.Find(n) != nil {
			continue
		}
		t, err := c.Load(n)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, t)
	}
	return out, errors.Join(errs...)
}

// Remove unregisters t and, if asked, deletes its stored record.
func (c *Controller) Remove(t *blueprint.Template, removeFromDisk bool) error {
	if !c.reg.Remove(t) {
		return fmt.Errorf("%w: %q", ErrNotFound, t.Name())
	}
	if c.active == t {
		c.active = nil
	}
	if !removeFromDisk || c.store == nil {
		return nil
	}
	if err := c.store.Delete(t.Name()); err != nil {
		c.logger.Printf("remove %s: %v", t.Name(), err)
		return err
	}
	if c.index != nil {
		if err := c.index.Delete(t.Name()); err != nil {
			c.logger.Printf("index remove %s: %v", t.Name(), err)
		}
	}
	c.audit(AuditEntry{Op: OpDelete, Name: t.Name()})
	return nil
}

// Rename gives t a new name. A stored record moves with it; the rename fails
// when a record of the new name already exists.
func (c *Controller) Rename(t *blueprint.Template, name string) error {
	if c.reg.Find(t.Name()) != t {
		return fmt.Errorf("%w: %q", ErrNotFound, t.Name())
	}
	if name == t.Name() {
		return nil
	}
	if err := blueprint.IsValidName(name, c.reg); err != nil {
		return err
	}
	if c.store == nil || !c.store.Exists(t.Name()) {
		c.audit(AuditEntry{Op: OpRename, Name: t.Name(), To: name})
		c.reg.rename(t, name)
		return nil
	}
	if c.store.Exists(name) {
		return fmt.Errorf("%w: record %q exists", blueprint.ErrNameTaken, name)
	}

	old := t.Name()
	c.reg.rename(t, name)
	if err := c.Save(t); err != nil {
		c.reg.rename(t, old)
		return err
	}
	if err := c.store.Delete(old); err != nil {
		c.logger.Printf("rename %s: %v", old, err)
	}
	if c.index != nil {
		if err := c.index.Delete(old); err != nil {
			c.logger.Printf("index rename %s: %v", old, err)
		}
	}
	c.audit(AuditEntry{Op: OpRename, Name: old, To: name})
	return nil
}

// ShareCode encodes t as one line of text.
func (c *Controller) ShareCode(t *blueprint.Template) (string, error) {
	return record.EncodeShareCode(ToRecord(t))
}

// ImportShareCode registers the template in code. It keeps its name when that
// is valid and free, gets a numbered one when taken, and a generic numbered
// one when the name cannot be used.
func (c *Controller) ImportShareCode(code string) (*blueprint.Template, error) {
	rec, err := record.DecodeShareCode(code)
	if err != nil {
		return nil, err
	}
	entries, _ := FromRecord(rec, c.cats, c.logger)
	if len(entries) == 0 {
		return nil, blueprint.ErrNothingSelected
	}
	name := rec.Name
	switch {
	case !blueprint.CouldBeValidName(name):
		c.logger.Printf("import: unusable name %q", name)
		name = blueprint.UniqueName(blueprint.DefaultName(), c.reg)
	case c.reg.Find(name) != nil:
		name = blueprint.UniqueName(name, c.reg)
	}
	t := blueprint.Restore(name, geom.Size{X: rec.Size[0], Z: rec.Size[1]}, false, entries)
	t.SetHost(c.host)
	if err := c.reg.Add(t); err != nil {
		return nil, err
	}
	c.logger.Printf("imported %s", t)
	c.audit(AuditEntry{Op: OpImport, Name: t.Name()})
	return t, nil
}
