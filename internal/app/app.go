// Package app wires the tuning file into a ready controller: catalogs, the
// scene map, the record store, the optional sqlite index and the audit log.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/leonelquinteros/gotext"

	"blueprints.ai/internal/catalogs"
	"blueprints.ai/internal/persistence/indexdb"
	persistlog "blueprints.ai/internal/persistence/log"
	"blueprints.ai/internal/persistence/record"
	"blueprints.ai/internal/registry"
	"blueprints.ai/internal/sim/grid"
	"blueprints.ai/internal/tuning"
)

// LocaleDomain is the gettext domain for user-facing messages.
const LocaleDomain = "blueprints"

// Size of the blank map used when no scene is configured.
const blankMapSize = 64

type App struct {
	Tuning   tuning.Tuning
	Catalogs *catalogs.Catalogs
	Map      *grid.Map
	Store    *record.Store
	Index    *indexdb.SQLiteIndex
	Audit    *persistlog.AuditLogger
	Ctrl     *registry.Controller
}

func Open(t tuning.Tuning, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if t.LocaleDir != "" {
		gotext.Configure(t.LocaleDir, t.Language, LocaleDomain)
	}

	cats, err := catalogs.Load(t.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}

	var m *grid.Map
	if t.Scene != "" {
		m, err = grid.LoadScene(t.Scene, cats)
		if err != nil {
			return nil, fmt.Errorf("load scene: %w", err)
		}
	} else {
		m = grid.New(blankMapSize, blankMapSize, nil)
	}

	a := &App{
		Tuning:   t,
		Catalogs: cats,
		Map:      m,
		Store:    record.NewStore(t.SaveDir),
	}

	opts := registry.Options{
		Store:    a.Store,
		Catalogs: cats,
		Host:     m,
		Logger:   logger,
	}
	if t.IndexDB != "" {
		if err := os.MkdirAll(filepath.Dir(t.IndexDB), 0o755); err != nil {
			return nil, err
		}
		idx, err := indexdb.OpenSQLite(t.IndexDB)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
		if err := idx.UpsertCatalogs(cats); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
		a.Index = idx
		opts.Index = idx
	}

	if t.AuditDir != "" {
		a.Audit = persistlog.NewAuditLogger(t.AuditDir)
		opts.Audit = a.Audit
	}

	a.Ctrl = registry.NewController(registry.New(), opts)
	loaded, err := a.Ctrl.LoadAll()
	if err != nil {
		logger.Printf("load blueprints: %v", err)
	}
	logger.Printf("loaded %d blueprints from %s", len(loaded), t.SaveDir)
	return a, nil
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.Audit != nil {
		errs = append(errs, a.Audit.Close())
	}
	if a.Index != nil {
		errs = append(errs, a.Index.Close())
	}
	return errors.Join(errs...)
}
