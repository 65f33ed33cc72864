package app

import (
	"path/filepath"
	"testing"

	"blueprints.ai/internal/geom"
	"blueprints.ai/internal/tuning"
)

func testTuning(t *testing.T) tuning.Tuning {
	t.Helper()
	dir := t.TempDir()
	tune := tuning.Defaults()
	tune.ConfigDir = filepath.Join("..", "..", "configs")
	tune.Scene = filepath.Join("..", "..", "configs", "scene.yaml")
	tune.SaveDir = filepath.Join(dir, "blueprints")
	tune.IndexDB = filepath.Join(dir, "index", "index.db")
	tune.AuditDir = filepath.Join(dir, "audit")
	return tune
}

func TestOpenCaptureSaveReopen(t *testing.T) {
	tune := testTuning(t)
	a, err := Open(tune, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tpl, err := a.Ctrl.Create(geom.Rect{MinX: 1, MinZ: 1, MaxX: 7, MaxZ: 6}.Cells())
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := a.Ctrl.Save(tpl); err != nil {
		t.Fatalf("save: %v", err)
	}
	rows, err := a.Index.List()
	if err != nil || len(rows) != 1 || rows[0].Name != tpl.Name() {
		t.Fatalf("index rows = %+v err=%v", rows, err)
	}
	if _, ok, err := a.Index.CatalogDigest("things"); !ok || err != nil {
		t.Fatalf("catalog digest not indexed: ok=%v err=%v", ok, err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	trail, err := a.Audit.ReadAll()
	if err != nil || len(trail) != 2 || trail[0].Op != "capture" || trail[1].Op != "save" {
		t.Fatalf("audit = %+v err=%v", trail, err)
	}

	b, err := Open(tune, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	got := b.Ctrl.Registry().Find(tpl.Name())
	if got == nil || got.Len() != tpl.Len() || !got.Exported() {
		t.Fatalf("reloaded = %v", got)
	}
}

func TestOpenWithoutSceneOrIndex(t *testing.T) {
	tune := testTuning(t)
	tune.Scene = ""
	tune.IndexDB = ""
	tune.AuditDir = ""
	a, err := Open(tune, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer a.Close()
	if a.Index != nil || a.Audit != nil {
		t.Fatalf("index and audit should be off")
	}
	if a.Map.Width() != blankMapSize {
		t.Fatalf("width = %d", a.Map.Width())
	}
}
