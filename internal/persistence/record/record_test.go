package record

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func sample() RecordV1 {
	return RecordV1{
		Name:     "Bedroom_1",
		Size:     [2]int{3, 3},
		Exported: true,
		Entries: []EntryV1{
			{Thing: "Wall", Stuff: "Steel", Pos: [2]int{-1, -1}},
			{Thing: "Bed", Stuff: "WoodLog", Pos: [2]int{0, 1}, Rot: 1},
			{Terrain: "WoodPlankFloor", Pos: [2]int{0, 0}},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	s.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	rec := sample()

	h, err := s.Write(rec)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h.Version != Version || h.Name != rec.Name || h.SavedAt != 1700000000000 {
		t.Fatalf("header %+v", h)
	}
	if !s.Exists(rec.Name) || s.Exists("Other") {
		t.Fatalf("Exists mismatch")
	}

	gotH, got, err := s.Read(rec.Name)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotH != h {
		t.Fatalf("header %+v want %+v", gotH, h)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Fatalf("record %+v want %+v", got, rec)
	}
	if _, err := os.Stat(s.Path(rec.Name) + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}

func TestStoreListNewestFirst(t *testing.T) {
	s := NewStore(t.TempDir())
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"Alpha_1", "Beta_1", "Gamma_1"} {
		rec := sample()
		rec.Name = name
		if _, err := s.Write(rec); err != nil {
			t.Fatalf("Write: %v", err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(s.Path(name), mt, mt); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}
	if err := os.WriteFile(s.Dir+"/notes.txt", []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	infos, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, in := range infos {
		names = append(names, in.Name)
	}
	if want := []string{"Gamma_1", "Beta_1", "Alpha_1"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("names %v want %v", names, want)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	s := NewStore(t.TempDir() + "/nope")
	infos, err := s.List()
	if err != nil || len(infos) != 0 {
		t.Fatalf("got %v %v", infos, err)
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Write(sample()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Delete("Bedroom_1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists("Bedroom_1") {
		t.Fatalf("still exists")
	}
	if err := s.Delete("Bedroom_1"); err != nil {
		t.Fatalf("deleting a missing record: %v", err)
	}
}

func TestWriteRejectsInvalidRecord(t *testing.T) {
	s := NewStore(t.TempDir())
	rec := sample()
	rec.Entries[0].Terrain = "Concrete"
	if _, err := s.Write(rec); !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v", err)
	}
}

func TestStoreRejectsNamesOutsideDir(t *testing.T) {
	parent := t.TempDir()
	s := NewStore(filepath.Join(parent, "saves"))
	for _, name := range []string{"../escaped", "a/b", "", "x.y"} {
		rec := sample()
		rec.Name = name
		if _, err := s.Write(rec); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Write %q: got %v", name, err)
		}
		if _, _, err := s.Read(name); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Read %q: got %v", name, err)
		}
		if err := s.Delete(name); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Delete %q: got %v", name, err)
		}
		if s.Exists(name) {
			t.Fatalf("Exists %q", name)
		}
	}
	if _, err := os.Stat(filepath.Join(parent, "escaped"+Ext)); !os.IsNotExist(err) {
		t.Fatalf("record escaped the store dir: %v", err)
	}
}

func TestReadValidatesBody(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]func(*RecordV1){
		"both defs":   func(r *RecordV1) { r.Entries[0].Terrain = "Concrete" },
		"no def":      func(r *RecordV1) { r.Entries[2].Terrain = "" },
		"bad rot":     func(r *RecordV1) { r.Entries[1].Rot = 7 },
		"bad name":    func(r *RecordV1) { r.Name = "two words" },
		"negative sz": func(r *RecordV1) { r.Size = [2]int{-1, 2} },
	}
	for name, mutate := range cases {
		rec := sample()
		mutate(&rec)
		path := dir + "/" + strings.ReplaceAll(name, " ", "_") + Ext
		if err := WriteFile(path, Header{Version: Version, Name: rec.Name}, rec); err != nil {
			t.Fatalf("%s: WriteFile: %v", name, err)
		}
		if _, _, err := ReadFile(path); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: got %v", name, err)
		}
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := t.TempDir() + "/v9" + Ext
	if err := WriteFile(path, Header{Version: 9, Name: "v9"}, sample()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := ReadFile(path); !errors.Is(err, ErrVersion) {
		t.Fatalf("got %v", err)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := t.TempDir() + "/junk" + Ext
	if err := os.WriteFile(path, []byte("not zstd at all"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, _, err := ReadFile(path); err == nil {
		t.Fatalf("expected error")
	}
}

func TestShareCodeRoundTrip(t *testing.T) {
	rec := sample()
	code, err := EncodeShareCode(rec)
	if err != nil {
		t.Fatalf("EncodeShareCode: %v", err)
	}
	if !strings.HasPrefix(code, SharePrefix) || strings.ContainsAny(code, "+/=\n") {
		t.Fatalf("code %q", code)
	}
	got, err := DecodeShareCode(code)
	if err != nil {
		t.Fatalf("DecodeShareCode: %v", err)
	}
	want := rec
	want.Exported = false
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestDecodeShareCodeLeavesNameToCaller(t *testing.T) {
	rec := sample()
	rec.Name = "../escaped"
	code, err := EncodeShareCode(rec)
	if err != nil {
		t.Fatalf("EncodeShareCode: %v", err)
	}
	got, err := DecodeShareCode(code)
	if err != nil {
		t.Fatalf("DecodeShareCode: %v", err)
	}
	if got.Name != "../escaped" || ValidName(got.Name) {
		t.Fatalf("name %q", got.Name)
	}
	if err := got.Check(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Check accepted %q: %v", got.Name, err)
	}
}

func TestDecodeShareCodeRejectsJunk(t *testing.T) {
	for _, code := range []string{"", "bp1:", "hello", "bp1:!!!!", "bp1:AAAA"} {
		if _, err := DecodeShareCode(code); err == nil {
			t.Fatalf("%q: expected error", code)
		}
	}
}

func TestDigestIgnoresExportedFlag(t *testing.T) {
	a := sample()
	b := sample()
	b.Exported = false
	if Digest(a) != Digest(b) {
		t.Fatalf("exported flag changed the digest")
	}
	if len(Digest(a)) != 64 {
		t.Fatalf("digest %q", Digest(a))
	}
	b.Entries[1].Rot = 2
	if Digest(a) == Digest(b) {
		t.Fatalf("rotation change kept the digest")
	}
}
