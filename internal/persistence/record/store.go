package record

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const Ext = ".bp.zst"

// Store keeps one file per template name in Dir.
type Store struct {
	Dir string
	Now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir, Now: time.Now}
}

type Info struct {
	Name    string
	Path    string
	ModTime time.Time
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name+Ext)
}

func (s *Store) Exists(name string) bool {
	if !ValidName(name) {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Write stores rec under its name, replacing any previous file.
func (s *Store) Write(rec RecordV1) (Header, error) {
	if err := rec.Check(); err != nil {
		return Header{}, err
	}
	h := Header{Version: Version, Name: rec.Name, SavedAt: s.now().UnixMilli()}
	if err := WriteFile(s.Path(rec.Name), h, rec); err != nil {
		return Header{}, fmt.Errorf("write %s: %w", rec.Name, err)
	}
	return h, nil
}

func (s *Store) Read(name string) (Header, RecordV1, error) {
	if !ValidName(name) {
		return Header{}, RecordV1{}, fmt.Errorf("read %q: %w: bad name", name, ErrInvalid)
	}
	h, rec, err := ReadFile(s.Path(name))
	if err != nil {
		return h, rec, fmt.Errorf("read %s: %w", name, err)
	}
	return h, rec, nil
}

func (s *Store) Delete(name string) error {
	if !ValidName(name) {
		return fmt.Errorf("delete %q: %w: bad name", name, ErrInvalid)
	}
	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// List returns every stored template, most recently written first. A missing
// directory lists as empty.
func (s *Store) List() ([]Info, error) {
	des, err := os.ReadDir(s.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, de := range des {
		if de.IsDir() || !strings.HasSuffix(de.Name(), Ext) {
			continue
		}
		fi, err := de.Info()
		if err != nil {
			continue
		}
		out = append(out, Info{
			Name:    strings.TrimSuffix(de.Name(), Ext),
			Path:    filepath.Join(s.Dir, de.Name()),
			ModTime: fi.ModTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
