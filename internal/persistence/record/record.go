// Package record stores templates on disk, one zstd-compressed file per
// template, and encodes them as portable share codes.
package record

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

var (
	ErrVersion = errors.New("unsupported record version")
	ErrInvalid = errors.New("invalid record")
)

type Header struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	SavedAt int64  `json:"saved_at"`
}

// RecordV1 is the persisted form of one template.
type RecordV1 struct {
	Name     string    `json:"name" cbor:"1,keyasint"`
	Size     [2]int    `json:"size" cbor:"2,keyasint"`
	Exported bool      `json:"exported" cbor:"3,keyasint,omitempty"`
	Entries  []EntryV1 `json:"entries" cbor:"4,keyasint"`
}

// EntryV1 holds exactly one of Thing and Terrain.
type EntryV1 struct {
	Thing   string `json:"thing,omitempty" cbor:"1,keyasint,omitempty"`
	Terrain string `json:"terrain,omitempty" cbor:"2,keyasint,omitempty"`
	Stuff   string `json:"stuff,omitempty" cbor:"3,keyasint,omitempty"`
	Pos     [2]int `json:"pos" cbor:"4,keyasint"`
	Rot     int    `json:"rot,omitempty" cbor:"5,keyasint,omitempty"`
}

// Names become file names; same rule as the schema's name pattern.
var nameRegex = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

func ValidName(name string) bool { return nameRegex.MatchString(name) }

// Check validates the decoded shape beyond what the schema covers, including
// a name that is safe to use as a file name.
func (r *RecordV1) Check() error {
	if !ValidName(r.Name) {
		return fmt.Errorf("%w: name %q", ErrInvalid, r.Name)
	}
	return r.checkBody()
}

func (r *RecordV1) checkBody() error {
	if r.Size[0] < 0 || r.Size[1] < 0 {
		return fmt.Errorf("%w: negative size %v", ErrInvalid, r.Size)
	}
	for i, e := range r.Entries {
		if (e.Thing == "") == (e.Terrain == "") {
			return fmt.Errorf("%w: entry %d needs exactly one of thing and terrain", ErrInvalid, i)
		}
		if e.Rot < 0 || e.Rot > 3 {
			return fmt.Errorf("%w: entry %d rotation %d", ErrInvalid, i, e.Rot)
		}
	}
	return nil
}

func WriteFile(path string, h Header, rec RecordV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// write next to the target and rename so a failed save leaves the old file
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, h, rec); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(w io.Writer, h Header, rec RecordV1) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&rec); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func ReadFile(path string) (Header, RecordV1, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, RecordV1{}, err
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) (Header, RecordV1, error) {
	var h Header
	var rec RecordV1

	dec, err := zstd.NewReader(r)
	if err != nil {
		return h, rec, err
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 64*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, rec, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, rec, fmt.Errorf("decode header: %w", err)
	}
	if h.Version != Version {
		return h, rec, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}

	body, err := io.ReadAll(br)
	if err != nil {
		return h, rec, fmt.Errorf("read body: %w", err)
	}
	rec, err = decodeBody(body)
	return h, rec, err
}

func decodeBody(body []byte) (RecordV1, error) {
	var rec RecordV1
	if err := validateBody(body); err != nil {
		return rec, err
	}
	d := json.NewDecoder(bytes.NewReader(body))
	if err := d.Decode(&rec); err != nil {
		return rec, fmt.Errorf("decode body: %w", err)
	}
	return rec, rec.Check()
}
