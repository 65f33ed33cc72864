package record

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// SharePrefix marks a share code so pasted text can be recognized.
const SharePrefix = "bp1:"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("record: cbor encoder: " + err.Error())
	}
	decMode, err = cbor.DecOptions{MaxArrayElements: 1 << 20}.DecMode()
	if err != nil {
		panic("record: cbor decoder: " + err.Error())
	}
}

// EncodeShareCode packs rec into a single line of text. The exported flag is
// local state and is not carried.
func EncodeShareCode(rec RecordV1) (string, error) {
	rec.Exported = false
	raw, err := encMode.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("cbor encode: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return "", err
	}
	defer enc.Close()
	packed := enc.EncodeAll(raw, nil)
	return SharePrefix + base64.RawURLEncoding.EncodeToString(packed), nil
}

// DecodeShareCode unpacks a share code. The name is returned as found and may
// not be a valid file name; callers pick the name they register.
func DecodeShareCode(code string) (RecordV1, error) {
	var rec RecordV1
	if len(code) <= len(SharePrefix) || code[:len(SharePrefix)] != SharePrefix {
		return rec, fmt.Errorf("%w: not a share code", ErrInvalid)
	}
	packed, err := base64.RawURLEncoding.DecodeString(code[len(SharePrefix):])
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(16<<20))
	if err != nil {
		return rec, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(packed, nil)
	if err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := decMode.Unmarshal(raw, &rec); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return rec, rec.checkBody()
}

// Digest is a content hash of rec that ignores the exported flag, so a save
// that changed nothing keeps its digest.
func Digest(rec RecordV1) string {
	rec.Exported = false
	raw, err := encMode.Marshal(&rec)
	if err != nil {
		// RecordV1 has no types cbor cannot encode
		panic("record: digest: " + err.Error())
	}
	sum := blake3.Sum256(raw)
	return fmt.Sprintf("%x", sum[:])
}
