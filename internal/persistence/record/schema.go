package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "size", "entries"],
  "properties": {
    "name": {"type": "string", "pattern": "^[\\p{L}\\p{N}_]+$"},
    "size": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0},
      "minItems": 2,
      "maxItems": 2
    },
    "exported": {"type": "boolean"},
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["pos"],
        "properties": {
          "thing": {"type": "string", "minLength": 1},
          "terrain": {"type": "string", "minLength": 1},
          "stuff": {"type": "string"},
          "pos": {
            "type": "array",
            "items": {"type": "integer"},
            "minItems": 2,
            "maxItems": 2
          },
          "rot": {"type": "integer", "minimum": 0, "maximum": 3}
        },
        "oneOf": [
          {"required": ["thing"], "not": {"required": ["terrain"]}},
          {"required": ["terrain"], "not": {"required": ["thing"]}}
        ]
      }
    }
  }
}`

var bodySchema = jsonschema.MustCompileString("record.schema.json", recordSchema)

func validateBody(body []byte) error {
	d := json.NewDecoder(bytes.NewReader(body))
	d.UseNumber()
	var v any
	if err := d.Decode(&v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := bodySchema.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
