package receiver

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// snapshotSchema is the minimum shape of a dump1090 aircraft.json document.
const snapshotSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["now", "messages", "aircraft"],
  "properties": {
    "now":      {"type": "number"},
    "messages": {"type": "number", "minimum": 0},
    "secret":   {"type": "string"},
    "aircraft": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["hex"],
        "properties": {"hex": {"type": "string"}}
      }
    }
  }
}`

func compileSchema() (*gojsonschema.Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(snapshotSchema))
	if err != nil {
		return nil, fmt.Errorf("receiver: compile schema: %w", err)
	}
	return s, nil
}

// validate returns nil when raw conforms to the schema, otherwise an ErrSchema
// naming every violation.
func validate(s *gojsonschema.Schema, raw []byte) error {
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
}
