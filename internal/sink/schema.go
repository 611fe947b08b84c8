package sink

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidPayload = fmt.Errorf("payload does not match schema")

const baseEventProps = `
    "id": { "type": "string", "minLength": 1 },
    "type": { "type": "string", "minLength": 1 },
    "jobId": { "type": "string" },
    "vote": { "type": "string", "enum": ["right", "wrong"] },
    "action": { "type": "string", "enum": ["applied", "not_interested", "undo"] },
    "title": { "type": "string" },
    "url": { "type": "string" },
    "lastDate": { "type": "string" },
    "note": { "type": "string" },
    "ts": { "type": "string", "minLength": 1 }
`

var eventSchemas = map[string]*gojsonschema.Schema{}

func init() {
	required := map[string][]string{
		"vote":    {"id", "type", "jobId", "vote", "ts"},
		"state":   {"id", "type", "jobId", "action", "ts"},
		"report":  {"id", "type", "jobId", "ts"},
		"missing": {"id", "type", "title", "url", "ts"},
		"undo":    {"id", "type", "jobId", "ts"},
	}
	for name, req := range required {
		doc := fmt.Sprintf(`{
  "type": "object",
  "properties": {%s},
  "required": ["%s"],
  "additionalProperties": false
}`, baseEventProps, strings.Join(req, `", "`))

		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
		if err != nil {
			panic(fmt.Sprintf("sink: bad embedded schema %q: %v", name, err))
		}
		eventSchemas[name] = s
	}
}

// ValidateEvent checks raw against the schema for its type tag. Undo
// variants (undo_applied, undo_vote_right, ...) share one schema.
func ValidateEvent(raw []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	key := probe.Type
	if strings.HasPrefix(key, "undo_") {
		key = "undo"
	}
	schema, ok := eventSchemas[key]
	if !ok {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidPayload, probe.Type)
	}

	res, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !res.Valid() {
		var msgs []string
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
	}
	return nil
}
