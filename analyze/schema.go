package analyze

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// resultSchema is the contract the assembled result must satisfy before we
// trust it. Validation failure selects the degraded path, never an error.
const resultSchema = `{
  "type": "object",
  "required": ["meeting_summary", "participants"],
  "properties": {
    "meeting_summary": {"type": "string", "minLength": 1},
    "participants": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "email", "tasks"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "email": {"type": "string", "minLength": 1},
          "tasks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["task"],
              "properties": {
                "task": {"type": "string"},
                "deadline": {"type": ["string", "null"]}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, schemaErr = compiler.Compile([]byte(resultSchema))
	})
	return compiledSchema, schemaErr
}

func validateResult(r *Result) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("compile result schema: %w", err)
	}

	doc, err := json.Marshal(struct {
		MeetingSummary string              `json:"meeting_summary"`
		Participants   []ResultParticipant `json:"participants"`
	}{
		MeetingSummary: r.Summary,
		Participants:   r.Participants,
	})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	outcome := schema.ValidateJSON(doc)
	if !outcome.IsValid() {
		return fmt.Errorf("schema validation failed: %v", outcome.Errors)
	}
	return nil
}
