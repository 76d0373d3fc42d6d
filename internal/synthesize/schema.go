package synthesize

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/dshills/concord/internal/resilient"
)

// Schema pairs a raw JSON schema document, embedded into extraction prompts,
// with its compiled validator.
type Schema struct {
	Name     string
	Raw      string
	compiled *jsonschema.Schema
}

// MustSchema compiles a schema document, panicking on error. Schemas are
// package constants so a bad one is a programming error.
func MustSchema(name, raw string) *Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	compiled, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &Schema{Name: name, Raw: raw, compiled: compiled}
}

// Validate checks data against the schema. Failures come back as
// InvalidResponseError so the resilient layer treats them as retryable.
func (s *Schema) Validate(data []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &resilient.InvalidResponseError{Reason: "response is not valid JSON", Cause: err}
	}
	if err := s.compiled.Validate(inst); err != nil {
		return &resilient.InvalidResponseError{Reason: "response does not match " + s.Name + " schema", Cause: err}
	}
	return nil
}

var categorySchema = MustSchema("categories.json", `{
	"type": "object",
	"properties": {
		"categories": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"description": {"type": "string"}
				},
				"required": ["name"]
			}
		}
	},
	"required": ["categories"]
}`)

var findingSchema = MustSchema("findings.json", `{
	"type": "object",
	"properties": {
		"findings": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string", "minLength": 1},
					"description": {"type": "string"},
					"categoryName": {"type": "string"},
					"isStrength": {"type": "boolean"},
					"modelAgreement": {
						"type": "object",
						"additionalProperties": {"type": "boolean"}
					},
					"codeExample": {
						"type": "object",
						"properties": {
							"code": {"type": "string"},
							"language": {"type": "string"}
						},
						"required": ["code"]
					},
					"recommendation": {"type": "string"}
				},
				"required": ["title", "categoryName"]
			}
		}
	},
	"required": ["findings"]
}`)

var insightSchema = MustSchema("insights.json", `{
	"type": "object",
	"properties": {
		"insights": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"model": {"type": "string", "minLength": 1},
					"summary": {"type": "string"},
					"keyPoints": {
						"type": "array",
						"items": {"type": "string"}
					}
				},
				"required": ["model", "summary"]
			}
		}
	},
	"required": ["insights"]
}`)

var prioritySchema = MustSchema("priorities.json", `{
	"type": "object",
	"properties": {
		"high": {"type": "array", "items": {"type": "string"}},
		"medium": {"type": "array", "items": {"type": "string"}},
		"low": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["high", "medium", "low"]
}`)
