package compose

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OutputSchemaURL identifies OutputSchema when it is registered with a schema compiler.
const OutputSchemaURL = "https://occasion-listing.local/schema/listing.json"

// OutputSchema is the shape the completion is asked to return.
const OutputSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "bullets", "description", "keywords", "enhanced_content"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "bullets": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "description": {"type": "string", "minLength": 1},
    "keywords": {
      "type": "object",
      "required": ["frontend", "backend"],
      "properties": {
        "frontend": {"type": "array", "items": {"type": "string"}},
        "backend": {"type": "array", "items": {"type": "string"}}
      }
    },
    "enhanced_content": {
      "type": "object",
      "required": ["hero", "features", "trust", "usage", "comparison", "testimonials", "contents", "faq"],
      "properties": {
        "hero": {"$ref": "#/$defs/section"},
        "features": {"$ref": "#/$defs/section"},
        "trust": {"$ref": "#/$defs/section"},
        "usage": {"$ref": "#/$defs/section"},
        "comparison": {"$ref": "#/$defs/section"},
        "testimonials": {"$ref": "#/$defs/section"},
        "contents": {"$ref": "#/$defs/section"},
        "faq": {"$ref": "#/$defs/section"}
      }
    }
  },
  "$defs": {
    "section": {
      "type": "object",
      "required": ["title", "body", "keywords", "image_directive"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "body": {"type": "string", "minLength": 1},
        "keywords": {"type": "array", "items": {"type": "string"}},
        "image_directive": {"type": "string"}
      }
    }
  }
}`

// CompileOutputSchema compiles OutputSchema for validating decoded completions.
func CompileOutputSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(OutputSchemaURL, strings.NewReader(OutputSchema)); err != nil {
		return nil, fmt.Errorf("output schema load failed: %w", err)
	}
	compiled, err := c.Compile(OutputSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("output schema compile failed: %w", err)
	}
	return compiled, nil
}
