// Package schema validates the raw declaration document against an
// embedded JSON schema before it is decoded into typed structs. Structural
// mistakes (wrong types, unknown enums, malformed IDs) surface here with
// JSON-pointer locations; semantic checks live in the sentinel package.
package schema

import (
	_ "embed"
	"encoding/json"
	"strings"

	ctlerrors "github.com/systmms/sentinelctl/internal/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed declaration.schema.json
var declarationSchema string

// ValidateDeclaration checks a raw YAML declaration against the schema
func ValidateDeclaration(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ctlerrors.ConfigError{
			Message:    "invalid YAML syntax in declaration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return ctlerrors.UserError{
			Message: "Failed to convert declaration for schema validation",
			Err:     err,
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(declarationSchema),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return ctlerrors.UserError{
			Message: "Schema validation error",
			Err:     err,
		}
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return ctlerrors.ConfigError{
			Message:    "declaration does not match the expected structure:\n  - " + strings.Join(problems, "\n  - "),
			Suggestion: "Run 'sentinelctl init' to see a valid starter declaration",
		}
	}

	return nil
}
