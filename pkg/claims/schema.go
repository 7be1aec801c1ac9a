package claims

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// SchemaValidator validates a decoded payload against a fixed JSON Schema.
// Schema fetching over the network is out of scope; callers supply the
// compiled schema document themselves (e.g. loaded from a local file or
// embedded constant).
type SchemaValidator interface {
	Validate(payload map[string]any) []Problem
}

// JSONSchemaValidator adapts kaptinlin/jsonschema to SchemaValidator,
// mirroring the teacher's own handling of *jsonschema.EvaluationResult in
// pkg/helpers/error.go.
type JSONSchemaValidator struct {
	schema *jsonschema.Schema
}

// NewJSONSchemaValidator compiles schemaDoc (raw JSON Schema bytes) into a
// reusable validator.
func NewJSONSchemaValidator(schemaDoc []byte) (*JSONSchemaValidator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("claims: compile schema: %w", err)
	}
	return &JSONSchemaValidator{schema: schema}, nil
}

// Validate implements SchemaValidator. It flattens kaptinlin/jsonschema's
// per-location EvaluationResult.Details into flat claim Problems, the same
// shape the teacher's formatValidationErrorsDocumentData produces in
// pkg/helpers/error.go.
func (v *JSONSchemaValidator) Validate(payload map[string]any) []Problem {
	normalized, err := marshalForValidation(payload)
	if err != nil {
		return []Problem{problem(CodeMalformedClaim, "", "payload is not JSON-representable: "+err.Error())}
	}

	result := v.schema.Validate(normalized)
	if result.IsValid() {
		return nil
	}

	var problems []Problem
	for _, detail := range result.Details {
		if detail.Valid {
			continue
		}
		for code, evalErr := range detail.Errors {
			problems = append(problems, problem(CodeMalformedClaim, detail.InstanceLocation, code+": "+evalErr.Error()))
		}
	}
	return problems
}

// marshalForValidation round-trips payload through encoding/json so that
// Go-native types produced elsewhere in the pipeline (time.Time, typed
// structs) match the plain JSON values the schema was written against.
func marshalForValidation(payload map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
