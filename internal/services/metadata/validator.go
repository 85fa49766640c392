package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/phambaophuc/image-ingest/internal/apperrors"
	"github.com/phambaophuc/image-ingest/internal/models"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	schemaURL = "annotation.json"

	// AnnotationSchema requires every key to be present; each may be null.
	AnnotationSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"id": {"type": ["string", "null"]},
		"product": {"type": ["string", "null"]},
		"gain": {"type": ["number", "null"]},
		"exposure": {"type": ["number", "null"]},
		"annotations": {"type": ["array", "null"]}
	},
	"required": ["id", "product", "gain", "exposure", "annotations"]
}`
)

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, strings.NewReader(AnnotationSchema)); err != nil {
		return nil, fmt.Errorf("failed to load annotation schema: %w", err)
	}

	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile annotation schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// Validate parses data as a single JSON value and checks it against the
// annotation schema. It returns the typed metadata together with its compact
// serialized form for persistence.
func (v *Validator) Validate(field string, data []byte) (*models.Metadata, []byte, error) {
	// encoding/json substitutes U+FFFD for bad bytes but json.Compact keeps them.
	if !utf8.Valid(data) {
		return nil, nil, apperrors.New(apperrors.KindMalformedJSON, field, "metadata is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindMalformedJSON, field, "metadata is not valid JSON", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, nil, apperrors.New(apperrors.KindMalformedJSON, field, "metadata must contain a single JSON value")
	}

	if err := v.schema.Validate(doc); err != nil {
		return nil, nil, schemaViolation(field, err)
	}

	var meta models.Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindSchemaViolation, field, "metadata does not match annotation schema", err)
	}

	compact := &bytes.Buffer{}
	if err := json.Compact(compact, data); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.KindMalformedJSON, field, "metadata is not valid JSON", err)
	}

	return &meta, compact.Bytes(), nil
}

func schemaViolation(field string, err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return apperrors.Wrap(apperrors.KindSchemaViolation, field, "metadata does not match annotation schema", err)
	}

	leaf := deepestCause(ve)
	location := leaf.InstanceLocation
	if location == "" {
		location = "/"
	}
	return apperrors.Wrap(apperrors.KindSchemaViolation, field,
		fmt.Sprintf("schema violation at %s: %s", location, leaf.Message), err)
}

func deepestCause(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}
