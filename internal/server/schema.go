// internal/server/schema.go
package server

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// applicationPayloadSchema validates the notification event body before it
// reaches the queue. Contact identity is required but not semantically
// validated here; that is the application layer's responsibility.
const applicationPayloadSchema = `{
	"type": "object",
	"required": ["applicationId", "customerName", "customerEmail", "customerPhone", "amount", "purpose", "status", "submittedAt"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"customerName": {"type": "string", "minLength": 1, "maxLength": 255},
		"customerEmail": {"type": "string", "minLength": 5, "maxLength": 255},
		"customerPhone": {"type": "string", "minLength": 1, "maxLength": 32},
		"amount": {"type": "integer", "minimum": 0},
		"purpose": {"type": "string", "minLength": 1, "maxLength": 500},
		"status": {"type": "string", "minLength": 1},
		"submittedAt": {"type": "string", "format": "date-time"},
		"additionalDetails": {
			"type": "object",
			"properties": {
				"address": {"type": "string"},
				"occupation": {"type": "string"},
				"workplace": {"type": "string"},
				"collateralType": {"type": "string"},
				"collateralAddress": {"type": "string"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}`

const emailRequestSchema = `{
	"type": "object",
	"required": ["to", "subject", "html"],
	"properties": {
		"to": {"type": "string", "minLength": 5, "maxLength": 255},
		"subject": {"type": "string", "minLength": 1, "maxLength": 500},
		"html": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

// ValidationError mirrors the shape returned to API clients.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type schemaValidator struct {
	payloadSchema *gojsonschema.Schema
	emailSchema   *gojsonschema.Schema
}

func newSchemaValidator() (*schemaValidator, error) {
	payloadSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(applicationPayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("compile payload schema: %w", err)
	}
	emailSchema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(emailRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile email schema: %w", err)
	}
	return &schemaValidator{
		payloadSchema: payloadSchema,
		emailSchema:   emailSchema,
	}, nil
}

func (v *schemaValidator) validatePayload(body []byte) []ValidationError {
	return validate(v.payloadSchema, body)
}

func (v *schemaValidator) validateEmail(body []byte) []ValidationError {
	return validate(v.emailSchema, body)
}

func validate(schema *gojsonschema.Schema, body []byte) []ValidationError {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []ValidationError{{Field: "body", Message: "invalid JSON document"}}
	}
	if result.Valid() {
		return nil
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
		})
	}
	return errs
}
