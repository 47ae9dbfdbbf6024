package lipidclass

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/registry.json
var registrySchema []byte

const registrySchemaURL = "registry.json"

// schemaValidator validates registry documents against the embedded schema.
type schemaValidator struct {
	schema *jsonschema.Schema
}

func newSchemaValidator() (*schemaValidator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(registrySchema))
	if err != nil {
		return nil, fmt.Errorf("parse embedded registry schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(registrySchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add registry schema: %w", err)
	}
	schema, err := c.Compile(registrySchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile registry schema: %w", err)
	}
	return &schemaValidator{schema: schema}, nil
}

// validate returns one message per leaf violation, prefixed with its JSON pointer.
func (v *schemaValidator) validate(data []byte) []string {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return []string{fmt.Sprintf("failed to parse JSON: %v", err)}
	}

	err = v.schema.Validate(inst)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	return collectErrors(ve)
}

func collectErrors(ve *jsonschema.ValidationError) []string {
	if len(ve.Causes) == 0 {
		path := "/" + strings.Join(ve.InstanceLocation, "/")
		return []string{fmt.Sprintf("%s: %s", path, ve.Error())}
	}
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectErrors(cause)...)
	}
	return msgs
}
