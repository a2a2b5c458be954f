package api

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed todos.schema.json
var listSchemaJSON string

const listSchemaURL = "https://todo-ee.local/todos.schema.json"

var (
	listSchemaOnce sync.Once
	listSchema     *jsonschema.Schema
	listSchemaErr  error
)

func compiledListSchema() (*jsonschema.Schema, error) {
	listSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(listSchemaURL, strings.NewReader(listSchemaJSON)); err != nil {
			listSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		listSchema, listSchemaErr = compiler.Compile(listSchemaURL)
		if listSchemaErr != nil {
			listSchemaErr = fmt.Errorf("compile schema: %w", listSchemaErr)
		}
	})
	return listSchema, listSchemaErr
}

// validateList checks a GET /todos body before it replaces local state.
func validateList(body []byte) error {
	schema, err := compiledListSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			return errors.New(firstLeaf(ve))
		}
		return err
	}
	return nil
}

// firstLeaf returns the most specific validation message.
func firstLeaf(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}
