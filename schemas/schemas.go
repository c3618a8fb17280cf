// Package schemas holds the JSON Schemas for files the tools read and write.
package schemas

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed save.schema.json
var saveSchema string

var (
	saveOnce     sync.Once
	saveCompiled *jsonschema.Schema
	saveErr      error
)

// Save returns the compiled save document schema.
func Save() (*jsonschema.Schema, error) {
	saveOnce.Do(func() {
		saveCompiled, saveErr = jsonschema.CompileString("save.schema.json", saveSchema)
	})
	return saveCompiled, saveErr
}

// ValidateSave checks raw save bytes against the current save format. Legacy
// single-layer chunk records do not validate.
func ValidateSave(raw []byte) error {
	s, err := Save()
	if err != nil {
		return fmt.Errorf("compile save schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return s.Validate(v)
}
