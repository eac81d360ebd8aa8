package product

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ErrUnknownKind is returned for a document kind without a schema.
var ErrUnknownKind = errors.New("unknown document kind")

// ValidationError lists every schema violation found in one document.
type ValidationError struct {
	Kind     Kind
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s document failed schema validation: %s", e.Kind, strings.Join(e.Problems, "; "))
}

var (
	compileOnce sync.Once
	compiled    map[Kind]*gojsonschema.Schema
	compileErr  error
)

func compiledSchemas() (map[Kind]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[Kind]*gojsonschema.Schema, len(schemas))
		for kind, s := range schemas {
			schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", kind, err)
				return
			}
			compiled[kind] = schema
		}
	})
	return compiled, compileErr
}

// Validate checks a JSON document against the schema of kind.
func Validate(kind Kind, data []byte) error {
	all, err := compiledSchemas()
	if err != nil {
		return err
	}
	schema, ok := all[kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &ValidationError{Kind: kind, Problems: []string{err.Error()}}
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &ValidationError{Kind: kind, Problems: problems}
	}

	return nil
}
