package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

const schemaName = "catalog.schema.json"

var catalogSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	var doc any
	if err := json.Unmarshal(schemaJSON, &doc); err != nil {
		panic(fmt.Sprintf("parse embedded %s: %v", schemaName, err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, doc); err != nil {
		panic(fmt.Sprintf("add %s resource: %v", schemaName, err))
	}
	sch, err := compiler.Compile(schemaName)
	if err != nil {
		panic(fmt.Sprintf("compile %s: %v", schemaName, err))
	}
	return sch
}

type catalogFile struct {
	Questions []Question `yaml:"questions"`
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates YAML catalog bytes against the embedded schema and builds a Catalog.
func Parse(data []byte) (*Catalog, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrInvalidCatalog, err)
	}
	if err := catalogSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: schema: %v", ErrInvalidCatalog, err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: yaml: %w", ErrInvalidCatalog, err)
	}
	return New(f.Questions)
}
