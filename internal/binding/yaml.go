package binding

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type yamlBindings struct {
	Include         []string          `yaml:"include" validate:"dive,required"`
	Exclude         []string          `yaml:"exclude" validate:"dive,required"`
	ExcludeUnlisted bool              `yaml:"exclude_unlisted"`
	Aliases         map[string]string `yaml:"aliases" validate:"dive,keys,required,endkeys,required"`
	Operations      map[string]string `yaml:"operations" validate:"dive,keys,required,endkeys,required"`
}

// LoadBindingsFile reads per-object bindings from a YAML file.
func LoadBindingsFile(path string) (map[string]*Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings file: %w", err)
	}
	return LoadBindingsYAML(data)
}

// LoadBindingsYAML parses a document mapping object API names to their
// bindings:
//
//	users:
//	  exclude: [password]
//	  aliases: {city: address.city}
//	  operations: {firstname: like}
func LoadBindingsYAML(data []byte) (map[string]*Bindings, error) {
	var doc map[string]yamlBindings
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	v := validator.New()
	out := make(map[string]*Bindings, len(doc))
	for object, yb := range doc {
		if err := v.Struct(yb); err != nil {
			return nil, fmt.Errorf("bindings for %s: %w", object, err)
		}
		b := NewBindings().Including(yb.Include...).Excluding(yb.Exclude...)
		if yb.ExcludeUnlisted {
			b.ExcludeUnlisted()
		}
		for alias, target := range yb.Aliases {
			b.Alias(alias, target)
		}
		for path, keyword := range yb.Operations {
			op, err := ParseOperation(keyword)
			if err != nil {
				return nil, fmt.Errorf("bindings for %s.%s: %w", object, path, err)
			}
			b.BindOperation(path, op)
		}
		out[object] = b
	}
	return out, nil
}
