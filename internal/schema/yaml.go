package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// catalogNamespace seeds deterministic IDs for objects and fields declared in
// YAML without an explicit id.
var catalogNamespace = uuid.MustParse("7c0f4a52-5d7e-4b8e-9a43-2f1b7d0c9e61")

type yamlCatalog struct {
	Objects []yamlObject `yaml:"objects" validate:"required,min=1,dive"`
}

type yamlObject struct {
	ID            string      `yaml:"id" validate:"omitempty,uuid"`
	APIName       string      `yaml:"api_name" validate:"required"`
	Title         string      `yaml:"title"`
	PluralTitle   string      `yaml:"plural_title"`
	IsStandard    bool        `yaml:"is_standard"`
	StorageSchema string      `yaml:"storage_schema" validate:"required_if=IsStandard true"`
	StorageTable  string      `yaml:"storage_table" validate:"required_if=IsStandard true"`
	Fields        []yamlField `yaml:"fields" validate:"required,min=1,dive"`
}

type yamlField struct {
	ID            string `yaml:"id" validate:"omitempty,uuid"`
	APIName       string `yaml:"api_name" validate:"required"`
	Title         string `yaml:"title"`
	Type          string `yaml:"type" validate:"required,oneof=TEXT NUMBER CURRENCY PERCENTAGE DATE DATETIME BOOLEAN CHOICE MULTICHOICE EMAIL URL PHONE LOOKUP FORMULA"`
	Required      bool   `yaml:"required"`
	Unique        bool   `yaml:"unique"`
	StorageColumn string `yaml:"storage_column"`
	// Lookup is the api_name of the target object of a LOOKUP field.
	Lookup string `yaml:"lookup" validate:"required_if=Type LOOKUP"`
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) ([]*ObjectDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates a YAML catalog. LOOKUP targets must name an
// object declared in the same document.
func FromYAML(data []byte) ([]*ObjectDef, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	ids := make(map[string]uuid.UUID, len(doc.Objects))
	for _, o := range doc.Objects {
		if _, dup := ids[o.APIName]; dup {
			return nil, fmt.Errorf("duplicate object %q", o.APIName)
		}
		ids[o.APIName] = declaredID(o.ID, "object:"+o.APIName)
	}

	objs := make([]*ObjectDef, 0, len(doc.Objects))
	for _, o := range doc.Objects {
		obj := &ObjectDef{
			ID:                   ids[o.APIName],
			APIName:              o.APIName,
			Title:                o.Title,
			PluralTitle:          o.PluralTitle,
			IsStandard:           o.IsStandard,
			SupportsCustomFields: !o.IsStandard,
		}
		if o.IsStandard {
			obj.StorageSchema = new(o.StorageSchema)
			obj.StorageTable = new(o.StorageTable)
		}
		for _, f := range o.Fields {
			fd := FieldDef{
				ID:         declaredID(f.ID, "field:"+o.APIName+"."+f.APIName),
				APIName:    f.APIName,
				Title:      f.Title,
				Type:       FieldType(f.Type),
				IsRequired: f.Required,
				IsUnique:   f.Unique,
				IsStandard: o.IsStandard,
			}
			if f.StorageColumn != "" {
				fd.StorageColumn = new(f.StorageColumn)
			}
			if f.Lookup != "" {
				target, ok := ids[f.Lookup]
				if !ok {
					return nil, fmt.Errorf("field %s.%s: unknown lookup target %q", o.APIName, f.APIName, f.Lookup)
				}
				fd.LookupObjectID = &target
			}
			obj.Fields = append(obj.Fields, fd)
		}
		obj.Index()
		if len(obj.FieldsByAPIName) != len(obj.Fields) {
			return nil, fmt.Errorf("object %q declares a field twice", obj.APIName)
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func declaredID(raw, name string) uuid.UUID {
	if raw != "" {
		return uuid.MustParse(raw)
	}
	return uuid.NewSHA1(catalogNamespace, []byte(name))
}
