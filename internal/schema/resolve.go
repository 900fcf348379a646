package schema

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/atlekbai/querybind/internal/expr"
)

// ErrUnknownField is returned when a path segment names no field.
var ErrUnknownField = errors.New("unknown field")

// Catalog looks up object definitions by ID. *Cache implements it.
type Catalog interface {
	GetByID(id uuid.UUID) *ObjectDef
}

// PropertyPath identifies a location inside an object type. It is comparable
// and used as a map key.
type PropertyPath struct {
	Root uuid.UUID
	Path expr.Path
}

func (p PropertyPath) String() string { return p.Path.String() }

// ResolvedPath is a PropertyPath checked against the catalog.
type ResolvedPath struct {
	Path PropertyPath
	// Chain holds the LOOKUP fields walked before the leaf, outermost first.
	Chain []*FieldDef
	Leaf  *FieldDef
	// Owner declares Leaf.
	Owner *ObjectDef
}

// Nested reports whether the path crosses at least one LOOKUP.
func (r *ResolvedPath) Nested() bool { return len(r.Chain) > 0 }

// ResolvePath walks dotted through obj, following LOOKUP fields into their
// target objects for every segment but the last.
func ResolvePath(cat Catalog, obj *ObjectDef, dotted string) (*ResolvedPath, error) {
	path := expr.Path(dotted)
	segs := path.Segments()
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty path: %w", ErrUnknownField)
	}

	res := &ResolvedPath{Path: PropertyPath{Root: obj.ID, Path: path}}
	cur := obj
	for i, seg := range segs {
		fd, ok := cur.FieldsByAPIName[seg]
		if !ok {
			return nil, fmt.Errorf("%q on %s: %w", seg, cur.APIName, ErrUnknownField)
		}
		if i == len(segs)-1 {
			res.Leaf = fd
			res.Owner = cur
			return res, nil
		}
		if fd.Type != FieldLookup || fd.LookupObjectID == nil {
			return nil, fmt.Errorf("field %q on %s is not a LOOKUP field", seg, cur.APIName)
		}
		if cat == nil {
			return nil, fmt.Errorf("no catalog to follow LOOKUP field %q", seg)
		}
		next := cat.GetByID(*fd.LookupObjectID)
		if next == nil {
			return nil, fmt.Errorf("lookup target for field %q not found", seg)
		}
		res.Chain = append(res.Chain, fd)
		cur = next
	}
	return res, nil
}

// ResolvePath resolves dotted against obj using the cached catalog.
func (c *Cache) ResolvePath(obj *ObjectDef, dotted string) (*ResolvedPath, error) {
	return ResolvePath(c, obj, dotted)
}
