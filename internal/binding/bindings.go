package binding

import (
	"strings"

	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/schema"
)

// Func binds converted values to a node. A nil predicate contributes nothing.
type Func func(n expr.Node, values []any) (expr.Predicate, error)

// Bindings is the per-object-type binding configuration. Configure it once,
// then share it: lookups never mutate it.
type Bindings struct {
	include         map[string]bool
	exclude         map[string]bool
	excludeUnlisted bool
	aliases         map[string]string
	funcs           map[string]Func
	nodes           map[string]expr.Node
}

// NewBindings returns a configuration that makes every path of the object
// available with default binding.
func NewBindings() *Bindings {
	return &Bindings{
		include: make(map[string]bool),
		exclude: make(map[string]bool),
		aliases: make(map[string]string),
		funcs:   make(map[string]Func),
		nodes:   make(map[string]expr.Node),
	}
}

// Including restricts binding to the given paths and their descendants.
func (b *Bindings) Including(paths ...string) *Bindings {
	for _, p := range paths {
		b.include[p] = true
	}
	return b
}

// Excluding hides the given paths and their descendants.
func (b *Bindings) Excluding(paths ...string) *Bindings {
	for _, p := range paths {
		b.exclude[p] = true
	}
	return b
}

// ExcludeUnlisted hides every path that is not included, aliased or bound.
func (b *Bindings) ExcludeUnlisted() *Bindings {
	b.excludeUnlisted = true
	return b
}

// Bind uses fn for path whenever the parameter key names no operation.
func (b *Bindings) Bind(path string, fn Func) *Bindings {
	b.funcs[path] = fn
	return b
}

// BindOperation pins op as the operation for keys on path without suffix.
func (b *Bindings) BindOperation(path string, op Operation) *Bindings {
	return b.Bind(path, op.Predicate)
}

// BindNode replaces the node reified for path.
func (b *Bindings) BindNode(path string, n expr.Node) *Bindings {
	b.nodes[path] = n
	return b
}

// Alias exposes target under another parameter name.
func (b *Bindings) Alias(alias, target string) *Bindings {
	b.aliases[alias] = target
	return b
}

// IsPathAvailable reports whether a parameter on path may be bound for obj.
func (b *Bindings) IsPathAvailable(path string, obj *schema.ObjectDef) bool {
	if path == "" {
		return false
	}
	if target, ok := b.aliases[path]; ok {
		return !b.hidden(target)
	}
	if _, ok := obj.FieldsByAPIName[expr.Path(path).Segments()[0]]; !ok {
		return false
	}
	if b.hidden(path) {
		return false
	}
	if b.excludeUnlisted && !b.listed(path) {
		return false
	}
	if len(b.include) > 0 && !b.excludeUnlisted {
		return underAny(path, b.include)
	}
	return true
}

// PropertyPath resolves path, or the path it aliases, against obj.
func (b *Bindings) PropertyPath(cat schema.Catalog, path string, obj *schema.ObjectDef) (*schema.ResolvedPath, error) {
	if target, ok := b.aliases[path]; ok {
		path = target
	}
	return schema.ResolvePath(cat, obj, path)
}

// ExistingNode returns the node bound for pp, if any.
func (b *Bindings) ExistingNode(pp schema.PropertyPath) (expr.Node, bool) {
	n, ok := b.nodes[pp.Path.String()]
	return n, ok
}

// NodePaths maps the path of every bound node that differs from the path it
// is bound for to that path.
func (b *Bindings) NodePaths() map[expr.Path]expr.Path {
	out := make(map[expr.Path]expr.Path)
	for path, n := range b.nodes {
		if n.Path != expr.Path(path) {
			out[n.Path] = expr.Path(path)
		}
	}
	return out
}

// BindingFor returns the custom binding for pp, if any.
func (b *Bindings) BindingFor(pp schema.PropertyPath) (Func, bool) {
	fn, ok := b.funcs[pp.Path.String()]
	return fn, ok
}

func (b *Bindings) hidden(path string) bool {
	return underAny(path, b.exclude)
}

func (b *Bindings) listed(path string) bool {
	if underAny(path, b.include) {
		return true
	}
	_, bound := b.funcs[path]
	_, node := b.nodes[path]
	return bound || node
}

// underAny reports whether path or one of its ancestors is in set.
func underAny(path string, set map[string]bool) bool {
	for {
		if set[path] {
			return true
		}
		i := strings.LastIndexByte(path, '.')
		if i < 0 {
			return false
		}
		path = path[:i]
	}
}
