package binding

import (
	"io"
	"log/slog"
	"sync"

	"github.com/atlekbai/querybind/internal/convert"
	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/schema"
)

// NodeResolver reifies the expression node for a resolved property path.
type NodeResolver interface {
	Resolve(rp *schema.ResolvedPath) (expr.Node, error)
}

// CapabilityResolver derives node capabilities from the leaf field type.
type CapabilityResolver struct{}

func (CapabilityResolver) Resolve(rp *schema.ResolvedPath) (expr.Node, error) {
	return expr.NewNode(rp.Path.Path, Capabilities(rp.Leaf)), nil
}

// Capabilities returns what operations may rely on for values of fd.
func Capabilities(fd *schema.FieldDef) expr.Capability {
	switch {
	case fd.IsCollection():
		return expr.CollectionLike
	case fd.IsTextual():
		return expr.Comparable | expr.StringLike
	case fd.IsNumeric(), fd.IsTemporal():
		return expr.Comparable | expr.Orderable
	default:
		return expr.Comparable
	}
}

// Builder assembles predicates from request parameters. It is safe for
// concurrent use; reified nodes are cached for the builder's lifetime.
type Builder struct {
	catalog  schema.Catalog
	conv     convert.Service
	resolver NodeResolver
	logger   *slog.Logger

	mu    sync.RWMutex
	nodes map[schema.PropertyPath]expr.Node
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger skipped parameters are reported to. A nil
// logger keeps the default, which discards.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithConverter replaces the default convert.Registry.
func WithConverter(s convert.Service) Option {
	return func(b *Builder) { b.conv = s }
}

// WithResolver replaces CapabilityResolver.
func WithResolver(r NodeResolver) Option {
	return func(b *Builder) { b.resolver = r }
}

// NewBuilder returns a Builder resolving LOOKUP paths through cat.
func NewBuilder(cat schema.Catalog, opts ...Option) *Builder {
	b := &Builder{
		catalog:  cat,
		conv:     convert.NewRegistry(),
		resolver: CapabilityResolver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		nodes:    make(map[schema.PropertyPath]expr.Node),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build conjoins the predicates of every parameter in params, in order.
// Parameters on unknown or unavailable paths are skipped. Any other failure
// aborts the build. With nothing to conjoin the result is expr.True.
func (b *Builder) Build(obj *schema.ObjectDef, params Params, bindings *Bindings) (expr.Predicate, error) {
	if bindings == nil {
		bindings = NewBindings()
	}

	var terms []expr.Predicate
	for _, p := range params {
		if len(p.Values) == 1 && convert.IsBlank(p.Values) {
			continue
		}

		key, err := ParseKey(p.Key)
		if err != nil {
			return nil, err
		}
		if !bindings.IsPathAvailable(key.Path, obj) {
			b.logger.Debug("parameter not bindable", "object", obj.APIName, "key", p.Key)
			continue
		}
		rp, err := bindings.PropertyPath(b.catalog, key.Path, obj)
		if err != nil {
			b.logger.Debug("parameter path not resolved", "object", obj.APIName, "key", p.Key, "error", err)
			continue
		}

		values, err := b.convert(rp, p.Values)
		if err != nil {
			return nil, err
		}
		node, err := b.node(rp, bindings)
		if err != nil {
			return nil, err
		}

		pred, err := invoke(key, rp.Path, node, values, bindings)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			terms = append(terms, pred)
		}
	}
	return expr.All(terms...), nil
}

// invoke applies an explicit operation if the key has one, else the custom
// binding for the path, else NoOp.
func invoke(key Key, pp schema.PropertyPath, n expr.Node, values []any, bindings *Bindings) (expr.Predicate, error) {
	if key.HasOperation() {
		return key.Op.Predicate(n, values)
	}
	if fn, ok := bindings.BindingFor(pp); ok {
		return fn(n, values)
	}
	return NoOp.Predicate(n, values)
}

func (b *Builder) convert(rp *schema.ResolvedPath, raw []string) ([]any, error) {
	if convert.IsBlank(raw) {
		return []any{}, nil
	}
	values := make([]any, 0, len(raw))
	for _, s := range raw {
		v, err := b.conv.Convert(s, rp.Leaf)
		if err != nil {
			return nil, &ConversionError{Path: rp.Path.String(), Value: s, Err: err}
		}
		values = append(values, v)
	}
	return values, nil
}

// node prefers a bound node, then the cache, then reifies and caches.
func (b *Builder) node(rp *schema.ResolvedPath, bindings *Bindings) (expr.Node, error) {
	if n, ok := bindings.ExistingNode(rp.Path); ok {
		return n, nil
	}

	b.mu.RLock()
	n, ok := b.nodes[rp.Path]
	b.mu.RUnlock()
	if ok {
		return n, nil
	}

	n, err := b.resolver.Resolve(rp)
	if err != nil {
		return expr.Node{}, err
	}
	b.mu.Lock()
	b.nodes[rp.Path] = n
	b.mu.Unlock()
	return n, nil
}

// CachedNodes returns how many nodes have been reified so far.
func (b *Builder) CachedNodes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes)
}
