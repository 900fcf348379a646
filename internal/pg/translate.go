// Package pg renders expression predicates as PostgreSQL conditions.
package pg

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/schema"
)

// Translator renders predicates over one object as squirrel conditions
// against the Alias table.
type Translator struct {
	cat   schema.Catalog
	obj   *schema.ObjectDef
	paths map[expr.Path]expr.Path
}

// Option configures a Translator.
type Option func(*Translator)

// WithNodePath renders predicates on node as predicates on the property at
// path. It maps nodes bound in place of a property back to its storage.
func WithNodePath(node, path expr.Path) Option {
	return func(t *Translator) { t.paths[node] = path }
}

// NewTranslator returns a Translator for obj. cat resolves LOOKUP targets.
func NewTranslator(cat schema.Catalog, obj *schema.ObjectDef, opts ...Option) *Translator {
	t := &Translator{cat: cat, obj: obj, paths: make(map[expr.Path]expr.Path)}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ToSQL translates p. The empty conjunction renders as (1=1).
func (t *Translator) ToSQL(p expr.Predicate) (sq.Sqlizer, error) {
	switch p := p.(type) {
	case expr.And:
		and := make(sq.And, 0, len(p.Predicates))
		for _, term := range p.Predicates {
			s, err := t.ToSQL(term)
			if err != nil {
				return nil, err
			}
			and = append(and, s)
		}
		return and, nil

	case expr.Not:
		inner, err := t.ToSQL(p.Inner)
		if err != nil {
			return nil, err
		}
		sql, args, err := inner.ToSql()
		if err != nil {
			return nil, err
		}
		return sq.Expr("NOT ("+sql+")", args...), nil

	case expr.Compare:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		return comparisonExpr(col, p.Op, p.Value), nil

	case expr.Like:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		if p.IgnoreCase {
			return sq.Expr(fmt.Sprintf(`%s ILIKE ?`, col), p.Pattern), nil
		}
		return sq.Expr(fmt.Sprintf(`%s LIKE ?`, col), p.Pattern), nil

	case expr.In:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fmt.Sprintf(`%s = ANY(?)`, col), array(p.Values)), nil

	case expr.NotIn:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		return sq.Expr(fmt.Sprintf(`%s <> ALL(?)`, col), array(p.Values)), nil

	case expr.Contains:
		rp, err := t.resolve(p.Path)
		if err != nil {
			return nil, err
		}
		col, err := t.columnFor(rp, true)
		if err != nil {
			return nil, err
		}
		if rp.Leaf.StorageColumn == nil {
			return sq.Expr(fmt.Sprintf(`(%s) @> to_jsonb(?::text)`, col), p.Value), nil
		}
		return sq.Expr(fmt.Sprintf(`? = ANY(%s)`, col), p.Value), nil

	case expr.IsNull:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		return sq.Eq{col: nil}, nil

	case expr.IsNotNull:
		col, err := t.column(p.Path, false)
		if err != nil {
			return nil, err
		}
		return sq.NotEq{col: nil}, nil

	default:
		return nil, fmt.Errorf("unknown predicate type %T", p)
	}
}

func (t *Translator) resolve(path expr.Path) (*schema.ResolvedPath, error) {
	if target, ok := t.paths[path]; ok {
		path = target
	}
	rp, err := schema.ResolvePath(t.cat, t.obj, path.String())
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return rp, nil
}

func (t *Translator) column(path expr.Path, raw bool) (string, error) {
	rp, err := t.resolve(path)
	if err != nil {
		return "", err
	}
	return t.columnFor(rp, raw)
}

// columnFor returns the SQL expression of the leaf. raw keeps JSONB values
// as JSONB. Paths through LOOKUP fields become nested scalar subqueries:
//
//	(SELECT <leaf> FROM target "_l1" WHERE "_l1"."id" = <fk>)
func (t *Translator) columnFor(rp *schema.ResolvedPath, raw bool) (string, error) {
	leaf := FilterExpr
	if raw {
		leaf = SelectFieldExpr
	}
	if !rp.Nested() {
		return leaf(Alias, rp.Leaf), nil
	}

	ref := FKRef(Alias, rp.Chain[0])
	for i, fd := range rp.Chain {
		target := t.cat.GetByID(*fd.LookupObjectID)
		if target == nil {
			return "", fmt.Errorf("lookup target for field %q not found", fd.APIName)
		}
		sub := fmt.Sprintf("_l%d", i+1)
		from, scope := scopedSource(target, sub)

		var col string
		if i == len(rp.Chain)-1 {
			col = leaf(sub, rp.Leaf)
		} else {
			col = FKRef(sub, rp.Chain[i+1])
		}
		ref = fmt.Sprintf(`(SELECT %s FROM %s WHERE %s."id" = %s%s)`, col, from, QI(sub), ref, scope)
	}
	return ref, nil
}

func comparisonExpr(col string, op expr.CompareOp, val any) sq.Sqlizer {
	switch op {
	case expr.OpEq:
		return sq.Eq{col: val}
	case expr.OpNe:
		return sq.NotEq{col: val}
	default:
		return sq.Expr(fmt.Sprintf(`%s %s ?`, col, op), val)
	}
}

// array narrows values to a typed slice pgx can encode as a PostgreSQL array.
// Mixed values stay []any.
func array(values []any) any {
	if len(values) == 0 {
		return values
	}
	switch values[0].(type) {
	case string:
		return typed[string](values)
	case int64:
		return typed[int64](values)
	case float64:
		return typed[float64](values)
	case bool:
		return typed[bool](values)
	case time.Time:
		return typed[time.Time](values)
	case uuid.UUID:
		return typed[uuid.UUID](values)
	}
	return values
}

func typed[T any](values []any) any {
	out := make([]T, len(values))
	for i, v := range values {
		tv, ok := v.(T)
		if !ok {
			return values
		}
		out[i] = tv
	}
	return out
}
