// Package query renders listing requests as PostgreSQL SELECT and COUNT
// statements. Filters arrive as an already bound predicate.
package query

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/atlekbai/querybind/internal/expr"
	"github.com/atlekbai/querybind/internal/pg"
	"github.com/atlekbai/querybind/internal/schema"
)

// Builder generates SQL queries for a given object definition.
type Builder interface {
	BuildList(req *Request, where expr.Predicate) (string, []any, error)
	BuildCount(where expr.Predicate) (string, []any, error)
}

// isSystemField returns true for system fields (id, created_at, updated_at)
// that are always emitted by jsonObject and should be skipped in the field loop.
func isSystemField(apiName string) bool {
	return apiName == "id" || apiName == "created_at" || apiName == "updated_at"
}

// QueryBuilder builds SQL for both standard and custom objects.
type QueryBuilder struct {
	obj *schema.ObjectDef
	tr  *pg.Translator
}

// NewBuilder returns a query builder for obj. cat resolves LOOKUP paths in
// predicates; opts configure the predicate translator.
func NewBuilder(cat schema.Catalog, obj *schema.ObjectDef, opts ...pg.Option) *QueryBuilder {
	return &QueryBuilder{obj: obj, tr: pg.NewTranslator(cat, obj, opts...)}
}

func (b *QueryBuilder) BuildList(req *Request, where expr.Predicate) (string, []any, error) {
	columns := []string{buildJsonObject(b.obj, req) + " AS _row"}
	columns = append(columns, fmt.Sprintf(`%s."id"::text AS _cursor_id`, pg.QI(pg.Alias)))
	if req.Order != nil {
		if fd := b.obj.FieldsByAPIName[req.Order.FieldAPIName]; fd != nil {
			columns = append(columns, fmt.Sprintf(`%s::text AS _cursor_val`, pg.FilterExpr(pg.Alias, fd)))
		}
	}

	qb, err := b.base(sq.Select(columns...), where)
	if err != nil {
		return "", nil, err
	}
	for _, clause := range buildOrderBy(b.obj, req) {
		qb = qb.OrderBy(clause)
	}
	qb = applyCursor(qb, b.obj, req)
	qb = qb.Suffix("LIMIT ?", req.Limit+1)

	return qb.ToSql()
}

func (b *QueryBuilder) BuildCount(where expr.Predicate) (string, []any, error) {
	qb, err := b.base(sq.Select("count(*)"), where)
	if err != nil {
		return "", nil, err
	}
	return qb.ToSql()
}

// base adds FROM, the object scope and the filter predicate. The neutral
// predicate adds no condition.
func (b *QueryBuilder) base(qb sq.SelectBuilder, where expr.Predicate) (sq.SelectBuilder, error) {
	from, baseWhere := pg.TableSource(b.obj, pg.Alias)
	qb = qb.From(from).PlaceholderFormat(sq.Dollar)
	if baseWhere != nil {
		qb = qb.Where(baseWhere)
	}
	if where == nil || expr.IsTrue(where) {
		return qb, nil
	}
	cond, err := b.tr.ToSQL(where)
	if err != nil {
		return qb, fmt.Errorf("translate filters: %w", err)
	}
	return qb.Where(cond), nil
}

// buildJsonObject builds a json_build_object(...) expression for the SELECT clause.
func buildJsonObject(obj *schema.ObjectDef, req *Request) string {
	alias := pg.QI(pg.Alias)
	pairs := []string{
		fmt.Sprintf(`'id', %s."id"`, alias),
		fmt.Sprintf(`'created_at', %s."created_at"`, alias),
		fmt.Sprintf(`'updated_at', %s."updated_at"`, alias),
	}
	for _, f := range resolveFields(obj, req) {
		if isSystemField(f.APIName) {
			continue
		}
		pairs = append(pairs, fmt.Sprintf(`%s, %s`, pg.QuoteLit(jsonKey(f)), pg.SelectFieldExpr(pg.Alias, f)))
	}
	return fmt.Sprintf("json_build_object(%s)", strings.Join(pairs, ", "))
}

// jsonKey returns the JSON output key for a field.
// Lookup fields use the storage column name (e.g. "organization_id"), others use the API name.
func jsonKey(f *schema.FieldDef) string {
	if f.Type == schema.FieldLookup && f.StorageColumn != nil {
		return *f.StorageColumn
	}
	return f.APIName
}

// resolveFields returns the selected fields, or all of them.
func resolveFields(obj *schema.ObjectDef, req *Request) []*schema.FieldDef {
	if len(req.Select) > 0 {
		fields := make([]*schema.FieldDef, 0, len(req.Select))
		for _, name := range req.Select {
			if f, ok := obj.FieldsByAPIName[name]; ok {
				fields = append(fields, f)
			}
		}
		return fields
	}

	fields := make([]*schema.FieldDef, 0, len(obj.Fields))
	for i := range obj.Fields {
		fields = append(fields, &obj.Fields[i])
	}
	return fields
}

func buildOrderBy(obj *schema.ObjectDef, req *Request) []string {
	var (
		clauses []string
		dir     = orderDir(req)
	)

	if req.Order != nil {
		if fd := obj.FieldsByAPIName[req.Order.FieldAPIName]; fd != nil {
			clauses = append(clauses, fmt.Sprintf(`%s %s`, pg.FilterExpr(pg.Alias, fd), dir))
		}
	}

	clauses = append(clauses, fmt.Sprintf(`%s."id" %s`, pg.QI(pg.Alias), dir))
	return clauses
}

func orderDir(req *Request) string {
	if req.Order != nil && req.Order.Desc {
		return "DESC"
	}
	return "ASC"
}

func applyCursor(qb sq.SelectBuilder, obj *schema.ObjectDef, req *Request) sq.SelectBuilder {
	if req.Cursor == nil {
		return qb
	}
	idCol := fmt.Sprintf(`%s."id"`, pg.QI(pg.Alias))

	if req.Order != nil && req.Cursor.OrderVal != "" {
		if fd := obj.FieldsByAPIName[req.Order.FieldAPIName]; fd != nil {
			cmp := ">"
			if req.Order.Desc {
				cmp = "<"
			}
			return qb.Where(fmt.Sprintf(`(%s, %s) %s (?, ?)`, pg.FilterExpr(pg.Alias, fd), idCol, cmp),
				req.Cursor.OrderVal, req.Cursor.ID)
		}
	}

	if req.Order != nil && req.Order.Desc {
		return qb.Where(sq.Lt{idCol: req.Cursor.ID})
	}
	return qb.Where(sq.Gt{idCol: req.Cursor.ID})
}
