package pg

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/atlekbai/querybind/internal/schema"
)

// Alias is the table alias of the queried object in all generated SQL.
const Alias = "_e"

// QI is shorthand for schema.QuoteIdent.
func QI(name string) string { return schema.QuoteIdent(name) }

// QuoteLit wraps s in single quotes for use as a SQL string literal,
// doubling embedded quotes.
func QuoteLit(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" }

// SelectFieldExpr returns the SQL for a field in SELECT context (preserves JSONB types via ->).
func SelectFieldExpr(alias string, fd *schema.FieldDef) string {
	if fd.StorageColumn != nil {
		return fmt.Sprintf(`%s.%s`, QI(alias), QI(*fd.StorageColumn))
	}
	return fmt.Sprintf(`%s."data"->%s`, QI(alias), QuoteLit(fd.APIName))
}

// FilterExpr returns the SQL for a field in WHERE/ORDER context (text extraction via ->> with casts).
func FilterExpr(alias string, fd *schema.FieldDef) string {
	if fd.StorageColumn != nil {
		return fmt.Sprintf(`%s.%s`, QI(alias), QI(*fd.StorageColumn))
	}
	text := fmt.Sprintf(`%s."data"->>%s`, QI(alias), QuoteLit(fd.APIName))
	switch {
	case fd.IsNumeric():
		return fmt.Sprintf(`(%s)::numeric`, text)
	case fd.IsTemporal():
		return fmt.Sprintf(`(%s)::timestamptz`, text)
	case fd.Type == schema.FieldBoolean:
		return fmt.Sprintf(`(%s)::boolean`, text)
	case fd.Type == schema.FieldLookup:
		return fmt.Sprintf(`(%s)::uuid`, text)
	}
	return text
}

// FKRef returns the SQL for the foreign key held by a LOOKUP field.
func FKRef(alias string, fd *schema.FieldDef) string {
	if fd.StorageColumn != nil {
		return fmt.Sprintf(`%s.%s`, QI(alias), QI(*fd.StorageColumn))
	}
	return fmt.Sprintf(`(%s."data"->>%s)::uuid`, QI(alias), QuoteLit(fd.APIName))
}

// TableSource returns the FROM clause and optional base WHERE for an object.
func TableSource(obj *schema.ObjectDef, alias string) (string, sq.Sqlizer) {
	if obj.IsStandard {
		return obj.TableName() + " " + QI(alias), nil
	}
	return `"metadata"."records" ` + QI(alias), sq.Eq{QI(alias) + `."object_id"`: obj.ID}
}

// scopedSource is TableSource with the base condition inlined, for use inside
// subqueries built as plain text. Object IDs are UUIDs and safe to inline.
func scopedSource(obj *schema.ObjectDef, alias string) (from, where string) {
	if obj.IsStandard {
		return obj.TableName() + " " + QI(alias), ""
	}
	return `"metadata"."records" ` + QI(alias),
		fmt.Sprintf(` AND %s."object_id" = %s`, QI(alias), QuoteLit(obj.ID.String()))
}
