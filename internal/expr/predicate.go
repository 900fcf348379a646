package expr

import (
	"fmt"
	"strings"
)

// Predicate is a boolean expression over node paths.
//
// This is a sealed interface: only the types in this package implement it, so
// renderers can switch over the variants exhaustively.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// CompareOp is the operator of a Compare predicate.
type CompareOp string

const (
	OpEq  CompareOp = "=="
	OpNe  CompareOp = "!="
	OpGt  CompareOp = ">"
	OpGoe CompareOp = ">="
	OpLt  CompareOp = "<"
	OpLoe CompareOp = "<="
)

// Compare: path <op> value
type Compare struct {
	Path  Path
	Op    CompareOp
	Value any
}

func (Compare) predicate() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.Path, c.Op, formatValue(c.Value))
}

// Like: path matches an SQL-style pattern (% and _ wildcards).
type Like struct {
	Path       Path
	Pattern    string
	IgnoreCase bool
}

func (Like) predicate() {}

func (l Like) String() string {
	if l.IgnoreCase {
		return fmt.Sprintf("lower(%s) like %s", l.Path, strings.ToLower(l.Pattern))
	}
	return fmt.Sprintf("%s like %s", l.Path, l.Pattern)
}

// In: path is one of Values.
type In struct {
	Path   Path
	Values []any
}

func (In) predicate() {}

func (i In) String() string {
	return fmt.Sprintf("%s in %s", i.Path, formatList(i.Values))
}

// NotIn: path is none of Values. Kept distinct from Not{In} on purpose;
// consumers may tell the two shapes apart.
type NotIn struct {
	Path   Path
	Values []any
}

func (NotIn) predicate() {}

func (n NotIn) String() string {
	return fmt.Sprintf("%s not in %s", n.Path, formatList(n.Values))
}

// Not negates Inner.
type Not struct {
	Inner Predicate
}

func (Not) predicate() {}

func (n Not) String() string {
	return fmt.Sprintf("!(%s)", n.Inner)
}

// Contains: the collection at path has Value as an element.
type Contains struct {
	Path  Path
	Value any
}

func (Contains) predicate() {}

func (c Contains) String() string {
	return fmt.Sprintf("%s contains %s", c.Path, formatValue(c.Value))
}

// IsNull: path has no value.
type IsNull struct{ Path Path }

func (IsNull) predicate() {}

func (n IsNull) String() string { return fmt.Sprintf("%s is null", n.Path) }

// IsNotNull: path has a value.
type IsNotNull struct{ Path Path }

func (IsNotNull) predicate() {}

func (n IsNotNull) String() string { return fmt.Sprintf("%s is not null", n.Path) }

// And: every predicate holds. The empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicate() {}

func (a And) String() string {
	if len(a.Predicates) == 0 {
		return "true"
	}
	parts := make([]string, len(a.Predicates))
	for i, p := range a.Predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, " && ")
}

// True is the neutral predicate: a conjunction with no terms.
var True Predicate = And{}

// IsTrue reports whether p is the empty conjunction.
func IsTrue(p Predicate) bool {
	a, ok := p.(And)
	return ok && len(a.Predicates) == 0
}

// All conjoins preds, skipping nil and neutral terms. A single remaining term
// is returned as is; none yields True.
func All(preds ...Predicate) Predicate {
	var terms []Predicate
	for _, p := range preds {
		if p == nil || IsTrue(p) {
			continue
		}
		terms = append(terms, p)
	}
	switch len(terms) {
	case 0:
		return True
	case 1:
		return terms[0]
	default:
		return And{Predicates: terms}
	}
}

// --- Constructors ---

func Eq(n Node, v any) Predicate  { return Compare{Path: n.Path, Op: OpEq, Value: v} }
func Ne(n Node, v any) Predicate  { return Compare{Path: n.Path, Op: OpNe, Value: v} }
func Gt(n Node, v any) Predicate  { return Compare{Path: n.Path, Op: OpGt, Value: v} }
func Goe(n Node, v any) Predicate { return Compare{Path: n.Path, Op: OpGoe, Value: v} }
func Lt(n Node, v any) Predicate  { return Compare{Path: n.Path, Op: OpLt, Value: v} }
func Loe(n Node, v any) Predicate { return Compare{Path: n.Path, Op: OpLoe, Value: v} }

// LikeIgnoreCase matches pattern against the node without regard to case.
func LikeIgnoreCase(n Node, pattern string) Predicate {
	return Like{Path: n.Path, Pattern: pattern, IgnoreCase: true}
}

func MemberOf(n Node, values []any) Predicate { return In{Path: n.Path, Values: clone(values)} }

func NotMemberOf(n Node, values []any) Predicate {
	return NotIn{Path: n.Path, Values: clone(values)}
}

func Element(n Node, v any) Predicate { return Contains{Path: n.Path, Value: v} }

func Null(n Node) Predicate    { return IsNull{Path: n.Path} }
func NotNull(n Node) Predicate { return IsNotNull{Path: n.Path} }

// Negate wraps p in Not.
func Negate(p Predicate) Predicate { return Not{Inner: p} }

func clone(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

func formatList(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
