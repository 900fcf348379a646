// Package binding turns request parameters into expression predicates.
//
// A parameter key is a dotted property path with an optional operation
// suffix ("inceptionYear:gt"). Bindings configure, per object type, which
// paths may be bound and how; a Builder assembles the final conjunction.
package binding

import (
	"fmt"
	"strings"

	"github.com/atlekbai/querybind/internal/expr"
)

// Operation is one of the fixed set of operations a parameter key may name.
type Operation uint8

const (
	// NoOp is the implicit operation of a key without suffix. It picks
	// Contains, Eq or In from the node and the number of values.
	NoOp Operation = iota
	Eq
	Ne
	Contains
	Like
	Gt
	Goe
	Lt
	Loe
	In
	NotIn
	// NotIn2 is NotIn shaped as the negation of In.
	NotIn2
	IsNull
	NotNull
)

type arity uint8

const (
	anyValues arity = iota
	oneValue
	noValues
)

type opDef struct {
	keyword  string
	requires expr.Capability
	arity    arity
	build    func(n expr.Node, values []any) expr.Predicate
}

var operations = [...]opDef{
	NoOp:     {keyword: ""},
	Eq:       {"eq", expr.Comparable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Eq(n, v[0]) }},
	Ne:       {"ne", expr.Comparable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Ne(n, v[0]) }},
	Contains: {"contains", expr.CollectionLike, anyValues, containsAll},
	Like:     {"like", expr.StringLike, oneValue, likeSubstring},
	Gt:       {"gt", expr.Orderable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Gt(n, v[0]) }},
	Goe:      {"goe", expr.Orderable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Goe(n, v[0]) }},
	Lt:       {"lt", expr.Orderable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Lt(n, v[0]) }},
	Loe:      {"loe", expr.Orderable, oneValue, func(n expr.Node, v []any) expr.Predicate { return expr.Loe(n, v[0]) }},
	In:       {"in", expr.Comparable, anyValues, expr.MemberOf},
	NotIn:    {"notIn", expr.Comparable, anyValues, expr.NotMemberOf},
	NotIn2: {"notIn2", expr.Comparable, anyValues, func(n expr.Node, v []any) expr.Predicate {
		return expr.Negate(expr.MemberOf(n, v))
	}},
	IsNull:  {"isNull", expr.Comparable, noValues, func(n expr.Node, _ []any) expr.Predicate { return expr.Null(n) }},
	NotNull: {"notNull", expr.Comparable, noValues, func(n expr.Node, _ []any) expr.Predicate { return expr.NotNull(n) }},
}

// byKeyword maps lowercased keywords to operations.
var byKeyword = func() map[string]Operation {
	m := make(map[string]Operation, len(operations))
	for op, def := range operations {
		if def.keyword != "" {
			m[strings.ToLower(def.keyword)] = Operation(op)
		}
	}
	return m
}()

// ParseOperation looks up an operation by keyword, ignoring case.
func ParseOperation(keyword string) (Operation, error) {
	op, ok := byKeyword[strings.ToLower(keyword)]
	if !ok {
		return NoOp, &OperationError{Op: keyword, Reason: "no such keyword", Err: ErrUnknownOperation}
	}
	return op, nil
}

// Operations lists every operation reachable through a keyword.
func Operations() []Operation {
	ops := make([]Operation, 0, len(operations)-1)
	for op := range operations {
		if Operation(op) != NoOp {
			ops = append(ops, Operation(op))
		}
	}
	return ops
}

// String returns the wire keyword. NoOp has none.
func (op Operation) String() string {
	if int(op) < len(operations) {
		return operations[op].keyword
	}
	return fmt.Sprintf("Operation(%d)", uint8(op))
}

// Requires returns the capability a node needs for op. NoOp depends on the
// node and reports Comparable.
func (op Operation) Requires() expr.Capability {
	if op == NoOp {
		return expr.Comparable
	}
	return operations[op].requires
}

// Predicate builds the predicate for op on n. Empty values contribute nothing
// (nil, nil) except for IsNull and NotNull, which ignore values entirely.
func (op Operation) Predicate(n expr.Node, values []any) (expr.Predicate, error) {
	if int(op) >= len(operations) {
		return nil, &OperationError{Op: op.String(), Path: n.String(), Reason: "no such operation", Err: ErrUnknownOperation}
	}
	if op == NoOp {
		op = defaultFor(n, values)
	}

	def := operations[op]
	if def.arity != noValues && len(values) == 0 {
		return nil, nil
	}
	if !n.Has(def.requires) {
		return nil, &OperationError{
			Op:     def.keyword,
			Path:   n.String(),
			Reason: fmt.Sprintf("node is %s, needs %s", n.Caps, def.requires),
			Err:    ErrUnsupportedOperation,
		}
	}
	if def.arity == oneValue && len(values) != 1 {
		return nil, &OperationError{
			Op:     def.keyword,
			Path:   n.String(),
			Reason: fmt.Sprintf("takes exactly one value, got %d", len(values)),
			Err:    ErrUnsupportedOperation,
		}
	}
	return def.build(n, values), nil
}

// defaultFor resolves NoOp: collections test every value for membership,
// anything else is equality for one value and In for several.
func defaultFor(n expr.Node, values []any) Operation {
	switch {
	case n.Has(expr.CollectionLike):
		return Contains
	case len(values) > 1:
		return In
	default:
		return Eq
	}
}

func containsAll(n expr.Node, values []any) expr.Predicate {
	terms := make([]expr.Predicate, len(values))
	for i, v := range values {
		terms[i] = expr.Element(n, v)
	}
	return expr.All(terms...)
}

func likeSubstring(n expr.Node, values []any) expr.Predicate {
	return expr.LikeIgnoreCase(n, "%"+fmt.Sprint(values[0])+"%")
}
