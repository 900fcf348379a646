package expr

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"
)

// Record is an in-memory document a predicate can be evaluated against.
// Nested paths descend through map[string]any values.
type Record map[string]any

// Lookup returns the value at path and whether every segment was present.
func (r Record) Lookup(path Path) (any, bool) {
	var cur any = map[string]any(r)
	for _, seg := range path.Segments() {
		var m map[string]any
		switch v := cur.(type) {
		case map[string]any:
			m = v
		case Record:
			m = v
		default:
			return nil, false
		}
		next, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Eval reports whether p holds for r. It follows SQL three-valued logic: a
// comparison against a missing or nil value is unknown, and unknown is not
// true, even under Not.
func Eval(p Predicate, r Record) bool {
	t, known := eval(p, r)
	return known && t
}

func eval(p Predicate, r Record) (result, known bool) {
	switch p := p.(type) {
	case nil:
		return true, true
	case And:
		known = true
		for _, term := range p.Predicates {
			t, k := eval(term, r)
			if k && !t {
				return false, true
			}
			known = known && k
		}
		return true, known
	case Not:
		t, k := eval(p.Inner, r)
		return !t, k
	case IsNull:
		v, ok := r.Lookup(p.Path)
		return !ok || v == nil, true
	case IsNotNull:
		v, ok := r.Lookup(p.Path)
		return ok && v != nil, true
	}

	v, ok := r.Lookup(pathOf(p))
	if !ok || v == nil {
		return false, false
	}

	switch p := p.(type) {
	case Compare:
		return compare(v, p.Op, p.Value), true
	case In:
		return memberOf(v, p.Values), true
	case NotIn:
		return !memberOf(v, p.Values), true
	case Contains:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false, true
		}
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), p.Value) {
				return true, true
			}
		}
		return false, true
	case Like:
		return likeMatch(fmt.Sprint(v), p.Pattern, p.IgnoreCase), true
	default:
		panic(fmt.Sprintf("expr: unknown predicate %T", p))
	}
}

func pathOf(p Predicate) Path {
	switch p := p.(type) {
	case Compare:
		return p.Path
	case In:
		return p.Path
	case NotIn:
		return p.Path
	case Contains:
		return p.Path
	case Like:
		return p.Path
	default:
		panic(fmt.Sprintf("expr: unknown predicate %T", p))
	}
}

func memberOf(v any, values []any) bool {
	for _, candidate := range values {
		if equal(v, candidate) {
			return true
		}
	}
	return false
}

func equal(a, b any) bool {
	if c, ok := order(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func compare(v any, op CompareOp, target any) bool {
	switch op {
	case OpEq:
		return equal(v, target)
	case OpNe:
		return !equal(v, target)
	}
	c, ok := order(v, target)
	if !ok {
		return false
	}
	switch op {
	case OpGt:
		return c > 0
	case OpGoe:
		return c >= 0
	case OpLt:
		return c < 0
	case OpLoe:
		return c <= 0
	}
	return false
}

// order compares numbers with numbers, times with times and strings with
// strings. ok is false for any other pairing.
func order(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// likeMatch implements SQL LIKE: % matches any run, _ matches one rune.
func likeMatch(s, pattern string, ignoreCase bool) bool {
	var b strings.Builder
	if ignoreCase {
		b.WriteString("(?is)^")
	} else {
		b.WriteString("(?s)^")
	}
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
