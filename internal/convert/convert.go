// Package convert turns raw request strings into values typed after the
// field they are compared against.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/atlekbai/querybind/internal/schema"
)

// Service converts a raw value for a target field.
type Service interface {
	Convert(raw string, fd *schema.FieldDef) (any, error)
}

// Func converts one raw value.
type Func func(raw string) (any, error)

// dateLayouts are tried in order for DATE and DATETIME fields.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// Registry is the default Service. Field types without a registered Func
// pass the raw string through unchanged; textual types (TEXT, CHOICE, EMAIL,
// URL, PHONE) have none, since like matches fragments of them.
type Registry struct {
	mu    sync.RWMutex
	funcs map[schema.FieldType]Func
}

// NewRegistry returns a Registry with converters for the non-textual field types.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[schema.FieldType]Func)}

	r.Register(schema.FieldNumber, parseNumber)
	r.Register(schema.FieldCurrency, floatFunc)
	r.Register(schema.FieldPercentage, floatFunc)
	r.Register(schema.FieldBoolean, func(raw string) (any, error) { return cast.ToBoolE(raw) })
	r.Register(schema.FieldDate, parseTime)
	r.Register(schema.FieldDatetime, parseTime)
	r.Register(schema.FieldLookup, func(raw string) (any, error) { return uuid.Parse(raw) })
	return r
}

// Register installs fn for values of type t, replacing any previous one.
func (r *Registry) Register(t schema.FieldType, fn Func) {
	r.mu.Lock()
	r.funcs[t] = fn
	r.mu.Unlock()
}

// CanConvert reports whether a converter is registered for t.
func (r *Registry) CanConvert(t schema.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[t]
	return ok
}

func (r *Registry) Convert(raw string, fd *schema.FieldDef) (any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[fd.Type]
	r.mu.RUnlock()
	if !ok {
		return raw, nil
	}
	v, err := fn(raw)
	if err != nil {
		return nil, fmt.Errorf("%s value %q: %w", fd.Type, raw, err)
	}
	return v, nil
}

// IsBlank reports whether raw carries no value: it is empty or holds one
// blank string.
func IsBlank(raw []string) bool {
	return len(raw) == 0 || (len(raw) == 1 && strings.TrimSpace(raw[0]) == "")
}

// parseNumber keeps integers exact and falls back to float64.
func parseNumber(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number")
	}
	return f, nil
}

func floatFunc(raw string) (any, error) {
	return cast.ToFloat64E(strings.TrimSpace(raw))
}

func parseTime(raw string) (any, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("not a date")
}
