package query

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/atlekbai/querybind/internal/binding"
	"github.com/atlekbai/querybind/internal/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Reserved parameters shape the listing; every other parameter is a filter.
const (
	ParamSelect = "select"
	ParamOrder  = "order"
	ParamLimit  = "limit"
	ParamCursor = "cursor"
)

var reservedParams = []string{ParamSelect, ParamOrder, ParamLimit, ParamCursor}

type OrderClause struct {
	FieldAPIName string
	Desc         bool
}

// Cursor holds keyset pagination state: the last row's ID and optional sort column value.
type Cursor struct {
	ID       string `json:"id"`
	OrderVal string `json:"v,omitempty"`
}

// EncodeCursor returns an opaque base64 token for the cursor.
func EncodeCursor(id string, orderVal string) string {
	c := Cursor{ID: id, OrderVal: orderVal}
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a cursor token. Accepts both base64 tokens and plain UUIDs.
func DecodeCursor(raw string) (*Cursor, error) {
	if _, err := uuid.Parse(raw); err == nil {
		return &Cursor{ID: raw}, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding")
	}
	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("invalid cursor format")
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		return nil, fmt.Errorf("invalid cursor id")
	}
	return &c, nil
}

// Request is a listing request split into its reserved parameters and the
// filter parameters left for predicate binding.
type Request struct {
	Select  []string
	Order   *OrderClause
	Limit   int
	Cursor  *Cursor
	Filters binding.Params
}

// ParseRequest validates the reserved parameters against obj. Filters are
// passed through untouched.
func ParseRequest(obj *schema.ObjectDef, params binding.Params) (*Request, error) {
	r := &Request{
		Limit:   DefaultLimit,
		Filters: params.Without(reservedParams...),
	}

	// ?select=Field1,Field2
	if sel := first(params, ParamSelect); sel != "" {
		for f := range strings.SplitSeq(sel, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if _, ok := obj.FieldsByAPIName[f]; !ok {
				return nil, fmt.Errorf("unknown field %q in select", f)
			}
			r.Select = append(r.Select, f)
		}
	}

	// ?order=Field.desc
	if ord := first(params, ParamOrder); ord != "" {
		fieldName, dir, _ := strings.Cut(ord, ".")
		if _, ok := obj.FieldsByAPIName[fieldName]; !ok {
			return nil, fmt.Errorf("unknown field %q in order", fieldName)
		}
		r.Order = &OrderClause{FieldAPIName: fieldName, Desc: strings.EqualFold(dir, "desc")}
	}

	// ?limit=20
	if lim := first(params, ParamLimit); lim != "" {
		n, err := strconv.Atoi(lim)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid limit %q", lim)
		}
		r.Limit = min(n, MaxLimit)
	}

	// ?cursor=token (base64 keyset cursor or plain UUID)
	if cur := first(params, ParamCursor); cur != "" {
		c, err := DecodeCursor(cur)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cur, err)
		}
		r.Cursor = c
	}

	return r, nil
}

func first(params binding.Params, key string) string {
	if vs := params.Get(key); len(vs) > 0 {
		return vs[0]
	}
	return ""
}
