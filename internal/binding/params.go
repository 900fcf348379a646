package binding

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Param is one parameter key with all the values submitted for it.
type Param struct {
	Key    string
	Values []string
}

// Params is an ordered multi-map of request parameters. Builds walk it in
// order, so the resulting conjunction is reproducible.
type Params []Param

// ParseParams parses a raw query string. Repeated keys are grouped under the
// position of their first occurrence.
func ParseParams(rawQuery string) (Params, error) {
	var ps Params
	index := make(map[string]int)
	for part := range strings.SplitSeq(rawQuery, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %q: %w", key, err)
		}
		if i, ok := index[key]; ok {
			ps[i].Values = append(ps[i].Values, value)
			continue
		}
		index[key] = len(ps)
		ps = append(ps, Param{Key: key, Values: []string{value}})
	}
	return ps, nil
}

// ParamsFromValues converts url.Values, ordering keys lexically.
func ParamsFromValues(v url.Values) Params {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ps := make(Params, 0, len(keys))
	for _, k := range keys {
		ps = append(ps, Param{Key: k, Values: slices.Clone(v[k])})
	}
	return ps
}

// Add appends values to key, creating it at the end when absent.
func (ps *Params) Add(key string, values ...string) {
	for i := range *ps {
		if (*ps)[i].Key == key {
			(*ps)[i].Values = append((*ps)[i].Values, values...)
			return
		}
	}
	*ps = append(*ps, Param{Key: key, Values: values})
}

// Get returns the values of key.
func (ps Params) Get(key string) []string {
	for _, p := range ps {
		if p.Key == key {
			return p.Values
		}
	}
	return nil
}

// Without returns ps minus the given keys.
func (ps Params) Without(keys ...string) Params {
	out := make(Params, 0, len(ps))
	for _, p := range ps {
		if !slices.Contains(keys, p.Key) {
			out = append(out, p)
		}
	}
	return out
}
