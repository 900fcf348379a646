// Package expr is the typed expression tree that request parameters bind to.
// It knows nothing about storage: nodes are property paths tagged with the
// capabilities an operation may rely on, and predicates are plain values.
package expr

import "strings"

// Path is a dotted property path such as "address.city".
type Path string

// PathOf joins segments into a Path.
func PathOf(segments ...string) Path {
	return Path(strings.Join(segments, "."))
}

// Segments splits the path on dots.
func (p Path) Segments() []string {
	if p == "" {
		return nil
	}
	return strings.Split(string(p), ".")
}

// Leaf returns the last segment.
func (p Path) Leaf() string {
	s := string(p)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func (p Path) String() string { return string(p) }

// Capability is a behavioral trait of a Node that operations dispatch on.
type Capability uint8

const (
	Comparable Capability = 1 << iota // eq, ne, in, null checks
	Orderable                         // gt, goe, lt, loe
	StringLike                        // like
	CollectionLike                    // contains
)

var capNames = []struct {
	c    Capability
	name string
}{
	{Comparable, "comparable"},
	{Orderable, "orderable"},
	{StringLike, "string"},
	{CollectionLike, "collection"},
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, cn := range capNames {
		if c&cn.c != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Node is a handle to one property path in the expression tree.
type Node struct {
	Path Path
	Caps Capability
}

// NewNode returns a node for path with the given capabilities.
func NewNode(path Path, caps Capability) Node {
	return Node{Path: path, Caps: caps}
}

// Has reports whether the node carries every capability in c.
func (n Node) Has(c Capability) bool {
	return n.Caps&c == c
}

func (n Node) String() string { return string(n.Path) }
