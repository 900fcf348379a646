package binding

import "strings"

// OperationDelimiter separates a path from its operation in a parameter key.
const OperationDelimiter = ":"

// Key is a parsed parameter key.
type Key struct {
	Path string
	Op   Operation
	// explicit is set when the key carried an operation suffix.
	explicit bool
}

// ParseKey splits raw on the first delimiter. The path is kept as is; the
// suffix, when present, must name an operation.
func ParseKey(raw string) (Key, error) {
	path, keyword, ok := strings.Cut(raw, OperationDelimiter)
	if !ok {
		return Key{Path: path}, nil
	}
	op, ok := byKeyword[strings.ToLower(keyword)]
	if !ok {
		return Key{}, &OperationError{Op: keyword, Path: path, Reason: "no such keyword", Err: ErrUnknownOperation}
	}
	return Key{Path: path, Op: op, explicit: true}, nil
}

// HasOperation reports whether the key named an operation.
func (k Key) HasOperation() bool { return k.explicit }

func (k Key) String() string {
	if !k.explicit {
		return k.Path
	}
	return k.Path + OperationDelimiter + k.Op.String()
}
