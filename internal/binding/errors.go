package binding

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation indicates an operation keyword no Operation matches.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnsupportedOperation indicates an operation applied to a node lacking
	// the capability it needs, or with the wrong number of values.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrConversion indicates a raw value could not be converted to the type
	// of the property it targets.
	ErrConversion = errors.New("conversion failed")
)

// OperationError describes an operation that could not be applied to a path.
type OperationError struct {
	Op     string
	Path   string
	Reason string
	// Err is ErrUnknownOperation or ErrUnsupportedOperation.
	Err error
}

func (e *OperationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v %q: %s", e.Err, e.Op, e.Reason)
	}
	return fmt.Sprintf("%v %q on %s: %s", e.Err, e.Op, e.Path, e.Reason)
}

func (e *OperationError) Unwrap() error { return e.Err }

// ConversionError wraps the failure to convert one raw value.
type ConversionError struct {
	Path  string
	Value string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %q for %s: %v", e.Value, e.Path, e.Err)
}

// Unwrap exposes both the converter's error and ErrConversion.
func (e *ConversionError) Unwrap() []error { return []error{ErrConversion, e.Err} }
