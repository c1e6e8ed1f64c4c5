package coord

import "fmt"

// UnsupportedSystemError is returned for a system key that is not in the catalog.
type UnsupportedSystemError struct {
	Key string
}

func (e *UnsupportedSystemError) Error() string {
	return fmt.Sprintf("unsupported coordinate system %q", e.Key)
}

// TransformError reports a numerical failure while transforming one point.
type TransformError struct {
	System        string
	First, Second float64
	Reason        string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transforming (%v, %v) from %s: %s", e.First, e.Second, e.System, e.Reason)
}
