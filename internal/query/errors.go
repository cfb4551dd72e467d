package query

import "fmt"

// AttributeError is returned for any request that names an unknown attribute,
// uses an illegal operator, or pairs an operator with an incompatible value.
type AttributeError struct {
	Msg string
}

func (e *AttributeError) Error() string {
	return e.Msg
}

func attrErrorf(format string, args ...any) error {
	return &AttributeError{Msg: fmt.Sprintf(format, args...)}
}
