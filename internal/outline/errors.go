package outline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed is matched by every *MalformedError.
var ErrMalformed = errors.New("malformed outline")

// MalformedError reports an outline payload that violates the hierarchy.
type MalformedError struct {
	// Path lists the display names (or ids) from the root to the bad node.
	Path   []string
	Reason string
}

func (e *MalformedError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("outline: %s: %s", ErrMalformed, e.Reason)
	}
	return fmt.Sprintf("outline: %s at %s: %s", ErrMalformed, strings.Join(e.Path, " > "), e.Reason)
}

// Is lets errors.Is(err, ErrMalformed) match.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
