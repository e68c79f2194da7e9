package sales

import (
	"errors"
	"fmt"

	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

var (
	// ErrInvalidQuantity rejects non-positive quantities on AddOrMerge.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", httpx.ErrValidation)
	// ErrLineNotFound indicates an out-of-bounds line index.
	ErrLineNotFound = fmt.Errorf("%w: sale line", httpx.ErrNotFound)
	// ErrUnknownProduct indicates a line referencing a product the catalog does not know.
	ErrUnknownProduct = fmt.Errorf("%w: unknown product", httpx.ErrValidation)
)

// PolicyViolationError reports a mutation blocked by the editability verdict.
// The reason is the human-readable string UIs surface as-is.
type PolicyViolationError struct {
	Reason string
}

func (e *PolicyViolationError) Error() string {
	return e.Reason
}

func (e *PolicyViolationError) Unwrap() error {
	return httpx.ErrLocked
}

// IsPolicyViolation reports whether err stems from a blocked mutation.
func IsPolicyViolation(err error) bool {
	var pv *PolicyViolationError
	return errors.As(err, &pv)
}
