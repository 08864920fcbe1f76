package canvas

import (
	"errors"
	"fmt"
	"time"
)

// ErrStoreUnavailable wraps any failure of a backing store during a draw.
var ErrStoreUnavailable = errors.New("store unavailable")

// ValidationError rejects a draw before any side effect.
type ValidationError struct {
	Field string
	Value int
	Limit int
}

func (e *ValidationError) Error() string {
	if e.Field == "color" {
		return fmt.Sprintf("invalid color value %d (must be in [0, %d))", e.Value, e.Limit)
	}
	return fmt.Sprintf("coordinates out of bounds: %s=%d (must be in [0, %d))", e.Field, e.Value, e.Limit)
}

// RateLimitError rejects a draw made before the user's cooldown elapsed.
type RateLimitError struct {
	Remaining time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("please wait %.2f seconds before drawing again", e.Remaining.Seconds())
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
