package quota

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoEntitlement means no quota is configured for the position and
	// leave type; approval cannot proceed without an entitlement row.
	ErrNoEntitlement = errors.New("no entitlement configured")

	// ErrNotFound covers missing users, leave types, or positions.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState marks transitions the request state machine forbids,
	// such as approving an already-processed request.
	ErrInvalidState = errors.New("invalid state")

	// ErrResetNotDue is returned when a yearly reset is attempted off the
	// January 1 boundary without the force flag.
	ErrResetNotDue = errors.New("yearly reset not due")
)

// ExceededError reports a denied quota check. RemainingDays carries the
// unconsumed quota at two-decimal precision for user-facing messages.
type ExceededError struct {
	RemainingDays decimal.Decimal
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("leave quota exceeded: %s days remaining", e.RemainingDays.StringFixed(2))
}
