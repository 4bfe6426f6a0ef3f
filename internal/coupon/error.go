package coupon

import (
	"errors"
	"fmt"
)

// InvalidReason is the closed set of reasons a coupon can fail validation.
type InvalidReason string

const (
	ReasonNotFound       InvalidReason = "not-found"
	ReasonInactive       InvalidReason = "inactive"
	ReasonExpired        InvalidReason = "expired"
	ReasonBelowMinimum   InvalidReason = "below-minimum"
	ReasonUsageExhausted InvalidReason = "usage-exhausted"
	ReasonAlreadyUsed    InvalidReason = "already-used-by-user"
)

type InvalidError struct {
	Code   string
	Reason InvalidReason
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("coupon %s invalid: %s", e.Code, e.Reason)
}

// ErrExhausted is returned by CommitUsage when the usage limit was reached
// between validation and commit.
var ErrExhausted = errors.New("coupon usage exhausted")
