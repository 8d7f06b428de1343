package schema

import (
	"errors"
	"fmt"
)

var ErrViolation = errors.New("schema violation")

type Reason string

const (
	ReasonMissing Reason = "missing required field"
	ReasonType    Reason = "type mismatch"
	ReasonEnum    Reason = "value not in enum"
	ReasonRule    Reason = "rule not satisfied"
)

// Violation reports the first field of a document that does not fit its
// collection's schema.
type Violation struct {
	Kind   Kind
	Field  string
	Reason Reason
	Detail string
}

func (v *Violation) Error() string {
	msg := fmt.Sprintf("%s: %s.%s: %s", ErrViolation, v.Kind, v.Field, v.Reason)
	if v.Detail != "" {
		msg += " (" + v.Detail + ")"
	}
	return msg
}

func (v *Violation) Is(target error) bool {
	return target == ErrViolation
}
