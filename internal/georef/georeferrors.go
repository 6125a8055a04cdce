package georef

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	InvalidArgument ErrorCode = iota
	IndexOutOfRange
	OutOfRange
	IllegalState
	MismatchedDimension
	NoConvergence
	ShouldNeverHappen
)

// Access details
const (
	DetailIndexOutOfRangeName  = 0
	DetailIndexOutOfRangeValue = 1
	DetailMismatchedExpected   = 0
	DetailMismatchedActual     = 1
)

type Error struct {
	code    ErrorCode
	desc    string
	details []string
}

// NewInvalidArgument creates a new error stating that an argument does not fulfill the contract of the operation
func NewInvalidArgument(desc string, a ...interface{}) error {
	return Error{code: InvalidArgument, desc: fmt.Sprintf(desc, a...)}
}

// NewIndexOutOfRange creates a new error stating that the index "name" is outside [0, size)
func NewIndexOutOfRange(name string, index, size int) error {
	return Error{
		code:    IndexOutOfRange,
		desc:    fmt.Sprintf("%s=%d is outside [0, %d)", name, index, size),
		details: []string{name, fmt.Sprint(index)},
	}
}

// NewOutOfRange creates a new error stating that a value is outside its valid range
func NewOutOfRange(desc string, a ...interface{}) error {
	return Error{code: OutOfRange, desc: fmt.Sprintf(desc, a...)}
}

// NewIllegalState creates a new error stating that the object is not in a state allowing the operation
func NewIllegalState(desc string, a ...interface{}) error {
	return Error{code: IllegalState, desc: fmt.Sprintf(desc, a...)}
}

// NewMismatchedDimension creates a new error stating that two objects do not have the same number of dimensions
func NewMismatchedDimension(what string, expected, actual int) error {
	return Error{
		code:    MismatchedDimension,
		desc:    fmt.Sprintf("%s has %d dimensions, expected %d", what, actual, expected),
		details: []string{fmt.Sprint(expected), fmt.Sprint(actual)},
	}
}

// NewNoConvergence creates a new error stating that an iterative computation did not converge
func NewNoConvergence(desc string, a ...interface{}) error {
	return Error{code: NoConvergence, desc: fmt.Sprintf(desc, a...)}
}

// NewShouldNeverHappen creates a new error that should never happen...
func NewShouldNeverHappen(desc string, a ...interface{}) error {
	return Error{code: ShouldNeverHappen, desc: fmt.Sprintf(desc, a...)}
}

func (c ErrorCode) String() string {
	switch c {
	case InvalidArgument:
		return "InvalidArgument"
	case IndexOutOfRange:
		return "IndexOutOfRange"
	case OutOfRange:
		return "OutOfRange"
	case IllegalState:
		return "IllegalState"
	case MismatchedDimension:
		return "MismatchedDimension"
	case NoConvergence:
		return "NoConvergence"
	case ShouldNeverHappen:
		return "ShouldNeverHappen"
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error implements error
func (e Error) Error() string {
	return e.code.String() + ": " + e.desc
}

// Desc returns a description of the error
func (e Error) Desc() string {
	return e.desc
}

// Code returns the code of the error
func (e Error) Code() ErrorCode {
	return e.code
}

// Detail returns a detail of the error (see const above)
func (e Error) Detail(i int) string {
	if i >= len(e.details) {
		return ""
	}
	return e.details[i]
}

// IsError tests whether error is a georef.Error with the given code
func IsError(err error, code ErrorCode) bool {
	var gerr Error
	return errors.As(err, &gerr) && gerr.Code() == code
}

// AsError tests whether error is a georef.Error with the given code and returns it
func AsError(err error, code ErrorCode) (Error, bool) {
	var gerr Error
	return gerr, errors.As(err, &gerr) && gerr.Code() == code
}
