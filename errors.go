package qlinalg

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorType classifies failures surfaced to the caller of the simulator.
type ErrorType int

const (
	IllegalGates ErrorType = iota
	InvalidArgs
	NumericInconsistency
	Break
)

func (et ErrorType) String() string {
	switch et {
	case IllegalGates:
		return "ILLEGAL_GATES"
	case InvalidArgs:
		return "INVALID_ARGS"
	case NumericInconsistency:
		return "NUMERIC_INCONSISTENCY"
	case Break:
		return "BREAK"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

var (
	ErrIllegalGates         = errors.New("illegal gate")
	ErrMalformedMatrix      = errors.New("malformed matrix")
	ErrInvalidIndex         = errors.New("invalid index")
	ErrInvalidArgs          = errors.New("invalid arguments")
	ErrNumericInconsistency = errors.New("numeric inconsistency")
	ErrUnknownOp            = errors.New("unknown operation type")
	ErrFormula              = errors.New("invalid formula")
)

/*
QPUError is the fatal error returned by the simulator. Position is the index
of the operation that failed, or -1 when the failure is not tied to one.
*/
type QPUError struct {
	Code     ErrorType
	Position int
	Message  string
	Err      error
}

func (e *QPUError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("qlinalg %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("qlinalg %s at op #%d: %s", e.Code, e.Position, e.Message)
}

func (e *QPUError) Unwrap() error {
	return e.Err
}

// codeFor maps a sentinel onto the error type reported to the caller.
func codeFor(err error) ErrorType {
	switch {
	case errors.Is(err, ErrNumericInconsistency):
		return NumericInconsistency
	case errors.Is(err, ErrIllegalGates), errors.Is(err, ErrMalformedMatrix):
		return IllegalGates
	default:
		return InvalidArgs
	}
}

// atPosition attaches an operation position to err, keeping an existing
// QPUError's position when it already has one.
func atPosition(pos int, err error) error {
	if err == nil {
		return nil
	}

	var qe *QPUError
	if errors.As(err, &qe) {
		if qe.Position < 0 {
			qe.Position = pos
		}
		return qe
	}

	return &QPUError{
		Code:     codeFor(err),
		Position: pos,
		Message:  err.Error(),
		Err:      err,
	}
}

/*
BreakError is returned by the Service when a BREAK operation halted the
circuit. The executor itself reports a break as a Broke outcome.
*/
type BreakError struct {
	Diagnostic BreakDiagnostic
}

func (e *BreakError) Error() string {
	return e.Diagnostic.String()
}
