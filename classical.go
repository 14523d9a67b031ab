package qlinalg

import (
	"fmt"
	"strings"
)

// CbitValue is one classical bit quoted in a break diagnostic.
type CbitValue struct {
	Index int
	Value bool
}

/*
BreakDiagnostic describes why a circuit stopped early: the position of the
BREAK operation, its formula and the bits the formula read.
*/
type BreakDiagnostic struct {
	Position int
	Formula  string
	Cbits    []CbitValue
}

func (bd BreakDiagnostic) String() string {
	quoted := make([]string, len(bd.Cbits))
	for i, cv := range bd.Cbits {
		quoted[i] = fmt.Sprintf("(%d, %t)", cv.Index, cv.Value)
	}
	return fmt.Sprintf(
		"BREAK at gate #%d : formula : %s, cbits : [%s]",
		bd.Position, bd.Formula, strings.Join(quoted, ", "),
	)
}

// evaluateClassic stores the formula's verdict into the op's first cbit.
func evaluateClassic(ev Evaluator, op Op, cbits Register) error {
	verdict, err := ev.Evaluate(op.Formula, cbits)
	if err != nil {
		return err
	}
	cbits[op.Cbits[0]] = verdict
	return nil
}

// controlsSet reports whether every controlling bit of a CLASSICCTRL op is 1.
func controlsSet(op Op, cbits Register) bool {
	for _, cb := range op.Cbits {
		if !cbits[cb] {
			return false
		}
	}
	return true
}

// evaluateBreak returns a diagnostic when the op's formula holds.
func evaluateBreak(ev Evaluator, pos int, op Op, cbits Register) (*BreakDiagnostic, error) {
	verdict, err := ev.Evaluate(op.Formula, cbits)
	if err != nil || !verdict {
		return nil, err
	}

	diag := &BreakDiagnostic{Position: pos, Formula: op.Formula}
	for _, i := range ev.References(op.Formula) {
		if i >= 0 && i < len(cbits) {
			diag.Cbits = append(diag.Cbits, CbitValue{Index: i, Value: cbits[i]})
		}
	}
	return diag, nil
}
