package qlinalg

import (
	"math"

	"github.com/pkg/errors"
)

/*
Project collapses state onto the measured outcome: every basis state in which
a measured qubit disagrees with its outcome bit is zeroed, and the rest is
divided by the square root of the outcome probability. A fresh tensor is
returned.
*/
func Project(state *StateVector, qubits []int, sample Sample) (*StateVector, error) {
	if err := checkAxes(state.Rank, qubits); err != nil {
		return nil, err
	}
	if math.IsNaN(sample.Probability) || sample.Probability <= 0 {
		return nil, errors.Wrapf(
			ErrNumericInconsistency,
			"cannot renormalise outcome %d with probability %v",
			sample.State, sample.Probability,
		)
	}

	bits := bitIndices(sample.State, len(qubits))
	scale := complex(1/math.Sqrt(sample.Probability), 0)
	out := state.Clone()

	for r := range out.Data {
		keep := true
		for t, qb := range qubits {
			if axisBit(r, out.Rank, qb) != bits[t] {
				keep = false
				break
			}
		}
		if keep {
			out.Data[r] *= scale
		} else {
			out.Data[r] = 0
		}
	}
	return out, nil
}
