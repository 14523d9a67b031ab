package qlinalg

import (
	"github.com/pkg/errors"
)

/*
ApplyGate applies a unitary of side 2^k to the k qubits listed in targets and
returns the new amplitude tensor. The first target is paired with the most
significant bit of the matrix's row and column index. The input tensor is not
modified.
*/
func ApplyGate(state *StateVector, matrix *Matrix, targets []int) (*StateVector, error) {
	k := len(targets)
	if k == 0 {
		return nil, errors.Wrap(ErrInvalidArgs, "gate without target qubits")
	}
	if k > state.Rank {
		return nil, errors.Wrapf(ErrInvalidIndex, "gate of arity %d on %d qubits", k, state.Rank)
	}
	if err := checkAxes(state.Rank, targets); err != nil {
		return nil, err
	}

	gate, err := matrix.gateTensor(k)
	if err != nil {
		return nil, err
	}

	inputs := make([]int, k)
	outputs := make([]int, k)
	for i := range inputs {
		outputs[i] = i
		inputs[i] = k + i
	}

	contracted, err := Contract(gate, state, inputs, targets)
	if err != nil {
		return nil, err
	}

	// Contraction leaves the gate outputs in front; put each back on its qubit.
	return MoveAxes(contracted, outputs, targets)
}
