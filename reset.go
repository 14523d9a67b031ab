package qlinalg

var pauliX = &Matrix{
	Rows: 2,
	Cols: 2,
	Data: []complex128{0, 1, 1, 0},
}

/*
Reset forces the listed qubits into |0>. It measures them once, collapses
the state onto that outcome and flips every qubit that was found in |1>.
The measured bits are returned in the order the qubits were listed, with the
probability of the joint outcome.
*/
func Reset(state *StateVector, qubits []int, rng RandomSource) (*StateVector, []bool, float64, error) {
	samples, err := Measure(state, qubits, 1, rng)
	if err != nil {
		return nil, nil, 0, err
	}
	sample := samples[0]

	out, err := Project(state, qubits, sample)
	if err != nil {
		return nil, nil, 0, err
	}

	bits := OutcomeBits(sample.State, len(qubits))
	for t, bit := range bits {
		if !bit {
			continue
		}
		if out, err = ApplyGate(out, pauliX, []int{qubits[t]}); err != nil {
			return nil, nil, 0, err
		}
	}
	return out, bits, sample.Probability, nil
}
