package qlinalg

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

// RandomSource yields uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

/*
Sample is one measurement result. State encodes the outcome with the first
measured qubit in the most significant bit. Amplitude is only set when the
whole register was measured.
*/
type Sample struct {
	State                    int
	Probability              float64
	Amplitude                *complex128
	IntermediateMeasurements []IntermediateMeasurement
}

// OutcomeBits decodes an outcome over m qubits into one bit per qubit, in
// the order the qubits were listed.
func OutcomeBits(outcome, m int) []bool {
	bits := make([]bool, m)
	for t := range bits {
		bits[t] = axisBit(outcome, m, t) == 1
	}
	return bits
}

/*
Marginal returns the probability tensor of the listed qubits, with axis t
holding qubit qubits[t]. The state is only read.
*/
func Marginal(state *StateVector, qubits []int) (*ProbabilityTensor, error) {
	if len(qubits) == 0 {
		return nil, errors.Wrap(ErrInvalidArgs, "no qubits to measure")
	}
	if err := checkAxes(state.Rank, qubits); err != nil {
		return nil, err
	}

	probs, err := SumAxes(Abs2(state), complement(state.Rank, qubits))
	if err != nil {
		return nil, err
	}

	// After the partial sum the axes follow ascending qubit order. cur[p] is
	// the qubit currently held by axis p.
	cur := make([]int, len(qubits))
	copy(cur, qubits)
	sort.Ints(cur)

	for t, qb := range qubits {
		p := indexOf(cur, qb)
		if p == t {
			continue
		}
		if probs, err = SwapAxes(probs, t, p); err != nil {
			return nil, err
		}
		cur[t], cur[p] = cur[p], cur[t]
	}

	for _, p := range probs.Data {
		if math.IsNaN(p) || p < 0 {
			return nil, errors.Wrapf(ErrNumericInconsistency, "probability %v", p)
		}
	}
	return probs, nil
}

/*
Measure draws samples outcomes on the listed qubits without collapsing the
state, so it can be called any number of times on the same tensor. A sample
count below one is treated as one.
*/
func Measure(state *StateVector, qubits []int, samples int, rng RandomSource) ([]Sample, error) {
	probs, err := Marginal(state, qubits)
	if err != nil {
		return nil, err
	}
	if samples < 1 {
		samples = 1
	}

	cumul := make([]float64, len(probs.Data))
	var total float64
	last := -1
	for i, p := range probs.Data {
		total += p
		cumul[i] = total
		if p > 0 {
			last = i
		}
	}
	if last < 0 {
		return nil, errors.Wrap(ErrNumericInconsistency, "state has zero norm")
	}

	out := make([]Sample, 0, samples)
	for s := 0; s < samples; s++ {
		u := rng.Float64()
		idx := sort.SearchFloat64s(cumul, u)
		for idx < last && probs.Data[idx] == 0 {
			idx++
		}
		if idx > last {
			idx = last
		}

		out = append(out, Sample{
			State:       idx,
			Probability: probs.At(bitIndices(idx, len(qubits))...),
		})
	}
	return out, nil
}

func bitIndices(outcome, m int) []int {
	index := make([]int, m)
	for t := range index {
		index[t] = axisBit(outcome, m, t)
	}
	return index
}

func indexOf(xs []int, x int) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}
