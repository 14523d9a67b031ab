package qlinalg

import (
	"github.com/pkg/errors"
)

// Scalar is the element type of a Tensor.
type Scalar interface {
	~float64 | ~complex128
}

/*
Tensor is a dense tensor in which every axis has extent 2. Data is stored
flat in row-major order, so axis 0 is the most significant bit of a flat
index and axis Rank-1 the least significant.
*/
type Tensor[T Scalar] struct {
	Rank int
	Data []T
}

// StateVector is the amplitude tensor of a qubit register; axis i is qubit i.
type StateVector = Tensor[complex128]

// ProbabilityTensor holds squared magnitudes or marginals of them.
type ProbabilityTensor = Tensor[float64]

// NewTensor allocates a zeroed tensor of the given rank.
func NewTensor[T Scalar](rank int) *Tensor[T] {
	return &Tensor[T]{Rank: rank, Data: make([]T, 1<<rank)}
}

// NewStateVector returns the |0...0> state of numQubits qubits.
func NewStateVector(numQubits int) *StateVector {
	s := NewTensor[complex128](numQubits)
	s.Data[0] = 1
	return s
}

// Clone returns a deep copy.
func (t *Tensor[T]) Clone() *Tensor[T] {
	data := make([]T, len(t.Data))
	copy(data, t.Data)
	return &Tensor[T]{Rank: t.Rank, Data: data}
}

// At returns the element addressed by one index per axis.
func (t *Tensor[T]) At(index ...int) T {
	return t.Data[flatIndex(t.Rank, index)]
}

// Set stores v at the element addressed by one index per axis.
func (t *Tensor[T]) Set(v T, index ...int) {
	t.Data[flatIndex(t.Rank, index)] = v
}

// axisBit is the value of axis a in the flat index r of a rank-n tensor.
func axisBit(r, n, a int) int {
	return (r >> (n - 1 - a)) & 1
}

func flatIndex(rank int, index []int) int {
	r := 0
	for a := 0; a < rank; a++ {
		r = r<<1 | (index[a] & 1)
	}
	return r
}

// Norm2 is the sum of squared magnitudes of a complex tensor.
func Norm2(t *StateVector) float64 {
	var total float64
	for _, amp := range t.Data {
		total += abs2(amp)
	}
	return total
}

func abs2(c complex128) float64 {
	return real(c)*real(c) + imag(c)*imag(c)
}

// Abs2 maps every amplitude onto its squared magnitude.
func Abs2(t *StateVector) *ProbabilityTensor {
	out := NewTensor[float64](t.Rank)
	for i, amp := range t.Data {
		out.Data[i] = abs2(amp)
	}
	return out
}

/*
Transpose permutes axes: axis d of the result is axis perm[d] of t. perm
must be a permutation of [0, Rank).
*/
func Transpose[T Scalar](t *Tensor[T], perm []int) (*Tensor[T], error) {
	if err := checkPermutation(t.Rank, perm); err != nil {
		return nil, err
	}

	n := t.Rank
	out := NewTensor[T](n)
	for r := range out.Data {
		src := 0
		for d := 0; d < n; d++ {
			src |= axisBit(r, n, d) << (n - 1 - perm[d])
		}
		out.Data[r] = t.Data[src]
	}
	return out, nil
}

// SwapAxes exchanges axes i and j.
func SwapAxes[T Scalar](t *Tensor[T], i, j int) (*Tensor[T], error) {
	perm := identity(t.Rank)
	if i < 0 || j < 0 || i >= t.Rank || j >= t.Rank {
		return nil, errors.Wrapf(ErrInvalidIndex, "swap axes %d and %d of rank %d", i, j, t.Rank)
	}
	perm[i], perm[j] = perm[j], perm[i]
	return Transpose(t, perm)
}

/*
MoveAxes moves axis src[k] to position dst[k]. Axes that are not moved keep
their relative order and fill the remaining positions.
*/
func MoveAxes[T Scalar](t *Tensor[T], src, dst []int) (*Tensor[T], error) {
	if len(src) != len(dst) {
		return nil, errors.Wrapf(ErrInvalidArgs, "move axes: %d sources, %d destinations", len(src), len(dst))
	}
	if err := checkAxes(t.Rank, src); err != nil {
		return nil, err
	}
	if err := checkAxes(t.Rank, dst); err != nil {
		return nil, err
	}

	perm := make([]int, t.Rank)
	for d := range perm {
		perm[d] = -1
	}
	moved := make([]bool, t.Rank)
	for k := range src {
		perm[dst[k]] = src[k]
		moved[src[k]] = true
	}

	next := 0
	for d := range perm {
		if perm[d] >= 0 {
			continue
		}
		for moved[next] {
			next++
		}
		perm[d] = next
		next++
	}

	return Transpose(t, perm)
}

/*
Contract sums a and b over the paired axes axesA[k] / axesB[k]. The result
holds the free axes of a in order followed by the free axes of b in order.
*/
func Contract(a, b *StateVector, axesA, axesB []int) (*StateVector, error) {
	if len(axesA) != len(axesB) {
		return nil, errors.Wrapf(ErrInvalidArgs, "contract: %d axes against %d", len(axesA), len(axesB))
	}
	if err := checkAxes(a.Rank, axesA); err != nil {
		return nil, err
	}
	if err := checkAxes(b.Rank, axesB); err != nil {
		return nil, err
	}

	freeA := complement(a.Rank, axesA)
	freeB := complement(b.Rank, axesB)
	c := len(axesA)
	rank := len(freeA) + len(freeB)
	out := NewTensor[complex128](rank)

	for r := range out.Data {
		baseA, baseB := 0, 0
		for i, ax := range freeA {
			baseA |= axisBit(r, rank, i) << (a.Rank - 1 - ax)
		}
		for j, ax := range freeB {
			baseB |= axisBit(r, rank, len(freeA)+j) << (b.Rank - 1 - ax)
		}

		var sum complex128
		for k := 0; k < 1<<c; k++ {
			ia, ib := baseA, baseB
			for p := 0; p < c; p++ {
				bit := axisBit(k, c, p)
				ia |= bit << (a.Rank - 1 - axesA[p])
				ib |= bit << (b.Rank - 1 - axesB[p])
			}
			sum += a.Data[ia] * b.Data[ib]
		}
		out.Data[r] = sum
	}

	return out, nil
}

// SumAxes marginalises t over axes; the kept axes stay in their order.
func SumAxes(t *ProbabilityTensor, axes []int) (*ProbabilityTensor, error) {
	if err := checkAxes(t.Rank, axes); err != nil {
		return nil, err
	}

	kept := complement(t.Rank, axes)
	out := NewTensor[float64](len(kept))
	for r, v := range t.Data {
		dst := 0
		for i, ax := range kept {
			dst |= axisBit(r, t.Rank, ax) << (len(kept) - 1 - i)
		}
		out.Data[dst] += v
	}
	return out, nil
}

func identity(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm
}

// complement lists the axes of [0, rank) that are not in axes, ascending.
func complement(rank int, axes []int) []int {
	used := make([]bool, rank)
	for _, ax := range axes {
		used[ax] = true
	}
	free := make([]int, 0, rank-len(axes))
	for ax := 0; ax < rank; ax++ {
		if !used[ax] {
			free = append(free, ax)
		}
	}
	return free
}

// checkAxes requires distinct axes within [0, rank).
func checkAxes(rank int, axes []int) error {
	if len(axes) > rank {
		return errors.Wrapf(ErrInvalidIndex, "%d axes for a rank %d tensor", len(axes), rank)
	}
	seen := make(map[int]bool, len(axes))
	for _, ax := range axes {
		if ax < 0 || ax >= rank {
			return errors.Wrapf(ErrInvalidIndex, "axis %d out of range [0, %d)", ax, rank)
		}
		if seen[ax] {
			return errors.Wrapf(ErrInvalidIndex, "axis %d listed twice", ax)
		}
		seen[ax] = true
	}
	return nil
}

func checkPermutation(rank int, perm []int) error {
	if len(perm) != rank {
		return errors.Wrapf(ErrInvalidArgs, "permutation of length %d for rank %d", len(perm), rank)
	}
	return checkAxes(rank, perm)
}
