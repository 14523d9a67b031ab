package qlinalg

import (
	"github.com/pkg/errors"
)

// ComplexNumber is the serialized form of one matrix entry.
type ComplexNumber struct {
	Re float64 `yaml:"re" json:"re"`
	Im float64 `yaml:"im" json:"im"`
}

/*
MatrixDescriptor is the serialized form of a gate matrix: a row and column
count followed by the entries in row-major order.
*/
type MatrixDescriptor struct {
	NRows int             `yaml:"nrows" json:"nrows"`
	NCols int             `yaml:"ncols" json:"ncols"`
	Data  []ComplexNumber `yaml:"data" json:"data"`
}

// Matrix is a dense complex matrix stored row-major.
type Matrix struct {
	Rows int
	Cols int
	Data []complex128
}

// At returns the entry at row i, column j.
func (m *Matrix) At(i, j int) complex128 {
	return m.Data[i*m.Cols+j]
}

// LoadMatrix converts a serialized matrix into a dense one.
func LoadMatrix(desc *MatrixDescriptor) (*Matrix, error) {
	if desc == nil {
		return nil, errors.Wrap(ErrMalformedMatrix, "no matrix data")
	}
	if desc.NRows <= 0 || desc.NCols <= 0 {
		return nil, errors.Wrapf(ErrMalformedMatrix, "dimensions %dx%d", desc.NRows, desc.NCols)
	}
	if len(desc.Data) != desc.NRows*desc.NCols {
		return nil, errors.Wrapf(
			ErrMalformedMatrix,
			"%dx%d matrix carries %d entries",
			desc.NRows, desc.NCols, len(desc.Data),
		)
	}

	m := &Matrix{
		Rows: desc.NRows,
		Cols: desc.NCols,
		Data: make([]complex128, len(desc.Data)),
	}
	for i, c := range desc.Data {
		m.Data[i] = complex(c.Re, c.Im)
	}
	return m, nil
}

// DescribeMatrix is the inverse of LoadMatrix.
func DescribeMatrix(rows, cols int, data []complex128) *MatrixDescriptor {
	desc := &MatrixDescriptor{
		NRows: rows,
		NCols: cols,
		Data:  make([]ComplexNumber, len(data)),
	}
	for i, c := range data {
		desc.Data[i] = ComplexNumber{Re: real(c), Im: imag(c)}
	}
	return desc
}

// gateTensor reshapes a 2^k x 2^k matrix into a rank-2k tensor whose first k
// axes index rows and last k axes index columns.
func (m *Matrix) gateTensor(arity int) (*StateVector, error) {
	side := 1 << arity
	if m.Rows != side || m.Cols != side {
		return nil, errors.Wrapf(
			ErrMalformedMatrix,
			"%dx%d matrix for a gate of arity %d",
			m.Rows, m.Cols, arity,
		)
	}
	return &StateVector{Rank: 2 * arity, Data: m.Data}, nil
}
