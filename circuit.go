package qlinalg

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// GateDefinition describes one entry of a circuit's gate dictionary.
type GateDefinition struct {
	Name   string            `yaml:"name,omitempty" json:"name,omitempty"`
	Arity  int               `yaml:"arity" json:"arity"`
	Matrix *MatrixDescriptor `yaml:"matrix,omitempty" json:"matrix,omitempty"`
}

// MaxQubits is the largest register a circuit may declare. A dense state of
// that size already needs 64 GiB.
const MaxQubits = 32

// Circuit is the immutable input of a simulation.
type Circuit struct {
	NbQbits int                       `yaml:"nbqbits" json:"nbqbits"`
	NbCbits int                       `yaml:"nbcbits" json:"nbcbits"`
	GateDic map[string]GateDefinition `yaml:"gates" json:"gates"`
	Ops     []Op                      `yaml:"ops" json:"ops"`
}

// NewCircuit returns an empty circuit carrying the standard gates.
func NewCircuit(nbQbits, nbCbits int) *Circuit {
	return &Circuit{
		NbQbits: nbQbits,
		NbCbits: nbCbits,
		GateDic: StandardGates(),
	}
}

// Apply appends a gate application.
func (c *Circuit) Apply(gate string, qubits ...int) *Circuit {
	c.Ops = append(c.Ops, Op{Type: GATE, Gate: gate, Qubits: qubits})
	return c
}

// Measure appends a measurement of qubits[k] into cbits[k].
func (c *Circuit) Measure(qubits, cbits []int) *Circuit {
	c.Ops = append(c.Ops, Op{Type: MEASURE, Qubits: qubits, Cbits: cbits})
	return c
}

// Reset appends a reset of qubits, clearing cbits.
func (c *Circuit) Reset(qubits, cbits []int) *Circuit {
	c.Ops = append(c.Ops, Op{Type: RESET, Qubits: qubits, Cbits: cbits})
	return c
}

// Classic appends the evaluation of formula into cbit.
func (c *Circuit) Classic(formula string, cbit int) *Circuit {
	c.Ops = append(c.Ops, Op{Type: CLASSIC, Formula: formula, Cbits: []int{cbit}})
	return c
}

// Control appends a gate that only runs when every bit of cbits is set.
func (c *Circuit) Control(cbits []int, gate string, qubits ...int) *Circuit {
	c.Ops = append(c.Ops, Op{Type: CLASSICCTRL, Gate: gate, Qubits: qubits, Cbits: cbits})
	return c
}

// Break appends an early termination guarded by formula.
func (c *Circuit) Break(formula string) *Circuit {
	c.Ops = append(c.Ops, Op{Type: BREAK, Formula: formula})
	return c
}

// HasClassicalControl reports whether any op other than GATE is present.
func (c *Circuit) HasClassicalControl() bool {
	for _, op := range c.Ops {
		if op.IsClassical() {
			return true
		}
	}
	return false
}

/*
Validate checks the register sizes and every index an op refers to. Gate
matrices are checked when they are first loaded during execution.
*/
func (c *Circuit) Validate() error {
	if c.NbQbits < 0 || c.NbCbits < 0 {
		return &QPUError{
			Code:     InvalidArgs,
			Position: -1,
			Message:  "negative register size",
			Err:      ErrInvalidArgs,
		}
	}
	if c.NbQbits > MaxQubits {
		return &QPUError{
			Code:     InvalidArgs,
			Position: -1,
			Message:  fmt.Sprintf("%d qubits exceed the limit of %d", c.NbQbits, MaxQubits),
			Err:      ErrInvalidArgs,
		}
	}

	for pos, op := range c.Ops {
		if err := c.validateOp(op); err != nil {
			return atPosition(pos, err)
		}
	}
	return nil
}

func (c *Circuit) validateOp(op Op) error {
	if err := checkIndices("qubit", c.NbQbits, op.Qubits); err != nil {
		return err
	}
	if err := checkIndices("cbit", c.NbCbits, op.Cbits); err != nil {
		return err
	}

	switch op.Type {
	case GATE, CLASSICCTRL:
		gdef, ok := c.GateDic[op.Gate]
		if !ok {
			return errors.Wrapf(ErrIllegalGates, "gate %q is not defined", op.Gate)
		}
		if gdef.Arity != len(op.Qubits) {
			return errors.Wrapf(
				ErrInvalidArgs,
				"gate %q has arity %d but is applied to %d qubits",
				op.Gate, gdef.Arity, len(op.Qubits),
			)
		}
	case MEASURE:
		if len(op.Qubits) == 0 || len(op.Cbits) != len(op.Qubits) {
			return errors.Wrapf(
				ErrInvalidArgs,
				"measure of %d qubits into %d cbits",
				len(op.Qubits), len(op.Cbits),
			)
		}
	case RESET:
		if len(op.Qubits) == 0 {
			return errors.Wrap(ErrInvalidArgs, "reset without qubits")
		}
	case CLASSIC:
		if len(op.Cbits) == 0 {
			return errors.Wrap(ErrInvalidArgs, "classic op without a target cbit")
		}
	case BREAK:
	default:
		return errors.Wrapf(ErrUnknownOp, "%s", op.Type)
	}
	return nil
}

func checkIndices(kind string, size int, indices []int) error {
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= size {
			return errors.Wrapf(ErrInvalidIndex, "%s %d out of range [0, %d)", kind, i, size)
		}
		if seen[i] {
			return errors.Wrapf(ErrInvalidIndex, "%s %d listed twice", kind, i)
		}
		seen[i] = true
	}
	return nil
}

// DecodeCircuit reads a YAML or JSON circuit description.
func DecodeCircuit(r io.Reader) (*Circuit, error) {
	circuit := &Circuit{}
	if err := yaml.NewDecoder(r).Decode(circuit); err != nil {
		return nil, errors.Wrap(err, "decode circuit")
	}
	return circuit, nil
}

// LoadCircuit reads a circuit description from a file.
func LoadCircuit(path string) (*Circuit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open circuit %s", path)
	}
	defer f.Close()

	return DecodeCircuit(f)
}

// StandardGates returns a fresh dictionary of common gates.
func StandardGates() map[string]GateDefinition {
	h := 1 / math.Sqrt2
	t := complex(h, h)

	gates := map[string][]complex128{
		"I": {1, 0, 0, 1},
		"H": {complex(h, 0), complex(h, 0), complex(h, 0), complex(-h, 0)},
		"X": {0, 1, 1, 0},
		"Y": {0, -1i, 1i, 0},
		"Z": {1, 0, 0, -1},
		"S": {1, 0, 0, 1i},
		"T": {1, 0, 0, t},
		"CNOT": {
			1, 0, 0, 0,
			0, 1, 0, 0,
			0, 0, 0, 1,
			0, 0, 1, 0,
		},
		"SWAP": {
			1, 0, 0, 0,
			0, 0, 1, 0,
			0, 1, 0, 0,
			0, 0, 0, 1,
		},
	}

	dic := make(map[string]GateDefinition, len(gates))
	for name, data := range gates {
		side := int(math.Sqrt(float64(len(data))))
		arity := 1
		if side == 4 {
			arity = 2
		}
		dic[name] = GateDefinition{
			Name:   name,
			Arity:  arity,
			Matrix: DescribeMatrix(side, side, data),
		}
	}
	return dic
}
