package qlinalg

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

const bellCircuit = `
nbqbits: 2
nbcbits: 2
gates:
  H:
    arity: 1
    matrix:
      nrows: 2
      ncols: 2
      data:
        - {re: 0.7071067811865476}
        - {re: 0.7071067811865476}
        - {re: 0.7071067811865476}
        - {re: -0.7071067811865476}
  CX:
    name: CNOT
    arity: 2
    matrix:
      nrows: 4
      ncols: 4
      data: [{re: 1}, {}, {}, {}, {}, {re: 1}, {}, {}, {}, {}, {}, {re: 1}, {}, {}, {re: 1}, {}]
ops:
  - {type: GATE, gate: H, qubits: [0]}
  - {type: gate, gate: CX, qubits: [0, 1]}
  - {type: MEASURE, qubits: [0, 1], cbits: [0, 1]}
  - {type: BREAK, formula: "XOR 0 1"}
`

func TestCircuitDecoding(t *testing.T) {
	convey.Convey("Given a YAML circuit", t, func() {
		circuit, err := DecodeCircuit(strings.NewReader(bellCircuit))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("It should carry the registers and gates", func() {
			convey.So(circuit.NbQbits, convey.ShouldEqual, 2)
			convey.So(circuit.NbCbits, convey.ShouldEqual, 2)
			convey.So(circuit.GateDic["CX"].Name, convey.ShouldEqual, "CNOT")
			convey.So(circuit.GateDic["CX"].Matrix.Data, convey.ShouldHaveLength, 16)
		})

		convey.Convey("It should parse op types by name in any case", func() {
			convey.So(len(circuit.Ops), convey.ShouldEqual, 4)
			convey.So(circuit.Ops[0].Type, convey.ShouldEqual, GATE)
			convey.So(circuit.Ops[1].Type, convey.ShouldEqual, GATE)
			convey.So(circuit.Ops[2].Type, convey.ShouldEqual, MEASURE)
			convey.So(circuit.Ops[3].Type, convey.ShouldEqual, BREAK)
			convey.So(circuit.Ops[3].Formula, convey.ShouldEqual, "XOR 0 1")
		})

		convey.Convey("It should validate", func() {
			convey.So(circuit.Validate(), convey.ShouldBeNil)
			convey.So(circuit.HasClassicalControl(), convey.ShouldBeTrue)
		})

		convey.Convey("It should survive a round trip", func() {
			out, err := yaml.Marshal(circuit)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldContainSubstring, "type: MEASURE")

			again, err := DecodeCircuit(strings.NewReader(string(out)))
			convey.So(err, convey.ShouldBeNil)
			convey.So(again, convey.ShouldResemble, circuit)
		})
	})

	convey.Convey("Given a JSON circuit", t, func() {
		doc := `{"nbqbits": 1, "nbcbits": 1, "ops": [{"type": "RESET", "qubits": [0], "cbits": [0]}, {"type": 3, "formula": "TRUE", "cbits": [0]}]}`

		convey.Convey("It should decode with numeric or named op types", func() {
			circuit, err := DecodeCircuit(strings.NewReader(doc))
			convey.So(err, convey.ShouldBeNil)
			convey.So(circuit.Ops[0].Type, convey.ShouldEqual, RESET)
			convey.So(circuit.Ops[1].Type, convey.ShouldEqual, CLASSIC)
			convey.So(circuit.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a circuit file", t, func() {
		circuit, err := LoadCircuit("testdata/teleport.yaml")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("It should run and teleport the state", func() {
			outcome, err := NewSimulator(WithSeed(5)).Simulate(circuit)
			convey.So(err, convey.ShouldBeNil)

			probs, err := Marginal(outcome.(*Completed).State, []int{2})
			convey.So(err, convey.ShouldBeNil)
			convey.So(probs.Data[1], convey.ShouldAlmostEqual, 1.0, tolerance)
		})

		convey.Convey("A missing file should be reported", func() {
			_, err := LoadCircuit("testdata/missing.yaml")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given a circuit declaring more qubits than can be addressed", t, func() {
		doc := "nbqbits: 64\nops:\n  - {type: GATE, gate: H, qubits: [0]}\n"
		circuit, err := DecodeCircuit(strings.NewReader(doc))
		convey.So(err, convey.ShouldBeNil)
		circuit.GateDic = StandardGates()

		convey.Convey("Validation should refuse it", func() {
			err := circuit.Validate()
			convey.So(errors.Is(err, ErrInvalidArgs), convey.ShouldBeTrue)

			var qe *QPUError
			convey.So(errors.As(err, &qe), convey.ShouldBeTrue)
			convey.So(qe.Code, convey.ShouldEqual, InvalidArgs)
			convey.So(qe.Position, convey.ShouldEqual, -1)
		})

		convey.Convey("Simulating it should return the error", func() {
			outcome, err := NewSimulator(WithSeed(1)).Simulate(circuit)
			convey.So(outcome, convey.ShouldBeNil)
			convey.So(errors.Is(err, ErrInvalidArgs), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given ops encoded as JSON", t, func() {
		op := Op{Type: CLASSICCTRL, Gate: "X", Qubits: []int{0}, Cbits: []int{1}}

		convey.Convey("Op types should be written by name", func() {
			out, err := json.Marshal(op)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldContainSubstring, `"type":"CLASSICCTRL"`)

			var again Op
			convey.So(json.Unmarshal(out, &again), convey.ShouldBeNil)
			convey.So(again, convey.ShouldResemble, op)
		})

		convey.Convey("Numeric and lower case tags should be read", func() {
			var ops []Op
			convey.So(json.Unmarshal([]byte(`[{"type": 1}, {"type": "reset"}]`), &ops), convey.ShouldBeNil)
			convey.So(ops[0].Type, convey.ShouldEqual, MEASURE)
			convey.So(ops[1].Type, convey.ShouldEqual, RESET)
		})

		convey.Convey("Unknown tags should be rejected", func() {
			var again Op
			err := json.Unmarshal([]byte(`{"type": "TELEPORT"}`), &again)
			convey.So(errors.Is(err, ErrUnknownOp), convey.ShouldBeTrue)

			err = json.Unmarshal([]byte(`{"type": 42}`), &again)
			convey.So(errors.Is(err, ErrUnknownOp), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown op type", t, func() {
		doc := "nbqbits: 1\nops:\n  - {type: TELEPORT, qubits: [0]}\n"

		convey.Convey("Decoding should fail", func() {
			_, err := DecodeCircuit(strings.NewReader(doc))
			convey.So(errors.Is(err, ErrUnknownOp), convey.ShouldBeTrue)
		})
	})
}

func TestCircuitValidation(t *testing.T) {
	convey.Convey("Given a circuit built in code", t, func() {
		circuit := NewCircuit(2, 1)

		convey.Convey("A well formed circuit should pass", func() {
			circuit.Apply("H", 0).Apply("CNOT", 0, 1).Measure([]int{1}, []int{0}).Control([]int{0}, "X", 0)
			convey.So(circuit.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("A gate-only circuit has no classical control", func() {
			circuit.Apply("H", 0)
			convey.So(circuit.HasClassicalControl(), convey.ShouldBeFalse)
		})

		cases := []struct {
			name string
			op   Op
			want error
			code ErrorType
		}{
			{"unknown gate", Op{Type: GATE, Gate: "QFT", Qubits: []int{0}}, ErrIllegalGates, IllegalGates},
			{"arity mismatch", Op{Type: GATE, Gate: "CNOT", Qubits: []int{0}}, ErrInvalidArgs, InvalidArgs},
			{"qubit out of range", Op{Type: GATE, Gate: "X", Qubits: []int{2}}, ErrInvalidIndex, InvalidArgs},
			{"repeated qubit", Op{Type: GATE, Gate: "CNOT", Qubits: []int{1, 1}}, ErrInvalidIndex, InvalidArgs},
			{"cbit out of range", Op{Type: MEASURE, Qubits: []int{0}, Cbits: []int{1}}, ErrInvalidIndex, InvalidArgs},
			{"measure without cbits", Op{Type: MEASURE, Qubits: []int{0}}, ErrInvalidArgs, InvalidArgs},
			{"reset without qubits", Op{Type: RESET}, ErrInvalidArgs, InvalidArgs},
			{"classic without target", Op{Type: CLASSIC, Formula: "TRUE"}, ErrInvalidArgs, InvalidArgs},
			{"unknown type", Op{Type: OpType(42)}, ErrUnknownOp, InvalidArgs},
		}

		for _, tc := range cases {
			convey.Convey("It should reject "+tc.name, func() {
				circuit.Apply("H", 0)
				circuit.Ops = append(circuit.Ops, tc.op)

				err := circuit.Validate()
				convey.So(errors.Is(err, tc.want), convey.ShouldBeTrue)

				var qe *QPUError
				convey.So(errors.As(err, &qe), convey.ShouldBeTrue)
				convey.So(qe.Position, convey.ShouldEqual, 1)
				convey.So(qe.Code, convey.ShouldEqual, tc.code)
			})
		}

		convey.Convey("Negative register sizes should be rejected", func() {
			circuit.NbQbits = -1
			err := circuit.Validate()
			convey.So(errors.Is(err, ErrInvalidArgs), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given the standard gates", t, func() {
		gates := StandardGates()

		convey.Convey("Every matrix should load and be unitary", func() {
			for name, gdef := range gates {
				m, err := LoadMatrix(gdef.Matrix)
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.Rows, convey.ShouldEqual, 1<<gdef.Arity)

				for i := 0; i < m.Rows; i++ {
					for j := 0; j < m.Cols; j++ {
						var dot complex128
						for k := 0; k < m.Cols; k++ {
							dot += m.At(i, k) * conj(m.At(j, k))
						}
						want := complex(0, 0)
						if i == j {
							want = 1
						}
						convey.So(abs2(dot-want), convey.ShouldBeLessThan, tolerance)
					}
				}

				if t.Failed() {
					t.Log(name, spew.Sdump(m))
				}
			}
		})
	})
}

func conj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
