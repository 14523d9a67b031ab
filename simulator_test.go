package qlinalg

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"
)

func completed(outcome Outcome, err error) *Completed {
	convey.So(err, convey.ShouldBeNil)
	convey.So(outcome.Status(), convey.ShouldEqual, HaltedComplete)
	return outcome.(*Completed)
}

func TestSimulate(t *testing.T) {
	convey.Convey("Given a simulator", t, func() {
		sim := NewSimulator(WithSeed(2024))

		convey.Convey("Hadamard then reset should leave the qubit in |0>", func() {
			circuit := NewCircuit(1, 1).Apply("H", 0).Reset([]int{0}, []int{0})

			for i := 0; i < 10; i++ {
				done := completed(sim.Simulate(circuit))

				probs, err := Marginal(done.State, []int{0})
				convey.So(err, convey.ShouldBeNil)
				convey.So(probs.Data[0], convey.ShouldAlmostEqual, 1.0, tolerance)

				convey.So(done.Measurements, convey.ShouldHaveLength, 1)
				convey.So(done.Measurements[0].Position, convey.ShouldEqual, 1)
				convey.So(done.Measurements[0].Probability, convey.ShouldAlmostEqual, 0.5, tolerance)
				convey.So(done.Cbits, convey.ShouldResemble, Register{false})
			}
		})

		convey.Convey("Hadamard then measure should log the bit it collapsed onto", func() {
			circuit := NewCircuit(1, 1).Apply("H", 0).Measure([]int{0}, []int{0})
			seen := map[bool]bool{}

			for i := 0; i < 20; i++ {
				done := completed(sim.Simulate(circuit))
				m := done.Measurements[0]
				convey.So(m.Probability, convey.ShouldAlmostEqual, 0.5, tolerance)
				convey.So(done.Cbits[0], convey.ShouldEqual, m.Cbits[0])

				samples, err := sim.Measure(done.State, []int{0}, 1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(samples[0].State == 1, convey.ShouldEqual, m.Cbits[0])
				seen[m.Cbits[0]] = true
			}

			convey.So(seen, convey.ShouldHaveLength, 2)
		})

		convey.Convey("An always true break should stop right after itself", func() {
			circuit := NewCircuit(1, 2).
				Apply("X", 0).
				Break("NOT 0").
				Measure([]int{0}, []int{1})

			outcome, err := sim.Simulate(circuit)
			convey.So(err, convey.ShouldBeNil)
			convey.So(outcome.Status(), convey.ShouldEqual, HaltedBreak)

			broke := outcome.(*Broke)
			convey.So(broke.Diagnostic.Position, convey.ShouldEqual, 1)
			convey.So(broke.Diagnostic.Formula, convey.ShouldEqual, "NOT 0")
			convey.So(broke.Diagnostic.Cbits, convey.ShouldResemble, []CbitValue{{Index: 0, Value: false}})
			convey.So(broke.Measurements, convey.ShouldBeEmpty)
			convey.So(broke.Diagnostic.String(), convey.ShouldEqual, "BREAK at gate #1 : formula : NOT 0, cbits : [(0, false)]")
		})

		convey.Convey("A false break should let the circuit complete", func() {
			circuit := NewCircuit(1, 1).Break("0").Apply("X", 0)
			done := completed(sim.Simulate(circuit))
			convey.So(done.State.Data[1], convey.ShouldEqual, complex(1, 0))
		})

		convey.Convey("CLASSIC should store the formula into its cbit", func() {
			circuit := NewCircuit(1, 3).
				Apply("X", 0).
				Measure([]int{0}, []int{0}).
				Classic("AND 0 NOT 1", 2)

			done := completed(sim.Simulate(circuit))
			convey.So(done.Cbits, convey.ShouldResemble, Register{true, false, true})
		})

		convey.Convey("CLASSICCTRL should only fire when every control bit is set", func() {
			circuit := NewCircuit(2, 2).
				Apply("X", 0).
				Measure([]int{0}, []int{0}).
				Control([]int{0}, "X", 1).
				Control([]int{0, 1}, "X", 0)

			done := completed(sim.Simulate(circuit))
			// qubit 1 flipped, qubit 0 left alone
			convey.So(done.State.Data[3], convey.ShouldEqual, complex(1, 0))
		})

		convey.Convey("A teleported |1> should arrive on the last qubit", func() {
			circuit := NewCircuit(3, 2).
				Apply("X", 0).
				Apply("H", 1).
				Apply("CNOT", 1, 2).
				Apply("CNOT", 0, 1).
				Apply("H", 0).
				Measure([]int{0, 1}, []int{0, 1}).
				Control([]int{1}, "X", 2).
				Control([]int{0}, "Z", 2)

			for i := 0; i < 10; i++ {
				done := completed(sim.Simulate(circuit))
				probs, err := Marginal(done.State, []int{2})
				convey.So(err, convey.ShouldBeNil)
				convey.So(probs.Data[1], convey.ShouldAlmostEqual, 1.0, tolerance)
				convey.So(done.Measurements[0].Probability, convey.ShouldAlmostEqual, 0.25, tolerance)
			}
		})

		convey.Convey("Multi-qubit measurement should write bits in the listed order", func() {
			circuit := NewCircuit(2, 2).Apply("X", 1).Measure([]int{1, 0}, []int{0, 1})
			done := completed(sim.Simulate(circuit))
			convey.So(done.Cbits, convey.ShouldResemble, Register{true, false})
			convey.So(done.Measurements[0].Cbits, convey.ShouldResemble, []bool{true, false})
		})

		convey.Convey("The expression evaluator should drive classical ops", func() {
			sim := NewSimulator(WithSeed(1), WithEvaluator(NewExprEvaluator()))
			circuit := NewCircuit(1, 2).
				Apply("X", 0).
				Measure([]int{0}, []int{0}).
				Break("c0 == true")

			outcome, err := sim.Simulate(circuit)
			convey.So(err, convey.ShouldBeNil)
			convey.So(outcome.Status(), convey.ShouldEqual, HaltedBreak)
			convey.So(outcome.(*Broke).Diagnostic.Cbits, convey.ShouldResemble, []CbitValue{{Index: 0, Value: true}})
			convey.So(outcome.(*Broke).Measurements, convey.ShouldHaveLength, 1)
		})
	})

	convey.Convey("Given circuits that cannot run", t, func() {
		sim := NewSimulator(WithSeed(1))

		convey.Convey("A gate without a matrix should be an illegal gate", func() {
			circuit := NewCircuit(1, 0).Apply("H", 0).Apply("U", 0)
			circuit.GateDic["U"] = GateDefinition{Name: "U", Arity: 1}

			_, err := sim.Simulate(circuit)
			convey.So(errors.Is(err, ErrIllegalGates), convey.ShouldBeTrue)

			var qe *QPUError
			convey.So(errors.As(err, &qe), convey.ShouldBeTrue)
			convey.So(qe.Code, convey.ShouldEqual, IllegalGates)
			convey.So(qe.Position, convey.ShouldEqual, 1)
			convey.So(qe.Error(), convey.ShouldContainSubstring, "Gate U has no matrix!")
		})

		convey.Convey("A malformed matrix should be an illegal gate", func() {
			circuit := NewCircuit(1, 0).Apply("U", 0)
			circuit.GateDic["U"] = GateDefinition{Arity: 1, Matrix: DescribeMatrix(2, 2, []complex128{1, 0, 0})}

			_, err := sim.Simulate(circuit)
			convey.So(errors.Is(err, ErrMalformedMatrix), convey.ShouldBeTrue)
		})

		convey.Convey("An undefined gate should be rejected before running", func() {
			circuit := NewCircuit(1, 0).Apply("H", 0).Apply("QFT", 0)

			_, err := sim.Simulate(circuit)
			convey.So(errors.Is(err, ErrIllegalGates), convey.ShouldBeTrue)
		})

		convey.Convey("A broken formula should carry the op position", func() {
			circuit := NewCircuit(1, 1).Apply("H", 0).Classic("AND 0", 0)

			_, err := sim.Simulate(circuit)
			convey.So(errors.Is(err, ErrFormula), convey.ShouldBeTrue)

			var qe *QPUError
			convey.So(errors.As(err, &qe), convey.ShouldBeTrue)
			convey.So(qe.Position, convey.ShouldEqual, 1)
		})

		convey.Convey("Registers too large to allocate should be rejected", func() {
			for _, n := range []int{MaxQubits + 1, 63, 64, 70} {
				_, err := sim.Simulate(NewCircuit(n, 0).Apply("H", 0))
				convey.So(errors.Is(err, ErrInvalidArgs), convey.ShouldBeTrue)

				var qe *QPUError
				convey.So(errors.As(err, &qe), convey.ShouldBeTrue)
				convey.So(qe.Code, convey.ShouldEqual, InvalidArgs)
				convey.So(qe.Position, convey.ShouldEqual, -1)
			}
		})

		convey.Convey("Circuits above the simulator limit should be rejected", func() {
			small := NewSimulator(WithSeed(1), WithMaxQubits(3))

			completed(small.Simulate(NewCircuit(3, 0).Apply("H", 2)))

			_, err := small.Simulate(NewCircuit(4, 0).Apply("H", 0))
			convey.So(errors.Is(err, ErrInvalidArgs), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "limit of 3")
		})

		convey.Convey("The circuit should never be modified", func() {
			circuit := NewCircuit(2, 2).Apply("H", 0).Measure([]int{0}, []int{0}).Reset([]int{0, 1}, []int{1})
			ops := append([]Op(nil), circuit.Ops...)
			gates := len(circuit.GateDic)

			completed(sim.Simulate(circuit))
			convey.So(circuit.Ops, convey.ShouldResemble, ops)
			convey.So(circuit.GateDic, convey.ShouldHaveLength, gates)
		})
	})
}
