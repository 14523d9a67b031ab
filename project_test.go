package qlinalg

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/pkg/errors"
	"github.com/smartystreets/goconvey/convey"
)

func TestProject(t *testing.T) {
	convey.Convey("Given two qubits in an equal superposition", t, func() {
		state := prepare(2, []any{"H", 0}, []any{"H", 1})

		convey.Convey("Projecting qubit 0 onto 1 should keep half the register", func() {
			out, err := Project(state, []int{0}, Sample{State: 1, Probability: 0.5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(out.Data[0], convey.ShouldEqual, complex(0, 0))
			convey.So(out.Data[1], convey.ShouldEqual, complex(0, 0))
			convey.So(real(out.Data[2]), convey.ShouldAlmostEqual, 1/math.Sqrt2, tolerance)
			convey.So(real(out.Data[3]), convey.ShouldAlmostEqual, 1/math.Sqrt2, tolerance)
			convey.So(Norm2(out), convey.ShouldAlmostEqual, 1.0, tolerance)
		})

		convey.Convey("Projecting both qubits should keep exactly one basis state", func() {
			// qubit 1 reads 0, qubit 0 reads 1
			out, err := Project(state, []int{1, 0}, Sample{State: 1, Probability: 0.25})
			convey.So(err, convey.ShouldBeNil)
			for i, amp := range out.Data {
				if i == 2 {
					convey.So(real(amp), convey.ShouldAlmostEqual, 1.0, tolerance)
					continue
				}
				convey.So(amp, convey.ShouldEqual, complex(0, 0))
			}
		})

		convey.Convey("The input tensor should be left alone", func() {
			snapshot := state.Clone()
			_, err := Project(state, []int{0}, Sample{State: 0, Probability: 0.5})
			convey.So(err, convey.ShouldBeNil)
			convey.So(state.Data, convey.ShouldResemble, snapshot.Data)
		})

		convey.Convey("A zero probability outcome should be refused", func() {
			_, err := Project(state, []int{0}, Sample{State: 0, Probability: 0})
			convey.So(errors.Is(err, ErrNumericInconsistency), convey.ShouldBeTrue)

			_, err = Project(state, []int{0}, Sample{State: 0, Probability: math.NaN()})
			convey.So(errors.Is(err, ErrNumericInconsistency), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an entangled three qubit state", t, func() {
		state := prepare(3,
			[]any{"H", 0},
			[]any{"H", 2},
			[]any{"CNOT", 0, 1},
			[]any{"T", 1},
			[]any{"H", 1},
		)

		convey.Convey("Re-measuring after a projection should give the same outcome with certainty", func() {
			subsets := [][]int{{0}, {2}, {1, 0}, {2, 0, 1}}

			for seed := uint64(0); seed < 20; seed++ {
				rng := seeded(seed)
				for _, qubits := range subsets {
					samples, err := Measure(state, qubits, 1, rng)
					convey.So(err, convey.ShouldBeNil)

					collapsed, err := Project(state, qubits, samples[0])
					convey.So(err, convey.ShouldBeNil)
					convey.So(Norm2(collapsed), convey.ShouldAlmostEqual, 1.0, tolerance)

					again, err := Measure(collapsed, qubits, 5, rng)
					convey.So(err, convey.ShouldBeNil)
					for _, s := range again {
						convey.So(s.State, convey.ShouldEqual, samples[0].State)
						convey.So(s.Probability, convey.ShouldAlmostEqual, 1.0, tolerance)
					}
				}
			}
		})

		convey.Convey("Projection should preserve relative phases", func() {
			samples := []Sample{{State: 1}}
			probs, err := Marginal(state, []int{0})
			convey.So(err, convey.ShouldBeNil)
			samples[0].Probability = probs.Data[1]

			out, err := Project(state, []int{0}, samples[0])
			convey.So(err, convey.ShouldBeNil)

			scale := math.Sqrt(samples[0].Probability)
			for i := 4; i < 8; i++ {
				convey.So(cmplx.Abs(out.Data[i]*complex(scale, 0)-state.Data[i]), convey.ShouldBeLessThan, tolerance)
			}
		})
	})
}
