package qlinalg

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
)

/*
Simulator runs circuits against a dense state vector. It owns a random
source and an evaluator, so a Simulator must not be shared between
goroutines; create one per goroutine instead. Executions never share
state with each other.
*/
type Simulator struct {
	rng       *rand.Rand
	evaluator Evaluator
	logger    *log.Logger
	maxQubits int
}

// DefaultMaxQubits caps the state a Simulator allocates unless configured.
const DefaultMaxQubits = 30

// SimulatorOption configures a Simulator.
type SimulatorOption func(*Simulator)

// WithSeed makes sampling reproducible.
func WithSeed(seed uint64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand sets the random source directly.
func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rng
	}
}

// WithEvaluator replaces the default prefix formula evaluator.
func WithEvaluator(ev Evaluator) SimulatorOption {
	return func(s *Simulator) {
		s.evaluator = ev
	}
}

// WithMaxQubits sets the largest circuit the simulator accepts. Values
// outside [1, MaxQubits] are ignored.
func WithMaxQubits(n int) SimulatorOption {
	return func(s *Simulator) {
		if n > 0 && n <= MaxQubits {
			s.maxQubits = n
		}
	}
}

// WithLogger routes execution traces to logger.
func WithLogger(logger *log.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// NewSimulator creates a simulator seeded from the clock unless configured.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	seed := uint64(time.Now().UnixNano())
	sim := &Simulator{
		rng:       rand.New(rand.NewPCG(seed, seed>>1)),
		evaluator: PrefixEvaluator{},
		logger:    discardLogger(),
		maxQubits: DefaultMaxQubits,
	}

	for _, opt := range opts {
		opt(sim)
	}

	return sim
}

/*
Simulate runs circuit from |0...0> and an all-zero register. The returned
Outcome is either *Completed or *Broke. Configuration and numeric failures
are returned as *QPUError.
*/
func (sim *Simulator) Simulate(circuit *Circuit) (Outcome, error) {
	if err := circuit.Validate(); err != nil {
		return nil, err
	}
	if circuit.NbQbits > sim.maxQubits {
		return nil, &QPUError{
			Code:     InvalidArgs,
			Position: -1,
			Message:  fmt.Sprintf("%d qubits exceed the simulator limit of %d", circuit.NbQbits, sim.maxQubits),
			Err:      ErrInvalidArgs,
		}
	}

	exec := newExecution(sim, circuit)
	if err := exec.run(); err != nil {
		sim.logger.Error("execution failed", "err", err)
		return nil, err
	}
	return exec.outcome(), nil
}

// Measure samples the listed qubits of state without collapsing it.
func (sim *Simulator) Measure(state *StateVector, qubits []int, samples int) ([]Sample, error) {
	out, err := Measure(state, qubits, samples, sim.rng)
	if err != nil {
		return nil, atPosition(-1, err)
	}
	return out, nil
}
