package qlinalg

import (
	"github.com/pkg/errors"
	"github.com/theapemachine/errnie"
)

/*
Service turns jobs into results: it runs the simulator and assembles samples
or full distributions from the final state. Like the Simulator it wraps, a
Service is used by one goroutine at a time.
*/
type Service struct {
	sim       *Simulator
	threshold float64
}

// NewService creates a service around sim, using cfg for defaults.
func NewService(sim *Simulator, cfg *Config) *Service {
	if cfg == nil {
		cfg = NewConfig()
	}
	return &Service{sim: sim, threshold: cfg.Threshold}
}

// Submit runs job and assembles its result.
func (svc *Service) Submit(job Job) (*Result, error) {
	if job.Type != Sampling {
		return nil, &QPUError{
			Code:     InvalidArgs,
			Position: -1,
			Message:  "Unsupported sampling type",
			Err:      ErrInvalidArgs,
		}
	}
	if job.Circuit == nil {
		return nil, &QPUError{Code: InvalidArgs, Position: -1, Message: "job without circuit", Err: ErrInvalidArgs}
	}

	if err := job.Circuit.Validate(); err != nil {
		return nil, err
	}

	qubits := job.Qubits
	if qubits == nil {
		qubits = make([]int, job.Circuit.NbQbits)
		for i := range qubits {
			qubits[i] = i
		}
	}
	if err := checkIndices("qubit", job.Circuit.NbQbits, qubits); err != nil {
		return nil, atPosition(-1, err)
	}

	errnie.Info("submit job %s: %d qubits, %d ops, %d shots", job.ID, job.Circuit.NbQbits, len(job.Circuit.Ops), job.Shots)

	if job.Shots > 0 && job.Circuit.HasClassicalControl() {
		return svc.perShot(job, qubits)
	}

	completed, err := svc.simulate(job.Circuit)
	if err != nil {
		return nil, err
	}

	result := &Result{JobID: job.ID, Measurements: completed.Measurements}
	if job.Shots == 0 {
		result.RawData, err = svc.distribution(completed.State, qubits, svc.cutoff(job))
	} else {
		result.RawData, err = svc.samples(completed.State, qubits, job.Shots)
	}
	if err != nil {
		return nil, atPosition(-1, err)
	}
	return result, nil
}

func (svc *Service) cutoff(job Job) float64 {
	if job.Threshold > 0 {
		return job.Threshold
	}
	return svc.threshold
}

func (svc *Service) simulate(circuit *Circuit) (*Completed, error) {
	outcome, err := svc.sim.Simulate(circuit)
	if err != nil {
		return nil, err
	}

	switch out := outcome.(type) {
	case *Completed:
		return out, nil
	case *Broke:
		return nil, &BreakError{Diagnostic: out.Diagnostic}
	default:
		return nil, errors.Errorf("unexpected outcome %T", outcome)
	}
}

// perShot runs one independent execution per shot, since mid-circuit
// measurements make every run follow its own branch.
func (svc *Service) perShot(job Job, qubits []int) (*Result, error) {
	result := &Result{JobID: job.ID, RawData: make([]Sample, 0, job.Shots)}

	for shot := 0; shot < job.Shots; shot++ {
		completed, err := svc.simulate(job.Circuit)
		if err != nil {
			return nil, err
		}

		samples, err := svc.samples(completed.State, qubits, 1)
		if err != nil {
			return nil, atPosition(-1, err)
		}
		samples[0].IntermediateMeasurements = completed.Measurements
		result.RawData = append(result.RawData, samples[0])
	}
	return result, nil
}

func (svc *Service) samples(state *StateVector, qubits []int, shots int) ([]Sample, error) {
	samples, err := Measure(state, qubits, shots, svc.sim.rng)
	if err != nil {
		return nil, err
	}

	if len(qubits) == state.Rank {
		for i := range samples {
			amp := amplitudeOf(state, qubits, samples[i].State)
			samples[i].Amplitude = &amp
		}
	}
	return samples, nil
}

/*
distribution lists every outcome whose probability is above threshold. When
the whole register is reported each entry carries its amplitude.
*/
func (svc *Service) distribution(state *StateVector, qubits []int, threshold float64) ([]Sample, error) {
	probs, err := Marginal(state, qubits)
	if err != nil {
		return nil, err
	}
	full := len(qubits) == state.Rank

	var out []Sample
	for outcome, prob := range probs.Data {
		if prob <= threshold {
			continue
		}

		sample := Sample{State: outcome, Probability: prob}
		if full {
			amp := amplitudeOf(state, qubits, outcome)
			sample.Amplitude = &amp
		}
		out = append(out, sample)
	}
	return out, nil
}

// amplitudeOf looks up the amplitude of the basis state in which qubit
// qubits[t] holds bit t of outcome.
func amplitudeOf(state *StateVector, qubits []int, outcome int) complex128 {
	index := make([]int, state.Rank)
	for t, bit := range bitIndices(outcome, len(qubits)) {
		index[qubits[t]] = bit
	}
	return state.At(index...)
}
