package qlinalg

import (
	"github.com/pkg/errors"
)

// ExecutionStatus is the state of an execution.
type ExecutionStatus int

const (
	Running ExecutionStatus = iota
	HaltedComplete
	HaltedBreak
)

func (es ExecutionStatus) String() string {
	switch es {
	case Running:
		return "RUNNING"
	case HaltedComplete:
		return "HALTED_COMPLETE"
	case HaltedBreak:
		return "HALTED_BREAK"
	default:
		return "UNKNOWN"
	}
}

/*
IntermediateMeasurement records a MEASURE or RESET as it happened: the op's
position, the measured bits in the order the qubits were listed, and the
probability of that outcome.
*/
type IntermediateMeasurement struct {
	Position    int     `yaml:"gate_pos" json:"gate_pos"`
	Cbits       []bool  `yaml:"cbits" json:"cbits"`
	Probability float64 `yaml:"probability" json:"probability"`
}

// Outcome is the terminal result of an execution: *Completed or *Broke.
type Outcome interface {
	Status() ExecutionStatus
}

// Completed carries the final state and the intermediate measurement log.
type Completed struct {
	State        *StateVector
	Measurements []IntermediateMeasurement
	Cbits        Register
}

func (*Completed) Status() ExecutionStatus { return HaltedComplete }

// Broke reports that a BREAK op stopped the circuit.
type Broke struct {
	Diagnostic   BreakDiagnostic
	Measurements []IntermediateMeasurement
}

func (*Broke) Status() ExecutionStatus { return HaltedBreak }

// execution holds the mutable state of one circuit run.
type execution struct {
	sim      *Simulator
	circuit  *Circuit
	status   ExecutionStatus
	state    *StateVector
	cbits    Register
	log      []IntermediateMeasurement
	matrices map[string]*Matrix
	brk      *BreakDiagnostic
}

func newExecution(sim *Simulator, circuit *Circuit) *execution {
	return &execution{
		sim:      sim,
		circuit:  circuit,
		status:   Running,
		state:    NewStateVector(circuit.NbQbits),
		cbits:    make(Register, circuit.NbCbits),
		matrices: make(map[string]*Matrix),
	}
}

func (ex *execution) run() error {
	for pos, op := range ex.circuit.Ops {
		ex.sim.logger.Debug("op", "pos", pos, "type", op.Type, "qubits", op.Qubits, "cbits", op.Cbits)

		if err := ex.step(pos, op); err != nil {
			return atPosition(pos, err)
		}
		if ex.status == HaltedBreak {
			ex.sim.logger.Info("break", "diagnostic", ex.brk.String())
			return nil
		}
	}

	ex.status = HaltedComplete
	return nil
}

func (ex *execution) step(pos int, op Op) error {
	switch op.Type {
	case GATE:
		return ex.applyGate(op)
	case MEASURE:
		return ex.measure(pos, op)
	case RESET:
		return ex.reset(pos, op)
	case CLASSIC:
		return evaluateClassic(ex.sim.evaluator, op, ex.cbits)
	case CLASSICCTRL:
		if !controlsSet(op, ex.cbits) {
			return nil
		}
		return ex.applyGate(op)
	case BREAK:
		diag, err := evaluateBreak(ex.sim.evaluator, pos, op, ex.cbits)
		if err != nil {
			return err
		}
		if diag != nil {
			ex.brk = diag
			ex.status = HaltedBreak
		}
		return nil
	default:
		return errors.Wrapf(ErrUnknownOp, "%s", op.Type)
	}
}

func (ex *execution) applyGate(op Op) error {
	matrix, err := ex.matrix(op.Gate)
	if err != nil {
		return err
	}

	next, err := ApplyGate(ex.state, matrix, op.Qubits)
	if err != nil {
		return err
	}
	ex.state = next
	return nil
}

// matrix loads a gate's matrix once per execution.
func (ex *execution) matrix(gate string) (*Matrix, error) {
	if m, ok := ex.matrices[gate]; ok {
		return m, nil
	}

	gdef, ok := ex.circuit.GateDic[gate]
	if !ok {
		return nil, errors.Wrapf(ErrIllegalGates, "gate %q is not defined", gate)
	}
	if gdef.Matrix == nil {
		name := gdef.Name
		if name == "" {
			name = gate
		}
		return nil, errors.Wrapf(ErrIllegalGates, "Gate %s has no matrix!", name)
	}

	m, err := LoadMatrix(gdef.Matrix)
	if err != nil {
		return nil, errors.Wrapf(err, "gate %s", gate)
	}
	ex.matrices[gate] = m
	return m, nil
}

func (ex *execution) measure(pos int, op Op) error {
	samples, err := Measure(ex.state, op.Qubits, 1, ex.sim.rng)
	if err != nil {
		return err
	}
	sample := samples[0]

	if ex.state, err = Project(ex.state, op.Qubits, sample); err != nil {
		return err
	}

	bits := OutcomeBits(sample.State, len(op.Qubits))
	for k, bit := range bits {
		ex.cbits[op.Cbits[k]] = bit
	}

	ex.record(pos, bits, sample.Probability)
	return nil
}

func (ex *execution) reset(pos int, op Op) error {
	state, bits, prob, err := Reset(ex.state, op.Qubits, ex.sim.rng)
	if err != nil {
		return err
	}
	ex.state = state

	for _, cb := range op.Cbits {
		ex.cbits[cb] = false
	}

	ex.record(pos, bits, prob)
	return nil
}

func (ex *execution) record(pos int, bits []bool, prob float64) {
	ex.log = append(ex.log, IntermediateMeasurement{
		Position:    pos,
		Cbits:       bits,
		Probability: prob,
	})
}

func (ex *execution) outcome() Outcome {
	if ex.status == HaltedBreak {
		return &Broke{Diagnostic: *ex.brk, Measurements: ex.log}
	}
	return &Completed{State: ex.state, Measurements: ex.log, Cbits: ex.cbits}
}
