package qlinalg

import "time"

// SamplingType selects what a job asks for. Only Sampling is supported.
type SamplingType int

const (
	Sampling SamplingType = iota
	Observable
)

// Job is a request to simulate a circuit and report measurement results.
type Job struct {
	ID      string
	Circuit *Circuit
	// Qubits to report on; nil means the whole register in index order.
	Qubits []int
	// Shots is the number of samples; zero asks for the full distribution.
	Shots int
	Type  SamplingType
	// Threshold overrides Config.Threshold when positive.
	Threshold float64
	TTL       time.Duration
	StartTime time.Time
}

// JobOption is a function type for configuring jobs
type JobOption func(*Job)

// WithTTL configures how long the job's result is kept.
func WithTTL(ttl time.Duration) JobOption {
	return func(j *Job) {
		j.TTL = ttl
	}
}

// WithShots sets the number of samples to draw.
func WithShots(shots int) JobOption {
	return func(j *Job) {
		j.Shots = shots
	}
}

// WithQubits restricts the reported qubits.
func WithQubits(qubits ...int) JobOption {
	return func(j *Job) {
		j.Qubits = qubits
	}
}

// WithThreshold sets the probability cutoff of full distributions.
func WithThreshold(threshold float64) JobOption {
	return func(j *Job) {
		j.Threshold = threshold
	}
}

// WithJobID names the job instead of generating an id.
func WithJobID(id string) JobOption {
	return func(j *Job) {
		j.ID = id
	}
}

// NewJob builds a sampling job over the whole register.
func NewJob(circuit *Circuit, opts ...JobOption) Job {
	job := Job{Circuit: circuit, Type: Sampling}
	for _, opt := range opts {
		opt(&job)
	}
	return job
}

// Result is the assembled answer to a Job.
type Result struct {
	JobID   string
	RawData []Sample
	// Measurements is the intermediate log of the single execution behind
	// the result; per-shot executions attach theirs to each Sample instead.
	Measurements []IntermediateMeasurement
}
