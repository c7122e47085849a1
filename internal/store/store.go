// Package store holds the last successful prediction and the outcome of the latest submit.
package store

import (
	"sync"

	"github.com/yildizm/DenseView/internal/predict"
)

// State is the lifecycle of the latest submit
type State int

const (
	Idle State = iota
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome describes the latest submit. Kind and Message are set only when State is Failed.
type Outcome struct {
	State     State
	Kind      predict.ErrorKind
	Message   string
	RequestID string
	Seq       uint64
}

// Store is a single-slot prediction holder, safe for concurrent use
type Store struct {
	mu         sync.RWMutex
	prediction predict.Matrix
	outcome    Outcome
}

// New returns an empty store
func New() *Store {
	return &Store{}
}

// Set overwrites the held prediction
func (s *Store) Set(m predict.Matrix) {
	s.mu.Lock()
	s.prediction = m.Clone()
	s.mu.Unlock()
}

// Get returns a copy of the held prediction, or nil when none has been stored
func (s *Store) Get() predict.Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prediction.Clone()
}

// HasPrediction reports whether a prediction is held
func (s *Store) HasPrediction() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prediction != nil
}

// SetOutcome replaces the latest outcome
func (s *Store) SetOutcome(o Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.mu.Unlock()
}

// Outcome returns the latest outcome
func (s *Store) Outcome() Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}
