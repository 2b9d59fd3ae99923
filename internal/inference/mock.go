// internal/inference/mock.go
package inference

import (
	"context"
	"fmt"
)

// MockEngine is a mock implementation of Engine for testing.
// It returns a fixed probability vector without requiring the ONNX shared library.
type MockEngine struct {
	// Probabilities is the vector returned for every input
	Probabilities []float32
	// ExpectedInputLen, if non-zero, makes Infer validate the input length
	ExpectedInputLen int
	// ShouldError if true, Infer will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Infer was called
	CallCount int
}

// NewMock creates a new MockEngine with a three-class distribution.
func NewMock() *MockEngine {
	return &MockEngine{
		Probabilities: []float32{0.1, 0.7, 0.2},
	}
}

// NewMockWithProbabilities creates a MockEngine returning the given vector.
func NewMockWithProbabilities(probs []float32) *MockEngine {
	return &MockEngine{Probabilities: probs}
}

// Infer returns the configured probability vector for any input.
func (m *MockEngine) Infer(ctx context.Context, input []float32) ([]float32, error) {
	m.CallCount++

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return nil, fmt.Errorf("%s", m.ErrorMessage)
		}
		return nil, fmt.Errorf("mock inference error")
	}

	if len(input) == 0 {
		return nil, fmt.Errorf("empty input tensor")
	}
	if m.ExpectedInputLen > 0 && len(input) != m.ExpectedInputLen {
		return nil, fmt.Errorf("input tensor has wrong size: got %d, expected %d", len(input), m.ExpectedInputLen)
	}

	out := make([]float32, len(m.Probabilities))
	copy(out, m.Probabilities)
	return out, nil
}

// Close is a no-op for the mock implementation.
func (m *MockEngine) Close() error {
	return nil
}

// SetError configures the mock to return an error on the next Infer call.
func (m *MockEngine) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error.
func (m *MockEngine) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure MockEngine implements Engine at compile time
var _ Engine = (*MockEngine)(nil)
