// internal/inference/interface.go
package inference

import "context"

// Engine defines the interface for running a single forward pass.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// Infer runs one forward pass over a flattened input tensor and
	// returns the model's probability vector, one entry per class.
	Infer(ctx context.Context, input []float32) ([]float32, error)

	// Close releases any resources held by the engine.
	Close() error
}
