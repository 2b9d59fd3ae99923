// internal/inference/onnx.go
package inference

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNX wraps an ONNX runtime session for thread-safe single-image inference.
// It implements the Engine interface.
type ONNX struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputShape ort.Shape
}

// NewONNX loads the model at modelPath and prepares a session that takes a
// single NCHW tensor of the given dimensions. A loaded session is not assumed
// safe for concurrent Run calls, so Infer serializes on an internal mutex.
func NewONNX(modelPath string, channels, height, width int64) (*ONNX, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputNames := []string{"input"}
	outputNames := []string{"output"}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		nil, // Use default session options
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputShape: ort.NewShape(1, channels, height, width),
	}, nil
}

// Infer runs one forward pass. The input must be a flattened [1,C,H,W]
// tensor; the returned slice is a copy owned by the caller.
func (o *ONNX) Infer(ctx context.Context, input []float32) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil, fmt.Errorf("inference session is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expected := o.inputShape.FlattenedSize()
	if int64(len(input)) != expected {
		return nil, fmt.Errorf("input tensor has wrong size: got %d, expected %d", len(input), expected)
	}

	inputTensor, err := ort.NewTensor(o.inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	// Let the runtime allocate the output so we never have to guess the
	// model's class count; the startup warmup validates it instead.
	outputs := []ort.ArbitraryTensor{nil}
	if err := o.session.Run([]ort.ArbitraryTensor{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok || outputTensor == nil {
		return nil, fmt.Errorf("inference produced no float32 output tensor")
	}
	defer outputTensor.Destroy()

	data := outputTensor.GetData()
	probs := make([]float32, len(data))
	copy(probs, data)
	return probs, nil
}

// Close releases the ONNX session resources.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		err := o.session.Destroy()
		o.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
