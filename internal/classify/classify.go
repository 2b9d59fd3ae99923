// Package classify implements the single-image inference pipeline:
// decode -> resize -> normalize -> forward pass -> ranked distribution.
package classify

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"time"

	"github.com/nfnt/resize"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leaflens/species-service/internal/inference"
	"github.com/leaflens/species-service/internal/labels"
	"github.com/leaflens/species-service/internal/metrics"
)

const channels = 3

// ClassProbability pairs a class name with the model's confidence for it.
type ClassProbability struct {
	ClassName  string  `json:"className"`
	Confidence float32 `json:"confidence"`
}

// Prediction is the ranked result of one forward pass.
type Prediction struct {
	ClassName        string             `json:"className"`
	Confidence       float32            `json:"confidence"`
	Top3             []ClassProbability `json:"top3"`
	AllProbabilities []ClassProbability `json:"allProbabilities"`
}

// Classifier owns the shared inference engine and label set. It is safe for
// concurrent use: the engine serializes forward passes internally and nothing
// else is mutated after construction.
type Classifier struct {
	engine    inference.Engine
	labels    labels.Set
	imageSize int
	tracer    trace.Tracer
}

// New creates a Classifier around an engine and label set. imageSize is the
// model's fixed input edge length in pixels.
func New(engine inference.Engine, set labels.Set, imageSize int) (*Classifier, error) {
	if engine == nil {
		return nil, fmt.Errorf("inference engine is nil")
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("label set is empty")
	}
	if imageSize <= 0 {
		return nil, fmt.Errorf("invalid image size %d", imageSize)
	}
	return &Classifier{
		engine:    engine,
		labels:    set,
		imageSize: imageSize,
		tracer:    otel.Tracer("classify"),
	}, nil
}

// Labels returns the label set the classifier ranks against.
func (c *Classifier) Labels() labels.Set {
	return c.labels
}

// InputLen returns the flattened input tensor length (C*H*W).
func (c *Classifier) InputLen() int {
	return channels * c.imageSize * c.imageSize
}

// Warmup runs one forward pass on a zero tensor and verifies the model's
// output width matches the label set. Must succeed before the service
// starts accepting traffic; a mismatch here is a configuration error,
// never a per-request one.
func (c *Classifier) Warmup(ctx context.Context) error {
	probs, err := c.engine.Infer(ctx, make([]float32, c.InputLen()))
	if err != nil {
		return fmt.Errorf("warmup inference failed: %w", err)
	}
	if len(probs) != len(c.labels) {
		return fmt.Errorf("model output width %d does not match label count %d", len(probs), len(c.labels))
	}
	return nil
}

// Preprocess converts raw uploaded bytes into a normalized NCHW float32
// tensor. Decoding failures map to ErrDecode; a decoded frame with no
// pixels maps to ErrUnsupportedFormat.
func (c *Classifier) Preprocess(raw []byte) ([]float32, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyInput
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: decoded image has no pixels", ErrUnsupportedFormat)
	}

	// Bilinear, held constant: the interpolation method is part of the
	// model's training contract.
	size := uint(c.imageSize)
	resized := resize.Resize(size, size, img, resize.Bilinear)

	w, h := c.imageSize, c.imageSize
	tensor := make([]float32, channels*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Straight (non-premultiplied) samples: alpha is dropped,
			// matching the training pipeline's RGB conversion. Scale
			// into [0,1] to match the training-time normalization.
			px := color.NRGBAModel.Convert(resized.At(x, y)).(color.NRGBA)

			idx := y*w + x
			tensor[idx] = float32(px.R) / 255.0
			tensor[h*w+idx] = float32(px.G) / 255.0
			tensor[2*h*w+idx] = float32(px.B) / 255.0
		}
	}

	return tensor, nil
}

// Classify runs the full pipeline on raw image bytes.
func (c *Classifier) Classify(ctx context.Context, raw []byte) (*Prediction, error) {
	ctx, span := c.tracer.Start(ctx, "classify.Classify",
		trace.WithAttributes(attribute.Int("image.bytes", len(raw))))
	defer span.End()

	tensor, err := c.Preprocess(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	probs, err := c.engine.Infer(ctx, tensor)
	metrics.RecordInferenceLatency(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	if len(probs) != len(c.labels) {
		return nil, fmt.Errorf("model output width %d does not match label count %d", len(probs), len(c.labels))
	}

	pred := rank(probs, c.labels)
	span.SetAttributes(
		attribute.String("prediction.class", pred.ClassName),
		attribute.Float64("prediction.confidence", float64(pred.Confidence)),
	)
	return pred, nil
}

// rank pairs probabilities with labels by index and sorts descending by
// confidence. Ties keep ascending label order so identical input always
// produces identical output.
func rank(probs []float32, set labels.Set) *Prediction {
	all := make([]ClassProbability, len(probs))
	for i, p := range probs {
		all[i] = ClassProbability{ClassName: set[i], Confidence: p}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Confidence > all[j].Confidence
	})

	topN := 3
	if len(all) < topN {
		topN = len(all)
	}
	top3 := make([]ClassProbability, topN)
	copy(top3, all[:topN])

	return &Prediction{
		ClassName:        all[0].ClassName,
		Confidence:       all[0].Confidence,
		Top3:             top3,
		AllProbabilities: all,
	}
}
