package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable marks provider failures the caller may degrade on
// (network, auth, quota). Retrieval falls back to lexical ranking when it
// sees this; it is never surfaced to the end caller of an answer.
var ErrUnavailable = errors.New("embedding provider unavailable")

// ErrDimensionMismatch is a fatal configuration error: all vectors in a
// process run must share one dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Task types understood by hosted providers. Ollama ignores them.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Option allows per-call parameters (credential override, task type).
type Option func(*Options)

type Options struct {
	APIKey   string
	TaskType string
}

// WithAPIKey overrides the provider credential for a single call.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.APIKey = key }
}

// WithTaskType sets the embedding task type for providers that use it.
func WithTaskType(task string) Option {
	return func(o *Options) { o.TaskType = task }
}

func applyOptions(opts []Option) *Options {
	o := &Options{TaskType: TaskRetrievalQuery}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Provider generates a unit-normalized embedding vector for a text.
type Provider interface {
	Embed(ctx context.Context, text string, opts ...Option) ([]float32, error)
}

// normalizeVector scales a vector to unit length. Cosine similarity over
// normalized vectors reduces to a dot product.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
