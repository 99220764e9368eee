package pipeline

import "assetkit/internal/domain"

// Sink receives state snapshots as a run progresses. Implementations must not
// retain references into the snapshot beyond the call.
type Sink interface {
	Publish(state domain.PipelineState)
}

// NopSink discards all updates.
type NopSink struct{}

func (NopSink) Publish(domain.PipelineState) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(domain.PipelineState)

func (f SinkFunc) Publish(state domain.PipelineState) { f(state) }
