package domain

import "time"

// PipelineStatus enumerates the orchestrator's states. Progression is the
// declared order; failed is reachable from any non-terminal state.
type PipelineStatus string

const (
	StatusQueued             PipelineStatus = "queued"
	StatusGeneratingCopy     PipelineStatus = "generating_copy"
	StatusGeneratingPrompts  PipelineStatus = "generating_prompts"
	StatusGeneratingImages   PipelineStatus = "generating_images"
	StatusRenderingTemplates PipelineStatus = "rendering_templates"
	StatusCreatingAnimations PipelineStatus = "creating_animations"
	StatusPackaging          PipelineStatus = "packaging"
	StatusComplete           PipelineStatus = "complete"
	StatusFailed             PipelineStatus = "failed"
)

// Terminal reports whether no further transitions can occur.
func (s PipelineStatus) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// PipelineError records one recoverable per-asset failure. Entries are
// append-only for the lifetime of a run.
type PipelineError struct {
	Stage       string    `json:"stage"`
	AssetID     string    `json:"asset_id,omitempty"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
	Timestamp   time.Time `json:"timestamp"`
}

// PipelineState is the mutable record of one run. The orchestrator owns it
// exclusively; everyone else sees copies taken with Snapshot.
type PipelineState struct {
	ID              string          `json:"id"`
	Request         AssetRequest    `json:"request"`
	Status          PipelineStatus  `json:"status"`
	Progress        int             `json:"progress"`
	AssetsCompleted int             `json:"assets_completed"`
	AssetsTotal     int             `json:"assets_total"`
	CurrentStep     string          `json:"current_step"`
	Errors          []PipelineError `json:"errors"`
	OutputDir       string          `json:"output_dir"`
	StartedAt       time.Time       `json:"started_at"`
	CompletedAt     time.Time       `json:"completed_at,omitzero"`
	Manifest        *AssetManifest  `json:"manifest,omitempty"`
}

// Snapshot returns a copy safe to hand outside the orchestrator. The errors
// slice is copied so later appends stay invisible; the manifest is written
// once at packaging time and never mutated afterward, so sharing the pointer
// is safe.
func (s *PipelineState) Snapshot() PipelineState {
	out := *s
	if len(s.Errors) > 0 {
		out.Errors = append([]PipelineError(nil), s.Errors...)
	}
	return out
}
