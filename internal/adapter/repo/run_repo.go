package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/sqlinline"
)

// RunRecord is one row of run history.
type RunRecord struct {
	ID              string     `json:"id"`
	ProductName     string     `json:"product_name"`
	ProductSlug     string     `json:"product_slug"`
	Profile         string     `json:"profile"`
	Theme           string     `json:"theme"`
	Status          string     `json:"status"`
	AssetsCompleted int        `json:"assets_completed"`
	AssetsTotal     int        `json:"assets_total"`
	ErrorCount      int        `json:"error_count"`
	TotalCostUSD    float64    `json:"total_cost_usd"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// RunRepositoryPG persists run history in PostgreSQL. Recording is best
// effort: persistence failures are logged, never surfaced to the pipeline.
type RunRepositoryPG struct {
	exec   infra.SQLExecutor
	logger zerolog.Logger
}

func NewRunRepository(exec infra.SQLExecutor, logger zerolog.Logger) *RunRepositoryPG {
	return &RunRepositoryPG{exec: exec, logger: logger}
}

// EnsureSchema creates the runs table when missing.
func (r *RunRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.exec.Exec(ctx, sqlinline.QCreateRunsTable)
	return err
}

// RunStarted inserts the initial row for a run.
func (r *RunRepositoryPG) RunStarted(ctx context.Context, state domain.PipelineState) {
	_, err := r.exec.Exec(ctx, sqlinline.QInsertRun,
		state.ID,
		state.Request.ProductName,
		domain.Slugify(state.Request.ProductName),
		state.Request.Profile,
		state.Request.Theme,
		string(state.Status),
		state.StartedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("run_id", state.ID).Msg("record run start")
	}
}

// RunFinished updates the row with the terminal outcome.
func (r *RunRepositoryPG) RunFinished(ctx context.Context, state domain.PipelineState) {
	var manifestJSON []byte
	var totalCost float64
	if state.Manifest != nil {
		totalCost = state.Manifest.TotalCostUSD
		if data, err := json.Marshal(state.Manifest); err == nil {
			manifestJSON = data
		}
	}

	_, err := r.exec.Exec(ctx, sqlinline.QFinishRun,
		state.ID,
		string(state.Status),
		state.AssetsCompleted,
		state.AssetsTotal,
		len(state.Errors),
		totalCost,
		manifestJSON,
		state.CompletedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("run_id", state.ID).Msg("record run finish")
	}
}

// Recent returns the latest n runs, newest first.
func (r *RunRepositoryPG) Recent(ctx context.Context, n int) ([]RunRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := r.exec.Query(ctx, sqlinline.QRecentRuns, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(
			&rec.ID, &rec.ProductName, &rec.ProductSlug, &rec.Profile, &rec.Theme,
			&rec.Status, &rec.AssetsCompleted, &rec.AssetsTotal, &rec.ErrorCount,
			&rec.TotalCostUSD, &rec.StartedAt, &rec.CompletedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
