package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"assetkit/internal/adapter/repo"
	"assetkit/internal/catalog"
	"assetkit/internal/domain"
	"assetkit/internal/infra"
	"assetkit/internal/pipeline"
	"assetkit/internal/runner"
	"assetkit/internal/theme"
)

// RunHistory lists previously recorded runs.
type RunHistory interface {
	Recent(ctx context.Context, n int) ([]repo.RunRecord, error)
}

// App bundles the dependencies the HTTP handlers need. History is nil when no
// database is configured; the recent-runs endpoint reports that as 404.
type App struct {
	Runner  *runner.Runner
	History RunHistory
	Logger  zerolog.Logger
}

func NewApp(r *runner.Runner, logger *infra.Logger) *App {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &App{Runner: r, Logger: log}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) ListProfiles(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"profiles": catalog.ProfileNames()})
}

func (a *App) ListThemes(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"themes": theme.Names()})
}

func (a *App) CurrentRun(w http.ResponseWriter, r *http.Request) {
	state, ok := a.Runner.Current()
	if !ok {
		a.json(w, http.StatusNotFound, map[string]string{"error": "no runs yet"})
		return
	}
	a.json(w, http.StatusOK, state)
}

// RecentRuns lists the latest recorded runs, newest first. Accepts an
// optional ?limit= query parameter.
func (a *App) RecentRuns(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.json(w, http.StatusNotFound, map[string]string{"error": "run history not configured"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := a.History.Recent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("list recent runs")
		a.json(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
		return
	}
	if records == nil {
		records = []repo.RunRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"runs": records})
}

// SubmitRun accepts a generation request and starts it in the background.
// Returns 202 with the accepted request, or 409 when a run is in flight.
func (a *App) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var request domain.AssetRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	request.ApplyDefaults()
	if err := request.Validate(catalog.Registry{}, theme.Registry{}); err != nil {
		a.json(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}
	// Claim the runner before replying: a 202 must mean the run will execute.
	adm, err := a.Runner.Begin()
	if err != nil {
		a.json(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}

	// The request context dies when the handler returns; the run must not.
	go func() {
		if _, err := adm.Run(context.Background(), request, pipeline.NopSink{}); err != nil {
			a.Logger.Error().Err(err).Msg("background run failed")
		}
	}()

	a.json(w, http.StatusAccepted, map[string]any{
		"status":  "accepted",
		"request": request,
	})
}
