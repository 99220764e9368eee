package httpapi

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(app *App) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, middleware.Logger)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/profiles", app.ListProfiles)
	r.Get("/v1/themes", app.ListThemes)

	r.Route("/v1/runs", func(r chi.Router) {
		r.Post("/", app.SubmitRun)
		r.Get("/current", app.CurrentRun)
		r.Get("/recent", app.RecentRuns)
	})

	return r
}
