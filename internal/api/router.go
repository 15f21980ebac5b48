package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plugreg/plugreg/internal/auth"
	"github.com/plugreg/plugreg/internal/pluginservice"
)

// NewRouter creates a chi router with all API routes mounted. provider
// resolves the user on write endpoints. sseHandler, if non-nil, is
// mounted at GET /events.
func NewRouter(svc *pluginservice.Service, provider auth.Provider, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method Not Allowed"))
	})

	// npm passthrough.
	r.Get("/npm-package-lookup", h.LookupNPMPackage)
	r.Get("/get-package-readme", h.GetPackageReadme)

	// Registry reads.
	r.Get("/plugins", h.ListPlugins)
	r.Get("/plugins/{packageID}", h.GetPlugin)

	// Registry writes require an authenticated user.
	r.Group(func(pr chi.Router) {
		pr.Use(RequireUser(provider))
		pr.Post("/submit-npm-package", h.SubmitNPMPackage)
		pr.Post("/plugins/{packageID}/like", h.LikePlugin)
		pr.Delete("/plugins/{packageID}/like", h.UnlikePlugin)
		pr.Put("/plugins/{packageID}/rating", h.RatePlugin)
	})

	// SSE endpoint.
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
