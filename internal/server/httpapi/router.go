package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/prompta-dev/prompta-server/internal/logging"
	"github.com/prompta-dev/prompta-server/internal/server/services"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Prompts   *services.PromptService
	Versions  *services.VersionService
	Search    *services.SearchService
	Diffs     *services.DiffService
	SecretKey []byte
	Logger    logging.Logger
	Health    func() error
}

// NewRouter builds the full route table. All /api/v1 routes require a
// bearer token; /healthz does not.
func NewRouter(deps RouterDeps) *mux.Router {
	promptHandler := NewPromptHandler(deps.Prompts, deps.Search)
	versionHandler := NewVersionHandler(deps.Prompts, deps.Versions, deps.Diffs)

	r := mux.NewRouter()
	r.Use(LoggerMiddleware(deps.Logger))

	r.HandleFunc("/healthz", healthHandler(deps.Health)).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(AuthMiddleware(deps.SecretKey))

	api.HandleFunc("/prompts", promptHandler.Create).Methods("POST")
	api.HandleFunc("/prompts", promptHandler.List).Methods("GET")
	api.HandleFunc("/prompts/by-name/{name}", promptHandler.GetByName).Methods("GET")
	api.HandleFunc("/prompts/by-location", promptHandler.GetByLocation).Methods("GET")
	api.HandleFunc("/prompts/{id}", promptHandler.Get).Methods("GET")
	api.HandleFunc("/prompts/{id}", promptHandler.Update).Methods("PUT")
	api.HandleFunc("/prompts/{id}", promptHandler.Delete).Methods("DELETE")

	api.HandleFunc("/prompts/{id}/versions", versionHandler.List).Methods("GET")
	api.HandleFunc("/prompts/{id}/versions", versionHandler.Create).Methods("POST")
	api.HandleFunc("/prompts/{id}/versions/{number}", versionHandler.Get).Methods("GET")
	api.HandleFunc("/prompts/{id}/versions/{number}", versionHandler.UpdateCommitMessage).Methods("PATCH")
	api.HandleFunc("/prompts/{id}/versions/{number}/restore", versionHandler.Restore).Methods("POST")
	api.HandleFunc("/prompts/{id}/diff", versionHandler.Diff).Methods("GET")

	return r
}

func healthHandler(check func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
