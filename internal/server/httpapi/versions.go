package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/prompta-dev/prompta-server/internal/server/services"
)

type VersionHandler struct {
	prompts  *services.PromptService
	versions *services.VersionService
	diffs    *services.DiffService
	validate *validator.Validate
}

func NewVersionHandler(prompts *services.PromptService, versions *services.VersionService, diffs *services.DiffService) *VersionHandler {
	return &VersionHandler{
		prompts:  prompts,
		versions: versions,
		diffs:    diffs,
		validate: validator.New(),
	}
}

// versionNumber parses the {number} path variable. Non-numeric input is a
// client error, not a missing resource.
func versionNumber(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (h *VersionHandler) List(w http.ResponseWriter, r *http.Request) {
	versions, err := h.prompts.ListVersions(r.Context(), GetUserID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]versionResponse, 0, len(versions))
	for _, v := range versions {
		resp = append(resp, toVersionResponse(v))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.versions.Create(r.Context(), GetUserID(r), mux.Vars(r)["id"], req.Content, req.CommitMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *VersionHandler) Get(w http.ResponseWriter, r *http.Request) {
	number, ok := versionNumber(r)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "invalid version number")
		return
	}

	version, err := h.prompts.GetVersion(r.Context(), GetUserID(r), mux.Vars(r)["id"], number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *VersionHandler) UpdateCommitMessage(w http.ResponseWriter, r *http.Request) {
	number, ok := versionNumber(r)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "invalid version number")
		return
	}

	var req updateCommitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.versions.UpdateCommitMessage(r.Context(), GetUserID(r), mux.Vars(r)["id"], number, req.CommitMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionResponse(version))
}

func (h *VersionHandler) Restore(w http.ResponseWriter, r *http.Request) {
	number, ok := versionNumber(r)
	if !ok {
		writeErrorMessage(w, http.StatusBadRequest, "invalid version number")
		return
	}

	// body is optional; only an override commit message may be supplied
	var req restoreVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	version, err := h.versions.Restore(r.Context(), GetUserID(r), mux.Vars(r)["id"], number, req.CommitMessage)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionResponse(version))
}

func (h *VersionHandler) Diff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := strconv.Atoi(q.Get("from"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid from version")
		return
	}
	to, err := strconv.Atoi(q.Get("to"))
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid to version")
		return
	}

	res, err := h.diffs.CompareVersions(r.Context(), GetUserID(r), mux.Vars(r)["id"], from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiffResponse(from, to, res))
}
