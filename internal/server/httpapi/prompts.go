package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/prompta-dev/prompta-server/internal/server/services"
)

type PromptHandler struct {
	prompts  *services.PromptService
	search   *services.SearchService
	validate *validator.Validate
}

func NewPromptHandler(prompts *services.PromptService, search *services.SearchService) *PromptHandler {
	return &PromptHandler{
		prompts:  prompts,
		search:   search,
		validate: validator.New(),
	}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	prompt, version, err := h.prompts.Create(r.Context(), GetUserID(r), services.CreatePromptParams{
		Name:          req.Name,
		Description:   req.Description,
		Location:      req.Location,
		Tags:          req.Tags,
		Content:       req.Content,
		CommitMessage: req.CommitMessage,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, promptWithVersionResponse{
		Prompt:  toPromptResponse(prompt),
		Version: toVersionResponse(version),
	})
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.Get(r.Context(), GetUserID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(prompt))
}

func (h *PromptHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.GetByName(r.Context(), GetUserID(r), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(prompt))
}

func (h *PromptHandler) GetByLocation(w http.ResponseWriter, r *http.Request) {
	prompt, err := h.prompts.GetByLocation(r.Context(), GetUserID(r), r.URL.Query().Get("location"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(prompt))
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updatePromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	prompt, err := h.prompts.UpdateMetadata(r.Context(), GetUserID(r), mux.Vars(r)["id"], services.UpdatePromptParams{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPromptResponse(prompt))
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.prompts.Delete(r.Context(), GetUserID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "prompt deleted"})
}

// List handles both plain listing and filtered search. Filters come from
// query parameters: q, tags (comma-separated), location, page, page_size.
func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := services.ListParams{
		Query:    q.Get("q"),
		Location: q.Get("location"),
	}
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				params.Tags = append(params.Tags, t)
			}
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(q.Get("page_size")); err == nil {
		params.PageSize = size
	}

	items, total, err := h.search.ListPrompts(r.Context(), GetUserID(r), params)
	if err != nil {
		writeError(w, err)
		return
	}

	page, size := h.search.Normalize(params.Page, params.PageSize)

	resp := promptListResponse{
		Items:      make([]promptResponse, 0, len(items)),
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: (total + size - 1) / size,
	}
	for _, p := range items {
		resp.Items = append(resp.Items, toPromptResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}
