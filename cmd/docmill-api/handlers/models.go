package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/spherical-ai/docmill/internal/llm"
	"github.com/spherical-ai/docmill/internal/observability"
)

// ModelsHandler serves model discovery and selection.
type ModelsHandler struct {
	logger *observability.Logger
	client *llm.Client
	store  *ModelStore
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(logger *observability.Logger, client *llm.Client, store *ModelStore) *ModelsHandler {
	return &ModelsHandler{
		logger: logger,
		client: client,
		store:  store,
	}
}

// ModelListDTO is the API response for model discovery.
type ModelListDTO struct {
	Models  []string `json:"models"`
	Current string   `json:"current"`
}

// SetModelRequestDTO is the API request for model selection.
type SetModelRequestDTO struct {
	Model string `json:"model"`
}

// List handles GET /api/models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.client.ListModels(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "cannot reach inference endpoint", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ModelListDTO{
		Models:  names,
		Current: h.store.Current(),
	})
}

// Set handles POST /api/model.
func (h *ModelsHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req SetModelRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		h.writeError(w, http.StatusBadRequest, "model is required", "")
		return
	}

	h.store.Set(req.Model)
	h.logger.Info().Str("model", req.Model).Msg("Selected model changed")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"model": req.Model})
}

func (h *ModelsHandler) writeError(w http.ResponseWriter, status int, message, detail string) {
	writeError(w, status, message, detail)
}
