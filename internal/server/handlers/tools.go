// internal/server/handlers/tools.go

package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"agentesocial/internal/service/tools"
)

// ToolHandler exposes the agent tool registry over HTTP
type ToolHandler struct {
	registry *tools.Registry
	logger   logrus.FieldLogger
}

// NewToolHandler creates a new tool handler
func NewToolHandler(registry *tools.Registry, logger logrus.FieldLogger) *ToolHandler {
	return &ToolHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListTools describes every registered tool
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"tools": h.registry.List()})
}

// CallTool runs a tool with the JSON object body as arguments. Tool failures are
// reported in the payload, the way the agent layer expects them.
func (h *ToolHandler) CallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	args := tools.Args{}
	if r.ContentLength != 0 {
		if err := decodeBody(r, &args); err != nil {
			respondWithError(w, r, h.logger, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	result, err := h.registry.Call(r.Context(), name, args)
	if errors.Is(err, tools.ErrUnknownTool) {
		respondWithError(w, r, h.logger, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("tool", name).Info("Tool call failed")
		respondWithJSON(w, http.StatusOK, map[string]string{"error": err.Error()})
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
