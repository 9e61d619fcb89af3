package handler

import (
	"net/http"

	"github.com/openquant/hindsight/internal/api/response"
	"github.com/openquant/hindsight/internal/app"
)

// ReportsHandler lists and fetches archived reports.
type ReportsHandler struct {
	app *app.App
}

// NewReportsHandler creates a reports handler.
func NewReportsHandler(a *app.App) *ReportsHandler {
	return &ReportsHandler{app: a}
}

// List returns archive paths, optionally filtered by ?strategy=.
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	paths, err := h.app.Reports().List(r.Context(), r.URL.Query().Get("strategy"))
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	response.JSON(w, http.StatusOK, paths)
}
