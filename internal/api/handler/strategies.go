package handler

import (
	"net/http"

	"github.com/openquant/hindsight/internal/api/response"
	"github.com/openquant/hindsight/internal/app"
)

// StrategyInfo describes one registered evaluator.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinBars     int    `json:"min_bars"`
}

// StrategiesHandler lists registered evaluators.
type StrategiesHandler struct {
	app *app.App
}

// NewStrategiesHandler creates a strategies handler.
func NewStrategiesHandler(a *app.App) *StrategiesHandler {
	return &StrategiesHandler{app: a}
}

// List returns all registered strategies.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	evaluators := h.app.Engine().GetAll()
	infos := make([]StrategyInfo, 0, len(evaluators))
	for _, ev := range evaluators {
		infos = append(infos, StrategyInfo{
			Name:        ev.Name(),
			Description: ev.Description(),
			MinBars:     ev.MinBars(),
		})
	}
	response.JSON(w, http.StatusOK, infos)
}
