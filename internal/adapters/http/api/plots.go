package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/combatlog/internal/app"
	"github.com/okian/combatlog/internal/domain/selection"
	"github.com/okian/combatlog/internal/domain/smoothing"
)

// PlotsHandler serves smoothed rate curves.
type PlotsHandler struct {
	deps Dependencies
}

// NewPlotsHandler creates a new plots handler.
func NewPlotsHandler(deps Dependencies) *PlotsHandler {
	return &PlotsHandler{deps: deps}
}

// HandlePlots handles GET /datasets/{id}/plots?view=&min=&max=&mode=&width=.
// A single range bound leaves the other side open.
func (h *PlotsHandler) HandlePlots(w http.ResponseWriter, r *http.Request) {
	const op = "api.plots"

	req, err := h.parse(r.URL.Query())
	if err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Plots(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlotsResponse(res))
}

func (h *PlotsHandler) parse(q url.Values) (service.PlotRequest, error) {
	var req service.PlotRequest

	view, err := service.ParseView(q.Get("view"))
	if err != nil {
		return req, err
	}
	req.View = view

	minStr, maxStr := q.Get("min"), q.Get("max")
	if minStr != "" || maxStr != "" {
		rng := selection.TimeRange{Min: math.MinInt64, Max: math.MaxInt64}
		if minStr != "" {
			if rng.Min, err = strconv.ParseInt(minStr, 10, 64); err != nil {
				return req, fmt.Errorf("invalid min: %w", err)
			}
		}
		if maxStr != "" {
			if rng.Max, err = strconv.ParseInt(maxStr, 10, 64); err != nil {
				return req, fmt.Errorf("invalid max: %w", err)
			}
		}
		if rng.Min > rng.Max {
			return req, fmt.Errorf("min %d is after max %d", rng.Min, rng.Max)
		}
		req.Range = &rng
	}

	modeStr, widthStr := q.Get("mode"), q.Get("width")
	if modeStr != "" || widthStr != "" {
		win := h.deps.Window()
		if modeStr != "" {
			mode, err := smoothing.ParseMode(modeStr)
			if err != nil {
				return req, err
			}
			// Switching modes without a width picks that mode's usual width.
			if widthStr == "" && mode != win.Mode {
				win.Width = smoothing.DefaultWidth
				if mode == smoothing.Trailing {
					win.Width = smoothing.DefaultTrailingWidth
				}
			}
			win.Mode = mode
		}
		if widthStr != "" {
			if win.Width, err = strconv.Atoi(widthStr); err != nil {
				return req, fmt.Errorf("invalid width: %w", err)
			}
		}
		req.Window = &win
	}
	return req, nil
}
