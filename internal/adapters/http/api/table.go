package api

import (
	"bytes"
	"net/http"

	"github.com/okian/combatlog/internal/adapters/export"
)

// TableHandler serves the merged export of a dataset.
type TableHandler struct {
	deps Dependencies
}

// NewTableHandler creates a new table handler.
func NewTableHandler(deps Dependencies) *TableHandler {
	return &TableHandler{deps: deps}
}

// HandleTable handles GET /datasets/{id}/table. It answers with a CSV
// attachment unless format=json is asked for.
func (h *TableHandler) HandleTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.table"

	id := r.PathValue("id")
	res, err := h.deps.Table(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "csv":
	case "json":
		writeJSON(w, http.StatusOK, newTableResponse(res))
		return
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, res.Headers, res.Table); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
