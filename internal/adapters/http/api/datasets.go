package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/combatlog/internal/app"
	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/pkg/logger"
)

// DatasetsHandler handles upload, lookup and deletion of datasets.
type DatasetsHandler struct {
	deps     Dependencies
	maxBytes int64
	logger   logger.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(deps Dependencies, maxBytes int64, log logger.Logger) *DatasetsHandler {
	return &DatasetsHandler{deps: deps, maxBytes: maxBytes, logger: log}
}

// HandleUpload handles POST /datasets. The body digest makes repeated
// uploads of the same log return the existing dataset.
func (h *DatasetsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"

	body, err := readBody(w, r, h.maxBytes)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	up, err := decodeUpload(body)
	if err != nil {
		writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
		return
	}

	streams := make([]model.DamageStream, len(up.Streams))
	for i, s := range up.Streams {
		if streams[i], err = s.toModel(i); err != nil {
			writeFailure(w, op, WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	sum := sha256.Sum256(body)
	res, err := h.deps.Upload(r.Context(), service.UploadRequest{
		You:     up.You,
		Streams: streams,
		Digest:  hex.EncodeToString(sum[:]),
	})
	if err != nil {
		h.logger.Debug(r.Context(), "upload rejected", logger.Error(err))
		writeFailure(w, op, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, uploadResponse{ID: res.ID, Duplicate: res.Duplicate})
}

// HandleGet handles GET /datasets/{id}.
func (h *DatasetsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dataset"
	ds, err := h.deps.Dataset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newDatasetResponse(ds))
}

// HandleDelete handles DELETE /datasets/{id}.
func (h *DatasetsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_dataset"
	if err := h.deps.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readBody reads at most limit bytes and reports ErrPayloadTooLarge beyond.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrPayloadTooLarge
		}
		return nil, WrapKind("api.read_body", ErrBadRequest, err)
	}
	return body, nil
}
