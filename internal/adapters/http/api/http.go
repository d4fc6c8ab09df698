// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/combatlog/internal/app"
	"github.com/okian/combatlog/internal/domain/merge"
	"github.com/okian/combatlog/internal/domain/model"
	"github.com/okian/combatlog/internal/domain/smoothing"
	"github.com/okian/combatlog/pkg/logger"
)

const defaultMaxUploadBytes = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Upload(ctx context.Context, req service.UploadRequest) (service.UploadResult, error)
	Dataset(ctx context.Context, id string) (model.Dataset, error)
	Delete(ctx context.Context, id string) error
	Plots(ctx context.Context, id string, req service.PlotRequest) (service.PlotResult, error)
	Table(ctx context.Context, id string) (service.TableResult, error)
	// Window is the default window that query overrides start from.
	Window() smoothing.Window
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	datasetsHandler *DatasetsHandler
	plotsHandler    *PlotsHandler
	tableHandler    *TableHandler
	saveHandler     *SaveDataHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxUploadBytes int64
	logger         logger.Logger
}

// WithMaxUploadBytes caps request bodies of uploads and save_data.
func WithMaxUploadBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{maxUploadBytes: defaultMaxUploadBytes, logger: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		datasetsHandler: NewDatasetsHandler(deps, o.maxUploadBytes, o.logger),
		plotsHandler:    NewPlotsHandler(deps),
		tableHandler:    NewTableHandler(deps),
		saveHandler:     NewSaveDataHandler(o.maxUploadBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /datasets", MetricsMiddleware(s.datasetsHandler.HandleUpload, "datasets"))
	mux.HandleFunc("GET /datasets/{id}", MetricsMiddleware(s.datasetsHandler.HandleGet, "dataset"))
	mux.HandleFunc("DELETE /datasets/{id}", MetricsMiddleware(s.datasetsHandler.HandleDelete, "dataset"))
	mux.HandleFunc("GET /datasets/{id}/plots", MetricsMiddleware(s.plotsHandler.HandlePlots, "plots"))
	mux.HandleFunc("GET /datasets/{id}/table", MetricsMiddleware(s.tableHandler.HandleTable, "table"))
	mux.HandleFunc("POST /save_data", MetricsMiddleware(s.saveHandler.HandleSave, "save_data"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status code and writes it.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status, code, kind := classify(err)
	if errors.Is(err, kind) {
		writeError(w, status, code, Wrap(op, err))
		return
	}
	writeError(w, status, code, WrapKind(op, kind, err))
}

func classify(err error) (status int, code string, kind error) {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large", ErrPayloadTooLarge
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", service.ErrNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure", ErrBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable", service.ErrNotStarted
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrEmptyUpload),
		errors.Is(err, service.ErrInvalidEvent),
		errors.Is(err, service.ErrInvalidView),
		errors.Is(err, smoothing.ErrInvalidWindow),
		errors.Is(err, smoothing.ErrUnsortedEvents),
		errors.Is(err, merge.ErrUnsortedEvents):
		return http.StatusBadRequest, "bad_request", ErrBadRequest
	default:
		return http.StatusInternalServerError, "internal", ErrInternal
	}
}
