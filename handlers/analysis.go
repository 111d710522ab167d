package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"dojolens/dto"
	"dojolens/middleware"
	"dojolens/models"
	"dojolens/repository"
	"dojolens/validation"
)

const defaultThreshold = 0.7

// AnalysisService is the submission and query boundary the handlers sit on.
type AnalysisService interface {
	Submit(ctx context.Context, traceID, filename string, data []byte, martialArt string, threshold float64) (*dto.SubmitResponse, error)
	Get(ctx context.Context, id string) (*dto.AnalysisResponse, error)
	List(ctx context.Context, limit, offset int, martialArt string) (*dto.ListResponse, error)
	Delete(ctx context.Context, id string) error
}

type AnalysisHandler struct {
	service AnalysisService
	logger  *zap.Logger
}

func NewAnalysisHandler(service AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// Register wires the handler's routes onto a mux.
func (h *AnalysisHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/analyze", h.Analyze)
	mux.HandleFunc("/api/analysis", h.List)
	mux.HandleFunc("/api/analysis/", h.AnalysisByID)
	mux.HandleFunc("/api/martial_arts", h.MartialArts)
	mux.HandleFunc("/health", h.Health)
}

// Analyze accepts a multipart video upload and starts a background analysis.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodPost {
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.handleError(w, "Failed to parse form", err, traceID, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		h.handleError(w, "Failed to get video file", err, traceID, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, "Failed to read video file", err, traceID, http.StatusInternalServerError)
		return
	}

	martialArt := r.FormValue("martial_art")

	threshold := defaultThreshold
	if raw := r.FormValue("confidence_threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			h.handleError(w, "Invalid confidence threshold", err, traceID, http.StatusBadRequest)
			return
		}
	}

	resp, err := h.service.Submit(r.Context(), traceID, header.Filename, data, martialArt, threshold)
	if err != nil {
		h.submitError(w, err, traceID)
		return
	}

	h.respondJSON(w, http.StatusAccepted, resp)
}

// AnalysisByID serves read and delete on /api/analysis/{id}.
func (h *AnalysisHandler) AnalysisByID(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	id := strings.TrimPrefix(r.URL.Path, "/api/analysis/")
	if id == "" || strings.Contains(id, "/") {
		h.handleError(w, "Analysis ID is required", nil, traceID, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		resp, err := h.service.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				h.handleError(w, "Analysis not found", err, traceID, http.StatusNotFound)
				return
			}
			h.handleError(w, "Failed to get analysis", err, traceID, http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, http.StatusOK, resp)

	case http.MethodDelete:
		if err := h.service.Delete(r.Context(), id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				h.handleError(w, "Analysis not found", err, traceID, http.StatusNotFound)
				return
			}
			h.handleError(w, "Failed to delete analysis", err, traceID, http.StatusInternalServerError)
			return
		}
		h.respondJSON(w, http.StatusOK, map[string]string{"message": "Analysis deleted successfully"})

	default:
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
	}
}

// List pages analyses newest first.
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodGet {
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	martialArt := r.URL.Query().Get("martial_art")

	resp, err := h.service.List(r.Context(), limit, offset, martialArt)
	if err != nil {
		h.handleError(w, "Failed to list analyses", err, traceID, http.StatusInternalServerError)
		return
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// MartialArts serves the static discipline catalog.
func (h *AnalysisHandler) MartialArts(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetTraceID(r.Context())

	if r.Method != http.MethodGet {
		h.handleError(w, "Method not allowed", nil, traceID, http.StatusMethodNotAllowed)
		return
	}
	h.respondJSON(w, http.StatusOK, dto.MartialArtsResponse{MartialArts: models.Catalog()})
}

func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "dojolens",
		"version": "1.0.0",
	})
}

// submitError maps submission validation failures to client errors.
func (h *AnalysisHandler) submitError(w http.ResponseWriter, err error, traceID string) {
	switch {
	case errors.Is(err, validation.ErrFileTooLarge):
		h.handleError(w, "File too large. Maximum size is 1GB.", err, traceID, http.StatusRequestEntityTooLarge)
	case errors.Is(err, models.ErrUnsupportedDiscipline),
		errors.Is(err, validation.ErrInvalidThreshold),
		errors.Is(err, validation.ErrUnsupportedExt),
		errors.Is(err, validation.ErrEmptyFile):
		h.handleError(w, err.Error(), err, traceID, http.StatusBadRequest)
	default:
		h.handleError(w, "Failed to submit analysis", err, traceID, http.StatusInternalServerError)
	}
}

func (h *AnalysisHandler) handleError(w http.ResponseWriter, message string, err error, traceID string, status int) {
	h.logger.Error(message,
		zap.String("trace_id", traceID),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		TraceID: traceID,
	})
}

func (h *AnalysisHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
