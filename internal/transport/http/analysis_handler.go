package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sheetsense/internal/analysis"
	apierrors "sheetsense/internal/errors"
)

// AnalysisHandler handles spreadsheet analysis requests, both direct uploads
// and SharePoint drive items.
type AnalysisHandler struct {
	service        AnalysisServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	maxUploadBytes int64
}

// NewAnalysisHandler creates a new analysis handler with RFC 7807 error
// handling.
func NewAnalysisHandler(service AnalysisServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalysisHandler {
	return &AnalysisHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "analysis_handler")),
		errorHandler:   errorHandler,
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the analysis routes
func (h *AnalysisHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.AnalyzeUpload)

	return r
}

// AnalyzeUpload handles POST /api/analyze. The spreadsheet arrives as a
// multipart form file under the "file" field; filter criteria come from
// query parameters.
func (h *AnalysisHandler) AnalyzeUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	criteria, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("filename", header.Filename),
		slog.Int("bytes", len(data)),
	)

	result, err := h.service.AnalyzeBytes(ctx, data, criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// parseCriteria builds filter criteria from query parameters. Parse failures
// on numeric bounds are invalid filters, not silent nils; boundary
// validation itself happens in the analysis package.
func parseCriteria(r *http.Request) (*analysis.Criteria, error) {
	q := r.URL.Query()
	criteria := &analysis.Criteria{}

	if v := q.Get("cardcode"); v != "" {
		criteria.CardCode = &v
	}
	if v := q.Get("min_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apierrors.InvalidFilterError("min_total", "min_total must be a number")
		}
		criteria.MinTotal = &f
	}
	if v := q.Get("max_total"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apierrors.InvalidFilterError("max_total", "max_total must be a number")
		}
		criteria.MaxTotal = &f
	}
	if v := q.Get("start_date"); v != "" {
		criteria.StartDate = &v
	}
	if v := q.Get("end_date"); v != "" {
		criteria.EndDate = &v
	}

	return criteria, nil
}
