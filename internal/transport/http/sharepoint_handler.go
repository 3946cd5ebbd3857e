package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetsense/internal/errors"
	"sheetsense/internal/graph"
)

// SharePointHandler exposes the SharePoint browsing and remote analysis
// endpoints.
type SharePointHandler struct {
	sharepoint   SharePointServiceInterface
	analysis     AnalysisServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewSharePointHandler creates a new SharePoint handler.
func NewSharePointHandler(sharepoint SharePointServiceInterface, analysisSvc AnalysisServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SharePointHandler {
	return &SharePointHandler{
		sharepoint:   sharepoint,
		analysis:     analysisSvc,
		logger:       logger.With(slog.String("component", "sharepoint_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the SharePoint routes
func (h *SharePointHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/sites", h.ListSites)
	r.Get("/files", h.ListFiles)
	r.Get("/search", h.Search)

	r.Route("/sites/{siteID}", func(r chi.Router) {
		r.Get("/drives", h.ListDrives)
		r.Route("/drives/{driveID}/files/{itemID}", func(r chi.Router) {
			r.Use(h.ItemCtx)
			r.Get("/analyze", h.AnalyzeItem)
		})
	})

	return r
}

// ItemCtx validates the drive item path parameters before any Graph call.
func (h *SharePointHandler) ItemCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, p := range []struct{ param, name string }{
			{"siteID", "site_id"},
			{"driveID", "drive_id"},
			{"itemID", "item_id"},
		} {
			if err := graph.ValidateID(chi.URLParam(r, p.param), p.name); err != nil {
				h.errorHandler.HandleError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// ListSites handles GET /api/sharepoint/sites
func (h *SharePointHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	items, err := h.sharepoint.ListSites(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// ListDrives handles GET /api/sharepoint/sites/{siteID}/drives
func (h *SharePointHandler) ListDrives(w http.ResponseWriter, r *http.Request) {
	items, err := h.sharepoint.ListDrives(r.Context(), chi.URLParam(r, "siteID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// ListFiles handles GET /api/sharepoint/files?site_id=&drive_id=
func (h *SharePointHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.sharepoint.ListFiles(r.Context(), q.Get("site_id"), q.Get("drive_id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// Search handles GET /api/sharepoint/search?q=&site_id=&drive_id=
func (h *SharePointHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.sharepoint.Search(r.Context(), q.Get("q"), q.Get("site_id"), q.Get("drive_id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// AnalyzeItem handles
// GET /api/sharepoint/sites/{siteID}/drives/{driveID}/files/{itemID}/analyze
func (h *SharePointHandler) AnalyzeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	criteria, err := parseCriteria(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	siteID := chi.URLParam(r, "siteID")
	driveID := chi.URLParam(r, "driveID")
	itemID := chi.URLParam(r, "itemID")

	h.logger.InfoContext(ctx, "remote analysis requested",
		slog.String("site_id", siteID),
		slog.String("drive_id", driveID),
		slog.String("item_id", itemID),
	)

	result, err := h.analysis.AnalyzeDriveItem(ctx, siteID, driveID, itemID, criteria)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}
