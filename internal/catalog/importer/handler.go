package importer

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/farmix-pos/farmix/internal/catalog"
	"github.com/farmix-pos/farmix/internal/platform/httpx"
)

// Handler serves the price-list import endpoints.
type Handler struct {
	logger      *slog.Logger
	snapshot    *catalog.SnapshotCache
	reconciler  *Reconciler
	validate    *validator.Validate
	maxFileSize int64
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, snapshot *catalog.SnapshotCache, reconciler *Reconciler, maxFileSize int64) *Handler {
	return &Handler{
		logger:      logger,
		snapshot:    snapshot,
		reconciler:  reconciler,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxFileSize: maxFileSize,
	}
}

// MountRoutes attaches the import endpoints to the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/products/import-excel/preview", h.Preview)
	r.Post("/products/import-excel/confirm", h.Confirm)
}

// Preview parses an uploaded spreadsheet and diffs it against the catalog
// snapshot. Nothing is written.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "File Too Large", "uploaded file exceeds the size limit")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".xls":
	default:
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "file must be an Excel spreadsheet (.xlsx or .xls)")
		return
	}

	rows, err := ParsePriceRows(file)
	if err != nil {
		h.logger.Error("price list parse failed", slog.String("filename", header.Filename), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	snapshot, err := h.snapshot.Get(r.Context())
	if err != nil {
		h.logger.Error("catalog snapshot load failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, BuildPreview(rows, snapshot))
}

// Confirm applies an edited preview batch.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []ConfirmItem `json:"items" validate:"required,min=1,dive"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result := h.reconciler.Confirm(r.Context(), req.Items)
	if result.Created > 0 || result.Updated > 0 {
		h.snapshot.Invalidate(r.Context())
	}
	httpx.JSON(w, http.StatusOK, result)
}
