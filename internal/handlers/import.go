package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mentorloop/reviewhub/internal/config"
	"github.com/mentorloop/reviewhub/internal/importer"
	"github.com/mentorloop/reviewhub/internal/middleware"
	"github.com/mentorloop/reviewhub/internal/services"
	"github.com/mentorloop/reviewhub/pkg/logger"
	"github.com/mentorloop/reviewhub/pkg/response"
	"gorm.io/gorm"
)

// importTimeout bounds a synchronous import.
const importTimeout = 2 * time.Minute

type ImportHandler struct {
	importService *services.ImportService
	maxBytes      int64
}

func NewImportHandler(svc *services.ImportService, cfg config.ImportConfig) *ImportHandler {
	return &ImportHandler{importService: svc, maxBytes: cfg.MaxUploadBytes()}
}

// ImportResult is the synchronous import response.
type ImportResult struct {
	ImportID uint `json:"import_id"`
	*importer.Report
}

// Import runs an uploaded assignment file.
// POST /api/imports[?async=true]
func (h *ImportHandler) Import(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}
	coordinatorID := middleware.GetUserID(c)

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		entry, err := h.importService.Enqueue(c.Request.Context(), up, coordinatorID)
		if err != nil {
			response.ServerError(c, "failed to queue import: "+err.Error())
			return
		}
		response.Accepted(c, gin.H{"import_id": entry.ID, "status": entry.Status})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), importTimeout)
	defer cancel()

	entry, report, err := h.importService.Import(ctx, up, coordinatorID)
	if err != nil {
		response.Error(c, importError(err))
		return
	}
	response.Success(c, ImportResult{ImportID: entry.ID, Report: report})
}

// Preview validates an upload and returns the normalized rows without writing.
// POST /api/imports/preview
func (h *ImportHandler) Preview(c *gin.Context) {
	up, ok := h.readUpload(c)
	if !ok {
		return
	}

	preview, err := h.importService.Preview(c.Request.Context(), up)
	if err != nil {
		response.Error(c, importError(err))
		return
	}
	response.Success(c, preview)
}

// Template downloads the CSV template.
// GET /api/imports/template
func (h *ImportHandler) Template(c *gin.Context) {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		response.ServerError(c, "failed to build template")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+importer.TemplateFileName+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// List returns import history.
// GET /api/imports
func (h *ImportHandler) List(c *gin.Context) {
	var req services.ImportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.importService.List(c.Request.Context(), &req, middleware.GetViewer(c))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, resp)
}

// GetByID returns one import with its report.
// GET /api/imports/:id
func (h *ImportHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid import id")
		return
	}

	entry, err := h.importService.GetByID(c.Request.Context(), uint(id), middleware.GetViewer(c))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.NotFound(c, "import not found")
		return
	}
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	response.Success(c, entry)
}

func (h *ImportHandler) readUpload(c *gin.Context) (importer.Upload, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+(1<<20))

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			response.Error(c, h.tooLarge())
			return importer.Upload{}, false
		}
		response.BadRequest(c, "file is required")
		return importer.Upload{}, false
	}
	if fh.Size > h.maxBytes {
		response.Error(c, h.tooLarge())
		return importer.Upload{}, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return importer.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file")
		return importer.Upload{}, false
	}

	return importer.Upload{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

func (h *ImportHandler) tooLarge() *response.AppError {
	return response.NewTooLarge("file exceeds the " + strconv.FormatInt(h.maxBytes>>20, 10) + " MB upload limit")
}

// importError maps importer failures to API errors.
func importError(err error) error {
	var (
		missing     *importer.MissingColumnsError
		unsupported *importer.UnsupportedFileTypeError
		parseErr    *importer.ParseError
		noValid     *importer.NoValidRowsError
	)
	switch {
	case errors.As(err, &missing):
		return response.NewUnprocessable(missing.Error()).WithData(gin.H{
			"missing": missing.Missing,
			"found":   missing.Found,
		})
	case errors.As(err, &unsupported):
		return response.NewUnsupportedMedia(unsupported.Error())
	case errors.As(err, &parseErr):
		return response.NewBadRequest(parseErr.Error())
	case errors.As(err, &noValid):
		return response.NewBadRequest(noValid.Error()).WithData(gin.H{
			"errors":   noValid.Errors,
			"warnings": noValid.Warnings,
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return response.NewBadRequest("import was cancelled before any row was written")
	}
	logger.Error().Err(err).Msg("import failed")
	return response.NewServerError("import failed")
}
