package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"matriz-curricular/backend/internal/dto"
	"matriz-curricular/backend/internal/extract"
	"matriz-curricular/backend/internal/service"
	"matriz-curricular/backend/pkg/response"
)

// MatrixImportHandler annual-plan upload endpoints
type MatrixImportHandler struct {
	importSvc service.MatrixImportService
	matrixSvc service.MatrixService
}

func NewMatrixImportHandler(importSvc service.MatrixImportService, matrixSvc service.MatrixService) *MatrixImportHandler {
	return &MatrixImportHandler{importSvc: importSvc, matrixSvc: matrixSvc}
}

// DryRun classifies the uploaded plan without writing.
// POST /api/v1/matrices/:id/import/dry-run   (multipart: file, force, format)
//
// format=xlsx answers with a workbook of every classified entry instead of JSON.
func (h *MatrixImportHandler) DryRun(c *gin.Context) {
	cmd, req, ok := bindImport(c)
	if !ok {
		return
	}
	defer closeContent(cmd)
	cmd.FullPreview = req.Format == "xlsx"

	res, err := h.importSvc.DryRun(c.Request.Context(), cmd)
	if err != nil {
		handleMatrixImportError(c, err)
		return
	}

	if req.Format == "xlsx" {
		data, filename, err := h.matrixSvc.PreviewWorkbook(res)
		if err != nil {
			response.InternalError(c)
			return
		}
		sendFile(c, filename, contentTypeXLSX, data)
		return
	}
	response.OK(c, res)
}

// Apply classifies and persists the uploaded plan.
// POST /api/v1/matrices/:id/import/apply   (multipart: file, force)
func (h *MatrixImportHandler) Apply(c *gin.Context) {
	cmd, _, ok := bindImport(c)
	if !ok {
		return
	}
	defer closeContent(cmd)

	res, err := h.importSvc.Apply(c.Request.Context(), cmd)
	if err != nil {
		handleMatrixImportError(c, err)
		return
	}
	response.OK(c, res)
}

// bindImport reads the form fields and opens the uploaded file; the
// caller closes it with closeContent.
func bindImport(c *gin.Context) (service.ImportCommand, dto.ImportRequest, bool) {
	var req dto.ImportRequest
	if err := c.ShouldBind(&req); err != nil {
		if bodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 17005, "document exceeds the upload limit")
		} else {
			response.BadRequest(c, 10001, "invalid form parameters")
		}
		return service.ImportCommand{}, req, false
	}
	// multipart binding reads only the body; format may also come as a query parameter
	if req.Format == "" {
		req.Format = c.Query("format")
	}
	if req.Format != "" && req.Format != "json" && req.Format != "xlsx" {
		response.BadRequest(c, 10001, "format must be json or xlsx")
		return service.ImportCommand{}, req, false
	}
	caller, ok := MustGetCaller(c)
	if !ok {
		return service.ImportCommand{}, req, false
	}
	matrixID, ok := MustGetMatrixID(c)
	if !ok {
		return service.ImportCommand{}, req, false
	}
	fh, err := c.FormFile("file")
	if err != nil {
		if bodyTooLarge(err) {
			response.Error(c, http.StatusRequestEntityTooLarge, 17005, "document exceeds the upload limit")
			return service.ImportCommand{}, req, false
		}
		response.BadRequest(c, 17002, "missing file field")
		return service.ImportCommand{}, req, false
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 17003, "uploaded file cannot be read")
		return service.ImportCommand{}, req, false
	}
	return service.ImportCommand{
		Caller:   caller,
		MatrixID: matrixID,
		Force:    req.Force,
		FileName: fh.Filename,
		Content:  f,
	}, req, true
}

func bodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func closeContent(cmd service.ImportCommand) {
	if closer, ok := cmd.Content.(io.Closer); ok {
		closer.Close()
	}
}

func handleMatrixImportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportForbidden):
		response.Forbidden(c, 10003, "not allowed to import into this matrix")
	case errors.Is(err, service.ErrMatrixNotFound):
		response.NotFound(c, 17001, "matrix not found")
	case errors.Is(err, service.ErrImportInProgress):
		response.Conflict(c, 17004, "another import is running for this matrix")
	case errors.Is(err, extract.ErrTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 17005, "document exceeds the upload limit")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		response.BadRequest(c, 17006, "unsupported document format, send a PDF or plain text file")
	case errors.Is(err, extract.ErrEmptyText), errors.Is(err, extract.ErrUnreadable):
		response.BadRequest(c, 17007, "no text could be extracted from the document")
	default:
		response.InternalError(c)
	}
}
