package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"matriz-curricular/backend/internal/dto"
	"matriz-curricular/backend/internal/service"
	"matriz-curricular/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// MatrixHandler read endpoints of a curriculum matrix
type MatrixHandler struct {
	matrixSvc service.MatrixService
}

func NewMatrixHandler(matrixSvc service.MatrixService) *MatrixHandler {
	return &MatrixHandler{matrixSvc: matrixSvc}
}

// GetMatrix matrix header with its entry count
// GET /api/v1/matrices/:id
func (h *MatrixHandler) GetMatrix(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetMatrixID(c)
	if !ok {
		return
	}

	matrix, err := h.matrixSvc.Get(c.Request.Context(), caller, id)
	if err != nil {
		handleMatrixError(c, err)
		return
	}
	response.OK(c, matrix)
}

// ListEntries filtered, paged entries
// GET /api/v1/matrices/:id/entries?from=&to=&campo=&page=&page_size=
func (h *MatrixHandler) ListEntries(c *gin.Context) {
	var req dto.ListEntriesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "invalid query parameters", err.Error())
		return
	}
	req.Normalize()
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetMatrixID(c)
	if !ok {
		return
	}

	page, err := h.matrixSvc.ListEntries(c.Request.Context(), caller, id, &req)
	if err != nil {
		handleMatrixError(c, err)
		return
	}
	response.OKPage(c, page.Entries, page.Total, req.Page, req.PageSize)
}

// ExportMatrix downloads every entry as .xlsx
// GET /api/v1/matrices/:id/export
func (h *MatrixHandler) ExportMatrix(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetMatrixID(c)
	if !ok {
		return
	}

	data, filename, err := h.matrixSvc.Export(c.Request.Context(), caller, id)
	if err != nil {
		handleMatrixError(c, err)
		return
	}
	sendFile(c, filename, contentTypeXLSX, data)
}

// CalendarFeed downloads every entry as an iCalendar feed
// GET /api/v1/matrices/:id/calendar.ics
func (h *MatrixHandler) CalendarFeed(c *gin.Context) {
	caller, ok := MustGetCaller(c)
	if !ok {
		return
	}
	id, ok := MustGetMatrixID(c)
	if !ok {
		return
	}

	data, filename, err := h.matrixSvc.Calendar(c.Request.Context(), caller, id)
	if err != nil {
		handleMatrixError(c, err)
		return
	}
	sendFile(c, filename, contentTypeICS, data)
}

func sendFile(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.PathEscape(filename))
	c.Data(http.StatusOK, contentType, data)
}

func handleMatrixError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMatrixReadForbidden):
		response.Forbidden(c, 10003, "not allowed to read this matrix")
	case errors.Is(err, service.ErrMatrixNotFound):
		response.NotFound(c, 17001, "matrix not found")
	case errors.Is(err, service.ErrExportNoEntries):
		response.NotFound(c, 17010, "matrix has no entries")
	default:
		response.InternalError(c)
	}
}
