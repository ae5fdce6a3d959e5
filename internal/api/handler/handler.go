package handler

import "matriz-curricular/backend/internal/service"

// Handler aggregates every HTTP handler.
type Handler struct {
	Matrix       *MatrixHandler
	MatrixImport *MatrixImportHandler
}

// NewHandler builds the handlers over the service aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Matrix:       NewMatrixHandler(svc.Matrix),
		MatrixImport: NewMatrixImportHandler(svc.MatrixImport, svc.Matrix),
	}
}
