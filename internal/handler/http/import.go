package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/service"
)

type ImportHandler struct {
	service service.ImportService
}

type importResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Rows    int64  `json:"rows,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func NewImportHandler(svc service.ImportService) (*ImportHandler, error) {
	if svc == nil {
		return nil, errors.Internal("ImportService is nil")
	}
	return &ImportHandler{service: svc}, nil
}

// RegisterRoutes wires the import API onto the server.
func (h *ImportHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/tables/:table/import", h.ImportTable)
	api.GET("/imports", h.GetHistory)
	api.GET("/imports/:job_id/status", h.GetStatus)
}

// ImportTable handles a multipart upload: form fields "tenant_id" and "file".
// The response carries the row count only; callers re-fetch the table after
// success.
func (h *ImportHandler) ImportTable(c echo.Context) error {
	tenantID := c.FormValue("tenant_id")
	tableName := c.Param("table")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, errors.InvalidArgument("file is required",
			errors.WithID("api.import.missing_file")))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return writeError(c, errors.Internal("unable to read upload", errors.WithCause(err)))
	}
	defer src.Close()

	result, err := h.service.Import(c.Request().Context(), &service.ImportRequest{
		TenantID:  tenantID,
		TableName: tableName,
		FileName:  fileHeader.Filename,
		File:      src,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, importResponse{
		Success: true,
		JobID:   result.JobID,
		Rows:    result.Rows,
	})
}

func (h *ImportHandler) GetHistory(c echo.Context) error {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	size, _ := strconv.ParseInt(c.QueryParam("size"), 10, 64)

	result, err := h.service.GetHistory(c.Request().Context(), c.QueryParam("tenant_id"), page, size)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ImportHandler) GetStatus(c echo.Context) error {
	jobID := c.Param("job_id")
	status, err := h.service.GetStatus(c.Request().Context(), jobID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"job_id": jobID, "status": status})
}

// writeError maps the error taxonomy onto the HTTP contract: 400 validation,
// 401 unauthenticated, 503 busy, 500 everything else. The generic category
// goes in "error"; full diagnostics are logged and echoed in "details" for
// operators.
func writeError(c echo.Context, err error) error {
	code := errors.Code(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "table_importer.api.request_failed",
			slog.String("id", errors.ID(err)),
			slog.String("error", errors.Details(err)),
		)
	} else {
		slog.WarnContext(c.Request().Context(), "table_importer.api.request_rejected",
			slog.String("id", errors.ID(err)),
			slog.String("error", errors.Details(err)),
		)
	}
	return c.JSON(code, errorResponse{
		Error:   errors.ID(err),
		Details: errors.Details(err),
	})
}
