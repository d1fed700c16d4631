package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webitel/table-importer/internal/errors"
	"github.com/webitel/table-importer/internal/model"
	"github.com/webitel/table-importer/internal/service"
)

type fakeImportService struct {
	result *service.ImportResult
	err    error

	status    string
	statusErr error

	page *model.ImportHistoryPage

	lastReq *service.ImportRequest
}

func (f *fakeImportService) Import(_ context.Context, req *service.ImportRequest) (*service.ImportResult, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeImportService) GetHistory(context.Context, string, int64, int64) (*model.ImportHistoryPage, error) {
	return f.page, nil
}

func (f *fakeImportService) GetStatus(context.Context, string) (string, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}

func newTestServer(t *testing.T, svc service.ImportService, token string) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(AuthMiddleware(token))
	h, err := NewImportHandler(svc)
	require.NoError(t, err)
	h.RegisterRoutes(e)
	return e
}

func multipartUpload(t *testing.T, tenantID, fileName, content string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if tenantID != "" {
		require.NoError(t, w.WriteField("tenant_id", tenantID))
	}
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestImportTableOK(t *testing.T) {
	svc := &fakeImportService{result: &service.ImportResult{JobID: "job-1", Rows: 2}}
	e := newTestServer(t, svc, "")

	body, contentType := multipartUpload(t, "42", "widgets.rdf", "<rdf/>")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, int64(2), resp.Rows)

	require.NotNil(t, svc.lastReq)
	assert.Equal(t, "42", svc.lastReq.TenantID)
	assert.Equal(t, "widgets", svc.lastReq.TableName)
	assert.Equal(t, "widgets.rdf", svc.lastReq.FileName)
}

func TestImportTableMissingFile(t *testing.T) {
	svc := &fakeImportService{}
	e := newTestServer(t, svc, "")

	body, contentType := multipartUpload(t, "42", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "api.import.missing_file", resp.Error)
	assert.Nil(t, svc.lastReq)
}

func TestImportTableBusy(t *testing.T) {
	svc := &fakeImportService{err: errors.Busy("an import for this tenant is already running",
		errors.WithID("service.import.tenant_busy"))}
	e := newTestServer(t, svc, "")

	body, contentType := multipartUpload(t, "42", "widgets.rdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "service.import.tenant_busy", resp.Error)
}

func TestImportTableInternalError(t *testing.T) {
	svc := &fakeImportService{err: errors.Internal("converter failed",
		errors.WithID("importer.converter.exit"))}
	e := newTestServer(t, svc, "")

	body, contentType := multipartUpload(t, "42", "widgets.rdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	svc := &fakeImportService{result: &service.ImportResult{JobID: "job-1"}}
	e := newTestServer(t, svc, "secret")

	body, contentType := multipartUpload(t, "42", "widgets.rdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, svc.lastReq)
}

func TestAuthAccepted(t *testing.T) {
	svc := &fakeImportService{result: &service.ImportResult{JobID: "job-1", Rows: 1}}
	e := newTestServer(t, svc, "secret")

	body, contentType := multipartUpload(t, "42", "widgets.rdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tables/widgets/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	req.Header.Set(echo.HeaderAuthorization, "Bearer secret")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthSkipsHealthz(t *testing.T) {
	e := echo.New()
	e.Use(AuthMiddleware("secret"))
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetStatusRoute(t *testing.T) {
	svc := &fakeImportService{status: "completed"}
	e := newTestServer(t, svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/job-1/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp["job_id"])
	assert.Equal(t, "completed", resp["status"])
}

func TestGetStatusUnknownJob(t *testing.T) {
	svc := &fakeImportService{statusErr: errors.InvalidArgument("unknown job id",
		errors.WithID("service.import.unknown_job"))}
	e := newTestServer(t, svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/nope/status", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistoryRoute(t *testing.T) {
	svc := &fakeImportService{page: &model.ImportHistoryPage{
		Page: 1,
		Next: false,
		Data: []*model.ImportHistory{{ID: 7, JobID: "job-1", TenantID: "42"}},
	}}
	e := newTestServer(t, svc, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports?tenant_id=42&page=1&size=20", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var page model.ImportHistoryPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "job-1", page.Data[0].JobID)
}
