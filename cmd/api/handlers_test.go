package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/YashPS24/CAQMS/api"
	"github.com/YashPS24/CAQMS/internal/application"
	"github.com/YashPS24/CAQMS/internal/config"
	"github.com/YashPS24/CAQMS/internal/domain"
	"github.com/YashPS24/CAQMS/internal/testutil"
	"github.com/YashPS24/CAQMS/pkg/cloudevents"
	"github.com/YashPS24/CAQMS/pkg/contracts/openapi"
	"github.com/YashPS24/CAQMS/pkg/logging"
	"github.com/YashPS24/CAQMS/pkg/metrics"
	"github.com/YashPS24/CAQMS/pkg/middleware"
)

type testServer struct {
	router    *gin.Engine
	orders    *testutil.MockOrderRepository
	templates *testutil.MockTemplateRepository
	publisher *testutil.MockPublisher
	contract  *openapi.Validator
	readyErr  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	contract, err := openapi.NewValidatorFromBytes(api.OpenAPI)
	require.NoError(t, err)

	s := &testServer{
		orders:    testutil.NewMockOrderRepository(),
		templates: testutil.NewMockTemplateRepository(),
		publisher: &testutil.MockPublisher{},
		contract:  contract,
	}
	s.orders.AddOrder(testutil.SampleOrder())

	logger := logging.NewNop()
	m := metrics.New(metrics.DefaultConfig(config.ServiceName))
	s.router = newRouter(routerDeps{
		config:  config.Default(),
		logger:  logger,
		metrics: m,
		washSpecs: application.NewWashSpecService(
			s.orders, s.publisher, cloudevents.NewEventFactory(cloudevents.SourceWashSpec), logger, m,
		),
		buyerSpecs: application.NewBuyerSpecService(
			s.templates, s.orders, s.publisher, cloudevents.NewEventFactory(cloudevents.SourceBuyerSpec), logger, m,
		),
		ready: func(ctx context.Context) error { return s.readyErr },
	})
	return s
}

// do serves req and checks both the request and the response against the
// HTTP contract.
func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	require.NoError(t, s.contract.ValidateRequest(req))
	return s.serve(t, req)
}

// serve checks only the response; used for multipart uploads.
func (s *testServer) serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.NoError(t, s.contract.ValidateResponse(req, rec.Code, rec.Header(), rec.Body.Bytes()), rec.Body.String())
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func sampleRows() [][]any {
	cells := testutil.SampleCells()
	rows := make([][]any, len(cells))
	for i, row := range cells {
		rows[i] = make([]any, len(row))
		for j, c := range row {
			rows[i][j] = c
		}
	}
	// Browsers send numeric cells as numbers.
	rows[4][5] = 20
	rows[4][7] = nil
	return rows
}

func saveBody(colors ...string) map[string]any {
	return map[string]any{
		"moNo":             testutil.SampleOrderNo,
		"washingSpecsData": []domain.SpecSheet{testutil.SampleSheet()},
		"selectedColors":   append([]string{}, colors...),
	}
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	s.readyErr = errors.New("mongo down")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.OpenAPI, rec.Body.Bytes())
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ROUTE_NOT_FOUND", decode[middleware.APIErrorResponse](t, rec).Code)
}

func TestIngestSheetHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/ingest", map[string]any{"rows": sampleRows()}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sheet := decode[domain.SpecSheet](t, rec)
	assert.Equal(t, []string{"S", "M"}, sheet.SizeColumns)
	require.Len(t, sheet.Rows, 2)

	s20, ok := sheet.Rows[0].SizeValues.Get("S")
	require.True(t, ok)
	require.NotNil(t, s20.BeforeWash)
	assert.Equal(t, "20", s20.BeforeWash.Raw)

	m, ok := sheet.Rows[0].SizeValues.Get("M")
	require.True(t, ok)
	assert.Nil(t, m.BeforeWash)
	require.NotNil(t, m.AfterWash)
	assert.Equal(t, 20.5, *m.AfterWash.Decimal)
}

func TestIngestSheetHandler_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/ingest", map[string]any{"rows": [][]any{{"a"}, {"b"}}}))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "Insufficient data or wrong format.", decode[middleware.APIErrorResponse](t, rec).Message)

	req := httptest.NewRequest(http.MethodPost, "/api/washing-specs/ingest", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = s.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartRequest(t *testing.T, filename string, content []byte, sheet string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if sheet != "" {
		require.NoError(t, w.WriteField("sheet", sheet))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/washing-specs/ingest/file", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func workbook(t *testing.T, sheetName string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheetName != "Sheet1" {
		_, err := f.NewSheet(sheetName)
		require.NoError(t, err)
	}
	for i, row := range testutil.SampleCells() {
		cells := make([]interface{}, len(row))
		for j, c := range row {
			cells[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheetName, cell, &cells))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestIngestSheetFileHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.serve(t, multipartRequest(t, "spec.xlsx", workbook(t, "Spec"), "Spec"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	sheet := decode[domain.SpecSheet](t, rec)
	assert.Equal(t, []string{"S", "M"}, sheet.SizeColumns)
	assert.Len(t, sheet.Rows, 2)
	require.NotNil(t, sheet.ShrinkageInfo)
	assert.Equal(t, 3.0, sheet.ShrinkageInfo.Length)
}

func TestIngestSheetFileHandler_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name     string
		filename string
		content  []byte
		status   int
		code     string
	}{
		{name: "missing file", status: http.StatusBadRequest, code: "BAD_REQUEST"},
		{name: "unsupported type", filename: "spec.pdf", content: []byte("%PDF-1.4"), status: http.StatusUnprocessableEntity, code: "FORMAT_ERROR"},
		{name: "corrupt workbook", filename: "spec.xlsx", content: []byte("not a zip"), status: http.StatusUnprocessableEntity, code: "FORMAT_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.serve(t, multipartRequest(t, tt.filename, tt.content, "Sheet1"))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[middleware.APIErrorResponse](t, rec).Code)
		})
	}
}

func TestSaveWashingSpecsHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", saveBody("C01", "C02")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[application.SaveSpecsResult](t, rec)
	assert.Equal(t, "Successfully updated washing specs for MO No 'GPAR12345' with 2 color(s).", result.Message)
	require.NotNil(t, result.Details)
	assert.Equal(t, []string{"C01", "C02"}, result.Details.AllAppliedColors)
	assert.Len(t, s.publisher.Published(), 1)

	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", saveBody("C01", "C02")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Washing specs data is already up to date.", decode[application.SaveSpecsResult](t, rec).Message)
}

func TestSaveWashingSpecsHandler_Errors(t *testing.T) {
	s := newTestServer(t)

	unknown := saveBody("C01")
	unknown["moNo"] = "NOPE-1"

	tests := []struct {
		name    string
		body    map[string]any
		status  int
		message string
	}{
		{name: "no colors", body: saveBody(), status: http.StatusBadRequest, message: "Please select at least one color."},
		{name: "no sheets", body: map[string]any{"moNo": testutil.SampleOrderNo, "selectedColors": []string{"C01"}}, status: http.StatusBadRequest, message: "Missing MO Number or specs data."},
		{name: "foreign colors", body: saveBody("X9"), status: http.StatusBadRequest, message: "None of the selected colors belong to this order."},
		{name: "malformed color code", body: saveBody("C 01"), status: http.StatusBadRequest, message: "validation failed"},
		{name: "unknown order", body: unknown, status: http.StatusNotFound, message: "Order with MO No 'NOPE-1' not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", tt.body))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decode[middleware.APIErrorResponse](t, rec).Message)
		})
	}
	assert.Zero(t, s.orders.UpdateCalls)
}

func TestWashingSpecsQueries(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", saveBody("C01")))
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("uploaded list", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/washing-specs/uploaded-list?page=1&limit=5&moNo=gpar", nil))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page struct {
			Data       []application.UploadedOrderDTO `json:"data"`
			Pagination struct {
				TotalRecords int64 `json:"totalRecords"`
				Limit        int64 `json:"limit"`
			} `json:"pagination"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Data, 1)
		assert.Equal(t, testutil.SampleOrderNo, page.Data[0].MoNo)
		assert.Equal(t, "C01", page.Data[0].ColorsList)
		assert.Equal(t, int64(1), page.Pagination.TotalRecords)
		assert.Equal(t, int64(5), page.Pagination.Limit)
	})

	t.Run("search orders", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/washing-specs/search-orders?search=PAR1", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[application.OrderSearchDTO](t, rec)
		require.Len(t, result.Orders, 1)
		assert.Equal(t, testutil.SampleOrderNo, result.Orders[0].OrderNo)
	})

	t.Run("order colors", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/washing-specs/order-colors/"+testutil.SampleOrderNo, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[application.OrderColorsDTO](t, rec)
		assert.Len(t, result.Colors, 2)
		assert.Contains(t, rec.Body.String(), `"ColorKey":1`)

		rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/washing-specs/order-colors/NOPE-1", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("filter options", func(t *testing.T) {
		rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/filter-options?buyer=GAP", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		result := decode[application.FilterOptionsDTO](t, rec)
		assert.Equal(t, []string{testutil.SampleOrderNo}, result.Monos)
		assert.Equal(t, []string{"YM"}, result.Factories)
	})
}

func templateBody() map[string]any {
	return map[string]any{
		"moNo":     testutil.SampleOrderNo,
		"buyer":    "GAP",
		"stage":    "M1",
		"specData": testutil.SampleSpecData(),
	}
}

func TestBuyerSpecTemplateHandlers(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/buyer-spec-templates", templateBody()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[application.TemplateResultDTO](t, rec)
	assert.Equal(t, "Buyer spec template saved successfully.", created.Message)

	missing := templateBody()
	delete(missing, "buyer")
	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/buyer-spec-templates", missing))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	badSize := templateBody()
	specData := testutil.SampleSpecData()
	specData[0].Size = "<XL>"
	badSize["specData"] = specData
	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/buyer-spec-templates", badSize))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "must be a valid size name", decode[middleware.APIErrorResponse](t, rec).Details["specData[0].size"])

	update := map[string]any{"stage": "M2", "specData": testutil.SampleSpecData()[:1]}
	rec = s.do(t, jsonRequest(t, http.MethodPut, "/api/buyer-spec-templates/"+testutil.SampleOrderNo, update))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[application.TemplateResultDTO](t, rec)
	assert.Equal(t, "M2", updated.Data.Stage)
	assert.Len(t, updated.Data.SpecData, 1)

	rec = s.do(t, jsonRequest(t, http.MethodPut, "/api/buyer-spec-templates/NOPE-1", update))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Template not found for the given MO No.", decode[middleware.APIErrorResponse](t, rec).Message)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/buyer-spec-templates/mo-options", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []domain.MoOption{{MoNo: testutil.SampleOrderNo, Stage: "M2"}}, decode[[]domain.MoOption](t, rec))

	assert.Len(t, s.publisher.Published(), 2)
}

func TestEditSpecsDataHandler(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/edit-specs-data/"+testutil.SampleOrderNo, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", saveBody("C01")))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, jsonRequest(t, http.MethodPost, "/api/buyer-spec-templates", templateBody()))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/edit-specs-data/"+testutil.SampleOrderNo, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode[application.EditSpecsDataDTO](t, rec)
	require.NotNil(t, data.TemplateData)
	require.NotNil(t, data.PatternData)
	assert.Equal(t, "GAP", data.TemplateData.Buyer)
	require.Len(t, data.PatternData.AfterWashSpecs, 1)
	assert.Equal(t, domain.AllColors, data.PatternData.AfterWashSpecs[0].ColorCode)
}

func TestBuyerSpecOrderDetailsHandler(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, jsonRequest(t, http.MethodPost, "/api/washing-specs/save", saveBody("C01")))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/buyer-spec-order-details/"+testutil.SampleOrderNo, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	details := decode[application.BuyerSpecOrderDetailsDTO](t, rec)
	assert.Equal(t, "CS-2201", details.CustStyle)
	assert.Equal(t, []string{"Black", "Navy"}, details.Colors)
	assert.Equal(t, []string{"S", "M"}, details.Sizes)
	assert.Len(t, details.BuyerSpec, 2)

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/api/buyer-spec-order-details/NOPE-1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
