package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/laflotawines-debug/presupuestadorpro/internal/cart"
	"github.com/laflotawines-debug/presupuestadorpro/internal/catalog"
	"github.com/laflotawines-debug/presupuestadorpro/internal/importer"
	"github.com/laflotawines-debug/presupuestadorpro/internal/models"
	"github.com/laflotawines-debug/presupuestadorpro/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

const testSecret = "hunter2"

func newTestRouter(t *testing.T, products []models.Product) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.NewLocalStore(dir)
	assert.NoError(t, err)
	if len(products) > 0 {
		assert.NoError(t, st.UpsertBatch(context.Background(), products))
	}

	cat := catalog.New(st, 1000)
	cat.Refresh(context.Background())

	cartStore, err := cart.NewFileStore(dir)
	assert.NoError(t, err)

	importSvc := importer.NewService(store.NewBulkWriter(st, 500), cat, nil)
	handler := NewHandler(cat, importSvc, cart.NewManager(cat, cartStore), nil, testSecret)

	router := gin.New()
	handler.SetupRoutes(router)
	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}, session string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleProducts() []models.Product {
	return []models.Product{
		{ID: "A1", Name: "Malbec", Price1: 100, Price2: 90, Price3: 80, Price4: 70, Stock: 3},
		{ID: "B2", Name: "Gin", Price1: 60, Price4: 45, Stock: 0},
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/ready", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListProducts(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodGet, "/api/v1/products", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []models.Product `json:"products"`
		Count    int              `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestListProductsInStockFilter(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodGet, "/api/v1/products?in_stock=true", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []models.Product `json:"products"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Products, 1)
	assert.Equal(t, "A1", resp.Products[0].ID)
}

func TestAdminUpdateRejectsBadSecret(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodPost, "/api/v1/admin/products", gin.H{
		"product": gin.H{"id": "A1", "name": "renamed"},
		"secret":  "wrong",
	}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminUpdate(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodPost, "/api/v1/admin/products", gin.H{
		"product": gin.H{"id": "A1", "name": "Malbec Reserva", "stock": 4.6, "price_1": 110},
		"secret":  testSecret,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/products", nil, "")
	var resp struct {
		Products []models.Product `json:"products"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	var updated models.Product
	for _, p := range resp.Products {
		if p.ID == "A1" {
			updated = p
		}
	}
	assert.Equal(t, "Malbec Reserva", updated.Name)
	assert.Equal(t, 5, updated.Stock)
	assert.Equal(t, 110.0, updated.Price1)
}

func TestAdminUpdateUnknownProduct(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodPost, "/api/v1/admin/products", gin.H{
		"product": gin.H{"id": "nope", "name": "ghost"},
		"secret":  testSecret,
	}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartFlow(t *testing.T) {
	router := newTestRouter(t, sampleProducts())
	session := uuid.New().String()

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", gin.H{
		"product_id": "A1",
		"quantity":   2,
		"list_id":    2,
	}, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session, w.Header().Get("X-Session-ID"))

	var resp struct {
		Lines []models.CartLine `json:"lines"`
		Total float64           `json:"total"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Lines, 1)
	assert.Equal(t, 180.0, resp.Total)

	// Switching the active list re-quotes the draft.
	w = doJSON(router, http.MethodPost, "/api/v1/cart/prices", gin.H{"list_id": 3}, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 160.0, resp.Total)

	w = doJSON(router, http.MethodDelete, "/api/v1/cart?scope=all", nil, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Lines)
}

func TestCartAddUnknownProduct(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodPost, "/api/v1/cart/items", gin.H{
		"product_id": "nope",
		"quantity":   1,
		"list_id":    1,
	}, uuid.New().String())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartMintsSessionWhenHeaderInvalid(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodGet, "/api/v1/cart", nil, "not-a-uuid")
	assert.Equal(t, http.StatusOK, w.Code)

	minted := w.Header().Get("X-Session-ID")
	assert.NotEqual(t, "not-a-uuid", minted)
	_, err := uuid.Parse(minted)
	assert.NoError(t, err)
}

func TestQuoteWhatsApp(t *testing.T) {
	router := newTestRouter(t, sampleProducts())
	session := uuid.New().String()

	doJSON(router, http.MethodPost, "/api/v1/cart/items", gin.H{
		"product_id": "A1",
		"quantity":   2,
		"list_id":    2,
	}, session)

	w := doJSON(router, http.MethodPost, "/api/v1/quotes/whatsapp", gin.H{}, session)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		URL string `json:"url"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.URL, "https://wa.me/?text=")
}

func TestQuotePDF(t *testing.T) {
	router := newTestRouter(t, sampleProducts())
	session := uuid.New().String()

	doJSON(router, http.MethodPost, "/api/v1/cart/items", gin.H{
		"product_id": "A1",
		"quantity":   1,
		"list_id":    1,
	}, session)

	w := doJSON(router, http.MethodPost, "/api/v1/quotes/pdf", gin.H{"client_name": "Don José"}, session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Presupuesto_")
}

func TestImportEndpoint(t *testing.T) {
	router := newTestRouter(t, nil)

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	header := []interface{}{"codart", "desart", "pventa_1", "pventa_2", "pventa_3", "pventa_4"}
	row := []interface{}{"A1", "Malbec", "100", "90", "80", "70"}
	assert.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	assert.NoError(t, f.SetSheetRow(sheet, "A2", &row))
	workbook, err := f.WriteToBuffer()
	assert.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("articles", "articles.xlsx")
	assert.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	assert.NoError(t, err)
	assert.NoError(t, mw.WriteField("mode", "replace"))
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result importer.Result
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "replace", result.Mode)
	assert.Equal(t, 1, result.Count)

	// The imported product is immediately visible.
	w = doJSON(router, http.MethodGet, "/api/v1/products", nil, "")
	var resp struct {
		Count int `json:"count"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestImportEndpointRejectsGarbage(t *testing.T) {
	router := newTestRouter(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("articles", "articles.xlsx")
	assert.NoError(t, err)
	_, err = part.Write([]byte("not a workbook"))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteEmptyCart(t *testing.T) {
	router := newTestRouter(t, sampleProducts())

	w := doJSON(router, http.MethodPost, "/api/v1/quotes/pdf", gin.H{}, uuid.New().String())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
