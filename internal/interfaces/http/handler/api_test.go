package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	catalogapp "github.com/erp/billing/internal/application/catalog"
	financeapp "github.com/erp/billing/internal/application/finance"
	inventoryapp "github.com/erp/billing/internal/application/inventory"
	partnerapp "github.com/erp/billing/internal/application/partner"
	printingapp "github.com/erp/billing/internal/application/printing"
	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/domain/finance"
	"github.com/erp/billing/internal/domain/trade"
	"github.com/erp/billing/internal/infrastructure/cache"
	"github.com/erp/billing/internal/infrastructure/locking"
	"github.com/erp/billing/internal/infrastructure/persistence"
	"github.com/erp/billing/internal/infrastructure/printing"
	"github.com/erp/billing/internal/interfaces/http/handler"
	"github.com/erp/billing/internal/interfaces/http/middleware"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/erp/billing/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type apiResponse = handler.APIResponse[json.RawMessage]

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	locker *locking.MemoryLocker
}

// newTestAPI mounts every handler over a migrated SQLite database
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	db := testutil.NewTestDB(t)
	logger := zap.NewNop()
	locker := locking.NewMemoryLocker()

	clients := persistence.NewGormClientRepository(db)
	products := persistence.NewGormProductRepository(db)
	offers := persistence.NewGormOfferRepository(db)
	invoices := persistence.NewGormInvoiceRepository(db)
	notes := persistence.NewGormDeliveryNoteRepository(db)
	records := persistence.NewGormDunningRecordRepository(db)
	movements := persistence.NewGormMovementRepository(db)
	scope := persistence.NewGormTransactionScope(db)

	tax := trade.NewTaxModeResolver("AT", decimal.NewFromInt(20))
	allocator := tradeapp.NewSequenceAllocator(locker, persistence.NewGormNumberCounter(db), tradeapp.AllocatorOptions{}, logger)

	offerService := tradeapp.NewOfferService(offers, clients, products, scope.Trade(), allocator, tax, logger)
	invoiceService := tradeapp.NewInvoiceService(invoices, clients, products, scope.Trade(), allocator, tax, 14, logger)
	noteService := tradeapp.NewDeliveryNoteService(notes, invoices, clients, products, scope.Trade(), allocator, logger)
	conversionService := tradeapp.NewConversionService(offers, scope.Trade(), allocator, 14, logger)
	dunningService, err := financeapp.NewDunningService(invoices, records, scope.Finance(), finance.DefaultDunningPolicy(), logger)
	require.NoError(t, err)
	ledgerService := inventoryapp.NewLedgerService(movements, products, scope.Inventory(), logger)
	printService := printingapp.NewPrintService(offers, invoices, notes, records,
		printing.NewPDFRenderer(printing.Letterhead{CompanyName: "Muster GmbH"}), logger)

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	idempotency := middleware.Idempotency(middleware.IdempotencyConfig{Store: store, Logger: logger})

	offerGroup := router.NewDomainGroup("offers", "/offers")
	handler.NewOfferHandler(offerService, printService).Mount(offerGroup)
	handler.NewConversionHandler(conversionService, idempotency).Mount(offerGroup)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	router.NewRouter(engine).Register(
		handler.NewClientHandler(partnerapp.NewClientService(clients)).Routes(),
		handler.NewProductHandler(catalogapp.NewProductService(products)).Routes(),
		offerGroup,
		handler.NewInvoiceHandler(invoiceService, dunningService, printService).Routes(),
		handler.NewDeliveryNoteHandler(noteService, printService).Routes(),
		handler.NewDunningHandler(financeapp.NewSweepJob(dunningService, locker, logger), dunningService, printService).Routes(),
		handler.NewInventoryHandler(ledgerService).Routes(),
	).Setup()

	return &testAPI{t: t, engine: engine, locker: locker}
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *testAPI) request(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return a.do(req)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(resp.Data, into))
	}
	return resp
}

func (a *testAPI) createClient(country string) partnerapp.ClientResponse {
	a.t.Helper()
	w := a.request(http.MethodPost, "/clients", map[string]any{
		"display_name": "Huber GmbH",
		"country_code": country,
		"city":         "Wien",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var c partnerapp.ClientResponse
	decode(a.t, w, &c)
	return c
}

func (a *testAPI) createProduct(sku, price string) catalogapp.ProductResponse {
	a.t.Helper()
	w := a.request(http.MethodPost, "/products", map[string]any{
		"sku":        sku,
		"name":       "Product " + sku,
		"unit":       "pcs",
		"unit_price": price,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var p catalogapp.ProductResponse
	decode(a.t, w, &p)
	return p
}

func (a *testAPI) createOffer(clientID, productID string, qty string) tradeapp.OfferResponse {
	a.t.Helper()
	w := a.request(http.MethodPost, "/offers", map[string]any{
		"client_id": clientID,
		"lines": []map[string]any{
			{"product_id": productID, "quantity": qty},
			{"description": "Montage", "quantity": "2", "unit_price": "45.00"},
		},
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var o tradeapp.OfferResponse
	decode(a.t, w, &o)
	return o
}

func TestAPI_ClientsAndProducts(t *testing.T) {
	api := newTestAPI(t)

	client := api.createClient("AT")
	assert.Equal(t, "Huber GmbH", client.DisplayName)

	w := api.request(http.MethodGet, "/clients/"+client.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.request(http.MethodGet, "/clients?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w, nil)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 1, resp.Meta.Total)

	w = api.request(http.MethodPost, "/clients", map[string]any{"display_name": "X", "country_code": "AUT"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "country_code")

	w = api.request(http.MethodGet, "/clients/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	product := api.createProduct("P-1", "10.00")
	w = api.request(http.MethodPut, "/products/"+product.ID.String(), map[string]any{
		"name": "Renamed", "unit_price": "12.50",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Renamed")
}

func TestAPI_OfferLifecycle(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")

	offer := api.createOffer(client.ID.String(), product.ID.String(), "3")
	assert.NotEmpty(t, offer.OfferNumber)
	assert.Equal(t, "120.00", offer.Net.StringFixed(2))
	assert.Equal(t, "144.00", offer.Gross.StringFixed(2))

	base := "/offers/" + offer.ID.String()
	w := api.request(http.MethodPut, base+"/lines/2", map[string]any{
		"description": "Montage", "quantity": "1", "unit_price": "45.00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.request(http.MethodDelete, base+"/lines/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.request(http.MethodGet, "/inventory/products/"+product.ID.String()+"/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var level inventoryapp.StockLevelResponse
	decode(t, w, &level)
	assert.True(t, decimal.NewFromInt(3).Equal(level.Reserved), "offer reserves its product lines")

	w = api.request(http.MethodGet, "/offers?client_id="+client.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w, nil).Meta.Total)

	w = api.request(http.MethodGet, "/offers?client_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.request(http.MethodPost, base+"/reject", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.request(http.MethodPost, base+"/convert", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ERR_INVALID_STATE", decode(t, w, nil).Error.Code)
}

func TestAPI_OfferFromForm(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")

	form := url.Values{}
	form.Set("client_id", client.ID.String())
	form.Set("issue_date", "2026-03-02")
	form.Set("note", "Danke")
	form["product_id[]"] = []string{product.ID.String(), "", ""}
	form["description[]"] = []string{"", "Montage", ""}
	form["quantity[]"] = []string{"2", "1", ""}
	form["unit_price[]"] = []string{"", "50", ""}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := api.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var offer tradeapp.OfferResponse
	decode(t, w, &offer)
	assert.Len(t, offer.Lines, 2, "blank rows are skipped")
	assert.Equal(t, "70.00", offer.Net.StringFixed(2))
	assert.Equal(t, "2026-03-02", offer.IssueDate.Format("2006-01-02"))

	form.Set("issue_date", "02.03.2026")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/offers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = api.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
}

func postForm(api *testAPI, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1"+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return api.do(req)
}

func TestAPI_DocumentsNeedLines(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")

	for _, path := range []string{"/offers", "/invoices"} {
		t.Run(path+" json", func(t *testing.T) {
			w := api.request(http.MethodPost, path, map[string]any{"client_id": client.ID.String()})
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var failed handler.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &failed))
			assert.False(t, failed.Success)
			require.NotNil(t, failed.Error)
			assert.Equal(t, "ERR_VALIDATION", failed.Error.Code)
			require.NotEmpty(t, failed.Error.Details)
			assert.Equal(t, "lines", failed.Error.Details[0].Field)

			w = api.request(http.MethodPost, path, map[string]any{
				"client_id": client.ID.String(),
				"lines":     []map[string]any{},
			})
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})

		t.Run(path+" form with only blank rows", func(t *testing.T) {
			form := url.Values{}
			form.Set("client_id", client.ID.String())
			form["product_id[]"] = []string{"", ""}
			form["description[]"] = []string{"", ""}
			form["quantity[]"] = []string{"", ""}
			form["unit_price[]"] = []string{"", ""}

			w := postForm(api, path, form)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "ERR_VALIDATION", decode(t, w, nil).Error.Code)
		})
	}

	w := api.request(http.MethodGet, "/offers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode(t, w, nil).Meta.Total)
	w = api.request(http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode(t, w, nil).Meta.Total)
}

func TestAPI_InvoiceFromForm(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")

	form := url.Values{}
	form.Set("client_id", client.ID.String())
	form.Set("issue_date", "2026-03-02")
	form.Set("payment_term_days", "30")
	form["product_id[]"] = []string{product.ID.String(), "", ""}
	form["description[]"] = []string{"", "Montage", ""}
	form["quantity[]"] = []string{"2", "1", ""}
	form["unit_price[]"] = []string{"", "50", ""}

	w := postForm(api, "/invoices", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var invoice tradeapp.InvoiceResponse
	decode(t, w, &invoice)
	assert.Equal(t, "R-20260302-0001", invoice.InvoiceNumber)
	assert.Len(t, invoice.Lines, 2, "blank rows are skipped")
	assert.Equal(t, "70.00", invoice.Net.StringFixed(2))
	assert.Equal(t, "2026-04-01", invoice.DueDate.Format("2006-01-02"))

	form.Set("payment_term_days", "soon")
	w = postForm(api, "/invoices", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "payment_term_days")
}

func TestAPI_AcceptShipsReservations(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")
	offer := api.createOffer(client.ID.String(), product.ID.String(), "3")

	w := api.request(http.MethodPost, "/offers/"+offer.ID.String()+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.request(http.MethodPost, "/offers/"+offer.ID.String()+"/convert", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.request(http.MethodGet, "/inventory/products/"+product.ID.String()+"/stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var level inventoryapp.StockLevelResponse
	decode(t, w, &level)
	assert.True(t, level.Reserved.IsZero(), "nothing left reserved")
	assert.True(t, decimal.NewFromInt(-3).Equal(level.OnHand), "shipped once, got %s", level.OnHand)
}

func TestAPI_Conversion(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")

	t.Run("single offer with idempotency key", func(t *testing.T) {
		offer := api.createOffer(client.ID.String(), product.ID.String(), "1")
		path := "/offers/" + offer.ID.String() + "/convert"

		first := api.request(http.MethodPost, path, nil, middleware.IdempotencyKeyHeader, "convert-once")
		require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
		var result tradeapp.ConversionResult
		decode(t, first, &result)
		assert.Equal(t, offer.ID, result.OfferID)

		replay := api.request(http.MethodPost, path, nil, middleware.IdempotencyKeyHeader, "convert-once")
		require.Equal(t, http.StatusCreated, replay.Code)
		assert.Equal(t, "true", replay.Header().Get(middleware.IdempotentReplayHeader))
		assert.JSONEq(t, first.Body.String(), replay.Body.String())

		w := api.request(http.MethodGet, "/invoices?origin_offer_id="+offer.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decode(t, w, nil).Meta.Total, "replay does not convert again")
	})

	t.Run("bulk by query ids", func(t *testing.T) {
		a := api.createOffer(client.ID.String(), product.ID.String(), "1")
		b := api.createOffer(client.ID.String(), product.ID.String(), "1")
		w := api.request(http.MethodPost, "/offers/"+b.ID.String()+"/reject", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = api.request(http.MethodGet, "/offers/convert?id="+a.ID.String()+"&id="+b.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var bulk handler.BulkConversionResponse
		decode(t, w, &bulk)
		assert.Equal(t, 1, bulk.Succeeded)
		assert.Equal(t, 1, bulk.Failed)
		require.Len(t, bulk.Results, 2)
		assert.Equal(t, "INVALID_STATE", bulk.Results[1].Code)
	})

	t.Run("bulk by json body", func(t *testing.T) {
		a := api.createOffer(client.ID.String(), product.ID.String(), "1")
		w := api.request(http.MethodPost, "/offers/convert", map[string]any{"offer_ids": []string{a.ID.String()}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var bulk handler.BulkConversionResponse
		decode(t, w, &bulk)
		assert.Equal(t, 1, bulk.Succeeded)
	})

	t.Run("bulk without offers", func(t *testing.T) {
		w := api.request(http.MethodPost, "/offers/convert", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAPI_InvoicePaymentAndDunning(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")

	issued := time.Now().UTC().AddDate(0, 0, -60)
	w := api.request(http.MethodPost, "/invoices", map[string]any{
		"client_id":         client.ID.String(),
		"issue_date":        issued,
		"payment_term_days": 0,
		"lines":             []map[string]any{{"description": "Beratung", "quantity": "4", "unit_price": "100"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var overdue tradeapp.InvoiceResponse
	decode(t, w, &overdue)
	assert.Equal(t, "480.00", overdue.Gross.StringFixed(2))

	w = api.request(http.MethodPost, "/dunning/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report financeapp.SweepReport
	decode(t, w, &report)
	assert.Equal(t, 1, report.Created)

	w = api.request(http.MethodGet, "/invoices/"+overdue.ID.String()+"/dunning", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var records []financeapp.DunningRecordResponse
	decode(t, w, &records)
	require.Len(t, records, 1)
	assert.Equal(t, finance.StageReminder, records[0].Stage)

	w = api.request(http.MethodPost, "/invoices/"+overdue.ID.String()+"/dunning",
		map[string]any{"override_text": "Letzte Erinnerung"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.request(http.MethodPut, "/dunning/"+records[0].ID.String()+"/send-outcome",
		map[string]any{"status": "sent"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.request(http.MethodPut, "/dunning/"+records[0].ID.String()+"/send-outcome",
		map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.request(http.MethodGet, "/dunning/"+records[0].ID.String()+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = api.request(http.MethodPost, "/invoices/"+overdue.ID.String()+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"paid"`)

	w = api.request(http.MethodPost, "/invoices/"+overdue.ID.String()+"/pay", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestAPI_SweepWhileLocked(t *testing.T) {
	api := newTestAPI(t)
	held, err := api.locker.Acquire(t.Context(), "dunning:sweep", time.Second)
	require.NoError(t, err)
	defer held.Release(t.Context())

	w := api.request(http.MethodPost, "/dunning/sweep", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_CONFLICT", decode(t, w, nil).Error.Code)
}

func TestAPI_DeliveryNotesAndInventory(t *testing.T) {
	api := newTestAPI(t)
	client := api.createClient("AT")
	product := api.createProduct("P-1", "10.00")

	w := api.request(http.MethodPost, "/inventory/adjustments", map[string]any{
		"product_id": product.ID.String(), "quantity": "10", "kind": "IN", "note": "Inventur",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.request(http.MethodPost, "/delivery-notes", map[string]any{
		"client_id": client.ID.String(),
		"lines":     []map[string]any{{"product_id": product.ID.String(), "quantity": "4"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var note tradeapp.DeliveryNoteResponse
	decode(t, w, &note)
	assert.NotEmpty(t, note.NoteNumber)

	w = api.request(http.MethodGet, "/inventory/movements?source_type=lieferscheine&source_id="+note.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var moved []inventoryapp.MovementResponse
	decode(t, w, &moved)
	require.Len(t, moved, 1)
	assert.Equal(t, "OUT", moved[0].Kind)

	w = api.request(http.MethodGet, "/inventory/products/"+product.ID.String()+"/stock", nil)
	var level inventoryapp.StockLevelResponse
	decode(t, w, &level)
	assert.True(t, decimal.NewFromInt(6).Equal(level.OnHand))

	w = api.request(http.MethodGet, "/inventory/movements?source_type=lieferscheine", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.request(http.MethodGet, "/inventory/movements?source_type=unknown&source_id="+note.ID.String(), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.request(http.MethodGet, "/delivery-notes?client_id="+client.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.request(http.MethodGet, "/delivery-notes/"+note.ID.String()+"/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), note.NoteNumber)
}
