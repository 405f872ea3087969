package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"limitcore/src/models"
	"limitcore/src/runtime"
)

func newTestApp() (*fiber.App, *OrderHandler) {
	dispatcher := runtime.NewDispatcher(zerolog.Nop(), nil, nil)
	h := NewOrderHandler(dispatcher)

	app := fiber.New()
	app.Post("/api/v1/orders", h.SubmitOrder)
	app.Delete("/api/v1/symbols/:symbol/orders/:id", h.CancelOrder)
	app.Get("/api/v1/symbols/:symbol/orders/:id", h.GetOrderStatus)
	app.Get("/api/v1/symbols/:symbol/orderbook", h.GetOrderBook)
	app.Get("/health", h.HealthCheck)
	return app, h
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestSubmitOrderRestsAGTCOrder(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "BID", Type: "GTC", Price: 100, Size: 5,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}

	var out models.SubmitOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.ResultCode != "SUCCESS" || out.TakerCompleted {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestSubmitOrderRejectsInvalidSide(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "SELL", Type: "GTC", Price: 100, Size: 5,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSubmitOrderRejectsZeroSize(t *testing.T) {
	app, _ := newTestApp()

	resp := doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "BID", Type: "GTC", Price: 100, Size: 0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCancelThenGetOrderStatusReturnsNotFound(t *testing.T) {
	app, _ := newTestApp()

	createResp := doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "BID", Type: "GTC", Price: 100, Size: 5,
	})
	var created models.SubmitOrderResponse
	_ = json.NewDecoder(createResp.Body).Decode(&created)

	cancelResp := doJSON(t, app, http.MethodDelete, "/api/v1/symbols/BTC-USD/orders/"+itoa(created.OrderID), models.CancelOrderRequest{UID: 1})
	if cancelResp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", cancelResp.StatusCode)
	}

	statusResp := doJSON(t, app, http.MethodGet, "/api/v1/symbols/BTC-USD/orders/"+itoa(created.OrderID), nil)
	if statusResp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after cancel, got %d", statusResp.StatusCode)
	}
}

func TestGetOrderBookReturnsRestingLiquidity(t *testing.T) {
	app, _ := newTestApp()

	doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "ASK", Type: "GTC", Price: 105, Size: 5,
	})
	doJSON(t, app, http.MethodPost, "/api/v1/orders", models.SubmitOrderRequest{
		Symbol: "BTC-USD", UID: 1, Side: "BID", Type: "GTC", Price: 95, Size: 3,
	})

	resp := doJSON(t, app, http.MethodGet, "/api/v1/symbols/BTC-USD/orderbook", nil)
	var book models.OrderBookResponse
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(book.Asks) != 1 || book.Asks[0].Price != 105 {
		t.Fatalf("unexpected asks: %+v", book.Asks)
	}
	if len(book.Bids) != 1 || book.Bids[0].Price != 95 {
		t.Fatalf("unexpected bids: %+v", book.Bids)
	}
}

func TestHealthCheckReportsHealthy(t *testing.T) {
	app, _ := newTestApp()
	resp := doJSON(t, app, http.MethodGet, "/health", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "healthy" {
		t.Fatalf("status = %q", out.Status)
	}
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}
