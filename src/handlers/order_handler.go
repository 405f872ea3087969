package handlers

import (
	"context"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"limitcore/src/engine"
	"limitcore/src/models"
	"limitcore/src/runtime"
)

// OrderHandler adapts JSON HTTP requests to wire-format commands run
// through a runtime.Dispatcher, and its responses back to JSON.
type OrderHandler struct {
	Dispatcher *runtime.Dispatcher
	StartTime  time.Time

	nextOrderID uint64

	CommandsReceived  int64
	CommandsSucceeded int64
	CommandsFailed    int64
	TradesExecuted    int64

	latencies    []time.Duration
	latenciesMu  sync.RWMutex
	maxLatencies int
}

func NewOrderHandler(dispatcher *runtime.Dispatcher) *OrderHandler {
	maxLatencies := 10000
	if envMax := os.Getenv("METRICS_MAX_LATENCIES"); envMax != "" {
		if parsed, err := strconv.Atoi(envMax); err == nil && parsed > 0 {
			maxLatencies = parsed
		}
	}

	return &OrderHandler{
		Dispatcher:   dispatcher,
		StartTime:    time.Now(),
		latencies:    make([]time.Duration, 0, maxLatencies),
		maxLatencies: maxLatencies,
	}
}

func (h *OrderHandler) allocateOrderID() uint64 {
	return atomic.AddUint64(&h.nextOrderID, 1)
}

func (h *OrderHandler) SubmitOrder(c *fiber.Ctx) error {
	var req models.SubmitOrderRequest
	if err := c.BodyParser(&req); err != nil {
		log.Warn().Err(err).Str("ip", c.IP()).Msg("invalid request: malformed JSON")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid request: malformed JSON"})
	}
	if err := validateSubmitOrderRequest(&req); err != nil {
		log.Warn().Err(err).Str("symbol", req.Symbol).Msg("invalid order request")
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	action, orderType := translateSideAndType(req.Side, req.Type)
	reserveBidPrice := req.ReserveBidPrice
	if reserveBidPrice == 0 {
		reserveBidPrice = req.Price
	}

	orderID := h.allocateOrderID()
	cmd := engine.PlaceCommand{
		UID:             req.UID,
		OrderID:         orderID,
		Price:           req.Price,
		ReserveBidPrice: reserveBidPrice,
		Size:            req.Size,
		UserCookie:      req.UserCookie,
		Action:          action,
		Type:            orderType,
	}

	start := time.Now()
	atomic.AddInt64(&h.CommandsReceived, 1)

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	respBytes, err := h.Dispatcher.Execute(ctx, req.Symbol, engine.CommandPlaceOrder, engine.EncodePlaceCommand(cmd), 0, time.Now().UnixMilli())
	h.recordLatency(time.Since(start))
	if err != nil {
		atomic.AddInt64(&h.CommandsFailed, 1)
		log.Error().Err(err).Str("symbol", req.Symbol).Uint64("order_id", orderID).Msg("place order failed")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}

	result := engine.DecodePlaceResponse(respBytes)
	atomic.AddInt64(&h.CommandsSucceeded, 1)
	atomic.AddInt64(&h.TradesExecuted, int64(len(result.Trades)))

	resp := models.SubmitOrderResponse{
		OrderID:        result.OrderID,
		ResultCode:     resultCodeString(result.Code),
		TakerCompleted: result.TakerCompleted,
	}
	for _, t := range result.Trades {
		resp.Trades = append(resp.Trades, models.TradeInfo{
			MakerOrderID:    t.MakerOrderID,
			MakerUID:        t.MakerUID,
			Price:           t.Price,
			ReserveBidPrice: t.ReserveBidPrice,
			TradeVolume:     t.TradeVolume,
			MakerCompleted:  t.MakerCompleted,
		})
	}
	if result.Reduce != nil {
		resp.Reduce = &models.ReduceInfo{
			Price:           result.Reduce.Price,
			ReserveBidPrice: result.Reduce.ReserveBidPrice,
			ReducedVolume:   result.Reduce.ReducedVolume,
		}
	}

	log.Info().
		Str("symbol", req.Symbol).
		Uint64("order_id", orderID).
		Str("result_code", resp.ResultCode).
		Bool("taker_completed", resp.TakerCompleted).
		Int("trades", len(resp.Trades)).
		Msg("order placed")

	if resp.ResultCode != "SUCCESS" {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid order id"})
	}
	var req models.CancelOrderRequest
	_ = c.BodyParser(&req)

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	respBytes, err := h.Dispatcher.Execute(ctx, symbol, engine.CommandCancelOrder, engine.EncodeCancelCommand(req.UID, orderID), 0, time.Now().UnixMilli())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}

	result := engine.DecodeCommandResponse(respBytes)
	resp := models.CancelOrderResponse{OrderID: result.OrderID, ResultCode: resultCodeString(result.Code)}
	if result.Reduce != nil {
		resp.Reduce = &models.ReduceInfo{
			Price:           result.Reduce.Price,
			ReserveBidPrice: result.Reduce.ReserveBidPrice,
			ReducedVolume:   result.Reduce.ReducedVolume,
		}
	}
	if resp.ResultCode != "SUCCESS" {
		return c.Status(fiber.StatusNotFound).JSON(resp)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *OrderHandler) ReduceOrder(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid order id"})
	}
	var req models.ReduceOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid request: malformed JSON"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	respBytes, err := h.Dispatcher.Execute(ctx, symbol, engine.CommandReduceOrder, engine.EncodeReduceCommand(req.UID, orderID, req.Delta), 0, time.Now().UnixMilli())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}
	result := engine.DecodeCommandResponse(respBytes)
	resp := models.CommandResponse{OrderID: result.OrderID, ResultCode: resultCodeString(result.Code)}
	if result.Reduce != nil {
		resp.Reduce = &models.ReduceInfo{
			Price:           result.Reduce.Price,
			ReserveBidPrice: result.Reduce.ReserveBidPrice,
			ReducedVolume:   result.Reduce.ReducedVolume,
		}
	}
	if resp.ResultCode != "SUCCESS" {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *OrderHandler) MoveOrder(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid order id"})
	}
	var req models.MoveOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid request: malformed JSON"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	respBytes, err := h.Dispatcher.Execute(ctx, symbol, engine.CommandMoveOrder, engine.EncodeMoveCommand(req.UID, orderID, req.NewPrice), 0, time.Now().UnixMilli())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}
	result := engine.DecodeCommandResponse(respBytes)
	resp := models.CommandResponse{OrderID: result.OrderID, ResultCode: resultCodeString(result.Code)}
	if resp.ResultCode != "SUCCESS" {
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *OrderHandler) GetOrderBook(c *fiber.Ctx) error {
	symbol := c.Params("symbol")

	defaultDepth := 10
	if envDepth := os.Getenv("ORDERBOOK_DEFAULT_DEPTH"); envDepth != "" {
		if parsed, err := strconv.Atoi(envDepth); err == nil && parsed > 0 {
			defaultDepth = parsed
		}
	}
	maxDepth := 1000
	if envMaxDepth := os.Getenv("ORDERBOOK_MAX_DEPTH"); envMaxDepth != "" {
		if parsed, err := strconv.Atoi(envMaxDepth); err == nil && parsed > 0 {
			maxDepth = parsed
		}
	}
	depth, err := strconv.Atoi(c.Query("depth", strconv.Itoa(defaultDepth)))
	if err != nil || depth <= 0 {
		depth = defaultDepth
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	if depth > math.MaxInt16 {
		depth = math.MaxInt16
	}
	respBytes, err := h.Dispatcher.Execute(ctx, symbol, engine.QueryOrderBook, engine.EncodeQueryCommand(int16(depth)), 0, time.Now().UnixMilli())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}

	snapshot := engine.DecodeL2SnapshotResponse(respBytes)
	resp := models.OrderBookResponse{Symbol: symbol, Timestamp: time.Now().UnixMilli()}
	for _, rec := range snapshot.Asks {
		resp.Asks = append(resp.Asks, models.PriceLevelInfo{Price: rec.Price, Volume: rec.Volume, NumOrders: rec.NumOrders})
	}
	for _, rec := range snapshot.Bids {
		resp.Bids = append(resp.Bids, models.PriceLevelInfo{Price: rec.Price, Volume: rec.Volume, NumOrders: rec.NumOrders})
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *OrderHandler) GetOrderStatus(c *fiber.Ctx) error {
	symbol := c.Params("symbol")
	orderID, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid order id"})
	}

	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	var found *engine.RestingOrder
	queryErr := h.Dispatcher.Query(ctx, symbol, func(e *engine.Engine) {
		if o, ok := e.GetOrderByID(orderID); ok {
			found = o
		}
	})
	if queryErr != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "internal server error"})
	}
	if found == nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "order not found"})
	}

	return c.Status(fiber.StatusOK).JSON(models.OrderStatusResponse{
		OrderID:         found.OrderID,
		UID:             found.UID,
		Side:            found.Action.String(),
		Price:           found.Price,
		ReserveBidPrice: found.ReserveBidPrice,
		Size:            found.Size,
		Filled:          found.Filled,
		Remaining:       found.Remaining(),
		Timestamp:       found.Timestamp,
	})
}

func (h *OrderHandler) HealthCheck(c *fiber.Ctx) error {
	uptime := time.Since(h.StartTime).Seconds()
	return c.Status(fiber.StatusOK).JSON(models.HealthResponse{
		Status:        "healthy",
		UptimeSeconds: int64(uptime),
	})
}

func (h *OrderHandler) Metrics(c *fiber.Ctx) error {
	p50, p99, p999 := h.calculateLatencyPercentiles()
	return c.Status(fiber.StatusOK).JSON(models.MetricsResponse{
		CommandsReceived:         atomic.LoadInt64(&h.CommandsReceived),
		CommandsSucceeded:        atomic.LoadInt64(&h.CommandsSucceeded),
		CommandsFailed:           atomic.LoadInt64(&h.CommandsFailed),
		TradesExecuted:           atomic.LoadInt64(&h.TradesExecuted),
		LatencyP50Ms:             p50,
		LatencyP99Ms:             p99,
		LatencyP999Ms:            p999,
		ThroughputCommandsPerSec: h.calculateThroughput(),
	})
}

func (h *OrderHandler) recordLatency(latency time.Duration) {
	h.latenciesMu.Lock()
	defer h.latenciesMu.Unlock()
	h.latencies = append(h.latencies, latency)
	if len(h.latencies) > h.maxLatencies {
		h.latencies = h.latencies[len(h.latencies)-h.maxLatencies:]
	}
}

func (h *OrderHandler) calculateLatencyPercentiles() (p50, p99, p999 float64) {
	h.latenciesMu.RLock()
	defer h.latenciesMu.RUnlock()
	if len(h.latencies) == 0 {
		return 0, 0, 0
	}
	cp := make([]time.Duration, len(h.latencies))
	copy(cp, h.latencies)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })

	idx := func(p float64) int {
		i := int(float64(len(cp)) * p)
		if i >= len(cp) {
			i = len(cp) - 1
		}
		return i
	}
	toMs := func(d time.Duration) float64 { return float64(d.Nanoseconds()) / 1e6 }
	return toMs(cp[idx(0.50)]), toMs(cp[idx(0.99)]), toMs(cp[idx(0.999)])
}

func (h *OrderHandler) calculateThroughput() float64 {
	uptime := time.Since(h.StartTime).Seconds()
	if uptime <= 0 {
		return 0
	}
	return float64(atomic.LoadInt64(&h.CommandsReceived)) / uptime
}

func translateSideAndType(side, orderType string) (engine.OrderAction, engine.OrderType) {
	action := engine.ActionAsk
	if side == "BID" {
		action = engine.ActionBid
	}
	switch orderType {
	case "IOC":
		return action, engine.OrderTypeIOC
	case "IOC_BUDGET":
		return action, engine.OrderTypeIOCBudget
	case "FOK":
		return action, engine.OrderTypeFOK
	case "FOK_BUDGET":
		return action, engine.OrderTypeFOKBudget
	default:
		return action, engine.OrderTypeGTC
	}
}

func resultCodeString(code engine.ResultCode) string {
	switch code {
	case engine.ResultSuccess:
		return "SUCCESS"
	case engine.ResultUnknownOrderID:
		return "UNKNOWN_ORDER_ID"
	case engine.ResultUnsupportedCommand:
		return "UNSUPPORTED_COMMAND"
	case engine.ResultInvalidOrderBookID:
		return "INVALID_ORDER_BOOK_ID"
	case engine.ResultIncorrectOrderSize:
		return "INCORRECT_ORDER_SIZE"
	case engine.ResultIncorrectReduceSize:
		return "INCORRECT_REDUCE_SIZE"
	case engine.ResultMoveFailedPriceOverRiskLimit:
		return "MOVE_FAILED_PRICE_OVER_RISK_LIMIT"
	case engine.ResultUnsupportedOrderType:
		return "UNSUPPORTED_ORDER_TYPE"
	case engine.ResultIncorrectL2SizeLimit:
		return "INCORRECT_L2_SIZE_LIMIT"
	default:
		return "UNKNOWN"
	}
}

func validateSubmitOrderRequest(req *models.SubmitOrderRequest) error {
	if req.Symbol == "" {
		return &ValidationError{Message: "invalid order: symbol is required"}
	}
	if req.Side != "BID" && req.Side != "ASK" {
		return &ValidationError{Message: "invalid order: side must be BID or ASK"}
	}
	switch req.Type {
	case "GTC", "IOC", "IOC_BUDGET", "FOK", "FOK_BUDGET":
	default:
		return &ValidationError{Message: "invalid order: type must be one of GTC, IOC, IOC_BUDGET, FOK, FOK_BUDGET"}
	}
	if req.Size == 0 {
		return &ValidationError{Message: "invalid order: size must be positive"}
	}
	if req.Price <= 0 {
		return &ValidationError{Message: "invalid order: price must be positive"}
	}
	return nil
}

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
