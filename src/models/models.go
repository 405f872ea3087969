package models

// SubmitOrderRequest is the JSON form of a PLACE_ORDER command. Price
// is in integer ticks, UID identifies the submitting account, and
// ReserveBidPrice caps how far a BID order may later be moved
// (ignored for ASK orders). When omitted, ReserveBidPrice defaults to
// Price.
type SubmitOrderRequest struct {
	Symbol          string `json:"symbol"`
	UID             uint64 `json:"uid"`
	Side            string `json:"side"` // BID or ASK
	Type            string `json:"type"` // GTC, IOC, IOC_BUDGET, FOK, FOK_BUDGET
	Price           int64  `json:"price"`
	ReserveBidPrice int64  `json:"reserve_bid_price,omitempty"`
	Size            uint64 `json:"size"`
	UserCookie      int32  `json:"user_cookie,omitempty"`
}

type TradeInfo struct {
	MakerOrderID    uint64 `json:"maker_order_id"`
	MakerUID        uint64 `json:"maker_uid"`
	Price           int64  `json:"price"`
	ReserveBidPrice int64  `json:"reserve_bid_price"`
	TradeVolume     uint64 `json:"trade_volume"`
	MakerCompleted  bool   `json:"maker_completed"`
}

type ReduceInfo struct {
	Price           int64  `json:"price"`
	ReserveBidPrice int64  `json:"reserve_bid_price"`
	ReducedVolume   uint64 `json:"reduced_volume"`
}

type SubmitOrderResponse struct {
	OrderID        uint64      `json:"order_id"`
	ResultCode     string      `json:"result_code"`
	TakerCompleted bool        `json:"taker_completed"`
	Trades         []TradeInfo `json:"trades,omitempty"`
	Reduce         *ReduceInfo `json:"reduce,omitempty"`
}

type CancelOrderRequest struct {
	UID uint64 `json:"uid"`
}

type CancelOrderResponse struct {
	OrderID    uint64      `json:"order_id"`
	ResultCode string      `json:"result_code"`
	Reduce     *ReduceInfo `json:"reduce,omitempty"`
}

type ReduceOrderRequest struct {
	UID   uint64 `json:"uid"`
	Delta uint64 `json:"delta"`
}

type MoveOrderRequest struct {
	UID      uint64 `json:"uid"`
	NewPrice int64  `json:"new_price"`
}

type CommandResponse struct {
	OrderID    uint64      `json:"order_id"`
	ResultCode string      `json:"result_code"`
	Reduce     *ReduceInfo `json:"reduce,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type PriceLevelInfo struct {
	Price     int64  `json:"price"`
	Volume    uint64 `json:"volume"`
	NumOrders int32  `json:"num_orders"`
}

type OrderBookResponse struct {
	Symbol    string           `json:"symbol"`
	Timestamp int64            `json:"timestamp"`
	Bids      []PriceLevelInfo `json:"bids"`
	Asks      []PriceLevelInfo `json:"asks"`
}

type OrderStatusResponse struct {
	OrderID         uint64 `json:"order_id"`
	UID             uint64 `json:"uid"`
	Side            string `json:"side"`
	Price           int64  `json:"price"`
	ReserveBidPrice int64  `json:"reserve_bid_price"`
	Size            uint64 `json:"size"`
	Filled          uint64 `json:"filled"`
	Remaining       uint64 `json:"remaining"`
	Timestamp       int64  `json:"timestamp"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

type MetricsResponse struct {
	CommandsReceived         int64   `json:"commands_received"`
	CommandsSucceeded        int64   `json:"commands_succeeded"`
	CommandsFailed           int64   `json:"commands_failed"`
	TradesExecuted           int64   `json:"trades_executed"`
	LatencyP50Ms             float64 `json:"latency_p50_ms"`
	LatencyP99Ms             float64 `json:"latency_p99_ms"`
	LatencyP999Ms            float64 `json:"latency_p999_ms"`
	ThroughputCommandsPerSec float64 `json:"throughput_commands_per_sec"`
}
