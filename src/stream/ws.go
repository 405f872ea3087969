package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"limitcore/src/engine"
)

// executedMessage is the JSON envelope pushed to every subscriber of a
// symbol's feed, one per command the Dispatcher applies.
type executedMessage struct {
	Symbol    string `json:"symbol"`
	Opcode    byte   `json:"opcode"`
	Timestamp int64  `json:"timestamp"`
}

// Broadcaster fans out executed commands per symbol over WebSocket. It
// implements runtime.Publisher so a Dispatcher can feed it directly.
type Broadcaster struct {
	hubs     map[string]*Hub
	mu       sync.Mutex
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewBroadcaster(log zerolog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs: make(map[string]*Hub),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (b *Broadcaster) hubFor(symbol string) *Hub {
	b.mu.Lock()
	defer b.mu.Unlock()
	h, ok := b.hubs[symbol]
	if !ok {
		h = NewHub()
		b.hubs[symbol] = h
	}
	return h
}

// PublishExecuted satisfies runtime.Publisher: every successfully
// applied command is re-broadcast as a small JSON notice so subscribers
// know to re-pull the L2 snapshot or trade feed.
func (b *Broadcaster) PublishExecuted(symbol string, opcode engine.Opcode, response []byte) error {
	msg, err := json.Marshal(executedMessage{
		Symbol:    symbol,
		Opcode:    byte(opcode),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	b.hubFor(symbol).Broadcast(msg)
	return nil
}

// ServeSymbol upgrades the request to a WebSocket and streams every
// executed-command notice for symbol until the client disconnects.
// Grounded on realmfikri-Limitless/server/server.go's handleTradeStream.
func (b *Broadcaster) ServeSymbol(w http.ResponseWriter, r *http.Request, symbol string) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warn().Err(err).Str("symbol", symbol).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	hub := b.hubFor(symbol)
	sub := hub.subscribe(32)
	defer hub.unsubscribe(sub)

	for msg := range sub.ch {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
