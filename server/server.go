// Package server exposes a matchcore runtime.Runner over HTTP and
// WebSocket: order submission, a top-of-book snapshot, and streaming
// subscriptions for trades and book updates.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sugawarayuuta/sonnet"

	"matchcore/core"
	"matchcore/runtime"
)

// Submitter is the runtime surface a Server needs. *runtime.Runner
// satisfies it directly; cmd/matchengine wraps a Runner with one that
// appends to the write-ahead log before submitting, so callers here never
// need to know the difference.
type Submitter interface {
	Submit(ctx context.Context, req runtime.OrderRequest) (runtime.OrderResult, error)
	Snapshot(ctx context.Context) (runtime.BookView, error)
	Trades() <-chan runtime.TradeEvent
	BookUpdates() <-chan runtime.BookView
}

// Server wires an HTTP mux and two WebSocket hubs to a Submitter.
type Server struct {
	runner     Submitter
	tradeHub   *hub[runtime.TradeEvent]
	bookHub    *hub[runtime.BookView]
	upgrader   websocket.Upgrader
	authToken  string
	corsOrigin string
}

// New constructs a Server around r. It immediately starts two internal
// goroutines that drain r.Trades()/r.BookUpdates() into the WebSocket
// hubs; callers must eventually run the underlying runtime.Runner's Run
// loop themselves.
func New(r Submitter, authToken, corsOrigin string) *Server {
	s := &Server{
		runner:     r,
		tradeHub:   newHub[runtime.TradeEvent](),
		bookHub:    newHub[runtime.BookView](),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		authToken:  authToken,
		corsOrigin: corsOrigin,
	}
	go s.consumeTrades()
	go s.consumeBookUpdates()
	return s
}

// Routes returns the Server's http.Handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/orders", s.withCORS(s.withAuth(http.HandlerFunc(s.handleOrder))))
	mux.Handle("/book", s.withCORS(s.withAuth(http.HandlerFunc(s.handleSnapshot))))
	mux.Handle("/ws/trades", s.withCORS(s.withAuth(http.HandlerFunc(s.handleTradeStream))))
	mux.Handle("/ws/book", s.withCORS(s.withAuth(http.HandlerFunc(s.handleBookStream))))
	return mux
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token != s.authToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("missing or invalid token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type orderRequest struct {
	ID    uint64 `json:"id"`
	Price uint32 `json:"price"`
	Qty   uint32 `json:"qty"`
	Side  string `json:"side"`
}

type orderResponse struct {
	Status string      `json:"status"`
	Fills  []core.Fill `json:"fills,omitempty"`
}

type snapshotResponse struct {
	BestBid        *uint32 `json:"best_bid,omitempty"`
	BestAsk        *uint32 `json:"best_ask,omitempty"`
	TradesExecuted uint64  `json:"trades_executed"`
}

type outboundMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req orderRequest
	if err := sonnet.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid payload: %w", err))
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Qty == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("qty must be positive"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	result, err := s.runner.Submit(ctx, runtime.OrderRequest{ID: req.ID, Price: req.Price, Qty: req.Qty, Side: side})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if result.Err != nil {
		writeError(w, http.StatusBadRequest, result.Err)
		return
	}

	writeJSON(w, http.StatusAccepted, orderResponse{Status: "accepted", Fills: result.Fills})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	view, err := s.runner.Snapshot(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(view))
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.tradeHub.Subscribe(32)
	defer s.tradeHub.Unsubscribe(sub)

	for trade := range sub.ch {
		if err := writeWS(conn, outboundMessage{Type: "trade", Data: trade}); err != nil {
			return
		}
	}
}

func (s *Server) handleBookStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := s.bookHub.Subscribe(32)
	defer s.bookHub.Unsubscribe(sub)

	for view := range sub.ch {
		if err := writeWS(conn, outboundMessage{Type: "book", Data: toSnapshotResponse(view)}); err != nil {
			return
		}
	}
}

func (s *Server) consumeTrades() {
	for trade := range s.runner.Trades() {
		s.tradeHub.Broadcast(trade)
	}
}

func (s *Server) consumeBookUpdates() {
	for view := range s.runner.BookUpdates() {
		s.bookHub.Broadcast(view)
	}
}

func toSnapshotResponse(view runtime.BookView) snapshotResponse {
	resp := snapshotResponse{TradesExecuted: view.TradesExecuted}
	if view.HasBid {
		resp.BestBid = &view.BestBid
	}
	if view.HasAsk {
		resp.BestAsk = &view.BestAsk
	}
	return resp
}

func parseSide(value string) (core.Side, error) {
	switch strings.ToLower(value) {
	case "buy", "bid", "b":
		return core.Buy, nil
	case "sell", "ask", "s":
		return core.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", value)
	}
}

func writeWS(conn *websocket.Conn, msg outboundMessage) error {
	data, err := sonnet.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = sonnet.NewEncoder(w).Encode(payload)
}
