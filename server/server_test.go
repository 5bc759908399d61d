package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"matchcore/runtime"
)

func newTestServer() (*Server, *runtime.Runner) {
	r := runtime.NewRunner(16, 4096)
	go r.Run()
	return New(r, "", "*"), r
}

func TestHandleOrderAcceptsRestingOrder(t *testing.T) {
	s, r := newTestServer()
	defer r.Stop()

	body, _ := json.Marshal(orderRequest{ID: 1, Price: 100, Qty: 10, Side: "buy"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleOrderRejectsUnknownSide(t *testing.T) {
	s, r := newTestServer()
	defer r.Stop()

	body, _ := json.Marshal(orderRequest{ID: 1, Price: 100, Qty: 10, Side: "sideways"})
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSnapshotReflectsRestingBid(t *testing.T) {
	s, r := newTestServer()
	defer r.Stop()

	body, _ := json.Marshal(orderRequest{ID: 1, Price: 100, Qty: 10, Side: "buy"})
	postReq := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	postRec := httptest.NewRecorder()
	s.Routes().ServeHTTP(postRec, postReq)
	if postRec.Code != http.StatusAccepted {
		t.Fatalf("setup order failed: %d", postRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/book", nil)
	getRec := httptest.NewRecorder()
	s.Routes().ServeHTTP(getRec, getReq)

	var resp snapshotResponse
	if err := json.Unmarshal(getRec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if resp.BestBid == nil || *resp.BestBid != 100 {
		t.Fatalf("expected best bid 100, got %+v", resp)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	r := runtime.NewRunner(16, 4096)
	go r.Run()
	defer r.Stop()
	s := New(r, "secret", "*")

	req := httptest.NewRequest(http.MethodGet, "/book", nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
