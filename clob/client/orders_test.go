package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/betbot/polyrouter/clob/types"
)

func testCreds() *types.ApiKeyCreds {
	return &types.ApiKeyCreds{
		Key:           "key-1",
		Secret:        base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		Passphrase:    "pass-1",
		SignerAddress: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
	}
}

func testSignedOrder() *types.SignedOrder {
	return &types.SignedOrder{
		Salt:          12345,
		Maker:         "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		Signer:        "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B",
		Taker:         "0x0000000000000000000000000000000000000000",
		TokenID:       "99",
		MakerAmount:   "50000000",
		TakerAmount:   "100000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          types.SideBuy,
		SignatureType: 0,
		Signature:     "0xdeadbeef",
	}
}

func TestPostOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointPostOrder || r.Method != http.MethodPost {
			t.Fatalf("unexpected %s %s", r.Method, r.URL.Path)
		}
		// L2 头必须齐全
		for _, h := range []string{"POLY_ADDRESS", "POLY_SIGNATURE", "POLY_TIMESTAMP", "POLY_API_KEY", "POLY_PASSPHRASE"} {
			if r.Header.Get(h) == "" {
				t.Errorf("missing header %s", h)
			}
		}
		// 载荷应包含 order/owner/orderType
		var payload types.NewOrder
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.Owner != "key-1" {
			t.Errorf("owner got=%s want=key-1", payload.Owner)
		}
		if payload.OrderType != types.OrderTypeGTC {
			t.Errorf("orderType got=%s want=GTC", payload.OrderType)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"orderID":"0xabc","status":"live"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, attempts, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC, testCreds())
	if err != nil {
		t.Fatalf("PostOrder error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts got=%d want=1", attempts)
	}
	if resp.OrderID != "0xabc" || resp.Status != types.MatchStatusLive {
		t.Fatalf("bad response: %+v", resp)
	}
}

func TestPostOrder_TransientThenSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"orderID":"0xabc","status":"matched","originalSize":"100","sizeMatched":"100"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, attempts, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC, testCreds())
	if err != nil {
		t.Fatalf("PostOrder error: %v", err)
	}
	// 恰好两次：一次 503，一次成功
	if attempts != 2 {
		t.Fatalf("attempts got=%d want=2", attempts)
	}
	if calls != 2 {
		t.Fatalf("calls got=%d want=2", calls)
	}
	if resp.Status != types.MatchStatusMatched {
		t.Fatalf("status got=%s want=matched", resp.Status)
	}
}

func TestPostOrder_RejectionNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid order: not enough balance"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, attempts, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC, testCreds())
	if err == nil {
		t.Fatalf("expected error")
	}
	var rejErr *types.OrderRejectedError
	if !errors.As(err, &rejErr) {
		t.Fatalf("expected OrderRejectedError, got %T: %v", err, err)
	}
	if rejErr.Reason != "invalid order: not enough balance" {
		t.Fatalf("reason got=%q", rejErr.Reason)
	}
	if calls != 1 || attempts != 1 {
		t.Fatalf("calls=%d attempts=%d, want 1/1 (4xx must not retry)", calls, attempts)
	}
}

func TestPostOrder_GarbageAfterAckIsStatusUnknown(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		// 2xx 但响应体损坏：交易所可能已接受订单，不能重试
		w.Write([]byte(`{"success":tru`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, _, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC, testCreds())
	if err == nil {
		t.Fatalf("expected error")
	}
	var unknownErr *types.OrderStatusUnknownError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected OrderStatusUnknownError, got %T: %v", err, err)
	}
	if calls != 1 {
		t.Fatalf("calls got=%d want=1 (post-ack must not retry)", calls)
	}
}

func TestPostOrder_RetriesExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, attempts, err := c.PostOrder(context.Background(), testSignedOrder(), types.OrderTypeGTC, testCreds())
	if err == nil {
		t.Fatalf("expected error")
	}
	var transientErr *types.TransientNetworkError
	if !errors.As(err, &transientErr) {
		t.Fatalf("expected TransientNetworkError, got %T: %v", err, err)
	}
	if attempts != 4 || calls != 4 {
		t.Fatalf("attempts=%d calls=%d, want 4/4", attempts, calls)
	}
}

func TestCancelOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("method got=%s want=DELETE", r.Method)
		}
		if got := r.URL.Query().Get("orderID"); got != "0xabc" {
			t.Fatalf("orderID got=%s want=0xabc", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.CancelOrder(context.Background(), "0xabc", testCreds())
	if err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
}

func TestGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointGetOrder+"0xabc" {
			t.Fatalf("path got=%s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"0xabc","status":"LIVE","original_size":"100","size_matched":"40"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	order, err := c.GetOrder(context.Background(), "0xabc", testCreds())
	if err != nil {
		t.Fatalf("GetOrder error: %v", err)
	}
	if order.ID != "0xabc" || order.SizeMatched != "40" {
		t.Fatalf("bad order: %+v", order)
	}
}
