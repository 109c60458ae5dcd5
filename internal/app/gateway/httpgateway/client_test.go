package httpgateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/PointDesk/loyalty_client/internal/app/domain/session"
	"github.com/PointDesk/loyalty_client/internal/app/gateway"
)

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Retry: RetryConfig{
			MaxRetries:        2,
			InitialBackoff:    time.Millisecond,
			MaxBackoff:        5 * time.Millisecond,
			BackoffMultiplier: 2,
		},
	}, NewTokenStore(), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestLoginDecodesAuthResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var creds session.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if creds.PhoneNumber != "+15551234567" {
			t.Fatalf("unexpected credentials: %+v", creds)
		}
		json.NewEncoder(w).Encode(gateway.AuthResult{
			User:  session.UserProfile{ID: "u1", Name: "Ann"},
			Token: "tok",
		})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	res, err := c.Login(context.Background(), session.Credentials{PhoneNumber: "+15551234567"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.ID != "u1" || res.Token != "tok" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]int64{"balance": 100})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	c.Tokens().Set("tok-123")

	if _, err := c.Balance(context.Background()); err != nil {
		t.Fatalf("balance: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("token not attached: %q", gotAuth)
	}
}

func TestErrorMessageExtracted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Insufficient points balance","code":"points"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.RedeemPoints(context.Background(), gateway.RedeemRequest{Points: 2000})
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if gwErr.StatusCode != http.StatusUnprocessableEntity || gwErr.Message != "Insufficient points balance" {
		t.Fatalf("unexpected error: %+v", gwErr)
	}
}

func TestErrorWithoutMessageLeavesItEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	_, err := c.EarnPoints(context.Background(), gateway.EarnRequest{Amount: 100})
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if gwErr.Message != "" {
		t.Fatalf("message should be empty so the caller substitutes its default: %q", gwErr.Message)
	}
}

func TestUnauthorizedClearsTokenAndFiresHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	c.Tokens().Set("stale")
	var hookFired bool
	c.SetUnauthorizedHook(func() { hookFired = true })

	_, err := c.Balance(context.Background())
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Tokens().Get() != "" {
		t.Fatalf("token not cleared")
	}
	if !hookFired {
		t.Fatalf("unauthorized hook not invoked")
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]int64{"balance": 77})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	balance, err := c.Balance(context.Background())
	if err != nil {
		t.Fatalf("balance after retries: %v", err)
	}
	if balance != 77 {
		t.Fatalf("unexpected balance: %d", balance)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.EarnPoints(context.Background(), gateway.EarnRequest{Amount: 100}); err == nil {
		t.Fatalf("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("write retried: %d attempts", calls)
	}
}

func TestHistoryCursorPassedAsQuery(t *testing.T) {
	var gotCursor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCursor = r.URL.Query().Get("cursor")
		json.NewEncoder(w).Encode(gateway.HistoryPage{Cursor: "next"})
	}))
	defer srv.Close()

	c := testClient(t, srv)
	page, err := c.History(context.Background(), "c1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if gotCursor != "c1" {
		t.Fatalf("cursor not forwarded: %q", gotCursor)
	}
	if page.Cursor != "next" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestExpiredTokenShortCircuits(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	c := testClient(t, srv)
	c.Tokens().Set(token)
	var hookFired bool
	c.SetUnauthorizedHook(func() { hookFired = true })

	_, err = c.Balance(context.Background())
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unexpected error: %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("expired token should not reach the wire")
	}
	if !hookFired || c.Tokens().Get() != "" {
		t.Fatalf("teardown incomplete: hook=%v token=%q", hookFired, c.Tokens().Get())
	}
}

func TestTokenStoreExpiry(t *testing.T) {
	s := NewTokenStore()

	if s.Expired(time.Now()) {
		t.Fatalf("empty store must not report expired")
	}

	s.Set("not-a-jwt")
	if _, ok := s.Expiry(); ok {
		t.Fatalf("opaque token has no expiry")
	}
	if s.Expired(time.Now()) {
		t.Fatalf("unparseable token must not report expired")
	}

	future := time.Now().Add(time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(future),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	s.Set(token)

	exp, ok := s.Expiry()
	if !ok || exp.Unix() != future.Unix() {
		t.Fatalf("expiry not read: ok=%v exp=%v", ok, exp)
	}
	if s.Expired(time.Now()) {
		t.Fatalf("future token reported expired")
	}
	if !s.Expired(future.Add(time.Minute)) {
		t.Fatalf("past token not reported expired")
	}
}
