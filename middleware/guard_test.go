package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/tokenguard"
)

func TestGuardAuthorizedRequest(t *testing.T) {
	engine, _ := newTestEngine(t)
	token, id := issue(t, engine)

	calls := 0
	h := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		got, ok := IdentityFromContext(r.Context())
		if !ok {
			t.Fatal("expected identity in context")
		}
		if got.UserID != id {
			t.Fatalf("identity = %s, want %s", got, id)
		}
		res, ok := AuthResultFromContext(r.Context())
		if !ok || res.TokenID == "" {
			t.Fatalf("expected auth result with token id, got %+v", res)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
}

func TestGuardRejections(t *testing.T) {
	engine, _ := newTestEngine(t)
	token, _ := issue(t, engine)
	revoked, _ := issue(t, engine)
	if err := engine.Revoke(context.Background(), revoked); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not.a.jwt"},
		{"revoked token", "Bearer " + revoked},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			calls := 0
			h := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rr.Code)
			}
			if calls != 0 {
				t.Fatalf("handler should not run, calls = %d", calls)
			}
			if body := strings.TrimSpace(rr.Body.String()); body != "unauthorized" {
				t.Fatalf("body = %q", body)
			}
			if rr.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Fatalf("missing WWW-Authenticate header")
			}
		})
	}
}

func TestGuardStoreUnavailableIs503(t *testing.T) {
	engine, mr := newTestEngine(t)
	token, _ := issue(t, engine)
	mr.Close()

	calls := 0
	h := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if calls != 0 {
		t.Fatalf("handler should not run, calls = %d", calls)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "service unavailable" {
		t.Fatalf("body = %q", body)
	}
}

func TestGuardUnknownErrorFailsClosed(t *testing.T) {
	auth := &erroringAuthenticator{err: fmt.Errorf("boom")}
	calls := 0
	h := Guard(auth)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { calls++ }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	if calls != 0 || auth.calls != 1 {
		t.Fatalf("handler calls = %d, auth calls = %d", calls, auth.calls)
	}
}

func TestGuardNilAuthenticator(t *testing.T) {
	h := Guard(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestProtectPassesIdentity(t *testing.T) {
	engine, _ := newTestEngine(t)
	token, id := issue(t, engine)

	calls := 0
	h := Protect(engine, func(w http.ResponseWriter, r *http.Request, got tokenguard.Identity) {
		calls++
		if got.UserID != id {
			t.Fatalf("identity = %s, want %s", got, id)
		}
		if fromCtx, ok := IdentityFromContext(r.Context()); !ok || fromCtx != got {
			t.Fatalf("context identity = %v, %v", fromCtx, ok)
		}
		_, _ = w.Write([]byte(got.String()))
	})

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if calls != 1 {
		t.Fatalf("handler calls = %d, want 1", calls)
	}
	if rr.Body.String() != id.String() {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestIdentityFromContextEmpty(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatal("expected no identity")
	}
	if _, ok := AuthResultFromContext(context.Background()); ok {
		t.Fatal("expected no auth result")
	}
}
