package flows

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/MrEthical07/tokenguard/jwt"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("store down")

type fakeStore struct {
	mu      sync.Mutex
	revoked map[string]bool
	calls   int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{revoked: map[string]bool{}}
}

func (s *fakeStore) Revoke(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.revoked[token] = true
	return nil
}

func (s *fakeStore) IsRevoked(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[token], nil
}

func (s *fakeStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestManager(t *testing.T) *jwt.Manager {
	t.Helper()
	m, err := jwt.NewManager(jwt.Config{Secret: []byte(strings.Repeat("k", 32))})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	return m
}

func authDeps(m *jwt.Manager, store *fakeStore) AuthenticateDeps {
	return AuthenticateDeps{
		Verify:    m.Verify,
		IsRevoked: store.IsRevoked,
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"", "", false},
		{"Bearer ", "", false},
		{"Bearer", "", false},
		{"bearer abc", "", false},
		{"Basic abc", "", false},
		{"Token abc", "", false},
	}
	for _, tc := range cases {
		token, ok := ExtractBearer(tc.header)
		if token != tc.token || ok != tc.ok {
			t.Fatalf("ExtractBearer(%q) = %q, %v; want %q, %v", tc.header, token, ok, tc.token, tc.ok)
		}
	}
}

func TestRunAuthenticateAuthorized(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()
	subject := uuid.New()

	token, err := m.Issue(subject.String())
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	res := RunAuthenticate(context.Background(), BearerPrefix+token, authDeps(m, store))
	if !res.Authorized() {
		t.Fatalf("expected authorized, got stage=%v failure=%v err=%v", res.Stage, res.Failure, res.Err)
	}
	if res.Subject != subject {
		t.Fatalf("subject = %v, want %v", res.Subject, subject)
	}
	if store.Calls() != 1 {
		t.Fatalf("store calls = %d, want 1", store.Calls())
	}
}

func TestRunAuthenticateMissingHeaderSkipsEverything(t *testing.T) {
	store := newFakeStore()
	verified := 0
	deps := AuthenticateDeps{
		Verify: func(string) (*jwt.Claims, error) {
			verified++
			return nil, jwt.ErrInvalidToken
		},
		IsRevoked: store.IsRevoked,
	}

	for _, header := range []string{"", "Basic Zm9vOmJhcg==", "Bearer "} {
		res := RunAuthenticate(context.Background(), header, deps)
		if res.Failure != AuthenticateFailureMissingOrInvalidHeader || res.Stage != StageExtractingToken {
			t.Fatalf("header %q: stage=%v failure=%v", header, res.Stage, res.Failure)
		}
	}
	if verified != 0 || store.Calls() != 0 {
		t.Fatalf("verify=%d store=%d, want no calls", verified, store.Calls())
	}
}

func TestRunAuthenticateGarbageNeverReachesStore(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()

	other, err := jwt.NewManager(jwt.Config{Secret: []byte(strings.Repeat("x", 32))})
	if err != nil {
		t.Fatalf("NewManager error: %v", err)
	}
	forged, _ := other.Issue(uuid.NewString())

	for _, token := range []string{"garbage", "a.b.c", forged} {
		res := RunAuthenticate(context.Background(), BearerPrefix+token, authDeps(m, store))
		if res.Failure != AuthenticateFailureInvalidToken || res.Stage != StageVerifyingToken {
			t.Fatalf("token %q: stage=%v failure=%v", token, res.Stage, res.Failure)
		}
	}
	if store.Calls() != 0 {
		t.Fatalf("store calls = %d, want 0", store.Calls())
	}
}

func TestRunAuthenticateRevoked(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()
	token, _ := m.Issue(uuid.NewString())
	_ = store.Revoke(context.Background(), token)

	res := RunAuthenticateToken(context.Background(), token, authDeps(m, store))
	if res.Failure != AuthenticateFailureRevoked || res.Stage != StageCheckingRevocation {
		t.Fatalf("stage=%v failure=%v", res.Stage, res.Failure)
	}
}

func TestRunAuthenticateStoreFailureFailsClosed(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()
	store.err = errStoreDown
	token, _ := m.Issue(uuid.NewString())

	res := RunAuthenticateToken(context.Background(), token, authDeps(m, store))
	if res.Failure != AuthenticateFailureStoreUnavailable {
		t.Fatalf("failure = %v, want store unavailable", res.Failure)
	}
	if !errors.Is(res.Err, errStoreDown) {
		t.Fatalf("err = %v", res.Err)
	}
	if res.Authorized() {
		t.Fatal("store failure must not authorize")
	}
}

func TestRunAuthenticateCanceledContext(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()
	token, _ := m.Issue(uuid.NewString())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := RunAuthenticateToken(ctx, token, authDeps(m, store))
	if res.Failure != AuthenticateFailureStoreUnavailable {
		t.Fatalf("failure = %v, want store unavailable", res.Failure)
	}
	if store.Calls() != 0 {
		t.Fatalf("store calls = %d, want 0", store.Calls())
	}
}

func TestRunAuthenticateMalformedSubject(t *testing.T) {
	m := newTestManager(t)
	store := newFakeStore()

	for _, subject := range []string{"u1", "not-a-uuid", uuid.Nil.String()} {
		token, err := m.Issue(subject)
		if err != nil {
			t.Fatalf("Issue(%q) error: %v", subject, err)
		}
		res := RunAuthenticateToken(context.Background(), token, authDeps(m, store))
		if res.Failure != AuthenticateFailureMalformedSubject || res.Stage != StageResolvingIdentity {
			t.Fatalf("subject %q: stage=%v failure=%v", subject, res.Stage, res.Failure)
		}
	}
}

func TestRunAuthenticateNotReady(t *testing.T) {
	res := RunAuthenticateToken(context.Background(), "x", AuthenticateDeps{})
	if res.Failure != AuthenticateFailureNotReady {
		t.Fatalf("failure = %v", res.Failure)
	}
}

func TestStageString(t *testing.T) {
	if StageCheckingRevocation.String() != "checking_revocation" {
		t.Fatalf("unexpected stage name %q", StageCheckingRevocation.String())
	}
	if Stage(99).String() != "unknown" {
		t.Fatal("expected unknown stage name")
	}
}
