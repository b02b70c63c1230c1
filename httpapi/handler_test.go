package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/gatekey"
	"github.com/MrEthical07/gatekey/session"
	"github.com/MrEthical07/gatekey/store"
)

type testEnv struct {
	handler http.Handler
	engine  *gatekey.Engine
}

func newTestEnv(t *testing.T, mutate func(*gatekey.Config)) *testEnv {
	t.Helper()

	cfg := gatekey.DefaultConfig()
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Cookie.Secure = false
	cfg.Cookie.SameSite = http.SameSiteLaxMode
	if mutate != nil {
		mutate(&cfg)
	}

	engine, err := gatekey.New().
		WithConfig(cfg).
		WithUserStore(store.NewMemory()).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	limiter, err := NewLimiter(cfg.RateLimit)
	if err != nil {
		t.Fatalf("NewLimiter: %v", err)
	}
	t.Cleanup(limiter.Close)

	transport, err := session.NewTransport(session.Config{
		Name:     cfg.Cookie.Name,
		Path:     cfg.Cookie.Path,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
		TTL:      cfg.Token.TTL,
	})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	return &testEnv{
		handler: New(engine, limiter, transport),
		engine:  engine,
	}
}

type request struct {
	method  string
	path    string
	body    any
	cookies []*http.Cookie
	header  http.Header
	remote  string
}

func (e *testEnv) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Buffer
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = &bytes.Buffer{}
	}

	r := httptest.NewRequest(req.method, req.path, body)
	if req.remote != "" {
		r.RemoteAddr = req.remote
	}
	for k, vs := range req.header {
		for _, v := range vs {
			r.Header.Add(k, v)
		}
	}
	for _, c := range req.cookies {
		r.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func (e *testEnv) signUp(t *testing.T, name, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{
		method: http.MethodPost,
		path:   "/access/signup",
		body:   map[string]string{"name": name, "email": email, "password": password},
	})
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, request{
		method: http.MethodPost,
		path:   "/access/login",
		body:   map[string]string{"email": email, "password": password},
	})
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestSignUpLoginValidateRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.signUp(t, "Alice", "alice@example.com", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body)
	}
	if body := decodeBody(t, rec); body["isSuccess"] != true {
		t.Fatalf("signup body = %v", body)
	}

	rec = env.login(t, "alice@example.com", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body)
	}
	if body := decodeBody(t, rec); body["isSuccess"] != true {
		t.Fatalf("login body = %v", body)
	}
	if strings.Contains(rec.Body.String(), "eyJ") {
		t.Error("login response body appears to contain a token")
	}

	c := sessionCookie(t, rec)
	if !c.HttpOnly {
		t.Error("session cookie is not HttpOnly")
	}
	if c.Value == "" {
		t.Fatal("session cookie is empty")
	}

	rec = env.do(t, request{
		method:  http.MethodGet,
		path:    "/access/validate",
		cookies: []*http.Cookie{{Name: "jwt", Value: c.Value}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, body %s", rec.Code, rec.Body)
	}
	body := decodeBody(t, rec)
	if body["isAuthenticated"] != true || body["user"] != "Alice" {
		t.Fatalf("validate body = %v", body)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	if rec := env.signUp(t, "Alice", "a@example.com", "pw1"); rec.Code != http.StatusOK {
		t.Fatalf("first signup status = %d", rec.Code)
	}
	rec := env.signUp(t, "Mallory", "a@example.com", "pw2")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate signup status = %d, want 400", rec.Code)
	}
}

func TestSignUpBlankFields(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.signUp(t, "", "a@example.com", "pw")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Alice", "alice@example.com", "s3cret")

	wrongPassword := env.login(t, "alice@example.com", "wrong")
	unknownEmail := env.login(t, "nobody@example.com", "whatever")

	if wrongPassword.Code != http.StatusOK || unknownEmail.Code != http.StatusOK {
		t.Fatalf("statuses = %d, %d; want 200, 200", wrongPassword.Code, unknownEmail.Code)
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("failure bodies differ: %q vs %q", wrongPassword.Body, unknownEmail.Body)
	}
	for _, rec := range []*httptest.ResponseRecorder{wrongPassword, unknownEmail} {
		if len(rec.Result().Cookies()) != 0 {
			t.Error("failed login set a cookie")
		}
	}
}

func TestValidateWithoutCredential(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, request{method: http.MethodGet, path: "/access/validate"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if body := decodeBody(t, rec); body["isAuthenticated"] != false {
		t.Fatalf("body = %v", body)
	}
}

func TestHeaderCredentialIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Alice", "alice@example.com", "s3cret")
	c := sessionCookie(t, env.login(t, "alice@example.com", "s3cret"))

	// A perfectly valid token in the Authorization header must behave
	// exactly like presenting nothing at all.
	rec := env.do(t, request{
		method: http.MethodGet,
		path:   "/access/validate",
		header: http.Header{"Authorization": []string{"Bearer " + c.Value}},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTamperedCookieRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Alice", "alice@example.com", "s3cret")
	c := sessionCookie(t, env.login(t, "alice@example.com", "s3cret"))

	tampered := []byte(c.Value)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	rec := env.do(t, request{
		method:  http.MethodGet,
		path:    "/access/validate",
		cookies: []*http.Cookie{{Name: "jwt", Value: string(tampered)}},
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Alice", "alice@example.com", "s3cret")
	env.login(t, "alice@example.com", "s3cret")

	rec := env.do(t, request{method: http.MethodPost, path: "/access/logout"})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	c := sessionCookie(t, rec)
	if c.Value != "" {
		t.Errorf("logout cookie still carries value %q", c.Value)
	}
	if c.MaxAge >= 0 {
		t.Errorf("logout cookie MaxAge = %d, want negative", c.MaxAge)
	}

	// The browser discards the cookie, so the next validate carries nothing.
	rec = env.do(t, request{method: http.MethodGet, path: "/access/validate"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("validate after logout status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "Alice", "alice@example.com", "s3cret")

	for i := 0; i < 5; i++ {
		rec := env.login(t, "alice@example.com", "wrong")
		if rec.Code != http.StatusOK {
			t.Fatalf("attempt %d status = %d", i+1, rec.Code)
		}
	}

	rec := env.login(t, "alice@example.com", "wrong")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth attempt status = %d, want 429", rec.Code)
	}

	// A different client IP has its own login bucket.
	rec = env.do(t, request{
		method: http.MethodPost,
		path:   "/access/login",
		body:   map[string]string{"email": "alice@example.com", "password": "wrong"},
		remote: "203.0.113.9:4242",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("other client status = %d, want 200", rec.Code)
	}
}

func TestSignUpRateLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 3; i++ {
		rec := env.signUp(t, "U", "u"+string(rune('0'+i))+"@example.com", "pw")
		if rec.Code != http.StatusOK {
			t.Fatalf("signup %d status = %d", i+1, rec.Code)
		}
	}

	rec := env.signUp(t, "U", "u9@example.com", "pw")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("fourth signup status = %d, want 429", rec.Code)
	}
}

func TestGlobalRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *gatekey.Config) {
		cfg.RateLimit.Global.Burst = 2
	})

	for i := 0; i < 2; i++ {
		rec := env.do(t, request{method: http.MethodGet, path: "/access/validate"})
		if rec.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d throttled under burst", i+1)
		}
	}

	rec := env.do(t, request{method: http.MethodGet, path: "/access/validate"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)

	r := httptest.NewRequest(http.MethodPost, "/access/signup", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, r)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
