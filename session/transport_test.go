package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestTransport(t *testing.T) *Transport {
	t.Helper()

	tr, err := NewTransport(Config{
		Name:     "jwt",
		Path:     "/",
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	return tr
}

func TestWriteSetsHardenedCookie(t *testing.T) {
	tr := newTestTransport(t)

	rec := httptest.NewRecorder()
	tr.Write(rec, "tok-123")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]

	if c.Name != "jwt" || c.Value != "tok-123" {
		t.Errorf("cookie = %s=%s, want jwt=tok-123", c.Name, c.Value)
	}
	if !c.HttpOnly {
		t.Error("cookie is not HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie is not Secure")
	}
	if c.SameSite != http.SameSiteNoneMode {
		t.Errorf("SameSite = %v, want None", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
}

func TestWriteExpiryTracksTTL(t *testing.T) {
	tr := newTestTransport(t)
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return issued }

	rec := httptest.NewRecorder()
	tr.Write(rec, "tok-123")

	c := rec.Result().Cookies()[0]
	if !c.Expires.Equal(issued.Add(time.Hour)) {
		t.Errorf("Expires = %v, want %v", c.Expires, issued.Add(time.Hour))
	}
}

func TestClearExpiresCookie(t *testing.T) {
	tr := newTestTransport(t)

	rec := httptest.NewRecorder()
	tr.Clear(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]

	if c.Value != "" {
		t.Errorf("cleared cookie still carries value %q", c.Value)
	}
	if c.MaxAge >= 0 && c.Expires.After(time.Now()) {
		t.Error("cleared cookie does not expire in the past")
	}
}

func TestReadIsCookieOnly(t *testing.T) {
	tr := newTestTransport(t)

	// Cookie present.
	r := httptest.NewRequest(http.MethodGet, "/access/validate", nil)
	r.AddCookie(&http.Cookie{Name: "jwt", Value: "tok-123"})
	if tok, ok := tr.Read(r); !ok || tok != "tok-123" {
		t.Errorf("Read = %q, %v; want tok-123, true", tok, ok)
	}

	// A bearer header alone must look exactly like no credential.
	r = httptest.NewRequest(http.MethodGet, "/access/validate", nil)
	r.Header.Set("Authorization", "Bearer tok-123")
	if _, ok := tr.Read(r); ok {
		t.Error("Read accepted a token from the Authorization header")
	}

	// Empty cookie value is no credential.
	r = httptest.NewRequest(http.MethodGet, "/access/validate", nil)
	r.AddCookie(&http.Cookie{Name: "jwt", Value: ""})
	if _, ok := tr.Read(r); ok {
		t.Error("Read accepted an empty cookie value")
	}
}

func TestNewTransportRejectsInsecureSameSiteNone(t *testing.T) {
	_, err := NewTransport(Config{
		Name:     "jwt",
		SameSite: http.SameSiteNoneMode,
		Secure:   false,
		TTL:      time.Hour,
	})
	if err == nil {
		t.Fatal("NewTransport accepted SameSite=None without Secure")
	}
}
