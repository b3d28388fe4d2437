package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

func TestLoginAndMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewAuthService("test-key")
	login := LoginHandler(svc, []Account{
		{Username: "ed", PassHash: string(hash), Role: "editor"},
		{Username: "off", Role: "admin"},
	})

	post := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		login.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		return rr
	}
	if rr := post(`{"username":"ed","password":"nope"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", rr.Code)
	}
	if rr := post(`{"username":"off","password":""}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("disabled account: %d", rr.Code)
	}
	if rr := post(`{`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", rr.Code)
	}

	rr := post(`{"username":"ed","password":"s3cret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}

	var sub, role string
	h := JWTMiddleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = SubjectFromContext(r.Context())
		role = rbac.RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/exams", nil)
	req.Header.Set("Authorization", "Bearer "+out["access_token"])
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || sub != "ed" || role != "editor" {
		t.Fatalf("code=%d sub=%q role=%q", rr.Code, sub, role)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exams", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", rr.Code)
	}
}

func TestParseRejectsForeignKey(t *testing.T) {
	tok, err := NewAuthService("one").IssueJWT("u", "admin")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewAuthService("two").Parse(tok); err == nil {
		t.Fatal("token signed with another key accepted")
	}
}
