package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckerPatterns(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"viewer", PermBankRead, true},
		{"viewer", PermBankWrite, false},
		{"editor", PermBankWrite, true},
		{"editor", PermEventsRead, false},
		{"admin", PermEventsRead, true},
		{"nobody", PermBankRead, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermBankWrite)(ok)

	for role, want := range map[string]int{
		"":       http.StatusForbidden,
		"viewer": http.StatusForbidden,
		"editor": http.StatusNoContent,
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/exams", nil)
		if role != "" {
			req = req.WithContext(WithRole(req.Context(), role))
		}
		h.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("role %q: got %d want %d", role, rr.Code, want)
		}
	}

	rr := httptest.NewRecorder()
	AssumeRole("admin")(h).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/exams", nil))
	if rr.Code != http.StatusNoContent {
		t.Errorf("assumed admin: got %d", rr.Code)
	}
}
