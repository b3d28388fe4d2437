package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/bank"
)

func newTestServer(t *testing.T, o Options) *httptest.Server {
	t.Helper()
	o.Bank = bank.New(bank.NewMemoryStore("test"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(o))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c client) do(method, path, contentType, body string) (*http.Response, []byte) {
	c.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, rd)
	if err != nil {
		c.t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		c.t.Fatal(err)
	}
	return resp, b
}

func (c client) json(method, path, body string, wantStatus int, out any) *http.Response {
	c.t.Helper()
	resp, b := c.do(method, path, "application/json", body)
	if resp.StatusCode != wantStatus {
		c.t.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, wantStatus, b)
	}
	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			c.t.Fatalf("%s %s: decode %s: %v", method, path, b, err)
		}
	}
	return resp
}

func TestCRUDRoundTrip(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, base: srv.URL}

	var agency bank.Agency
	resp := c.json("POST", "/api/agencies", `{"name":"AAAA"}`, http.StatusCreated, &agency)
	if loc := resp.Header.Get("Location"); loc != "/api/agencies/1" || agency.ID != 1 {
		t.Fatalf("location %q, agency %+v", loc, agency)
	}

	var exam bank.Exam
	c.json("POST", "/api/exams",
		`{"title":"Road","exam_type":"KOREAN","effective_date":"2024-05-01","agency":{"id":1}}`,
		http.StatusCreated, &exam)

	var eager bank.Exam
	c.json("GET", "/api/exams/1", "", http.StatusOK, &eager)
	if eager.Agency == nil || eager.Agency.Name != "AAAA" {
		t.Fatalf("single get should be eager by default: %+v", eager)
	}
	var shallow []bank.Exam
	c.json("GET", "/api/exams", "", http.StatusOK, &shallow)
	if len(shallow) != 1 || shallow[0].Agency != nil || *shallow[0].AgencyID != 1 {
		t.Fatalf("list should be shallow by default: %+v", shallow)
	}
	var eagerList []bank.Exam
	c.json("GET", "/api/exams?eagerload=true", "", http.StatusOK, &eagerList)
	if eagerList[0].Agency == nil {
		t.Fatalf("eager list: %+v", eagerList)
	}

	var updated bank.Exam
	c.json("PUT", "/api/exams/1", `{"id":1,"title":"Road 2","effective_date":"2024-06-01"}`, http.StatusOK, &updated)
	if updated.Title != "Road 2" || updated.AgencyID != nil || updated.ExamType != nil {
		t.Fatalf("replace: %+v", updated)
	}

	c.json("DELETE", "/api/exams/1", "", http.StatusNoContent, nil)
	c.json("GET", "/api/exams/1", "", http.StatusNotFound, nil)
}

func TestLocationUsesPublicURL(t *testing.T) {
	srv := newTestServer(t, Options{PublicURL: "https://qbank.example/"})
	c := client{t: t, base: srv.URL}
	resp := c.json("POST", "/api/licenses", `{"title":"Driver"}`, http.StatusCreated, nil)
	if loc := resp.Header.Get("Location"); loc != "https://qbank.example/api/licenses/1" {
		t.Fatalf("location %q", loc)
	}
}

func TestPatchMergesAndChecksContentType(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, base: srv.URL}

	c.json("POST", "/api/quizzes", `{"code":"Q-1","question":"old","selections":"a|b"}`, http.StatusCreated, nil)

	resp, b := c.do("PATCH", "/api/quizzes/1", "application/merge-patch+json", `{"id":1,"question":"new"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch: %d %s", resp.StatusCode, b)
	}
	var q bank.Quiz
	if err := json.Unmarshal(b, &q); err != nil {
		t.Fatal(err)
	}
	if q.Question != "new" || q.Code != "Q-1" || q.Selections == nil || *q.Selections != "a|b" {
		t.Fatalf("merged: %+v", q)
	}

	resp, _ = c.do("PATCH", "/api/quizzes/1", "text/plain", `{"id":1}`)
	if resp.StatusCode != http.StatusUnsupportedMediaType {
		t.Fatalf("text/plain patch: %d", resp.StatusCode)
	}
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, base: srv.URL}
	c.json("POST", "/api/licenses", `{"title":"Driver"}`, http.StatusCreated, nil)

	cases := []struct {
		method, path, body string
		status             int
		key, field         string
	}{
		{"POST", "/api/licenses", `{"id":5,"title":"x"}`, 400, "idexists", ""},
		{"POST", "/api/licenses", `{}`, 400, "validation", "title"},
		{"PUT", "/api/licenses/1", `{"title":"x"}`, 400, "idnull", ""},
		{"PUT", "/api/licenses/1", `{"id":2,"title":"x"}`, 400, "idinvalid", ""},
		{"PUT", "/api/licenses/9", `{"id":9,"title":"x"}`, 404, "idnotfound", ""},
		{"PATCH", "/api/licenses/1", `{"title":"x"}`, 400, "idnull", ""},
		{"PATCH", "/api/licenses/1", `{"id":2,"title":"x"}`, 400, "idinvalid", ""},
		{"PATCH", "/api/licenses/9", `{"id":9,"title":"x"}`, 404, "idnotfound", ""},
		{"DELETE", "/api/licenses/9", ``, 404, "idnotfound", ""},
		{"POST", "/api/explains", `{"answer":"Q7"}`, 400, "validation", "answer"},
		{"POST", "/api/exams", `{"title":"t","effective_date":"2024-01-01","license_id":77}`, 400, "validation", "license_id"},
		{"POST", "/api/licenses", `{`, 400, "badjson", ""},
	}
	for _, tc := range cases {
		resp, b := c.do(tc.method, tc.path, "application/json", tc.body)
		if resp.StatusCode != tc.status {
			t.Errorf("%s %s %s: status %d want %d", tc.method, tc.path, tc.body, resp.StatusCode, tc.status)
			continue
		}
		var p problem
		if err := json.Unmarshal(b, &p); err != nil {
			t.Errorf("%s %s: body %s: %v", tc.method, tc.path, b, err)
			continue
		}
		if p.ErrorKey != tc.key || p.Field != tc.field {
			t.Errorf("%s %s %s: got %+v", tc.method, tc.path, tc.body, p)
		}
	}

	var l bank.License
	c.json("GET", "/api/licenses/1", "", http.StatusOK, &l)
	if l.Title != "Driver" {
		t.Fatalf("failed calls changed the license: %+v", l)
	}
}

func TestAssociationRoutes(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, base: srv.URL}

	c.json("POST", "/api/exams", `{"title":"E","effective_date":"2024-01-01"}`, http.StatusCreated, nil)
	c.json("POST", "/api/quizzes", `{"code":"a","question":"q"}`, http.StatusCreated, nil)
	c.json("POST", "/api/quizzes", `{"code":"b","question":"q"}`, http.StatusCreated, nil)

	var exam bank.Exam
	c.json("PUT", "/api/exams/1/quizzes", `{"ids":[1,2]}`, http.StatusOK, &exam)
	if len(exam.Quizzes) != 2 {
		t.Fatalf("replace: %+v", exam)
	}
	c.json("DELETE", "/api/exams/1/quizzes/1", "", http.StatusOK, &exam)
	if len(exam.Quizzes) != 1 || exam.Quizzes[0].ID != 2 {
		t.Fatalf("remove: %+v", exam.Quizzes)
	}

	var members []bank.Quiz
	c.json("GET", "/api/exams/1/quizzes", "", http.StatusOK, &members)
	if len(members) != 1 || members[0].ID != 2 {
		t.Fatalf("members: %+v", members)
	}

	c.json("POST", "/api/exams/1/quizzes/1", "", http.StatusOK, &exam)
	c.json("POST", "/api/exams/1/quizzes/9", "", http.StatusNotFound, nil)
	c.json("GET", "/api/exams/4/quizzes", "", http.StatusNotFound, nil)

	var q bank.Quiz
	c.json("GET", "/api/quizzes/1", "", http.StatusOK, &q)
	if q.ExamID == nil || *q.ExamID != 1 || q.Exam == nil {
		t.Fatalf("quiz after add: %+v", q)
	}

	var evs []map[string]any
	c.json("GET", "/api/events?after=3", "", http.StatusOK, &evs)
	if len(evs) != 3 || evs[0]["type"] != "ExamQuizzesReplaced" {
		t.Fatalf("events: %+v", evs)
	}
}

func TestAuthEnabled(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, Options{
		Auth: auth.NewAuthService("k"),
		Accounts: []auth.Account{
			{Username: "viewer", PassHash: string(hash), Role: "viewer"},
			{Username: "editor", PassHash: string(hash), Role: "editor"},
		},
	})
	anon := client{t: t, base: srv.URL}
	anon.json("GET", "/api/agencies", "", http.StatusUnauthorized, nil)

	login := func(user string) client {
		var out map[string]string
		anon.json("POST", "/auth/login", `{"username":"`+user+`","password":"pw"}`, http.StatusOK, &out)
		return client{t: t, base: srv.URL, token: out["access_token"]}
	}
	viewer, editor := login("viewer"), login("editor")

	viewer.json("POST", "/api/agencies", `{"name":"A"}`, http.StatusForbidden, nil)
	editor.json("POST", "/api/agencies", `{"name":"A"}`, http.StatusCreated, nil)
	viewer.json("GET", "/api/agencies/1", "", http.StatusOK, nil)
	editor.json("GET", "/api/events", "", http.StatusForbidden, nil)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	c := client{t: t, base: srv.URL}
	for _, p := range []string{"/healthz", "/readyz"} {
		if resp, _ := c.do("GET", p, "", ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: %d", p, resp.StatusCode)
		}
	}
}
