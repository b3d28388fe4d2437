package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-qbank/internal/auth/middleware"
	"github.com/mind-engage/mindengage-qbank/internal/bank"
	"github.com/mind-engage/mindengage-qbank/internal/rbac"
)

type Options struct {
	Bank *bank.Bank

	// Auth enables bearer tokens and /auth/login. When nil every request
	// runs as NoAuthRole.
	Auth       *auth.AuthService
	Accounts   []auth.Account
	NoAuthRole string

	// PublicURL prefixes the Location of created entities, e.g.
	// https://qbank.example. Empty gives root-relative locations.
	PublicURL string

	CORSOrigins    []string
	RequestTimeout time.Duration
	Log            *slog.Logger
}

func NewRouter(o Options) chi.Router {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 30 * time.Second
	}
	if o.NoAuthRole == "" {
		o.NoAuthRole = "admin"
	}
	o.PublicURL = strings.TrimSuffix(o.PublicURL, "/")
	log := o.Log.With("component", "http")

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(o.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if o.Auth != nil {
		r.Post("/auth/login", auth.LoginHandler(o.Auth, o.Accounts))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := o.Bank.Ping(r.Context()); err != nil {
			log.WarnContext(r.Context(), "not ready", "err", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	b := o.Bank
	r.Route("/api", func(api chi.Router) {
		if o.Auth != nil {
			api.Use(auth.JWTMiddleware(o.Auth))
		} else {
			api.Use(rbac.AssumeRole(o.NoAuthRole))
		}

		mountEntity(api, "/agencies", entityHandlers[bank.Agency, bank.AgencyPatch]{
			svc: b.Agencies, base: o.PublicURL + "/api/agencies", id: func(a *bank.Agency) int64 { return a.ID }, log: log,
		}, func(ir chi.Router) {
			mountAssociation(ir, "exams", b.AgencyExams, log)
		})
		mountEntity(api, "/licenses", entityHandlers[bank.License, bank.LicensePatch]{
			svc: b.Licenses, base: o.PublicURL + "/api/licenses", id: func(l *bank.License) int64 { return l.ID }, log: log,
		}, func(ir chi.Router) {
			mountAssociation(ir, "exams", b.LicenseExams, log)
		})
		mountEntity(api, "/exams", entityHandlers[bank.Exam, bank.ExamPatch]{
			svc: b.Exams, base: o.PublicURL + "/api/exams", id: func(e *bank.Exam) int64 { return e.ID }, log: log,
		}, func(ir chi.Router) {
			mountAssociation(ir, "quizzes", b.ExamQuizzes, log)
		})
		mountEntity(api, "/quizzes", entityHandlers[bank.Quiz, bank.QuizPatch]{
			svc: b.Quizzes, base: o.PublicURL + "/api/quizzes", id: func(q *bank.Quiz) int64 { return q.ID }, log: log,
		}, func(ir chi.Router) {
			mountAssociation(ir, "explains", b.QuizExplains, log)
		})
		mountEntity(api, "/explains", entityHandlers[bank.Explain, bank.ExplainPatch]{
			svc: b.Explains, base: o.PublicURL + "/api/explains", id: func(x *bank.Explain) int64 { return x.ID }, log: log,
		}, nil)

		api.With(rbac.Require(rbac.PermEventsRead)).Get("/events", eventsHandler(b, log))
	})

	return r
}

// GET /api/events?after=0&limit=100
func eventsHandler(b *bank.Bank, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, _ := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
		evs, err := b.Events(r.Context(), after, limit)
		if err != nil {
			respondError(log, w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, evs)
	}
}
