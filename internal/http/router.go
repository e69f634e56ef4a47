package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"polls-service/internal/domain/question"
	"polls-service/internal/domain/user"
	"polls-service/internal/domain/vote"
	jwtpkg "polls-service/internal/platform/jwt"
	"polls-service/internal/worker"
)

type Handler struct {
	userSvc     *user.Service
	questionSvc *question.Service
	voteSvc     *vote.Service
	jwtMgr      *jwtpkg.Manager
	tokenTTL    time.Duration
	ballotCh    chan<- worker.BallotEvent
	db          *sql.DB
}

func NewRouter(
	userSvc *user.Service,
	questionSvc *question.Service,
	voteSvc *vote.Service,
	jwtMgr *jwtpkg.Manager,
	tokenTTL time.Duration,
	ballotCh chan<- worker.BallotEvent,
	db *sql.DB,
) http.Handler {
	h := &Handler{
		userSvc:     userSvc,
		questionSvc: questionSvc,
		voteSvc:     voteSvc,
		jwtMgr:      jwtMgr,
		tokenTTL:    tokenTTL,
		ballotCh:    ballotCh,
		db:          db,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(RequestLogger)
	r.Use(CORSMiddleware)

	r.Get("/", http.RedirectHandler("/polls/", http.StatusMovedPermanently).ServeHTTP)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", h.handleReady)
	r.Get("/swagger/*", httpSwagger.WrapHandler)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.With(AuthMiddleware(jwtMgr)).Post("/logout", h.handleLogout)
	})

	r.Route("/polls", func(r chi.Router) {
		r.Use(OptionalAuth(jwtMgr))

		r.Get("/", h.handleIndex)
		r.Get("/{id}", h.handleDetail)
		r.Get("/{id}/results", h.handleResults)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(jwtMgr))

			r.With(RateLimitVotes(rate.Every(time.Minute/10), 3)).Post("/{id}/vote", h.handleVote)

			r.Group(func(r chi.Router) {
				r.Use(RequireRole("admin"))
				r.Post("/", h.handleCreateQuestion)
				r.Delete("/{id}", h.handleDeleteQuestion)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	idStr := chi.URLParam(r, name)
	return strconv.ParseInt(idStr, 10, 64)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":   "db_unavailable",
			"message": "database not ready",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
