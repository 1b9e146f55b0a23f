// Package http exposes the REST API: authentication, expenses,
// categories, budgets and recurring templates.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"outlay/internal/cache"
	"outlay/internal/core"
	applog "outlay/internal/log"
	"outlay/internal/middleware/ratelimit"
	"outlay/internal/middleware/security"
	"outlay/internal/services"
	"outlay/internal/storage"
)

type Server struct {
	http.Server

	repo      *storage.SQLiteRepository
	expenses  *services.ExpenseService
	generator *services.Generator

	jwtSecret []byte
	jwtTTL    time.Duration

	authLimiter *ratelimit.Limiter

	// Categories are seeded by migration and effectively static, so
	// one cache entry absorbs nearly all reads.
	categoryCache *cache.LRU[[]core.Category]
}

type Options struct {
	Addr      string
	JWTSecret string
	JWTTTL    time.Duration
}

func NewServer(opts Options, repo *storage.SQLiteRepository, expenses *services.ExpenseService, generator *services.Generator) *Server {
	s := &Server{
		repo:          repo,
		expenses:      expenses,
		generator:     generator,
		jwtSecret:     []byte(opts.JWTSecret),
		jwtTTL:        opts.JWTTTL,
		authLimiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: 20}),
		categoryCache: cache.NewLRU[[]core.Category](1, 10*time.Minute),
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(applog.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.authLimiter.Middleware)
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/categories", s.handleListCategories)

			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", s.handleListExpenses)
				r.Post("/", s.handleCreateExpense)
				r.Get("/{id}", s.handleGetExpense)
				r.Put("/{id}", s.handleUpdateExpense)
				r.Delete("/{id}", s.handleDeleteExpense)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", s.handleListBudgets)
				r.Post("/", s.handleCreateBudget)
				r.Put("/{id}", s.handleUpdateBudget)
				r.Delete("/{id}", s.handleDeleteBudget)
			})

			r.Route("/recurring", func(r chi.Router) {
				r.Get("/", s.handleListTemplates)
				r.Post("/", s.handleCreateTemplate)
				r.Post("/generate", s.handleGenerate)
				r.Get("/preview", s.handlePreview)
				r.Get("/{id}", s.handleGetTemplate)
				r.Put("/{id}", s.handleUpdateTemplate)
				r.Delete("/{id}", s.handleDeleteTemplate)
			})
		})
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Shutdown stops the HTTP server and the limiter's cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	s.authLimiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
