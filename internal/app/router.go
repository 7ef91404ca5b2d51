package app

import (
	"database/sql"
	"net/http"
	"time"

	"elearning/internal/app/observability"
	"elearning/internal/auth"
	"elearning/internal/content"
	"elearning/internal/quiz"
	"elearning/internal/report"
	"elearning/internal/score"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", csrfHeaderName},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	metrics := observability.NewCollector(db)
	r.Use(metrics.Middleware)
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	authSvc := auth.NewService(db, auth.ServiceConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   time.Duration(cfg.JWTTTLMinutes) * time.Minute,
		BcryptCost: cfg.BcryptCost,
	})
	authHandler := auth.NewHandler(authSvc)

	quizSvc := quiz.NewService(db)
	quizHandler := quiz.NewHandler(quizSvc)
	quizHandler.OnGraded(metrics.RecordGraded)

	scoreSvc := score.NewService(db)
	scoreHandler := score.NewHandler(scoreSvc)

	contentHandler := content.NewHandler(content.NewService(db))
	reportHandler := report.NewHandler(report.NewService(quizSvc, scoreSvc))

	authLimiter := NewIPRateLimiter(cfg.AuthRateLimitPerMin, time.Minute)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", metrics.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Group(func(public chi.Router) {
			public.Use(RateLimitMiddleware(authLimiter))
			public.Post("/auth/register", authHandler.Register)
			public.Post("/auth/login", authHandler.Login)
		})

		api.Group(func(secure chi.Router) {
			secure.Use(authHandler.RequireAuth)
			secure.Use(observability.TagUser)

			secure.Get("/auth/me", authHandler.Me)
			secure.Post("/auth/logout", authHandler.Logout)

			secure.Get("/lessons", contentHandler.Lessons)
			secure.Get("/lessons/{id}", contentHandler.Lesson)
			secure.Get("/sections/{id}/quizzes", contentHandler.SectionQuizzes)

			secure.Post("/quiz_submission/submit_quiz", quizHandler.Submit)
			secure.Get("/quiz_submission", quizHandler.List)
			secure.Get("/quiz_submission/{id}", quizHandler.Get)

			secure.Post("/scores/compute_score", scoreHandler.Compute)
			secure.Get("/scores", scoreHandler.List)

			secure.Get("/reports/me.xlsx", reportHandler.MyWorkbook)

			secure.Group(func(admin chi.Router) {
				admin.Use(authHandler.RequireRoles(auth.RoleAdmin))
				admin.Post("/admin/content/import", contentHandler.Import)
			})
		})
	})

	return r
}
