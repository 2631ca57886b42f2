// Package server wires the application together: database, services,
// handlers, routes, the reminder scheduler, and graceful shutdown. It is the
// composition root; main.go only reads configuration and calls New/Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/adampos/medialender/internal/auth"
	"github.com/adampos/medialender/internal/handler"
	"github.com/adampos/medialender/internal/middleware"
	"github.com/adampos/medialender/internal/notify"
	sqliteRepo "github.com/adampos/medialender/internal/repository/sqlite"
	"github.com/adampos/medialender/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	SecureCookies bool

	// SMTP relay for due-date reminders. Host empty → reminders go to the
	// log instead of out the wire.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Local hour (0-23) at which the daily reminder job fires.
	ReminderHour int
}

// Server owns the router, the database connection, and the reminder
// scheduler. The database is closed during graceful shutdown.
type Server struct {
	router    *chi.Mux
	config    Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *notify.Scheduler
}

// New assembles the full dependency chain: database → repositories →
// services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// One sqlite.DB value implements every repository interface.
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	categoryService := service.NewCategoryService(s.db, s.logger)
	personService := service.NewPersonService(s.db, s.logger)
	mediaService := service.NewMediaService(s.db, s.db, s.logger)
	loanService := service.NewLoanService(s.db, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.config.SecureCookies, s.logger)
	categoryHandler := handler.NewCategoryHandler(categoryService, s.logger)
	personHandler := handler.NewPersonHandler(personService, s.logger)
	mediaHandler := handler.NewMediaHandler(mediaService, s.logger)
	loanHandler := handler.NewLoanHandler(loanService, s.logger)

	var mailer notify.Mailer
	if s.config.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(
			s.config.SMTPHost, s.config.SMTPPort,
			s.config.SMTPUsername, s.config.SMTPPassword,
			s.config.SMTPFrom,
		)
	} else {
		s.logger.Warn("SMTP not configured, reminder mails go to the log")
		mailer = notify.NewLogMailer(s.logger)
	}
	s.scheduler = notify.NewScheduler(s.db, mailer, s.logger, s.config.ReminderHour)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
		})

		// Everything below is scoped to the authenticated account.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoryHandler.HandleList)
				r.Post("/", categoryHandler.HandleCreate)
				r.Get("/{id}", categoryHandler.HandleGet)
				r.Put("/{id}", categoryHandler.HandleUpdate)
				r.Delete("/{id}", categoryHandler.HandleDelete)
			})

			r.Route("/persons", func(r chi.Router) {
				r.Get("/", personHandler.HandleList)
				r.Post("/", personHandler.HandleCreate)
				r.Get("/search", personHandler.HandleSearch)
				r.Get("/{id}", personHandler.HandleGet)
				r.Put("/{id}", personHandler.HandleUpdate)
				r.Delete("/{id}", personHandler.HandleDelete)
			})

			r.Route("/media", func(r chi.Router) {
				r.Get("/", mediaHandler.HandleList)
				r.Post("/", mediaHandler.HandleCreate)
				r.Get("/{id}", mediaHandler.HandleGet)
				r.Put("/{id}", mediaHandler.HandleUpdate)
				r.Delete("/{id}", mediaHandler.HandleDelete)
				r.Put("/{id}/favorite", mediaHandler.HandleToggleFavorite)
				r.Post("/{id}/categories/{categoryId}", mediaHandler.HandleAssignCategory)
				r.Delete("/{id}/categories/{categoryId}", mediaHandler.HandleRemoveCategory)
			})

			r.Route("/loans", func(r chi.Router) {
				r.Get("/", loanHandler.HandleList)
				r.Post("/", loanHandler.HandleCreate)
				r.Get("/active", loanHandler.HandleListActive)
				r.Get("/overdue", loanHandler.HandleListOverdue)
				r.Get("/{id}", loanHandler.HandleGet)
				r.Put("/{id}/return", loanHandler.HandleReturn)
			})
		})
	})

	return nil
}

// Start runs the HTTP server and the reminder scheduler until SIGINT or
// SIGTERM, then shuts down: stop accepting connections, drain in-flight
// requests, stop the scheduler, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	schedCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go s.scheduler.Run(schedCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
