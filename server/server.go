// Package server exposes the platform's HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/skillsync/skillsync-server/auth"
	"github.com/skillsync/skillsync-server/availability"
	"github.com/skillsync/skillsync-server/internal/config"
	"github.com/skillsync/skillsync-server/skills"
	"github.com/skillsync/skillsync-server/token"
	"github.com/skillsync/skillsync-server/users"
)

// Deps holds the services the server routes requests to.
type Deps struct {
	Auth         *auth.Service
	Availability *availability.Service
	Skills       *skills.Service
	Users        users.Repo
	Codec        *token.Codec
}

type Server struct {
	router       chi.Router
	config       config.Config
	logger       zerolog.Logger
	authService  *auth.Service
	availability *availability.Service
	skills       *skills.Service
	users        users.Repo
	codec        *token.Codec
}

func New(cfg config.Config, deps Deps, logger zerolog.Logger) (*Server, error) {
	if deps.Auth == nil {
		return nil, errors.New("[server.New] nil auth service")
	}
	if deps.Availability == nil {
		return nil, errors.New("[server.New] nil availability service")
	}
	if deps.Skills == nil {
		return nil, errors.New("[server.New] nil skills service")
	}
	if deps.Users == nil {
		return nil, errors.New("[server.New] nil users repo")
	}
	if deps.Codec == nil {
		return nil, errors.New("[server.New] nil token codec")
	}

	s := &Server{
		config:       cfg,
		logger:       logger.With().Str("component", "http").Logger(),
		authService:  deps.Auth,
		availability: deps.Availability,
		skills:       deps.Skills,
		users:        deps.Users,
		codec:        deps.Codec,
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(s.recoverMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.GetAllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.Post("/forgot-password", s.handleForgotPassword)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/reset-password", s.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)
			r.Get("/sessions", s.handleListSessions)
			r.Post("/sessions/{id}/revoke", s.handleRevokeSession)
			r.Post("/sessions/revoke-all", s.handleRevokeAllSessions)
		})
	})

	r.Route("/availability", func(r chi.Router) {
		r.Get("/mentor/{mentorId}", s.handleListMentorSlots)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)
			r.Post("/", s.handleCreateSlot)
			r.Get("/my-slots", s.handleListMySlots)
			r.Patch("/{id}", s.handleUpdateSlot)
			r.Delete("/{id}", s.handleDeleteSlot)
		})
	})

	r.Get("/skills/search", s.handleSearchSkills)

	r.Route("/tags", func(r chi.Router) {
		r.Use(s.RequireAuth)
		r.Post("/create", s.handleCreateTag)
		r.Post("/assign/{skillId}", s.handleAssignTags)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
