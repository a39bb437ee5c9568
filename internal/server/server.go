// Package server sets up the HTTP router, middleware, and request handlers.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edumagic/edumagic/internal/config"
	"github.com/edumagic/edumagic/internal/imagegen"
	"github.com/edumagic/edumagic/internal/keys"
	"github.com/edumagic/edumagic/internal/lesson"
	"github.com/edumagic/edumagic/internal/store"
)

// Server holds the HTTP router and all dependencies that handlers need.
type Server struct {
	router    chi.Router
	cfg       *config.Config
	generator *lesson.Generator
	assistant *lesson.Assistant
	images    *imagegen.Gateway
	store     *store.Store
	resolver  *keys.Resolver
}

// New creates a Server, wires up routes and middleware, and returns it
// ready to use as an http.Handler.
func New(cfg *config.Config, gen *lesson.Generator, asst *lesson.Assistant, images *imagegen.Gateway, st *store.Store, resolver *keys.Resolver) *Server {
	s := &Server{
		cfg:       cfg,
		generator: gen,
		assistant: asst,
		images:    images,
		store:     st,
		resolver:  resolver,
	}
	s.routes()
	return s
}

// routes builds the chi router with all middleware and route definitions.
func (s *Server) routes() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Everything under /api belongs to an authenticated student.
	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		r.Post("/ai", s.handleGenerateLesson)
		r.Post("/ai/chat", s.handleChat)
		r.Post("/generate-image", s.handleGenerateImage)

		r.Get("/lessons", s.handleListLessons)
		r.Get("/lessons/{id}", s.handleGetLesson)
		r.Post("/lessons/{id}/update-image", s.handleUpdateLessonImage)

		r.Get("/progress", s.handleGetProgress)
		r.Post("/progress", s.handleRecordProgress)

		r.Get("/keys", s.handleListKeys)
	})

	s.router = r
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
