package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"wikix/internal/config"
)

type Server struct {
	cfg      config.Config
	renderer Renderer
	router   chi.Router
}

func NewServer(cfg config.Config, renderer Renderer) *Server {
	s := &Server{
		cfg:      cfg,
		renderer: renderer,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(logRequests, stripTrailingSlash)
	s.router.NotFound(s.handle(func(*http.Request) (Result, error) {
		return Result{}, &HTTPError{Status: http.StatusNotFound, Message: "Not Found"}
	}))
	s.router.MethodNotAllowed(s.handle(func(*http.Request) (Result, error) {
		return Result{}, &HTTPError{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}
	}))

	s.router.Get("/", s.handle(s.handleIndex))
	s.router.Get("/search", s.handle(s.handleSearch))
	s.router.Route("/p", func(r chi.Router) {
		r.Get("/", s.handle(s.handlePages))
		r.Get("/{name}", s.handle(s.handlePage))
		r.Post("/{name}", s.handle(s.handleSave))
		r.Post("/{name}/move", s.handle(s.handleMove))
		r.Post("/{name}/delete", s.handle(s.handleDelete))
	})
	s.router.Route("/t", func(r chi.Router) {
		r.Get("/", s.handle(s.handleTags))
		r.Get("/{tag}", s.handle(s.handleTag))
	})
	s.router.Route("/s", func(r chi.Router) {
		r.Get("/", s.handle(s.handleStatics))
		r.Get("/{name}", s.handle(s.handleStatic))
	})
}
