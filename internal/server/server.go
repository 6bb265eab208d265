package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/vocabs/internal/config"
	"github.com/aleksaelezovic/vocabs/pkg/vocab"
)

const shutdownTimeout = 10 * time.Second

// Server is the vocabulary editor's HTTP front end.
type Server struct {
	cfg       config.ServerConfig
	svc       *vocab.Service
	logger    *zap.Logger
	metrics   *Metrics
	sessions  sessions.Store
	templates map[string]*template.Template
	handler   http.Handler
}

// NewServer wires the router, templates, sessions and metrics.
func NewServer(cfg config.ServerConfig, sessionSecret string, svc *vocab.Service, logger *zap.Logger) (*Server, error) {
	logger = logger.Named("http")

	templates, err := parseTemplates(svc.Namespaces())
	if err != nil {
		return nil, err
	}
	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		svc:       svc,
		logger:    logger,
		metrics:   metrics,
		sessions:  newSessionStore(sessionSecret, cfg.SecureCookies, logger),
		templates: templates,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(s.metrics.Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.csrf(s.cfg.CSRFEnabled))

		r.Get("/prefixes", s.handlePrefixes)

		r.Get("/", s.handleListVocabularies)
		r.Post("/", s.handleCreateVocabulary)
		r.Get("/vocabulary/{id}", s.handleShowVocabulary)
		r.Post("/vocabulary/{id}", s.handleAddTerm)
		r.Get("/vocabulary/{id}/graph", s.handleExportGraph)
		r.Post("/vocabulary/{id}/graph", s.handleImportGraph)

		r.Get("/term/{id}", s.handleShowTerm)
		r.Delete("/term/{id}", s.handleDeleteTerm)

		r.Get("/property/new", s.handleNewProperty)
		r.Post("/property/new", s.handleCreateProperty)
		r.Get("/property/{id}", s.handleShowProperty)
		r.Delete("/property/{id}", s.handleDeleteProperty)
		r.Get("/property/{id}/edit", s.handleEditProperty)
		r.Post("/property/{id}/edit", s.handleUpdateProperty)

		r.Get("/predicates", s.handleListPredicates)
		r.Post("/predicates", s.handleCreatePredicate)
	})

	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", "http://"+server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok")) // #nosec G104 - client went away
}
