package internalhttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/Neamul01/breeze-time-server/internal/app"
	"github.com/Neamul01/breeze-time-server/internal/auth"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Host string
	Port int
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

type Server struct {
	srv    *http.Server
	addr   string
	app    *app.App
	tokens *auth.Tokens
	ws     http.Handler
}

// NewServer builds the REST server. ws serves the websocket endpoint; it may be nil.
func NewServer(config Config, app *app.App, tokens *auth.Tokens, ws http.Handler) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr:   addr,
		srv:    &http.Server{Addr: addr},
		app:    app,
		tokens: tokens,
		ws:     ws,
	}
}

// Handler registers the API routes on mux and wraps it with the middleware chain.
func (s *Server) Handler(mux *runtime.ServeMux) (http.Handler, error) {
	if mux == nil {
		mux = runtime.NewServeMux()
	}

	routes := []route{
		{http.MethodGet, "/", s.root},
		{http.MethodGet, "/users", s.authorized(s.listUsers)},
		{http.MethodPost, "/users", s.createUser},
		{http.MethodPut, "/users/admin/{email}", s.authorized(s.makeAdmin)},
		{http.MethodGet, "/admin/{email}", s.authorized(s.isAdmin)},
		{http.MethodPut, "/users/{email}", s.upsertUser},
		{http.MethodGet, "/events", s.listEvents},
		{http.MethodPost, "/events", s.createEvent},
		{http.MethodGet, "/event/{id}", s.getEvent},
		{http.MethodPut, "/event/{id}", s.updateEvent},
		{http.MethodDelete, "/event/{id}", s.removeEvent},
		{http.MethodGet, "/notifications", s.listNotifications},
		{http.MethodGet, "/professionals", s.listProfessionals},
		{http.MethodPost, "/professionals", s.authorized(s.createProfessional)},
		{http.MethodGet, "/professionals/{id}", s.getProfessional},
		{http.MethodGet, "/packages", s.listPackages},
		{http.MethodPost, "/packages", s.authorized(s.createPackage)},
	}
	if s.ws != nil {
		routes = append(routes, route{http.MethodGet, "/ws", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			s.ws.ServeHTTP(w, r)
		}})
	}

	for _, rt := range routes {
		if err := mux.HandlePath(rt.method, rt.pattern, rt.handler); err != nil {
			return nil, fmt.Errorf("failed to register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	return corsMiddleware(loggingMiddleware(mux)), nil
}

func (s *Server) Start(_ context.Context, mux *runtime.ServeMux) error {
	handler, err := s.Handler(mux)
	if err != nil {
		return err
	}
	s.srv.Handler = handler

	log.Printf("starting http server on %s", s.addr)
	err = s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type authorizedHandler func(w http.ResponseWriter, r *http.Request, params map[string]string, email string)

// authorized requires a valid bearer token and passes its email on.
func (s *Server) authorized(next authorizedHandler) runtime.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		email, err := s.tokens.FromRequest(r)
		if err != nil {
			log.WithField("path", r.URL.Path).Debugf("request rejected: %v", err)
			writeError(w, err)
			return
		}
		next(w, r, params, email)
	}
}
