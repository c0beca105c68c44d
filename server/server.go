// Package server is a development stand-in for the authorization
// coordination service and its identity provider. It issues RS256 (or
// HS256) bearer tokens, verifies PKCE on code exchange and binds refresh to
// a cookie, so the session manager can be exercised end to end without a
// cloud tenant.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/workbench-session/internal/config"
	"github.com/jrsteele09/workbench-session/server/authflowrepo"
	"github.com/jrsteele09/workbench-session/server/loginsession"
	"github.com/jrsteele09/workbench-session/server/signing"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const clientID = "workbench"

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config

	issuer        *TokenIssuer
	users         []DevUser
	loginSessions loginsession.Repo
	authCodes     authflowrepo.Repo

	redirectURLs []string
	csrfHeader   string
	nowTimeFunc  func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithUsers replaces the built-in user directory.
func WithUsers(users []DevUser) Option {
	return func(s *Server) {
		s.users = users
	}
}

// WithRedirectURLs sets the redirect URIs the identity provider accepts.
func WithRedirectURLs(urls ...string) Option {
	return func(s *Server) {
		s.redirectURLs = urls
	}
}

// WithNowTime overrides the clock.
func WithNowTime(fn func() time.Time) Option {
	return func(s *Server) {
		s.nowTimeFunc = fn
	}
}

// WithRepos replaces the in-memory repositories.
func WithRepos(sessions loginsession.Repo, codes authflowrepo.Repo) Option {
	return func(s *Server) {
		s.loginSessions = sessions
		s.authCodes = codes
	}
}

func New(cfg config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		env:           cfg.GetEnv(),
		mux:           http.NewServeMux(),
		config:        cfg,
		users:         DefaultDevUsers(),
		loginSessions: loginsession.NewInMemoryLoginSessionRepo(),
		authCodes:     authflowrepo.NewInMemoryRepo(),
		redirectURLs:  []string{cfg.GetRedirectURL()},
		csrfHeader:    cfg.GetCSRFHeader(),
		nowTimeFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(s.redirectURLs) == 0 || s.redirectURLs[0] == "" {
		return nil, errors.New("[Server New] a redirect URL is required")
	}
	if len(s.users) == 0 {
		return nil, errors.New("[Server New] at least one user is required")
	}
	signer, err := signing.New(cfg.GetDevSigningAlg(), cfg.GetDevSigningKey(), cfg.GetDevRSAKeyFile())
	if err != nil {
		return nil, errors.Wrap(err, "[Server New]")
	}
	s.issuer = NewTokenIssuer(signer, cfg.GetAppName(), cfg.GetAccessTokenTTL(), s.nowTimeFunc)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-16s] %s", colourMethod(method), path)
}

// baseURL is the externally visible origin of this server for r.
func baseURL(r *http.Request) string {
	return getScheme(r) + "://" + r.Host
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
