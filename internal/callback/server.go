// Package callback runs the loopback HTTP server that receives the identity
// provider's redirect during a command line login.
package callback

import (
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Path is the route the identity provider redirects back to.
const Path = "/callback"

// DefaultTimeout is how long Wait blocks for the redirect by default.
const DefaultTimeout = 10 * time.Minute

//go:embed templates/success.html
var successHTML string

//go:embed templates/error.html
var errorHTML string

var (
	successPage = template.Must(template.New("success").Parse(successHTML))
	errorPage   = template.Must(template.New("error").Parse(errorHTML))
)

// shutdownDelay gives the browser time to receive the result page.
var shutdownDelay = time.Second

// ErrAlreadyHandled is returned to repeat requests once a redirect has been
// processed.
var ErrAlreadyHandled = errors.New("callback already processed")

// HandlerFunc completes the login for the absolute callback URL.
type HandlerFunc func(ctx context.Context, callbackURL *url.URL) error

// Server is a one shot loopback server. It serves a single authorization
// response, hands it to the handler, then shuts itself down.
type Server struct {
	appName  string
	port     int
	handler  HandlerFunc
	server   *http.Server
	listener net.Listener
	doneCh   chan error
	once     sync.Once
	stopOnce sync.Once
}

// NewServer creates a server for the given port. Port 0 picks a free port.
func NewServer(appName string, port int, handler HandlerFunc) *Server {
	return &Server{
		appName: appName,
		port:    port,
		handler: handler,
		doneCh:  make(chan error, 1),
	}
}

// Start listens on 127.0.0.1 and returns the redirect URI. The server stops
// when ctx is cancelled.
func (s *Server) Start(ctx context.Context) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", errors.Wrapf(err, "[callback.Start] listen on %s", addr)
	}
	s.listener = listener
	s.port = listener.Addr().(*net.TCPAddr).Port

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+Path, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.finish(errors.Wrap(err, "[callback.Serve]"))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	log.Debug().Int("port", s.port).Msg("callback server listening")
	return s.RedirectURI(), nil
}

// Wait blocks until a redirect has been handled and returns the handler's
// error.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case err := <-s.doneCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RedirectURI returns the URI registered with the identity provider.
func (s *Server) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", s.port, Path)
}

// Port returns the port the server listens on.
func (s *Server) Port() int {
	return s.port
}

// Stop shuts the server down. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.server == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	})
}

func (s *Server) finish(err error) {
	select {
	case s.doneCh <- err:
	default:
	}
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("code") && !q.Has("error") {
		http.Error(w, "not an authorization response", http.StatusBadRequest)
		return
	}

	handled := false
	s.once.Do(func() {
		handled = true
		s.processCallback(w, r)
	})
	if !handled {
		http.Error(w, ErrAlreadyHandled.Error(), http.StatusBadRequest)
	}
}

func (s *Server) processCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	callbackURL := &url.URL{
		Scheme:   "http",
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
	err := s.handler(r.Context(), callbackURL)

	data := map[string]string{"AppName": s.appName}
	page := successPage
	status := http.StatusOK
	if err != nil {
		page = errorPage
		status = http.StatusBadRequest
		data["Error"] = err.Error()
	}
	w.WriteHeader(status)
	if renderErr := page.Execute(w, data); renderErr != nil {
		log.Err(renderErr).Msg("render callback page")
	}

	s.finish(err)
	time.AfterFunc(shutdownDelay, s.Stop)
}
