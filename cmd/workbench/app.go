package main

import (
	"io"
	"net/http"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/internal/browser"
	"github.com/jrsteele09/workbench-session/internal/config"
	"github.com/jrsteele09/workbench-session/internal/storage"
	"github.com/jrsteele09/workbench-session/session"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/pkg/errors"
)

// app holds the collaborators every session command needs.
type app struct {
	cfg     config.Config
	manager *session.Manager
}

func newApp() (*app, error) {
	cfg := config.New()

	s, err := storage.Open(cfg)
	if err != nil {
		return nil, err
	}

	m, err := newManager(cfg, s)
	if err != nil {
		if c, ok := s.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return &app{cfg: cfg, manager: m}, nil
}

func newManager(cfg config.Config, s store.Store) (*session.Manager, error) {
	// The refresh endpoint is bound to a service cookie, so the cookies are
	// kept next to the session token.
	jar, err := authapi.NewPersistentJar(s, cfg.GetAuthBaseURL())
	if err != nil {
		return nil, err
	}

	api, err := authapi.NewClient(cfg.GetAuthBaseURL(),
		authapi.WithCookieJar(jar),
		authapi.WithHTTPClient(&http.Client{Timeout: cfg.GetHTTPTimeout()}),
		authapi.WithPaths(authapi.Paths{
			Login:   cfg.GetLoginPath(),
			Token:   cfg.GetTokenPath(),
			Refresh: cfg.GetRefreshPath(),
			Logout:  cfg.GetLogoutPath(),
		}),
		authapi.WithCSRFHeader(cfg.GetCSRFHeader()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create auth client")
	}

	m, err := session.New(s, api, browser.New(),
		session.WithVerifierLength(cfg.GetVerifierLength()),
		session.WithLandingURL(cfg.GetLandingURL()),
		session.WithCSRFHeader(cfg.GetCSRFHeader()),
		session.WithCoalescedRefresh(cfg.GetCoalesceRefresh()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create session manager")
	}
	return m, nil
}

func (a *app) Close() error {
	return a.manager.Close()
}
