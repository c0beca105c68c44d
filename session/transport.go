package session

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// maxReplays is how many times one call may be resubmitted after a refresh.
const maxReplays = 1

const refreshKey = "refresh"

// Transport wraps base with the refresh interceptor. A call answered with
// 401 triggers one refresh and one replay with the new bearer token; a
// second 401 fails the call with ErrRefreshExhausted. Other statuses are
// returned as they are.
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &refreshTransport{m: m, base: base}
}

// HTTPClient returns a copy of base (or a zero client) whose transport is
// wrapped by Transport.
func (m *Manager) HTTPClient(base *http.Client) *http.Client {
	c := &http.Client{}
	if base != nil {
		*c = *base
	}
	c.Transport = m.Transport(c.Transport)
	return c
}

// Refresh obtains a new bearer token from the coordination service and
// stores it. With coalescing enabled, concurrent callers share one request.
func (m *Manager) Refresh(ctx context.Context) (*Record, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if !m.coalesce {
		return m.refresh(ctx)
	}

	// The shared refresh outlives any one caller; each caller stops waiting
	// when its own context ends.
	ch := m.refreshGroup.DoChan(refreshKey, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), authapi.DefaultTimeout)
		defer cancel()
		return m.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "[Manager.Refresh]")
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			log.Debug().Msg("joined in-flight refresh")
		}
		return res.Val.(*Record), nil
	}
}

func (m *Manager) refresh(ctx context.Context) (*Record, error) {
	csrf, err := m.optional(store.KeyAPICSRFToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] get csrf token")
	}

	gen := m.sessionGen.Load()
	m.refreshes.Add(1)
	resp, err := m.api.Refresh(ctx, csrf)
	if err != nil {
		if authapi.IsUnauthorized(err) {
			log.Warn().Msg("refresh rejected, sign in again")
			// pkg/errors wraps a single cause.
			return nil, fmt.Errorf("[Manager.Refresh] %w: %w", ErrRefreshExhausted, err)
		}
		log.Err(err).Msg("refresh failed")
		return nil, errors.Wrap(err, "[Manager.Refresh]")
	}

	m.flowMu.Lock()
	defer m.flowMu.Unlock()
	if m.sessionGen.Load() != gen {
		log.Debug().Msg("session replaced during refresh, discarding token")
		return nil, errors.Wrap(ErrNotAuthenticated, "[Manager.Refresh] session ended during refresh")
	}
	if err := m.store.Put(store.KeySessionToken, resp.BearerToken); err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] persist session token")
	}
	log.Debug().Msg("session token refreshed")
	return &Record{BearerToken: resp.BearerToken, CSRFToken: csrf}, nil
}

type refreshTransport struct {
	m    *Manager
	base http.RoundTripper
}

// call is one outbound request and the number of times it has been
// replayed. It is passed by value; replayed returns a new call.
type call struct {
	req     *http.Request
	body    []byte
	replays int
}

func (c call) replayed() call {
	c.replays++
	return c
}

func (t *refreshTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := readBody(req)
	if err != nil {
		return nil, err
	}
	if t.m.closed.Load() {
		return nil, ErrClosed
	}
	return t.send(call{req: req, body: body})
}

func (t *refreshTransport) send(c call) (*http.Response, error) {
	out, err := t.prepare(c)
	if err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	if c.replays >= maxReplays {
		log.Warn().Str("method", c.req.Method).Str("path", c.req.URL.Path).Msg("still unauthorized after refresh")
		// Both sentinels must match; pkg/errors wraps a single cause.
		return nil, fmt.Errorf("[session.Transport] %s %s: %w: %w",
			c.req.Method, c.req.URL.Path, ErrRefreshExhausted, ErrAuthorizationExpired)
	}

	log.Debug().Str("method", c.req.Method).Str("path", c.req.URL.Path).Msg("unauthorized, refreshing session")
	if _, err := t.m.Refresh(c.req.Context()); err != nil {
		return nil, err
	}
	return t.send(c.replayed())
}

// prepare clones the original request with a fresh body and the current
// credentials.
func (t *refreshTransport) prepare(c call) (*http.Request, error) {
	out := c.req.Clone(c.req.Context())
	if c.body != nil {
		out.Body = io.NopCloser(bytes.NewReader(c.body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(c.body)), nil
		}
		out.ContentLength = int64(len(c.body))
	}

	rec, err := t.m.Session()
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return out, nil
	case err != nil:
		return nil, err
	}

	rec.Token().SetAuthHeader(out)
	if rec.CSRFToken != "" {
		out.Header.Set(t.m.csrfHeader, rec.CSRFToken)
	}
	return out, nil
}

// readBody buffers and closes the request body so it can be replayed.
func readBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, errors.Wrap(err, "[session.Transport] buffer request body")
	}
	return body, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
