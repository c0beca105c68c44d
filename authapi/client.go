package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	DefaultLoginPath   = "/login"
	DefaultTokenPath   = "/token"
	DefaultRefreshPath = "/refresh"
	DefaultLogoutPath  = "/logout"

	DefaultCSRFHeader = "X-CSRF-Token"
	DefaultTimeout    = 30 * time.Second

	maxResponseBytes = 1 << 20
)

// Paths holds the coordination service endpoint paths relative to the base URL.
type Paths struct {
	Login   string
	Token   string
	Refresh string
	Logout  string
}

// DefaultPaths returns the standard endpoint layout.
func DefaultPaths() Paths {
	return Paths{
		Login:   DefaultLoginPath,
		Token:   DefaultTokenPath,
		Refresh: DefaultRefreshPath,
		Logout:  DefaultLogoutPath,
	}
}

// Client talks to the authentication coordination service. The refresh
// endpoint is bound to a server-set cookie, so the underlying http.Client
// always carries a cookie jar.
type Client struct {
	baseURL    string
	paths      Paths
	csrfHeader string
	httpClient *http.Client
	jar        http.CookieJar
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCookieJar sets the jar used when the http.Client has none.
func WithCookieJar(jar http.CookieJar) ClientOption {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithHTTPClient replaces the default http.Client. A client without a jar
// is copied and given one.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithPaths overrides the endpoint paths. Empty fields keep their defaults.
func WithPaths(paths Paths) ClientOption {
	return func(c *Client) {
		if paths.Login != "" {
			c.paths.Login = paths.Login
		}
		if paths.Token != "" {
			c.paths.Token = paths.Token
		}
		if paths.Refresh != "" {
			c.paths.Refresh = paths.Refresh
		}
		if paths.Logout != "" {
			c.paths.Logout = paths.Logout
		}
	}
}

// WithCSRFHeader sets the header name used to send the CSRF token.
func WithCSRFHeader(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.csrfHeader = name
		}
	}
}

// NewClient creates a client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[authapi.NewClient] base URL is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		paths:      DefaultPaths(),
		csrfHeader: DefaultCSRFHeader,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrap(err, "[authapi.NewClient] cookie jar")
		}
		c.jar = jar
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if c.httpClient.Jar == nil {
		hc := *c.httpClient
		hc.Jar = c.jar
		c.httpClient = &hc
	}
	return c, nil
}

// BaseURL returns the service root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CSRFHeader returns the header name the CSRF token is sent under.
func (c *Client) CSRFHeader() string {
	return c.csrfHeader
}

// LoginIntent asks the service for a sign-in URL and a CSRF token.
func (c *Client) LoginIntent(ctx context.Context) (*LoginIntent, error) {
	var intent LoginIntent
	if err := c.post(ctx, c.paths.Login, struct{}{}, nil, &intent); err != nil {
		return nil, err
	}
	if intent.SignInURL == "" {
		return nil, errors.Wrap(ErrInvalidResponse, "[authapi.LoginIntent] missing signInUrl")
	}
	return &intent, nil
}

// ExchangeToken trades an authorization code and its PKCE verifier for a
// bearer token.
func (c *Client) ExchangeToken(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	req := TokenExchangeRequest{Code: code, CodeVerifier: codeVerifier}

	var resp TokenResponse
	if err := c.post(ctx, c.paths.Token, req, nil, &resp); err != nil {
		return nil, err
	}
	if resp.BearerToken == "" {
		return nil, errors.Wrap(ErrInvalidResponse, "[authapi.ExchangeToken] missing bearerToken")
	}
	return &resp, nil
}

// Refresh asks for a new bearer token. The request body is an empty JSON
// object; the service identifies the session by cookie and checks the CSRF
// header.
func (c *Client) Refresh(ctx context.Context, csrfToken string) (*TokenResponse, error) {
	headers := http.Header{}
	if csrfToken != "" {
		headers.Set(c.csrfHeader, csrfToken)
	}

	var resp TokenResponse
	if err := c.post(ctx, c.paths.Refresh, struct{}{}, headers, &resp); err != nil {
		return nil, err
	}
	if resp.BearerToken == "" {
		return nil, errors.Wrap(ErrInvalidResponse, "[authapi.Refresh] missing bearerToken")
	}
	return &resp, nil
}

// LogoutIntent asks the service for the identity provider's logout URL.
// bearerToken and csrfToken are attached when non-empty.
func (c *Client) LogoutIntent(ctx context.Context, bearerToken, csrfToken string) (*LogoutIntent, error) {
	headers := http.Header{}
	if bearerToken != "" {
		headers.Set("Authorization", "Bearer "+bearerToken)
	}
	if csrfToken != "" {
		headers.Set(c.csrfHeader, csrfToken)
	}

	var intent LogoutIntent
	if err := c.post(ctx, c.paths.Logout, struct{}{}, headers, &intent); err != nil {
		return nil, err
	}
	if intent.LogoutURL == "" {
		return nil, errors.Wrap(ErrInvalidResponse, "[authapi.LogoutIntent] missing logoutUrl")
	}
	return &intent, nil
}

// Token wraps a bearer token as an oauth2.Token so it can be attached with
// oauth2.Token.SetAuthHeader.
func (r *TokenResponse) Token() *oauth2.Token {
	return &oauth2.Token{AccessToken: r.BearerToken, TokenType: "Bearer"}
}

func (c *Client) post(ctx context.Context, path string, body any, headers http.Header, out any) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "[authapi.post] encode request for %s", path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, reader)
	if err != nil {
		return errors.Wrapf(err, "[authapi.post] build request for %s", path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("endpoint", path).Msg("coordination service unreachable")
		return errors.Wrapf(ErrNetworkFailure, "[authapi.post] %s: %v", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrapf(ErrNetworkFailure, "[authapi.post] read %s response: %v", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(ErrInvalidResponse, "[authapi.post] decode %s response: %v", path, err)
	}
	return nil
}

// errorMessage pulls a human-readable message out of an error body, which may
// be an OAuth-style error object, a {"message": ...} object or plain text.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error_description", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
				return v.String()
			}
		}
		return ""
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
