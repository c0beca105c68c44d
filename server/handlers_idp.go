package server

import (
	"html/template"
	"net/http"
	"net/url"
	"slices"

	"github.com/jrsteele09/workbench-session/pkce"
	"github.com/rs/zerolog/log"
)

var signedOutPage = template.Must(template.New("signed-out").Parse(`<!DOCTYPE html>
<html><head><title>{{.AppName}}</title></head>
<body><h1>Signed out of {{.AppName}}</h1><p>You can close this window.</p></body></html>
`))

// Authorize is the stand-in identity provider's authorize endpoint. It
// signs in the user named by login_hint (or the first directory user)
// without a prompt and redirects back with code and state.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		redirectURI := q.Get("redirect_uri")
		if !slices.Contains(s.redirectURLs, redirectURI) {
			// Never redirect to an unregistered URI.
			http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
			return
		}
		redirect, err := url.Parse(redirectURI)
		if err != nil {
			http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
			return
		}

		state := q.Get("state")
		fail := func(code, description string) {
			params := redirect.Query()
			params.Set("error", code)
			params.Set("error_description", description)
			if state != "" {
				params.Set("state", state)
			}
			redirect.RawQuery = params.Encode()
			http.Redirect(w, r, redirect.String(), http.StatusSeeOther)
		}

		if q.Get("response_type") != "code" {
			fail("unsupported_response_type", "only the code flow is supported")
			return
		}
		if q.Get("client_id") != clientID {
			fail("unauthorized_client", "unknown client")
			return
		}
		challenge := q.Get("code_challenge")
		method := q.Get("code_challenge_method")
		if method == "" {
			method = pkce.MethodS256
		}
		if challenge == "" || method != pkce.MethodS256 {
			fail("invalid_request", "S256 code_challenge required")
			return
		}

		user, ok := findUser(s.users, q.Get("login_hint"))
		if !ok {
			fail("access_denied", "unknown user")
			return
		}

		code, err := s.issueCode(user, challenge, method, redirectURI)
		if err != nil {
			log.Err(err).Msg("authorize: issue code")
			fail("server_error", "could not issue code")
			return
		}

		params := redirect.Query()
		params.Set("code", code)
		params.Set("state", state)
		redirect.RawQuery = params.Encode()
		http.Redirect(w, r, redirect.String(), http.StatusSeeOther)
	}
}

// IDPLogout is the identity provider's logout landing page.
func (s *Server) IDPLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeHTML)
		if err := signedOutPage.Execute(w, map[string]string{"AppName": s.config.GetAppName()}); err != nil {
			log.Err(err).Msg("render signed out page")
		}
	}
}
