package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/jrsteele09/workbench-session/authapi"
	"github.com/jrsteele09/workbench-session/pkce"
	"github.com/jrsteele09/workbench-session/server/authflowrepo"
	"github.com/jrsteele09/workbench-session/server/loginsession"
	"github.com/jrsteele09/workbench-session/users"
	"github.com/rs/zerolog/log"
)

// Login starts a login: it opens a pending server session bound to a cookie
// and returns the identity provider URL with placeholders for the PKCE
// challenge and state, plus the CSRF token for later calls.
func (s *Server) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := generateRandomString(32)
		if err != nil {
			log.Err(err).Msg("login: session id")
			writeJSONError(w, "server_error", "could not start login", http.StatusInternalServerError)
			return
		}
		csrf, err := generateRandomString(32)
		if err != nil {
			log.Err(err).Msg("login: csrf token")
			writeJSONError(w, "server_error", "could not start login", http.StatusInternalServerError)
			return
		}

		now := s.nowTimeFunc()
		pending := loginsession.Session{
			CSRFToken: csrf,
			CreatedAt: now,
			ExpiresAt: now.Add(s.config.GetAuthCodeTTL() + s.config.GetSessionTTL()),
		}
		if err := s.loginSessions.Upsert(sessionID, pending); err != nil {
			log.Err(err).Msg("login: store session")
			writeJSONError(w, "server_error", "could not start login", http.StatusInternalServerError)
			return
		}
		s.setSessionCookie(w, r, sessionID, int(s.config.GetSessionTTL().Seconds()))

		writeJSON(w, http.StatusOK, authapi.LoginIntent{
			SignInURL: s.signInURL(r),
			CSRFToken: csrf,
		})
	}
}

func (s *Server) signInURL(r *http.Request) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", s.redirectURLs[0])
	q.Set("code_challenge_method", pkce.MethodS256)
	q.Set("scope", "openid email profile")

	// Placeholders are appended raw so the client can substitute them.
	return baseURL(r) + RouteIDPAuthorize + "?" + q.Encode() +
		"&code_challenge=" + authapi.PlaceholderCodeChallenge +
		"&state=" + authapi.PlaceholderState
}

// Token exchanges an authorization code and PKCE verifier for a bearer
// token, completing the cookie-bound server session.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.TokenExchangeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "body must be JSON", http.StatusBadRequest)
			return
		}
		if req.Code == "" || req.CodeVerifier == "" {
			writeJSONError(w, "invalid_request", "code and codeVerifier are required", http.StatusBadRequest)
			return
		}

		flow, err := s.authCodes.Take(req.Code)
		if err != nil {
			writeJSONError(w, "invalid_grant", "unknown or used authorization code", http.StatusBadRequest)
			return
		}
		now := s.nowTimeFunc()
		if flow.Expired(now, s.config.GetAuthCodeTTL()) {
			writeJSONError(w, "invalid_grant", "authorization code expired", http.StatusBadRequest)
			return
		}
		if !pkce.Verify(req.CodeVerifier, flow.CodeChallenge) {
			writeJSONError(w, "invalid_grant", "code verifier does not match challenge", http.StatusBadRequest)
			return
		}

		user, ok := s.userByID(flow.Subject)
		if !ok {
			writeJSONError(w, "invalid_grant", "unknown user", http.StatusBadRequest)
			return
		}

		sessionID, sess, err := s.sessionFromCookie(r)
		if err != nil {
			writeJSONError(w, "invalid_request", "no login in progress", http.StatusBadRequest)
			return
		}
		sess.Subject = user.ID
		sess.ExpiresAt = now.Add(s.config.GetSessionTTL())
		if err := s.loginSessions.Upsert(sessionID, sess); err != nil {
			log.Err(err).Msg("token: store session")
			writeJSONError(w, "server_error", "could not store session", http.StatusInternalServerError)
			return
		}

		s.writeBearer(w, user)
	}
}

// Refresh issues a new bearer token for the session the cookie points at.
// The CSRF header must match the token handed out at login.
func (s *Server) Refresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, sess, err := s.sessionFromCookie(r)
		if err != nil || !sess.Authenticated(s.nowTimeFunc()) {
			writeJSONError(w, "invalid_session", "session expired, sign in again", http.StatusUnauthorized)
			return
		}
		if !s.checkCSRF(r, sess) {
			writeJSONError(w, "csrf_mismatch", "missing or invalid CSRF token", http.StatusForbidden)
			return
		}

		user, ok := s.userByID(sess.Subject)
		if !ok {
			writeJSONError(w, "invalid_session", "unknown user", http.StatusUnauthorized)
			return
		}
		s.writeBearer(w, user)
	}
}

// Logout ends the server session, if any, and returns the identity
// provider's logout URL.
func (s *Server) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, sess, err := s.sessionFromCookie(r)
		switch {
		case errors.Is(err, loginsession.ErrNotFound):
		case err != nil:
			log.Err(err).Msg("logout: load session")
			writeJSONError(w, "server_error", "could not load session", http.StatusInternalServerError)
			return
		default:
			if !s.checkCSRF(r, sess) {
				writeJSONError(w, "csrf_mismatch", "missing or invalid CSRF token", http.StatusForbidden)
				return
			}
			if err := s.loginSessions.Delete(sessionID); err != nil {
				log.Err(err).Msg("logout: delete session")
			}
		}
		s.clearSessionCookie(w, r)

		q := url.Values{}
		q.Set("client_id", clientID)
		writeJSON(w, http.StatusOK, authapi.LogoutIntent{
			LogoutURL: baseURL(r) + RouteIDPLogout + "?" + q.Encode(),
		})
	}
}

// Me returns the caller's claims. It is the protected API the refresh
// interceptor is exercised against.
func (s *Server) Me() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="workbench"`)
			writeJSONError(w, "invalid_token", "bearer token required", http.StatusUnauthorized)
			return
		}
		c, err := s.issuer.Verify(r.Context(), token)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="workbench", error="invalid_token"`)
			writeJSONError(w, "invalid_token", "token invalid or expired", http.StatusUnauthorized)
			return
		}

		u, err := users.FromClaims(c)
		if err != nil {
			writeJSONError(w, "invalid_token", err.Error(), http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":         u.ID,
			"givenName":  u.GivenName,
			"familyName": u.FamilyName,
			"email":      u.Email,
			"role":       u.Role,
			"expiresAt":  c.Expiry().UTC(),
		})
	}
}

func (s *Server) writeBearer(w http.ResponseWriter, user DevUser) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		log.Err(err).Msg("issue bearer token")
		writeJSONError(w, "server_error", "could not issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, authapi.TokenResponse{BearerToken: token})
}

// issueCode records an authorization code for the authorize step.
func (s *Server) issueCode(user DevUser, challenge, method, redirectURI string) (string, error) {
	code, err := generateRandomString(32)
	if err != nil {
		return "", err
	}
	err = s.authCodes.Upsert(code, &authflowrepo.AuthFlowState{
		Subject:             user.ID,
		CodeChallenge:       challenge,
		CodeChallengeMethod: method,
		RedirectURI:         redirectURI,
		CreatedAt:           s.nowTimeFunc(),
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// JWKS publishes the bearer token verification key.
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, ok := s.issuer.JWKS()
		if !ok {
			writeJSONError(w, "not_found", "tokens are signed with a shared secret", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, jwks)
	}
}
