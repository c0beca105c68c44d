package server

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jrsteele09/workbench-session/random"
	"github.com/jrsteele09/workbench-session/server/loginsession"
	"github.com/pkg/errors"
)

const (
	// sessionCookieName carries the server-side session the refresh call is
	// bound to.
	sessionCookieName = "workbench_session"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// generateRandomString creates a random base64url string from n bytes
func generateRandomString(n int) (string, error) {
	b, err := random.Bytes(n)
	if err != nil {
		return "", errors.Wrap(err, "generateRandomString")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	s.setSessionCookie(w, r, "", -1)
}

// sessionFromCookie returns the session the request's cookie points at.
func (s *Server) sessionFromCookie(r *http.Request) (string, loginsession.Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", loginsession.Session{}, loginsession.ErrNotFound
	}
	sess, err := s.loginSessions.Get(cookie.Value)
	if err != nil {
		return "", loginsession.Session{}, err
	}
	return cookie.Value, sess, nil
}

// checkCSRF compares the request's CSRF header with the session's token.
func (s *Server) checkCSRF(r *http.Request, sess loginsession.Session) bool {
	if sess.CSRFToken == "" {
		return true
	}
	got := r.Header.Get(s.csrfHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(sess.CSRFToken)) == 1
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes an OAuth2 style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
