package server

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// SessionName is the name of the session cookie carrying the CSRF token and
// flash messages.
const SessionName = "vocabs_session"

const (
	sessionKeyCSRF = "csrf_token"

	csrfFormField = "csrf_token"
	csrfHeader    = "X-CSRFToken"
)

// newSessionStore derives the cookie keys from secret. An empty secret gets
// a random key, so sessions do not survive a restart.
func newSessionStore(secret string, secure bool, logger *zap.Logger) *sessions.CookieStore {
	var key []byte
	if secret == "" {
		logger.Warn("SESSION_SECRET is not set, using a random session key")
		key = securecookie.GenerateRandomKey(32)
	} else {
		sum := sha256.Sum256([]byte(secret))
		key = sum[:]
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func newCSRFToken() string {
	return base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// csrf loads the session, issues a CSRF token when the session has none and,
// when enforce is set, rejects unsafe requests that do not echo the token in
// the csrf_token form field or the X-CSRFToken header.
func (s *Server) csrf(enforce bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// A cookie that fails to decode yields a fresh session.
			session, err := s.sessions.Get(r, SessionName)
			if err != nil {
				s.logger.Debug("Discarding undecodable session", zap.Error(err))
			}

			token, _ := session.Values[sessionKeyCSRF].(string)
			if token == "" {
				token = newCSRFToken()
				session.Values[sessionKeyCSRF] = token
				if err := session.Save(r, w); err != nil {
					s.logger.Error("Failed to save session", zap.Error(err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}

			if enforce && !safeMethod(r.Method) {
				sent := r.Header.Get(csrfHeader)
				if sent == "" {
					sent = r.PostFormValue(csrfFormField)
				}
				if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					s.logger.Warn("CSRF check failed",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("request_id", requestIDFrom(r.Context())))
					http.Error(w, "CSRF verification failed", http.StatusForbidden)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
		})
	}
}

func sessionFrom(r *http.Request) *sessions.Session {
	session, _ := r.Context().Value(sessionKey).(*sessions.Session)
	return session
}

func csrfToken(r *http.Request) string {
	if session := sessionFrom(r); session != nil {
		token, _ := session.Values[sessionKeyCSRF].(string)
		return token
	}
	return ""
}

// flash queues a message for the next rendered page. It must be called
// before the response header is written.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg string) {
	session := sessionFrom(r)
	if session == nil {
		return
	}
	session.AddFlash(msg)
	if err := session.Save(r, w); err != nil {
		s.logger.Error("Failed to save flash message", zap.Error(err))
	}
}

// takeFlashes pops the queued messages.
func (s *Server) takeFlashes(w http.ResponseWriter, r *http.Request) []string {
	session := sessionFrom(r)
	if session == nil {
		return nil
	}
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		s.logger.Error("Failed to clear flash messages", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			out = append(out, msg)
		}
	}
	return out
}
