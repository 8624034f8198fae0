package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Simplici0/costeo/internal/store"
)

const (
	sessionName     = "costeo_session"
	sessionEmailKey = "email"
	sessionMaxAge   = 7 * 24 * 60 * 60
)

type authService struct {
	store    *store.Store
	sessions *sessions.CookieStore
}

// newAuthService builds the cookie store. Without a configured secret a
// random key is used, so sessions do not survive a restart.
func newAuthService(st *store.Store, sessionSecret string, secure bool) (*authService, error) {
	key := []byte(sessionSecret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if key == nil {
			return nil, fmt.Errorf("generate session key")
		}
	}

	cs := sessions.NewCookieStore(key)
	cs.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &authService{store: st, sessions: cs}, nil
}

func (a *authService) validateCredentials(r *http.Request, email, password string) (bool, error) {
	hash, err := a.store.PasswordHash(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare password hash: %w", err)
	}
	return true, nil
}

func (a *authService) currentUser(r *http.Request) (string, bool) {
	sess, err := a.sessions.Get(r, sessionName)
	if err != nil {
		return "", false
	}
	email, ok := sess.Values[sessionEmailKey].(string)
	return email, ok && email != ""
}

func (a *authService) startSession(w http.ResponseWriter, r *http.Request, email string) error {
	sess, _ := a.sessions.Get(r, sessionName)
	sess.Values[sessionEmailKey] = email
	return sess.Save(r, w)
}

func (a *authService) endSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := a.sessions.Get(r, sessionName)
	delete(sess.Values, sessionEmailKey)
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			return c, badRequest("JSON inválido")
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return c, badRequest("formulario inválido")
		}
		c.Email = r.FormValue("email")
		c.Password = r.FormValue("password")
	}
	c.Email = strings.TrimSpace(c.Email)
	return c, nil
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, err := readCredentials(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	valid, err := s.auth.validateCredentials(r, creds.Email, creds.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !valid {
		s.logger.Info("login rejected", zap.String("email", creds.Email))
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Credenciales inválidas. Intenta de nuevo."})
		return
	}

	if err := s.auth.startSession(w, r, creds.Email); err != nil {
		s.writeError(w, r, fmt.Errorf("save session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": creds.Email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.endSession(w, r); err != nil {
		s.writeError(w, r, fmt.Errorf("clear session: %w", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		if _, ok := s.auth.currentUser(r); !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "sesión requerida"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
