// Package middleware содержит HTTP middleware для сервиса repairdesk.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmeshcher/repairdesk/internal/model"
)

type contextKey string

const sessionKey contextKey = "session"

const sessionCookieName = "repairdesk_session"

// SessionStore загружает действующую сессию по идентификатору. Для отсутствующей
// или истёкшей сессии возвращает model.ErrSessionNotFound.
type SessionStore interface {
	Session(ctx context.Context, id string) (*model.Session, error)
}

// AuthMiddleware выполняет проверку аутентификации пользователя по подписанному cookie сессии.
type AuthMiddleware struct {
	secretKey []byte
	store     SessionStore
	secure    bool
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware. При пустом секрете
// используется случайный ключ, и cookie становятся недействительными после перезапуска.
func NewAuthMiddleware(secret string, store SessionStore, secure bool) *AuthMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("repairdesk-secret-key")
		}
	}

	return &AuthMiddleware{
		secretKey: key,
		store:     store,
		secure:    secure,
	}
}

// Middleware проверяет cookie сессии, загружает сессию и добавляет её в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		id, ok := a.parseCookie(cookie.Value)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sess, err := a.store.Session(r.Context(), id)
		switch {
		case errors.Is(err, model.ErrSessionNotFound) || (err == nil && sess == nil):
			a.ClearSessionCookie(w)
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		case err != nil:
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает запрос только для перечисленных ролей.
// Используется после Middleware.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if !slices.Contains(roles, sess.Role) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetSessionCookie устанавливает подписанный cookie для сессии.
func (a *AuthMiddleware) SetSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.sign(sess.ID),
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет cookie сессии у клиента.
func (a *AuthMiddleware) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *AuthMiddleware) signature(id string) string {
	mac := hmac.New(sha256.New, a.secretKey)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthMiddleware) sign(id string) string {
	return id + "." + a.signature(id)
}

func (a *AuthMiddleware) parseCookie(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}

	if !hmac.Equal([]byte(sig), []byte(a.signature(id))) {
		return "", false
	}

	return id, true
}

// SessionFromContext извлекает сессию из контекста запроса.
func SessionFromContext(ctx context.Context) (*model.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*model.Session)
	return sess, ok
}

// WithSession кладёт сессию в контекст. Нужен обработчикам и тестам, работающим без cookie.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
