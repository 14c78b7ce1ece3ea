package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// Tokens описывает пару токенов, выданную удалённым API.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// LoginResult описывает ответ на вход в систему.
type LoginResult struct {
	User model.User `json:"user"`
	Tokens
}

// ProfileUpdate описывает изменяемые поля профиля.
type ProfileUpdate struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// PasswordChange описывает запрос смены пароля.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Login выполняет вход по имени пользователя и паролю.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	body := map[string]string{"username": username, "password": password}

	var res LoginResult
	if err := c.do(ctx, nil, http.MethodPost, "/auth/login/", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout отзывает refresh-токен сессии.
func (c *Client) Logout(ctx context.Context, sess *model.Session) error {
	body := map[string]string{"refresh_token": sess.RefreshToken}
	return c.do(ctx, sess, http.MethodPost, "/auth/logout/", nil, body, nil)
}

// RefreshToken обменивает refresh-токен на новый токен доступа.
func (c *Client) RefreshToken(ctx context.Context, refresh string) (*Tokens, error) {
	var res Tokens
	if err := c.do(ctx, nil, http.MethodPost, "/auth/token/refresh/", nil, map[string]string{"refresh": refresh}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Profile возвращает профиль владельца сессии.
func (c *Client) Profile(ctx context.Context, sess *model.Session) (model.User, error) {
	var u model.User
	err := c.do(ctx, sess, http.MethodGet, "/auth/profile/", nil, nil, &u)
	return u, err
}

// UpdateProfile изменяет профиль владельца сессии. Это единственный вызов, который при
// ответе 401 один раз обновляет токен доступа и повторяет запрос.
func (c *Client) UpdateProfile(ctx context.Context, sess *model.Session, in ProfileUpdate) (model.User, error) {
	var u model.User
	err := c.do(ctx, sess, http.MethodPut, "/auth/profile/update/", nil, in, &u)
	if !IsStatus(err, http.StatusUnauthorized) {
		return u, err
	}

	if err := c.refreshSession(ctx, sess); err != nil {
		return model.User{}, err
	}

	u = model.User{}
	err = c.do(ctx, sess, http.MethodPut, "/auth/profile/update/", nil, in, &u)
	return u, err
}

// ChangePassword меняет пароль владельца сессии.
func (c *Client) ChangePassword(ctx context.Context, sess *model.Session, in PasswordChange) error {
	return c.do(ctx, sess, http.MethodPost, "/auth/change-password/", nil, in, nil)
}

func (c *Client) refreshSession(ctx context.Context, sess *model.Session) error {
	if sess.RefreshToken == "" {
		return ErrSessionExpired
	}

	tokens, err := c.RefreshToken(ctx, sess.RefreshToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}

	sess.AccessToken = tokens.Access
	if tokens.Refresh != "" {
		sess.RefreshToken = tokens.Refresh
	}
	if exp, ok := TokenExpiry(tokens.Access); ok {
		sess.ExpiresAt = exp
	}

	if c.saver != nil {
		if err := c.saver.SaveSession(ctx, sess); err != nil {
			return fmt.Errorf("save refreshed session: %w", err)
		}
	}
	return nil
}

// TokenExpiry возвращает время истечения токена доступа из claim "exp".
// Подпись не проверяется: ключ принадлежит удалённому API.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
