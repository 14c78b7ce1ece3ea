package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmeshcher/repairdesk/internal/model"
)

// UserInput описывает тело создания и изменения пользователя.
type UserInput struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Phone      string     `json:"phone,omitempty"`
	Role       model.Role `json:"role"`
	IsWorkshop bool       `json:"is_workshop"`
	Password   string     `json:"password,omitempty"`
}

func userPath(id model.ID) string {
	return "/users/" + url.PathEscape(id.String()) + "/"
}

// ListUsers возвращает всех пользователей.
func (c *Client) ListUsers(ctx context.Context, sess *model.Session) ([]model.User, error) {
	return list[model.User](ctx, c, sess, "/users/", nil)
}

// ListUsersByRole возвращает пользователей с указанной ролью.
func (c *Client) ListUsersByRole(ctx context.Context, sess *model.Session, role model.Role) ([]model.User, error) {
	return list[model.User](ctx, c, sess, "/users/role/"+url.PathEscape(string(role))+"/", nil)
}

// GetUser возвращает пользователя по идентификатору.
func (c *Client) GetUser(ctx context.Context, sess *model.Session, id model.ID) (model.User, error) {
	var u model.User
	err := c.do(ctx, sess, http.MethodGet, userPath(id), nil, nil, &u)
	return u, err
}

// CreateUser регистрирует пользователя.
func (c *Client) CreateUser(ctx context.Context, sess *model.Session, in UserInput) (model.User, error) {
	var u model.User
	err := c.do(ctx, sess, http.MethodPost, "/auth/register/", nil, in, &u)
	return u, err
}

// UpdateUser изменяет пользователя.
func (c *Client) UpdateUser(ctx context.Context, sess *model.Session, id model.ID, in UserInput) (model.User, error) {
	var u model.User
	err := c.do(ctx, sess, http.MethodPut, userPath(id)+"update/", nil, in, &u)
	return u, err
}

// DeleteUser удаляет пользователя.
func (c *Client) DeleteUser(ctx context.Context, sess *model.Session, id model.ID) error {
	return c.do(ctx, sess, http.MethodDelete, userPath(id)+"delete/", nil, nil, nil)
}

// ActivateUser включает учётную запись.
func (c *Client) ActivateUser(ctx context.Context, sess *model.Session, id model.ID) error {
	return c.do(ctx, sess, http.MethodPost, userPath(id)+"activate/", nil, nil, nil)
}

// DeactivateUser отключает учётную запись без удаления.
func (c *Client) DeactivateUser(ctx context.Context, sess *model.Session, id model.ID) error {
	return c.do(ctx, sess, http.MethodPost, userPath(id)+"deactivate/", nil, nil, nil)
}
