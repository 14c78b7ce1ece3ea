package service

import (
	"context"

	"github.com/mmeshcher/repairdesk/internal/gateway"
	"github.com/mmeshcher/repairdesk/internal/listview"
	"github.com/mmeshcher/repairdesk/internal/model"
	"github.com/mmeshcher/repairdesk/internal/validation"
)

// Users возвращает пользователей после поиска, фильтрации и сортировки.
// Фильтр по роли передаётся в удалённый API, чтобы не загружать лишние записи.
func (s *Service) Users(ctx context.Context, sess *model.Session, q listview.Query) ([]model.User, error) {
	var (
		users []model.User
		err   error
	)
	if role, ok := q.Filters["role"]; ok && role != "" && role != listview.All {
		users, err = s.api.ListUsersByRole(ctx, sess, model.Role(role))
	} else {
		users, err = s.api.ListUsers(ctx, sess)
	}
	if err != nil {
		return nil, s.upstream(ctx, "list users", err)
	}
	return listview.UserView.Apply(users, q), nil
}

// Technicians возвращает активных техников для назначения на заявки.
func (s *Service) Technicians(ctx context.Context, sess *model.Session) ([]model.User, error) {
	users, err := s.api.ListUsersByRole(ctx, sess, model.RoleTechnician)
	if err != nil {
		return nil, s.upstream(ctx, "list technicians", err)
	}
	return listview.UserView.Apply(users, listview.Query{
		Filters: map[string]string{"is_active": "true"},
		Sort:    listview.Sort{Field: "full_name", Direction: listview.DirectionAsc},
	}), nil
}

// User возвращает учётную запись сотрудника.
func (s *Service) User(ctx context.Context, sess *model.Session, id model.ID) (model.User, error) {
	u, err := s.api.GetUser(ctx, sess, id)
	if err != nil {
		return model.User{}, s.upstream(ctx, "get user", err)
	}
	return u, nil
}

// CreateUser создаёт учётную запись сотрудника.
func (s *Service) CreateUser(ctx context.Context, sess *model.Session, form validation.UserForm) (model.User, error) {
	if err := form.Validate().Err(); err != nil {
		return model.User{}, err
	}

	u, err := s.api.CreateUser(ctx, sess, userInput(form))
	if err != nil {
		return model.User{}, s.upstream(ctx, "create user", err)
	}

	s.audit(ctx, sess, "user_created", "", "", u.Username, SeverityInfo)
	return u, nil
}

// UpdateUser изменяет учётную запись сотрудника. Пустой пароль оставляет прежний.
func (s *Service) UpdateUser(ctx context.Context, sess *model.Session, id model.ID, form validation.UserForm) (model.User, error) {
	if err := form.ValidateUpdate().Err(); err != nil {
		return model.User{}, err
	}

	u, err := s.api.UpdateUser(ctx, sess, id, userInput(form))
	if err != nil {
		return model.User{}, s.upstream(ctx, "update user", err)
	}

	s.audit(ctx, sess, "user_updated", "", "", u.Username, SeverityInfo)
	return u, nil
}

// SetUserActive включает или отключает учётную запись без удаления.
func (s *Service) SetUserActive(ctx context.Context, sess *model.Session, id model.ID, active bool) error {
	if active {
		if err := s.api.ActivateUser(ctx, sess, id); err != nil {
			return s.upstream(ctx, "activate user", err)
		}
		s.audit(ctx, sess, "user_activated", "", "", id.String(), SeverityInfo)
		return nil
	}

	if err := s.api.DeactivateUser(ctx, sess, id); err != nil {
		return s.upstream(ctx, "deactivate user", err)
	}
	s.audit(ctx, sess, "user_deactivated", "", "", id.String(), SeverityWarning)
	return nil
}

// DeleteUser удаляет учётную запись сотрудника.
func (s *Service) DeleteUser(ctx context.Context, sess *model.Session, id model.ID) error {
	if err := s.api.DeleteUser(ctx, sess, id); err != nil {
		return s.upstream(ctx, "delete user", err)
	}
	s.audit(ctx, sess, "user_deleted", "", id.String(), "", SeverityWarning)
	return nil
}

func userInput(form validation.UserForm) gateway.UserInput {
	return gateway.UserInput{
		Username:   form.Username,
		Email:      form.Email,
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Phone:      form.Phone,
		Role:       form.Role,
		IsWorkshop: form.IsWorkshop,
		Password:   form.Password,
	}
}
