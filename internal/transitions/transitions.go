// Package transitions содержит таблицу допустимых переходов статуса заявки по ролям.
package transitions

import (
	"slices"

	"github.com/mmeshcher/repairdesk/internal/model"
)

type rule struct {
	from model.TaskStatus
	to   []model.TaskStatus
}

// table хранит переходы в порядке объявления; порядок определяет порядок вариантов в интерфейсе.
var table = map[model.Role][]rule{
	model.RoleFrontDesk: {
		{model.TaskStatusCompleted, []model.TaskStatus{model.TaskStatusReadyForPickup}},
		{model.TaskStatusReadyForPickup, []model.TaskStatus{model.TaskStatusPickedUp}},
		{model.TaskStatusPending, []model.TaskStatus{model.TaskStatusCancelled}},
		{model.TaskStatusInProgress, []model.TaskStatus{model.TaskStatusCancelled}},
		{model.TaskStatusAwaitingParts, []model.TaskStatus{model.TaskStatusCancelled}},
		{model.TaskStatusReadyForQC, []model.TaskStatus{model.TaskStatusCancelled}},
	},
	model.RoleTechnician: {
		{model.TaskStatusPending, []model.TaskStatus{model.TaskStatusInProgress}},
		{model.TaskStatusInProgress, []model.TaskStatus{model.TaskStatusAwaitingParts, model.TaskStatusReadyForQC}},
		{model.TaskStatusAwaitingParts, []model.TaskStatus{model.TaskStatusInProgress}},
	},
	model.RoleManager: {
		{model.TaskStatusReadyForQC, []model.TaskStatus{model.TaskStatusCompleted, model.TaskStatusInProgress}},
	},
}

// roleOrder задаёт порядок обхода таблицы при построении полного набора статусов.
var roleOrder = []model.Role{model.RoleFrontDesk, model.RoleTechnician, model.RoleManager}

var managerTargets = allTargets()

func allTargets() []model.TaskStatus {
	var res []model.TaskStatus
	for _, role := range roleOrder {
		for _, r := range table[role] {
			for _, to := range r.to {
				if !slices.Contains(res, to) {
					res = append(res, to)
				}
			}
		}
	}
	return res
}

// Allowed возвращает статусы, в которые роль может перевести заявку из статуса current.
// Менеджер может выбрать любой целевой статус таблицы независимо от текущего.
// Для неизвестной роли или статуса возвращается пустой срез.
func Allowed(role model.Role, current model.TaskStatus) []model.TaskStatus {
	if role == model.RoleManager {
		return slices.Clone(managerTargets)
	}
	for _, r := range table[role] {
		if r.from == current {
			return slices.Clone(r.to)
		}
	}
	return []model.TaskStatus{}
}

// Permits сообщает, может ли роль перевести заявку из from в to.
func Permits(role model.Role, from, to model.TaskStatus) bool {
	return slices.Contains(Allowed(role, from), to)
}
