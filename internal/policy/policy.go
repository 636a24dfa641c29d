// Package policy holds the pure permission rules for project collaboration.
// Nothing here touches storage; guards look up the requester's membership and
// call Decide with what they found.
package policy

import "github.com/labmesh/labmesh-api/internal/models"

type Action string

const (
	ActionView               Action = "view"
	ActionCreateResource     Action = "create_resource"
	ActionUpdateResource     Action = "update_resource"
	ActionDeleteResource     Action = "delete_resource"
	ActionManageProject      Action = "manage_project"
	ActionInvite             Action = "invite"
	ActionChangeRole         Action = "change_role"
	ActionRemoveCollaborator Action = "remove_collaborator"
)

// Decide reports whether a collaborator with the given active role may perform
// action. isSelf carries the two self-service rules: the creator override on
// resources (update/delete what you created) and self-removal (leaving a
// project). The last-owner guard is enforced separately, at the store.
func Decide(role string, action Action, isSelf bool) bool {
	if role == models.RoleOwner {
		return true
	}

	switch action {
	case ActionView:
		return true
	case ActionCreateResource:
		return role == models.RoleEditor
	case ActionUpdateResource, ActionDeleteResource:
		return role == models.RoleEditor || isSelf
	case ActionInvite:
		return role == models.RoleEditor
	case ActionRemoveCollaborator:
		return isSelf
	case ActionManageProject, ActionChangeRole:
		return false
	}
	return false
}

// CanAssignRole restricts role grants beyond Decide: whatever role may one day
// gain ActionChangeRole, handing out the owner role or touching an existing
// owner's membership stays owner-only.
func CanAssignRole(actorRole, targetCurrentRole, newRole string) bool {
	if newRole == models.RoleOwner || targetCurrentRole == models.RoleOwner {
		return actorRole == models.RoleOwner
	}
	return actorRole == models.RoleOwner || actorRole == models.RoleEditor
}
