package engine

import "github.com/udnboss/workflow/model"

// EffectiveRoles computes the role set held by actor in the context of one
// workflow instance: the statically assigned roles, plus the contextual
// initiator role when the actor created the instance's payload.
//
// The result is recomputed at every authorization check rather than cached on
// the instance, so a permission check can never go stale after the current
// actor changes.
func EffectiveRoles(actor, initiator model.Actor) model.RoleSet {
	roles := model.NewRoleSet(actor.RoleIDs...)
	if actor.ID != "" && actor.ID == initiator.ID {
		roles[model.RoleInitiator] = true
	}
	return roles
}
