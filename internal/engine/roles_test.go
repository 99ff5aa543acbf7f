package engine

import (
	"testing"

	"github.com/udnboss/workflow/model"
)

func TestEffectiveRoles_StaticOnly(t *testing.T) {
	actor := model.Actor{ID: "reviewer_user", RoleIDs: []string{"reviewer"}}
	initiator := model.Actor{ID: "sow_user"}

	roles := EffectiveRoles(actor, initiator)

	if !roles.Has("reviewer") {
		t.Error("reviewer role should be present")
	}
	if roles.Has(model.RoleInitiator) {
		t.Error("non-creator should not hold the initiator role")
	}
}

func TestEffectiveRoles_GrantsInitiator(t *testing.T) {
	actor := model.Actor{ID: "sow_user", RoleIDs: []string{"user"}}
	initiator := model.Actor{ID: "sow_user"}

	roles := EffectiveRoles(actor, initiator)

	if !roles.Has(model.RoleInitiator) {
		t.Error("creator should hold the initiator role")
	}
	if !roles.Has("user") {
		t.Error("static roles should be preserved")
	}
}

func TestEffectiveRoles_EmptyIDNeverInitiator(t *testing.T) {
	// Two unidentified actors must not match each other.
	roles := EffectiveRoles(model.Actor{}, model.Actor{})
	if roles.Has(model.RoleInitiator) {
		t.Error("empty actor ids must never grant the initiator role")
	}
}

func TestEffectiveRoles_DoesNotMutateActor(t *testing.T) {
	actor := model.Actor{ID: "sow_user", RoleIDs: []string{"user"}}
	initiator := model.Actor{ID: "sow_user"}

	EffectiveRoles(actor, initiator)

	if len(actor.RoleIDs) != 1 || actor.RoleIDs[0] != "user" {
		t.Errorf("actor.RoleIDs mutated: %v", actor.RoleIDs)
	}
}
