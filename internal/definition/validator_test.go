package definition

import (
	"testing"

	"github.com/udnboss/workflow/model"
)

func validDef() model.Definition {
	return model.Definition{
		ID:   "wf",
		Name: "Workflow",
		Roles: []model.Role{
			{ID: "initiator", Title: "Initiator"},
			{ID: "manager", Title: "Manager"},
		},
		Stages: []model.Stage{
			{ID: "open", Title: "Open"},
			{ID: "closed", Title: "Closed"},
		},
		InitialStateID: "draft",
		FinalStateID:   "done",
		States: []model.State{
			{
				ID: "draft", Title: "Draft", StageID: "open",
				Actions: []model.Action{
					{ID: "submit", Title: "Submit", TargetStateID: "done", RoleIDs: []string{"initiator"}},
				},
			},
			{ID: "done", Title: "Done", StageID: "closed"},
		},
	}
}

func hasError(errs []VError, code, pathSuffix string) bool {
	for _, e := range errs {
		if e.Code == code && len(e.Path) >= len(pathSuffix) && e.Path[len(e.Path)-len(pathSuffix):] == pathSuffix {
			return true
		}
	}
	return false
}

func TestValidate_ValidDefinition(t *testing.T) {
	v := NewValidator()
	if errs := v.Validate([]model.Definition{validDef()}); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	v := NewValidator()
	errs := v.Validate([]model.Definition{{}})

	for _, suffix := range []string{".id", ".name", ".roles", ".states", ".initial_state_id", ".final_state_id"} {
		if !hasError(errs, "REQUIRED", suffix) {
			t.Errorf("missing REQUIRED error for %s in %v", suffix, errs)
		}
	}
}

func TestValidate_DuplicateDefinitionID(t *testing.T) {
	v := NewValidator()
	errs := v.Validate([]model.Definition{validDef(), validDef()})
	if !hasError(errs, "DUPLICATE", ".id") {
		t.Errorf("expected DUPLICATE definition id error, got %v", errs)
	}
}

func TestValidate_DanglingTargetState(t *testing.T) {
	def := validDef()
	def.States[0].Actions[0].TargetStateID = "limbo"

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "REF_NOT_FOUND", ".target_state_id") {
		t.Errorf("expected REF_NOT_FOUND for target state, got %v", errs)
	}
}

func TestValidate_UnknownRole(t *testing.T) {
	def := validDef()
	def.States[0].Actions[0].RoleIDs = []string{"ghost"}

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "REF_NOT_FOUND", ".role_ids") {
		t.Errorf("expected REF_NOT_FOUND for role, got %v", errs)
	}
}

func TestValidate_ActionWithoutRoles(t *testing.T) {
	def := validDef()
	def.States[0].Actions[0].RoleIDs = nil

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "REQUIRED", ".role_ids") {
		t.Errorf("expected REQUIRED for empty role_ids, got %v", errs)
	}
}

func TestValidate_UnknownStage(t *testing.T) {
	def := validDef()
	def.States[0].StageID = "phantom"

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "REF_NOT_FOUND", ".stage_id") {
		t.Errorf("expected REF_NOT_FOUND for stage, got %v", errs)
	}
}

func TestValidate_DuplicateActionIDWithinState(t *testing.T) {
	def := validDef()
	def.States[0].Actions = append(def.States[0].Actions,
		model.Action{ID: "submit", Title: "Submit Again", TargetStateID: "done", RoleIDs: []string{"initiator"}},
	)

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "DUPLICATE", ".id") {
		t.Errorf("expected DUPLICATE action id error, got %v", errs)
	}
}

func TestValidate_SameActionIDAcrossStatesIsFine(t *testing.T) {
	// Action ids are scoped to their owning state. Every review state having
	// its own "approve" is the normal shape.
	def := validDef()
	def.States[1].Actions = []model.Action{
		{ID: "submit", Title: "Submit", TargetStateID: "draft", RoleIDs: []string{"initiator"}},
	}

	v := NewValidator()
	if errs := v.Validate([]model.Definition{def}); len(errs) != 0 {
		t.Fatalf("Validate() = %v, want no errors", errs)
	}
}

func TestValidate_FinalStateUnreachable(t *testing.T) {
	def := validDef()
	def.States = append(def.States, model.State{ID: "island", Title: "Island", StageID: "closed"})
	def.FinalStateID = "island"

	v := NewValidator()
	errs := v.Validate([]model.Definition{def})
	if !hasError(errs, "UNREACHABLE", ".final_state_id") {
		t.Errorf("expected UNREACHABLE error, got %v", errs)
	}
}

func TestValidate_CyclesAreLegal(t *testing.T) {
	def := validDef()
	def.States = append(def.States, model.State{
		ID: "rejected", Title: "Rejected", StageID: "closed",
		Actions: []model.Action{
			{ID: "edit", Title: "Edit", TargetStateID: "draft", RoleIDs: []string{"initiator"}},
		},
	})
	def.States[0].Actions = append(def.States[0].Actions,
		model.Action{ID: "discard", Title: "Discard", TargetStateID: "rejected", RoleIDs: []string{"initiator"}},
	)

	v := NewValidator()
	if errs := v.Validate([]model.Definition{def}); len(errs) != 0 {
		t.Fatalf("cyclic graph should validate, got %v", errs)
	}
}

func TestReachable(t *testing.T) {
	def := validDef()
	if !reachable(def, "draft", "done") {
		t.Error("done should be reachable from draft")
	}
	if reachable(def, "done", "draft") {
		t.Error("draft should not be reachable from terminal done")
	}
}
