package definition

import (
	"fmt"

	"github.com/udnboss/workflow/model"
)

// VError describes a single validation error in a definition.
type VError struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e VError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validator checks definitions structurally and referentially: every stage,
// target state, and role an action names must resolve, and the final state
// must be reachable from the initial state. Validation happens once at load
// time so a bad graph fails fast instead of at the first bad transition.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks all definitions and returns every error found.
func (v *Validator) Validate(defs []model.Definition) []VError {
	var errs []VError
	seen := make(map[string]bool)
	for i, def := range defs {
		prefix := fmt.Sprintf("definitions[%d]", i)
		if def.ID != "" && seen[def.ID] {
			errs = append(errs, VError{Path: prefix + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("duplicate definition id %q", def.ID)})
		}
		seen[def.ID] = true
		errs = append(errs, v.validateDefinition(prefix, def)...)
	}
	return errs
}

func (v *Validator) validateDefinition(prefix string, def model.Definition) []VError {
	var errs []VError

	if def.ID == "" {
		errs = append(errs, VError{Path: prefix + ".id", Code: "REQUIRED", Message: "id is required"})
	}
	if def.Name == "" {
		errs = append(errs, VError{Path: prefix + ".name", Code: "REQUIRED", Message: "name is required"})
	}
	if len(def.Roles) == 0 {
		errs = append(errs, VError{Path: prefix + ".roles", Code: "REQUIRED", Message: "at least one role is required"})
	}
	if len(def.States) == 0 {
		errs = append(errs, VError{Path: prefix + ".states", Code: "REQUIRED", Message: "at least one state is required"})
	}

	roleIDs := make(map[string]bool)
	for i, r := range def.Roles {
		rp := fmt.Sprintf("%s.roles[%d]", prefix, i)
		if r.ID == "" {
			errs = append(errs, VError{Path: rp + ".id", Code: "REQUIRED", Message: "role id is required"})
		}
		if roleIDs[r.ID] {
			errs = append(errs, VError{Path: rp + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("duplicate role id %q", r.ID)})
		}
		roleIDs[r.ID] = true
	}

	stageIDs := make(map[string]bool)
	for i, s := range def.Stages {
		sp := fmt.Sprintf("%s.stages[%d]", prefix, i)
		if s.ID == "" {
			errs = append(errs, VError{Path: sp + ".id", Code: "REQUIRED", Message: "stage id is required"})
		}
		if stageIDs[s.ID] {
			errs = append(errs, VError{Path: sp + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("duplicate stage id %q", s.ID)})
		}
		stageIDs[s.ID] = true
	}

	stateIDs := make(map[string]bool)
	for i, s := range def.States {
		sp := fmt.Sprintf("%s.states[%d]", prefix, i)
		if s.ID == "" {
			errs = append(errs, VError{Path: sp + ".id", Code: "REQUIRED", Message: "state id is required"})
		}
		if stateIDs[s.ID] {
			errs = append(errs, VError{Path: sp + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("duplicate state id %q", s.ID)})
		}
		stateIDs[s.ID] = true
	}

	// References can only be checked once the id sets are complete.
	for i, s := range def.States {
		sp := fmt.Sprintf("%s.states[%d]", prefix, i)
		if s.StageID != "" && !stageIDs[s.StageID] {
			errs = append(errs, VError{Path: sp + ".stage_id", Code: "REF_NOT_FOUND", Message: fmt.Sprintf("stage %q not found", s.StageID)})
		}

		actionIDs := make(map[string]bool)
		for j, a := range s.Actions {
			ap := fmt.Sprintf("%s.actions[%d]", sp, j)
			if a.ID == "" {
				errs = append(errs, VError{Path: ap + ".id", Code: "REQUIRED", Message: "action id is required"})
			}
			if actionIDs[a.ID] {
				errs = append(errs, VError{Path: ap + ".id", Code: "DUPLICATE", Message: fmt.Sprintf("duplicate action id %q on state %q", a.ID, s.ID)})
			}
			actionIDs[a.ID] = true

			if !stateIDs[a.TargetStateID] {
				errs = append(errs, VError{Path: ap + ".target_state_id", Code: "REF_NOT_FOUND", Message: fmt.Sprintf("state %q not found", a.TargetStateID)})
			}
			if len(a.RoleIDs) == 0 {
				errs = append(errs, VError{Path: ap + ".role_ids", Code: "REQUIRED", Message: "at least one role id is required"})
			}
			for _, rid := range a.RoleIDs {
				if !roleIDs[rid] {
					errs = append(errs, VError{Path: ap + ".role_ids", Code: "REF_NOT_FOUND", Message: fmt.Sprintf("role %q not found", rid)})
				}
			}
		}
	}

	if def.InitialStateID == "" {
		errs = append(errs, VError{Path: prefix + ".initial_state_id", Code: "REQUIRED", Message: "initial_state_id is required"})
	} else if !stateIDs[def.InitialStateID] {
		errs = append(errs, VError{Path: prefix + ".initial_state_id", Code: "REF_NOT_FOUND", Message: fmt.Sprintf("state %q not found", def.InitialStateID)})
	}
	if def.FinalStateID == "" {
		errs = append(errs, VError{Path: prefix + ".final_state_id", Code: "REQUIRED", Message: "final_state_id is required"})
	} else if !stateIDs[def.FinalStateID] {
		errs = append(errs, VError{Path: prefix + ".final_state_id", Code: "REF_NOT_FOUND", Message: fmt.Sprintf("state %q not found", def.FinalStateID)})
	}

	// Reachability only makes sense on a referentially sound graph.
	if len(errs) == 0 && !reachable(def, def.InitialStateID, def.FinalStateID) {
		errs = append(errs, VError{
			Path:    prefix + ".final_state_id",
			Code:    "UNREACHABLE",
			Message: fmt.Sprintf("state %q is not reachable from %q", def.FinalStateID, def.InitialStateID),
		})
	}

	return errs
}

// reachable walks the action graph breadth-first from start. Cycles are legal
// (a rejected state may route back to draft), so visited states are tracked.
func reachable(def model.Definition, from, to string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if id == to {
			return true
		}
		state, err := def.State(id)
		if err != nil {
			continue
		}
		for _, a := range state.Actions {
			if !visited[a.TargetStateID] {
				visited[a.TargetStateID] = true
				queue = append(queue, a.TargetStateID)
			}
		}
	}
	return false
}
