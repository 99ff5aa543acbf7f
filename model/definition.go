package model

// Role identifies a capability an actor may hold. The contextual "initiator"
// role is declared like any other role but is never statically assigned.
type Role struct {
	ID    string `yaml:"id"    json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Stage is a coarse lifecycle phase used for grouping and reporting states.
// Multiple states may share a stage.
type Stage struct {
	ID    string `yaml:"id"    json:"id"`
	Title string `yaml:"title" json:"title"`
}

// Action is a role-gated edge from its owning state to a target state. The
// position of an action within its state's list is meaningful: it determines
// display priority and which action is "first" when resolving defaults.
type Action struct {
	ID            string   `yaml:"id"              json:"id"`
	Title         string   `yaml:"title"           json:"title"`
	TargetStateID string   `yaml:"target_state_id" json:"target_state_id"`
	RoleIDs       []string `yaml:"role_ids"        json:"role_ids"`
}

// State is a node in the workflow graph. A state with no actions is terminal.
type State struct {
	ID      string   `yaml:"id"      json:"id"`
	Title   string   `yaml:"title"   json:"title"`
	StageID string   `yaml:"stage_id" json:"stage_id"`
	Actions []Action `yaml:"actions" json:"actions,omitempty"`
}

// Action returns the action with the given id on this state. Action ids are
// unique within a state, not globally.
func (s State) Action(actionID string) (Action, bool) {
	for _, a := range s.Actions {
		if a.ID == actionID {
			return a, true
		}
	}
	return Action{}, false
}

// Terminal reports whether the state has no outgoing actions.
func (s State) Terminal() bool {
	return len(s.Actions) == 0
}

// Definition is an immutable, validated graph of roles, stages, states, and
// the actions available from each state. It is constructed once at load time
// and read-only thereafter.
type Definition struct {
	ID             string  `yaml:"id"               json:"id"`
	Name           string  `yaml:"name"             json:"name"`
	Version        string  `yaml:"version"          json:"version"`
	Roles          []Role  `yaml:"roles"            json:"roles"`
	Stages         []Stage `yaml:"stages"           json:"stages"`
	States         []State `yaml:"states"           json:"states"`
	InitialStateID string  `yaml:"initial_state_id" json:"initial_state_id"`
	FinalStateID   string  `yaml:"final_state_id"   json:"final_state_id"`

	// Checksum is computed at load time and not part of the YAML.
	Checksum string `yaml:"-" json:"-"`
	// SourceFile records the originating file path.
	SourceFile string `yaml:"-" json:"-"`
}

// State returns the state with the given id, or STATE_NOT_FOUND.
func (d *Definition) State(stateID string) (State, error) {
	for _, s := range d.States {
		if s.ID == stateID {
			return s, nil
		}
	}
	return State{}, NewStateNotFoundError(stateID)
}

// Stage returns the stage with the given id, or STAGE_NOT_FOUND.
func (d *Definition) Stage(stageID string) (Stage, error) {
	for _, s := range d.Stages {
		if s.ID == stageID {
			return s, nil
		}
	}
	return Stage{}, NewStageNotFoundError(stageID)
}

// Role returns the role with the given id, or ROLE_NOT_FOUND.
func (d *Definition) Role(roleID string) (Role, error) {
	for _, r := range d.Roles {
		if r.ID == roleID {
			return r, nil
		}
	}
	return Role{}, NewRoleNotFoundError(roleID)
}

// HasRole reports whether the definition declares the given role.
func (d *Definition) HasRole(roleID string) bool {
	_, err := d.Role(roleID)
	return err == nil
}
