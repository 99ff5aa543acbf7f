package model

// RoleInitiator is the contextual role granted to an actor while operating on
// a workflow instance whose payload they created. It is never statically
// assigned and never persisted.
const RoleInitiator = "initiator"

// Actor is a fully resolved acting user. The engine performs no identity
// lookup; callers supply actors with their statically assigned role ids.
type Actor struct {
	ID      string   `yaml:"id"       json:"id"`
	Name    string   `yaml:"name"     json:"name"`
	RoleIDs []string `yaml:"role_ids" json:"role_ids"`
}

// RoleSet is a set of role ids held by an actor in the context of one
// workflow instance.
type RoleSet map[string]bool

// NewRoleSet builds a RoleSet from the given role ids.
func NewRoleSet(roleIDs ...string) RoleSet {
	rs := make(RoleSet, len(roleIDs))
	for _, id := range roleIDs {
		rs[id] = true
	}
	return rs
}

// Has reports whether the set contains the given role id.
func (rs RoleSet) Has(roleID string) bool {
	return rs[roleID]
}

// HasAny reports whether the set contains at least one of the given role ids.
func (rs RoleSet) HasAny(roleIDs ...string) bool {
	for _, id := range roleIDs {
		if rs[id] {
			return true
		}
	}
	return false
}

// IDs returns the role ids in the set. Order is unspecified.
func (rs RoleSet) IDs() []string {
	ids := make([]string, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}
	return ids
}
