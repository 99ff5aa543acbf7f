package model

import "time"

// Event is the immutable record of one successful transition. Exactly one
// event is produced per Perform call; the caller appends it to a durable,
// ordered log. Events are never replayed to reconstruct state — the persisted
// payload always carries the authoritative current state id.
type Event struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	PrevStateID string    `json:"prev_state_id"`
	ActionID    string    `json:"action_id"`
	NewStateID  string    `json:"new_state_id"`
	PerformedBy string    `json:"performed_by"`
	Remarks     string    `json:"remarks,omitempty"`
	Payload     Payload   `json:"payload"`
}
