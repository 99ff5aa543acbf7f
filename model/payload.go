package model

import "time"

// Payload is the business document being routed through a workflow. The
// engine reads and writes only the state id; all other fields are opaque.
type Payload interface {
	PayloadID() string
	StateID() string
	SetStateID(stateID string)
}

// Document is the payload shape persisted by the service layer. Business
// fields live in Fields and are never validated by the engine.
type Document struct {
	ID           string         `json:"id"`
	DefinitionID string         `json:"definition_id"`
	Title        string         `json:"title"`
	CreatedBy    string         `json:"created_by"`
	State        string         `json:"state_id"`
	Fields       map[string]any `json:"fields,omitempty"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// PayloadID implements Payload.
func (d *Document) PayloadID() string { return d.ID }

// StateID implements Payload.
func (d *Document) StateID() string { return d.State }

// SetStateID implements Payload.
func (d *Document) SetStateID(stateID string) { d.State = stateID }
