// Package store persists routed documents and their transition events. The
// engine itself never touches a store; the service layer loads the document,
// runs the transition, and writes back the result through this interface.
package store

import (
	"context"

	"github.com/udnboss/workflow/model"
)

// Store persists documents and append-only transition events.
type Store interface {
	// CreateDocument persists a new document. Returns CONFLICT if the id is
	// already taken.
	CreateDocument(ctx context.Context, doc *model.Document) error

	// GetDocument retrieves a document by id. Returns NOT_FOUND if absent.
	GetDocument(ctx context.Context, documentID string) (*model.Document, error)

	// UpdateDocument persists an updated document with optimistic locking.
	// The version must match the stored version; returns CONFLICT otherwise.
	// Concurrent actors racing to transition the same document lose here
	// rather than silently overwriting each other.
	UpdateDocument(ctx context.Context, doc *model.Document) error

	// AppendEvent adds a transition event to the document's audit trail.
	// Returns NOT_FOUND if the payload's document is not in the store.
	// Events are never updated or deleted.
	AppendEvent(ctx context.Context, event model.Event) error

	// ListEvents retrieves all events for a document, oldest first.
	ListEvents(ctx context.Context, documentID string) ([]model.Event, error)

	// ListDocuments returns documents matching the filters, newest first.
	ListDocuments(ctx context.Context, filters DocumentFilters) ([]*model.Document, error)
}

// DocumentFilters are optional filters for listing documents.
type DocumentFilters struct {
	DefinitionID string
	StateID      string
	CreatedBy    string
	Limit        int
	Offset       int
}
