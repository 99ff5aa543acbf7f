package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/udnboss/workflow/model"
)

// MemoryStore is an in-memory Store for tests and single-process development.
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*model.Document
	events    map[string][]model.Event // key: document id
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*model.Document),
		events:    make(map[string][]model.Event),
	}
}

// CreateDocument persists a new document.
func (s *MemoryStore) CreateDocument(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.documents[doc.ID]; exists {
		return model.NewConflictError(fmt.Sprintf("document %q already exists", doc.ID))
	}

	cp := doc.Snapshot().(*model.Document)
	s.documents[doc.ID] = cp
	return nil
}

// GetDocument retrieves a document by id.
func (s *MemoryStore) GetDocument(_ context.Context, documentID string) (*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, exists := s.documents[documentID]
	if !exists {
		return nil, model.NewNotFoundError(fmt.Sprintf("document %q not found", documentID))
	}
	return doc.Snapshot().(*model.Document), nil
}

// UpdateDocument persists an updated document with optimistic locking.
func (s *MemoryStore) UpdateDocument(_ context.Context, doc *model.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.documents[doc.ID]
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("document %q not found", doc.ID))
	}

	if existing.Version != doc.Version {
		return model.NewConflictError(
			fmt.Sprintf("document %q version conflict (expected %d, got %d)", doc.ID, doc.Version, existing.Version),
		)
	}

	cp := doc.Snapshot().(*model.Document)
	cp.Version++
	cp.UpdatedAt = time.Now().UTC()
	s.documents[doc.ID] = cp

	// Reflect the committed version back to the caller.
	doc.Version = cp.Version
	doc.UpdatedAt = cp.UpdatedAt
	return nil
}

// AppendEvent adds an event to the document's audit trail.
func (s *MemoryStore) AppendEvent(_ context.Context, event model.Event) error {
	if event.Payload == nil {
		return model.NewBadRequestError("event has no payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docID := event.Payload.PayloadID()
	if _, exists := s.documents[docID]; !exists {
		return model.NewNotFoundError(fmt.Sprintf("document %q not found", docID))
	}
	s.events[docID] = append(s.events[docID], event)
	return nil
}

// ListEvents retrieves all events for a document, ordered by timestamp.
func (s *MemoryStore) ListEvents(_ context.Context, documentID string) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.documents[documentID]; !exists {
		return nil, model.NewNotFoundError(fmt.Sprintf("document %q not found", documentID))
	}

	events := s.events[documentID]
	result := make([]model.Event, len(events))
	copy(result, events)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

// ListDocuments returns documents matching the filters, newest first.
func (s *MemoryStore) ListDocuments(_ context.Context, filters DocumentFilters) ([]*model.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.Document
	for _, doc := range s.documents {
		if filters.DefinitionID != "" && doc.DefinitionID != filters.DefinitionID {
			continue
		}
		if filters.StateID != "" && doc.State != filters.StateID {
			continue
		}
		if filters.CreatedBy != "" && doc.CreatedBy != filters.CreatedBy {
			continue
		}
		result = append(result, doc.Snapshot().(*model.Document))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(result) {
			return []*model.Document{}, nil
		}
		result = result[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(result) {
		result = result[:filters.Limit]
	}

	return result, nil
}

// Len returns the total number of documents. For testing.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}
