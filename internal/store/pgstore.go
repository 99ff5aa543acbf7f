package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udnboss/workflow/model"
)

// PgStore is a PostgreSQL-backed Store using pgx/v5.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PostgreSQL store.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// HealthCheck verifies database connectivity for the readiness endpoint.
func (s *PgStore) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateDocument inserts a new document.
func (s *PgStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (
			id, definition_id, title, created_by, state_id,
			fields, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.DefinitionID, doc.Title, doc.CreatedBy, doc.State,
		fieldsJSON, doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *PgStore) GetDocument(ctx context.Context, documentID string) (*model.Document, error) {
	var doc model.Document
	var fieldsJSON []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, definition_id, title, created_by, state_id,
		       fields, version, created_at, updated_at
		FROM documents
		WHERE id = $1`,
		documentID,
	).Scan(
		&doc.ID, &doc.DefinitionID, &doc.Title, &doc.CreatedBy, &doc.State,
		&fieldsJSON, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, model.NewNotFoundError(fmt.Sprintf("document %q not found", documentID))
	}
	if err != nil {
		return nil, fmt.Errorf("query document: %w", err)
	}

	if fieldsJSON != nil {
		if err := json.Unmarshal(fieldsJSON, &doc.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
	}

	return &doc, nil
}

// UpdateDocument persists an updated document with optimistic locking.
func (s *PgStore) UpdateDocument(ctx context.Context, doc *model.Document) error {
	fieldsJSON, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents SET
			title = $1,
			state_id = $2,
			fields = $3,
			version = $4,
			updated_at = $5
		WHERE id = $6 AND version = $7`,
		doc.Title, doc.State, fieldsJSON, doc.Version+1, now,
		doc.ID, doc.Version,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError(
			fmt.Sprintf("document %q version conflict (expected %d)", doc.ID, doc.Version),
		)
	}

	doc.Version++
	doc.UpdatedAt = now
	return nil
}

// AppendEvent adds a transition event to the audit trail.
func (s *PgStore) AppendEvent(ctx context.Context, event model.Event) error {
	if event.Payload == nil {
		return model.NewBadRequestError("event has no payload")
	}

	payloadJSON, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	// The trail must only ever reference documents the store holds, matching
	// the NOT_FOUND contract of ListEvents.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`,
		event.Payload.PayloadID(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check document: %w", err)
	}
	if !exists {
		return model.NewNotFoundError(fmt.Sprintf("document %q not found", event.Payload.PayloadID()))
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO document_events (
			id, document_id, prev_state_id, action_id, new_state_id,
			performed_by, remarks, payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.Payload.PayloadID(), event.PrevStateID, event.ActionID,
		event.NewStateID, event.PerformedBy, event.Remarks, payloadJSON, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListEvents retrieves all events for a document, oldest first.
func (s *PgStore) ListEvents(ctx context.Context, documentID string) ([]model.Event, error) {
	// Verify the document exists so absent documents surface as NOT_FOUND
	// rather than an empty trail.
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, prev_state_id, action_id, new_state_id,
		       performed_by, remarks, payload, created_at
		FROM document_events
		WHERE document_id = $1
		ORDER BY created_at ASC`,
		documentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var evt model.Event
		var payloadJSON []byte
		if err := rows.Scan(
			&evt.ID, &evt.PrevStateID, &evt.ActionID, &evt.NewStateID,
			&evt.PerformedBy, &evt.Remarks, &payloadJSON, &evt.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if payloadJSON != nil {
			var doc model.Document
			if err := json.Unmarshal(payloadJSON, &doc); err != nil {
				return nil, fmt.Errorf("unmarshal event payload: %w", err)
			}
			evt.Payload = &doc
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// ListDocuments returns documents matching the filters, newest first.
func (s *PgStore) ListDocuments(ctx context.Context, filters DocumentFilters) ([]*model.Document, error) {
	query := `SELECT id, definition_id, title, created_by, state_id,
	                 fields, version, created_at, updated_at
	          FROM documents
	          WHERE 1=1`
	args := []any{}
	argIdx := 1

	if filters.DefinitionID != "" {
		query += fmt.Sprintf(" AND definition_id = $%d", argIdx)
		args = append(args, filters.DefinitionID)
		argIdx++
	}
	if filters.StateID != "" {
		query += fmt.Sprintf(" AND state_id = $%d", argIdx)
		args = append(args, filters.StateID)
		argIdx++
	}
	if filters.CreatedBy != "" {
		query += fmt.Sprintf(" AND created_by = $%d", argIdx)
		args = append(args, filters.CreatedBy)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filters.Limit)
		argIdx++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filters.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		var doc model.Document
		var fieldsJSON []byte
		if err := rows.Scan(
			&doc.ID, &doc.DefinitionID, &doc.Title, &doc.CreatedBy, &doc.State,
			&fieldsJSON, &doc.Version, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if fieldsJSON != nil {
			_ = json.Unmarshal(fieldsJSON, &doc.Fields)
		}
		documents = append(documents, &doc)
	}
	return documents, rows.Err()
}
