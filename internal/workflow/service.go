// Package workflow is the service layer tying the definition registry, the
// state machine engine, and the document store together. Handlers call into
// this package; the engine itself stays free of I/O.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/udnboss/workflow/internal/definition"
	"github.com/udnboss/workflow/internal/engine"
	"github.com/udnboss/workflow/internal/observability"
	"github.com/udnboss/workflow/internal/store"
	"github.com/udnboss/workflow/model"
)

// Service coordinates document lifecycle operations. All methods are safe for
// concurrent use; per-document write races are resolved by the store's
// optimistic version check.
type Service struct {
	registry *definition.Registry
	store    store.Store
	ids      engine.IDGenerator
	now      func() time.Time
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithIDGenerator overrides the event id generator.
func WithIDGenerator(g engine.IDGenerator) ServiceOption {
	return func(s *Service) { s.ids = g }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches metric instruments.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a Service backed by the given registry and store.
func NewService(registry *definition.Registry, st store.Store, opts ...ServiceOption) *Service {
	s := &Service{
		registry: registry,
		store:    st,
		ids:      engine.UUIDGenerator{},
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateDocumentRequest carries the caller-supplied fields for a new document.
type CreateDocumentRequest struct {
	DefinitionID string         `json:"definition_id"`
	Title        string         `json:"title"`
	Fields       map[string]any `json:"fields,omitempty"`
}

// Create starts a new document at the definition's initial state. The
// authenticated actor becomes the document's creator and therefore its
// initiator for all later transitions.
func (s *Service) Create(ctx context.Context, actor model.Actor, req CreateDocumentRequest) (*model.Document, error) {
	ctx, span := observability.StartSpan(ctx, "workflow.Create",
		observability.AttrDefinitionID.String(req.DefinitionID),
		observability.AttrActorID.String(actor.ID),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	if req.DefinitionID == "" {
		err = model.NewBadRequestError("definition_id is required")
		return nil, err
	}
	if req.Title == "" {
		err = model.NewBadRequestError("title is required")
		return nil, err
	}

	def, ok := s.registry.Get(req.DefinitionID)
	if !ok {
		err = model.NewNotFoundError(fmt.Sprintf("definition %q not found", req.DefinitionID))
		return nil, err
	}

	now := s.now()
	doc := &model.Document{
		ID:           uuid.New().String(),
		DefinitionID: def.ID,
		Title:        req.Title,
		CreatedBy:    actor.ID,
		State:        def.InitialStateID,
		Fields:       req.Fields,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err = s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		zap.String("document_id", doc.ID),
		zap.String("definition_id", def.ID),
		zap.String("state_id", doc.State),
		zap.String("created_by", actor.ID),
	)
	if s.metrics != nil {
		s.metrics.DocumentsCreatedTotal.WithLabelValues(def.ID).Inc()
	}

	return doc, nil
}

// Get retrieves a document by id.
func (s *Service) Get(ctx context.Context, documentID string) (*model.Document, error) {
	return s.store.GetDocument(ctx, documentID)
}

// List returns documents matching the filters.
func (s *Service) List(ctx context.Context, filters store.DocumentFilters) ([]*model.Document, error) {
	return s.store.ListDocuments(ctx, filters)
}

// PossibleActions returns the transitions the actor may perform on the
// document from its current state. An empty result means the actor can do
// nothing here; it is not an error.
func (s *Service) PossibleActions(ctx context.Context, actor model.Actor, documentID string) ([]model.Action, error) {
	in, _, err := s.instanceFor(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}
	return in.PossibleActions(), nil
}

// PerformResult is the outcome of a successful transition.
type PerformResult struct {
	Event    model.Event     `json:"event"`
	Document *model.Document `json:"document"`
}

// Perform executes an action on a document: it runs the transition through the
// engine, saves the moved document with an optimistic version check, and
// appends the transition event to the audit trail.
func (s *Service) Perform(ctx context.Context, actor model.Actor, documentID, actionID, remarks string) (*PerformResult, error) {
	ctx, span := observability.StartSpan(ctx, "workflow.Perform",
		observability.AttrDocumentID.String(documentID),
		observability.AttrActionID.String(actionID),
		observability.AttrActorID.String(actor.ID),
	)
	var err error
	defer func() { observability.EndSpanWithError(span, err) }()

	in, doc, err := s.instanceFor(ctx, actor, documentID)
	if err != nil {
		return nil, err
	}

	event, err := in.Perform(actionID, remarks)
	if err != nil {
		s.logger.Warn("transition denied",
			zap.String("document_id", documentID),
			zap.String("action_id", actionID),
			zap.String("actor_id", actor.ID),
			zap.String("code", model.CodeOf(err)),
		)
		if s.metrics != nil {
			s.metrics.TransitionsDenied.WithLabelValues(doc.DefinitionID, model.CodeOf(err)).Inc()
		}
		return nil, err
	}

	// The document is saved before the event so that a lost version race
	// leaves no orphaned event behind.
	if err = s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err = s.store.AppendEvent(ctx, event); err != nil {
		return nil, err
	}

	s.logger.Info("transition performed",
		zap.String("document_id", doc.ID),
		zap.String("definition_id", doc.DefinitionID),
		zap.String("action_id", event.ActionID),
		zap.String("prev_state_id", event.PrevStateID),
		zap.String("new_state_id", event.NewStateID),
		zap.String("performed_by", event.PerformedBy),
	)
	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(doc.DefinitionID, event.ActionID).Inc()
	}

	return &PerformResult{Event: event, Document: doc}, nil
}

// Events returns the document's audit trail, oldest first.
func (s *Service) Events(ctx context.Context, documentID string) ([]model.Event, error) {
	return s.store.ListEvents(ctx, documentID)
}

// Definition returns a loaded definition by id.
func (s *Service) Definition(definitionID string) (*model.Definition, error) {
	def, ok := s.registry.Get(definitionID)
	if !ok {
		return nil, model.NewNotFoundError(fmt.Sprintf("definition %q not found", definitionID))
	}
	return def, nil
}

// Definitions returns all loaded definitions, sorted by id.
func (s *Service) Definitions() []*model.Definition {
	return s.registry.All()
}

// instanceFor loads the document and builds an engine instance positioned at
// its current state. The initiator is derived from the document's creator;
// only its id matters for the contextual initiator role.
func (s *Service) instanceFor(ctx context.Context, actor model.Actor, documentID string) (*engine.Instance, *model.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}

	def, ok := s.registry.Get(doc.DefinitionID)
	if !ok {
		return nil, nil, model.NewNotFoundError(fmt.Sprintf("definition %q not found", doc.DefinitionID))
	}

	initiator := model.Actor{ID: doc.CreatedBy}
	in, err := engine.New(def, initiator, actor, doc.State, doc,
		engine.WithIDGenerator(s.ids),
		engine.WithClock(s.now),
	)
	if err != nil {
		return nil, nil, err
	}
	return in, doc, nil
}
