// Package engine implements the workflow state machine: given a validated
// definition, a payload, and an acting user, it answers which transitions the
// actor may perform from the payload's current state, executes an authorized
// transition, and emits an immutable event recording the change.
//
// The engine is synchronous and performs no I/O; loading the payload,
// persisting the mutated payload, and appending the event are the caller's
// responsibility.
package engine

import (
	"time"

	"github.com/udnboss/workflow/model"
)

// Instance binds a definition, a payload, the initiator, and the current
// actor for the duration of one request. It holds no persisted identity of
// its own and is discarded after use.
//
// An Instance is not safe for concurrent use; each request builds its own.
type Instance struct {
	def       *model.Definition
	payload   model.Payload
	initiator model.Actor
	actor     model.Actor
	current   model.State
	ids       IDGenerator
	now       func() time.Time
}

// Option configures an Instance.
type Option func(*Instance)

// WithIDGenerator overrides the event id generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(in *Instance) { in.ids = g }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(in *Instance) { in.now = now }
}

// New constructs an instance positioned at currentStateID. An empty
// currentStateID starts at the definition's initial state. Fails with
// STATE_NOT_FOUND when the state id is absent from the definition.
func New(def *model.Definition, initiator, actor model.Actor, currentStateID string, payload model.Payload, opts ...Option) (*Instance, error) {
	if currentStateID == "" {
		currentStateID = def.InitialStateID
	}
	current, err := def.State(currentStateID)
	if err != nil {
		return nil, err
	}

	in := &Instance{
		def:       def,
		payload:   payload,
		initiator: initiator,
		actor:     actor,
		current:   current,
		ids:       UUIDGenerator{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Definition returns the instance's workflow definition.
func (in *Instance) Definition() *model.Definition { return in.def }

// CurrentState returns the state the instance is positioned at.
func (in *Instance) CurrentState() model.State { return in.current }

// Initiator returns the actor that created the instance's payload.
func (in *Instance) Initiator() model.Actor { return in.initiator }

// Actor returns the current acting user.
func (in *Instance) Actor() model.Actor { return in.actor }

// SetActor switches the current acting user. Effective roles are derived
// fresh on every query, so no other state needs resetting.
func (in *Instance) SetActor(actor model.Actor) { in.actor = actor }

// PossibleActions returns the subset of the current state's actions whose
// required roles intersect the actor's effective roles, preserving the
// definition's action order. Terminal states and actors with no matching role
// yield an empty, non-error result. Pure query; no side effects.
func (in *Instance) PossibleActions() []model.Action {
	roles := EffectiveRoles(in.actor, in.initiator)

	var allowed []model.Action
	for _, a := range in.current.Actions {
		if roles.HasAny(a.RoleIDs...) {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// Perform executes the action with the given id from the current state.
//
// Failure order: ACTION_NOT_FOUND when the id is absent from the current
// state, ACTION_FORBIDDEN when the actor's effective roles do not intersect
// the action's required roles, STATE_NOT_FOUND when the action's target is
// missing from the definition (a corrupt definition; load-time validation
// makes this unreachable in practice). On any failure neither the instance's
// current state nor the payload is touched.
//
// On success the returned event carries the pre-transition state id and a
// payload snapshot taken before mutation, then the instance moves to the
// target state and the payload's state id is rewritten.
func (in *Instance) Perform(actionID, remarks string) (model.Event, error) {
	action, ok := in.current.Action(actionID)
	if !ok {
		return model.Event{}, model.NewActionNotFoundError(actionID, in.current.ID)
	}

	// Authorization is re-derived here rather than trusting an earlier
	// PossibleActions result; the actor may have changed in between.
	// Membership is an id comparison within the owning state, never object
	// identity.
	allowed := false
	for _, a := range in.PossibleActions() {
		if a.ID == action.ID {
			allowed = true
			break
		}
	}
	if !allowed {
		return model.Event{}, model.NewActionForbiddenError(in.actor.ID, actionID)
	}

	target, err := in.def.State(action.TargetStateID)
	if err != nil {
		return model.Event{}, err
	}

	event := model.Event{
		ID:          in.ids.NewID(),
		Timestamp:   in.now(),
		PrevStateID: in.current.ID,
		ActionID:    action.ID,
		NewStateID:  target.ID,
		PerformedBy: in.actor.ID,
		Remarks:     remarks,
		Payload:     snapshotOf(in.payload),
	}

	// All validation has passed; no partial transition is observable.
	in.current = target
	in.payload.SetStateID(target.ID)

	return event, nil
}

func snapshotOf(p model.Payload) model.Payload {
	if s, ok := p.(model.Snapshotter); ok {
		return s.Snapshot()
	}
	return p
}
