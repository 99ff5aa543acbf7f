package engine

import (
	"testing"
	"time"

	"github.com/udnboss/workflow/model"
)

// Test fixture mirroring the SOW approval definition shipped in
// definitions/sow_approval.yaml: four review steps, a terminal approved
// state, and a rejected state that cycles back to draft via edit.
func sowDefinition() *model.Definition {
	return &model.Definition{
		ID:      "sow_approval",
		Name:    "SOW Approval",
		Version: "1.0.0",
		Roles: []model.Role{
			{ID: "user", Title: "User"},
			{ID: "initiator", Title: "Initiator"},
			{ID: "reviewer", Title: "Reviewer"},
			{ID: "distributor", Title: "Distributor"},
			{ID: "representative", Title: "Representative"},
			{ID: "approver", Title: "Approver"},
		},
		Stages: []model.Stage{
			{ID: "draft", Title: "Draft"},
			{ID: "in_progress", Title: "In Progress"},
			{ID: "approved", Title: "Approved"},
			{ID: "rejected", Title: "Rejected"},
		},
		InitialStateID: "draft",
		FinalStateID:   "approved",
		States: []model.State{
			{
				ID: "draft", Title: "Draft", StageID: "draft",
				Actions: []model.Action{
					{ID: "submit", Title: "Submit", TargetStateID: "pending_initial_review", RoleIDs: []string{"initiator"}},
				},
			},
			{
				ID: "pending_initial_review", Title: "Pending Initial Review", StageID: "in_progress",
				Actions: []model.Action{
					{ID: "approve", Title: "Approve", TargetStateID: "pending_distributor_review", RoleIDs: []string{"reviewer"}},
					{ID: "reject", Title: "Reject", TargetStateID: "rejected", RoleIDs: []string{"reviewer"}},
				},
			},
			{
				ID: "pending_distributor_review", Title: "Pending Distributor Review", StageID: "in_progress",
				Actions: []model.Action{
					{ID: "approve", Title: "Approve", TargetStateID: "pending_representative_review", RoleIDs: []string{"distributor"}},
					{ID: "reject", Title: "Reject", TargetStateID: "rejected", RoleIDs: []string{"distributor"}},
				},
			},
			{
				ID: "pending_representative_review", Title: "Pending Representative Review", StageID: "in_progress",
				Actions: []model.Action{
					{ID: "approve", Title: "Approve", TargetStateID: "pending_approval", RoleIDs: []string{"representative"}},
					{ID: "reject", Title: "Reject", TargetStateID: "rejected", RoleIDs: []string{"representative"}},
				},
			},
			{
				ID: "pending_approval", Title: "Pending Approval", StageID: "in_progress",
				Actions: []model.Action{
					{ID: "approve", Title: "Approve", TargetStateID: "approved", RoleIDs: []string{"approver"}},
					{ID: "reject", Title: "Reject", TargetStateID: "rejected", RoleIDs: []string{"approver"}},
				},
			},
			{ID: "approved", Title: "Approved", StageID: "approved"},
			{
				ID: "rejected", Title: "Rejected", StageID: "rejected",
				Actions: []model.Action{
					{ID: "edit", Title: "Edit", TargetStateID: "draft", RoleIDs: []string{"initiator"}},
				},
			},
		},
	}
}

var (
	sowUser      = model.Actor{ID: "sow_user", Name: "User", RoleIDs: []string{"user"}}
	reviewerUser = model.Actor{ID: "reviewer_user", Name: "Reviewer User", RoleIDs: []string{"reviewer"}}
	distribUser  = model.Actor{ID: "distributor_user", Name: "Distributor User", RoleIDs: []string{"distributor"}}
	represUser   = model.Actor{ID: "representative_user", Name: "Representative User", RoleIDs: []string{"representative"}}
	approverUser = model.Actor{ID: "approver_user", Name: "Approver User", RoleIDs: []string{"approver"}}
)

func testDocument() *model.Document {
	return &model.Document{
		ID:           "sow-1",
		DefinitionID: "sow_approval",
		Title:        "Example SOW",
		CreatedBy:    "sow_user",
		State:        "draft",
		Fields:       map[string]any{"amount": 1200},
	}
}

func testInstance(t *testing.T, actor model.Actor, stateID string, doc *model.Document) *Instance {
	t.Helper()
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in, err := New(sowDefinition(), sowUser, actor, stateID, doc,
		WithIDGenerator(&SequenceGenerator{}),
		WithClock(func() time.Time { return fixed }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return in
}

func actionIDs(actions []model.Action) []string {
	ids := make([]string, len(actions))
	for i, a := range actions {
		ids[i] = a.ID
	}
	return ids
}

func TestNew_DefaultsToInitialState(t *testing.T) {
	in, err := New(sowDefinition(), sowUser, sowUser, "", testDocument())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if in.CurrentState().ID != "draft" {
		t.Errorf("CurrentState() = %q, want draft", in.CurrentState().ID)
	}
}

func TestNew_UnknownState(t *testing.T) {
	_, err := New(sowDefinition(), sowUser, sowUser, "limbo", testDocument())
	if model.CodeOf(err) != model.ErrStateNotFound {
		t.Fatalf("New(limbo) code = %q, want STATE_NOT_FOUND", model.CodeOf(err))
	}
}

func TestPossibleActions_InitiatorAtDraft(t *testing.T) {
	in := testInstance(t, sowUser, "draft", testDocument())

	got := actionIDs(in.PossibleActions())
	if len(got) != 1 || got[0] != "submit" {
		t.Errorf("PossibleActions() = %v, want [submit]", got)
	}
}

func TestPossibleActions_NonCreatorAtDraft(t *testing.T) {
	in := testInstance(t, reviewerUser, "draft", testDocument())

	if got := in.PossibleActions(); len(got) != 0 {
		t.Errorf("reviewer at draft should see no actions, got %v", actionIDs(got))
	}
}

func TestPossibleActions_PreservesDefinitionOrder(t *testing.T) {
	in := testInstance(t, reviewerUser, "pending_initial_review", testDocument())

	got := actionIDs(in.PossibleActions())
	want := []string{"approve", "reject"}
	if len(got) != len(want) {
		t.Fatalf("PossibleActions() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PossibleActions() order = %v, want %v", got, want)
		}
	}
}

func TestPossibleActions_TerminalState(t *testing.T) {
	in := testInstance(t, approverUser, "approved", testDocument())

	if got := in.PossibleActions(); len(got) != 0 {
		t.Errorf("terminal state should yield no actions, got %v", actionIDs(got))
	}
}

func TestPerform_UnknownAction(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	_, err := in.Perform("teleport", "")
	if model.CodeOf(err) != model.ErrActionNotFound {
		t.Fatalf("Perform(teleport) code = %q, want ACTION_NOT_FOUND", model.CodeOf(err))
	}
	if in.CurrentState().ID != "draft" || doc.State != "draft" {
		t.Error("failed perform must not move the instance or the payload")
	}
}

func TestPerform_RepeatedActionAfterTransition(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	if _, err := in.Perform("submit", ""); err != nil {
		t.Fatalf("first submit error = %v", err)
	}

	// Actions resolve against the current state, so replaying the same action
	// id after the transition fails rather than firing twice.
	_, err := in.Perform("submit", "")
	if model.CodeOf(err) != model.ErrActionNotFound {
		t.Fatalf("second submit code = %q, want ACTION_NOT_FOUND", model.CodeOf(err))
	}
	if in.CurrentState().ID != "pending_initial_review" || doc.State != "pending_initial_review" {
		t.Error("replayed action must not move the instance or the payload")
	}
}

func TestPerform_Forbidden(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, reviewerUser, "draft", doc)

	// The submit action exists at draft but requires the initiator role.
	_, err := in.Perform("submit", "")
	if model.CodeOf(err) != model.ErrActionForbidden {
		t.Fatalf("Perform(submit) code = %q, want ACTION_FORBIDDEN", model.CodeOf(err))
	}
	if in.CurrentState().ID != "draft" || doc.State != "draft" {
		t.Error("forbidden perform must not move the instance or the payload")
	}
}

func TestPerform_Success(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	event, err := in.Perform("submit", "ready for review")
	if err != nil {
		t.Fatalf("Perform(submit) error = %v", err)
	}

	if event.ID != "evt-1" {
		t.Errorf("event.ID = %q, want evt-1", event.ID)
	}
	if event.PrevStateID != "draft" {
		t.Errorf("event.PrevStateID = %q, want draft", event.PrevStateID)
	}
	if event.NewStateID != "pending_initial_review" {
		t.Errorf("event.NewStateID = %q, want pending_initial_review", event.NewStateID)
	}
	if event.ActionID != "submit" {
		t.Errorf("event.ActionID = %q, want submit", event.ActionID)
	}
	if event.PerformedBy != "sow_user" {
		t.Errorf("event.PerformedBy = %q, want sow_user", event.PerformedBy)
	}
	if event.Remarks != "ready for review" {
		t.Errorf("event.Remarks = %q", event.Remarks)
	}
	if in.CurrentState().ID != "pending_initial_review" {
		t.Errorf("CurrentState() = %q after submit", in.CurrentState().ID)
	}
	if doc.State != "pending_initial_review" {
		t.Errorf("doc.State = %q after submit", doc.State)
	}
}

func TestPerform_EventPayloadIsSnapshot(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	event, err := in.Perform("submit", "")
	if err != nil {
		t.Fatalf("Perform() error = %v", err)
	}

	snap, ok := event.Payload.(*model.Document)
	if !ok {
		t.Fatalf("event payload is %T, want *model.Document", event.Payload)
	}
	// The snapshot is taken before the transition mutates the payload.
	if snap.State != "draft" {
		t.Errorf("snapshot state = %q, want draft", snap.State)
	}

	// Later payload mutations must not leak into the recorded event.
	doc.Fields["amount"] = 9999
	if snap.Fields["amount"] != 1200 {
		t.Errorf("snapshot fields mutated: %v", snap.Fields["amount"])
	}
}

func TestPerform_CorruptTargetState(t *testing.T) {
	def := sowDefinition()
	def.States[0].Actions[0].TargetStateID = "nowhere"

	doc := testDocument()
	in, err := New(def, sowUser, sowUser, "draft", doc)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = in.Perform("submit", "")
	if model.CodeOf(err) != model.ErrStateNotFound {
		t.Fatalf("Perform with dangling target code = %q, want STATE_NOT_FOUND", model.CodeOf(err))
	}
	if doc.State != "draft" {
		t.Error("payload must stay untouched when the target state is missing")
	}
}

func TestSetActor_RederivesAuthorization(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, reviewerUser, "draft", doc)

	if _, err := in.Perform("submit", ""); model.CodeOf(err) != model.ErrActionForbidden {
		t.Fatalf("reviewer submit code = %q, want ACTION_FORBIDDEN", model.CodeOf(err))
	}

	// Switching to the creator grants the initiator role on the next check.
	in.SetActor(sowUser)
	if _, err := in.Perform("submit", ""); err != nil {
		t.Fatalf("creator submit error = %v", err)
	}
}

func TestRejectThenEditCycle(t *testing.T) {
	doc := testDocument()
	doc.State = "pending_initial_review"
	in := testInstance(t, reviewerUser, "pending_initial_review", doc)

	if _, err := in.Perform("reject", "missing estimates"); err != nil {
		t.Fatalf("reject error = %v", err)
	}
	if in.CurrentState().ID != "rejected" {
		t.Fatalf("state = %q after reject", in.CurrentState().ID)
	}

	// The reviewer cannot edit a rejected document; only its creator can.
	if _, err := in.Perform("edit", ""); model.CodeOf(err) != model.ErrActionForbidden {
		t.Fatalf("reviewer edit code = %q, want ACTION_FORBIDDEN", model.CodeOf(err))
	}

	in.SetActor(sowUser)
	if _, err := in.Perform("edit", ""); err != nil {
		t.Fatalf("creator edit error = %v", err)
	}
	if in.CurrentState().ID != "draft" || doc.State != "draft" {
		t.Error("edit should cycle the document back to draft")
	}
}

// Walks the full rejection round trip: submit, three approvals, a rejection
// at the final gate, and the creator's edit back to draft. Six events total.
func TestEndToEndRejectionRoundTrip(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	steps := []struct {
		actor     model.Actor
		actionID  string
		wantState string
	}{
		{sowUser, "submit", "pending_initial_review"},
		{reviewerUser, "approve", "pending_distributor_review"},
		{distribUser, "approve", "pending_representative_review"},
		{represUser, "approve", "pending_approval"},
		{approverUser, "reject", "rejected"},
		{sowUser, "edit", "draft"},
	}

	var events []model.Event
	for i, step := range steps {
		// At rejected, an actor without the initiator role cannot edit.
		if step.actionID == "edit" {
			in.SetActor(reviewerUser)
			if _, err := in.Perform("edit", ""); model.CodeOf(err) != model.ErrActionForbidden {
				t.Fatalf("reviewer edit code = %q, want ACTION_FORBIDDEN", model.CodeOf(err))
			}
		}

		in.SetActor(step.actor)
		event, err := in.Perform(step.actionID, "")
		if err != nil {
			t.Fatalf("step %d: Perform(%s) by %s error = %v", i+1, step.actionID, step.actor.ID, err)
		}
		if doc.State != step.wantState {
			t.Errorf("step %d: doc.State = %q, want %q", i+1, doc.State, step.wantState)
		}
		events = append(events, event)
	}

	if len(events) != 6 {
		t.Fatalf("len(events) = %d, want 6", len(events))
	}
	if doc.State != "draft" {
		t.Errorf("final state = %q, want draft", doc.State)
	}
	if last := events[5]; last.ID != "evt-6" || last.PrevStateID != "rejected" {
		t.Errorf("last event = %+v", last)
	}
}

// Walks the full happy path: submit, then three approvals, then the final
// approval into the terminal approved state, switching actors at each step.
func TestEndToEndApproval(t *testing.T) {
	doc := testDocument()
	in := testInstance(t, sowUser, "draft", doc)

	steps := []struct {
		actor     model.Actor
		actionID  string
		wantState string
	}{
		{sowUser, "submit", "pending_initial_review"},
		{reviewerUser, "approve", "pending_distributor_review"},
		{distribUser, "approve", "pending_representative_review"},
		{represUser, "approve", "pending_approval"},
		{approverUser, "approve", "approved"},
	}

	prev := "draft"
	for i, step := range steps {
		in.SetActor(step.actor)

		event, err := in.Perform(step.actionID, "")
		if err != nil {
			t.Fatalf("step %d: Perform(%s) by %s error = %v", i+1, step.actionID, step.actor.ID, err)
		}
		if event.PrevStateID != prev {
			t.Errorf("step %d: PrevStateID = %q, want %q", i+1, event.PrevStateID, prev)
		}
		if event.NewStateID != step.wantState {
			t.Errorf("step %d: NewStateID = %q, want %q", i+1, event.NewStateID, step.wantState)
		}
		if event.PerformedBy != step.actor.ID {
			t.Errorf("step %d: PerformedBy = %q, want %q", i+1, event.PerformedBy, step.actor.ID)
		}
		if doc.State != step.wantState {
			t.Errorf("step %d: doc.State = %q, want %q", i+1, doc.State, step.wantState)
		}
		prev = step.wantState
	}

	if !in.CurrentState().Terminal() {
		t.Error("approved must be terminal")
	}
	if got := in.PossibleActions(); len(got) != 0 {
		t.Errorf("no actions should remain at approved, got %v", actionIDs(got))
	}
}
