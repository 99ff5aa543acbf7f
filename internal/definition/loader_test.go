package definition

import (
	"testing"
)

func TestLoadFile(t *testing.T) {
	l := NewLoader()

	def, err := l.LoadFile("testdata/valid/leave_request.yaml")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if def.ID != "leave_request" {
		t.Errorf("def.ID = %q, want leave_request", def.ID)
	}
	if def.InitialStateID != "draft" {
		t.Errorf("def.InitialStateID = %q, want draft", def.InitialStateID)
	}
	if def.FinalStateID != "granted" {
		t.Errorf("def.FinalStateID = %q, want granted", def.FinalStateID)
	}
	if len(def.States) != 4 {
		t.Errorf("len(States) = %d, want 4", len(def.States))
	}
	if def.Checksum == "" {
		t.Error("checksum should be computed at load time")
	}
	if def.SourceFile != "testdata/valid/leave_request.yaml" {
		t.Errorf("def.SourceFile = %q", def.SourceFile)
	}

	// Action ordering must survive the round trip; it is meaningful.
	pending, err := def.State("pending_manager")
	if err != nil {
		t.Fatalf("State(pending_manager) error = %v", err)
	}
	if pending.Actions[0].ID != "approve" || pending.Actions[1].ID != "reject" {
		t.Errorf("action order = %v", pending.Actions)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadFile("testdata/valid/nonexistent.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadAll(t *testing.T) {
	l := NewLoader()

	defs, err := l.LoadAll([]string{"testdata/valid"})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("len(defs) = %d, want 1", len(defs))
	}
}

func TestLoadAll_MissingDirectory(t *testing.T) {
	l := NewLoader()
	if _, err := l.LoadAll([]string{"testdata/nonexistent"}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
