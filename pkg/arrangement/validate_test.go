package arrangement

import (
	"context"
	"testing"
)

func TestValidate_CleanTree(t *testing.T) {
	s := newTree(t, NewMemoryPersistence())
	if _, err := s.GetOrCreatePath(context.Background(), samplePath); err != nil {
		t.Fatalf("GetOrCreatePath: %v", err)
	}
	if errs := Validate(s); len(errs) != 0 {
		t.Errorf("expected no findings, got %v", errs)
	}
}

func TestValidate_Findings(t *testing.T) {
	tests := []struct {
		name     string
		corrupt  func(s *TreeStore)
		severity Severity
	}{
		{
			name: "broken parent link",
			corrupt: func(s *TreeStore) {
				n := s.nodes["STR*DECK_2_05"]
				n.parent = s.root
			},
			severity: SeverityError,
		},
		{
			name: "object in two nodes",
			corrupt: func(s *TreeStore) {
				s.nodes["STR*FWD"].members["P1"] = struct{}{}
				s.nodes[samplePath.Leaf()].members["P1"] = struct{}{}
			},
			severity: SeverityError,
		},
		{
			name: "member on interior node",
			corrupt: func(s *TreeStore) {
				s.nodes["STR*FWD"].members["P2"] = struct{}{}
			},
			severity: SeverityWarning,
		},
		{
			name: "second root",
			corrupt: func(s *TreeStore) {
				s.nodes["STR*ORPHAN"] = newNode(s, "STR*ORPHAN", nil)
			},
			severity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTree(t, NewMemoryPersistence())
			if _, err := s.GetOrCreatePath(context.Background(), samplePath); err != nil {
				t.Fatalf("GetOrCreatePath: %v", err)
			}
			tt.corrupt(s)

			errs := Validate(s)
			found := false
			for _, e := range errs {
				if e.Severity == tt.severity {
					found = true
				}
			}
			if !found {
				t.Errorf("expected a %s finding, got %v", tt.severity, errs)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	e := ValidationError{Node: "STR*FWD", Message: "bad", Severity: SeverityError}
	if got, want := e.Error(), "[error] node STR*FWD: bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	e.Node = ""
	if got, want := e.Error(), "[error] bad"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
