package post

import (
	"errors"
	"testing"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    Status
		action  Action
		want    Status
		wantErr error
	}{
		{from: StatusOpen, action: ActionApprove, want: StatusApproved},
		{from: StatusOpen, action: ActionReject, want: StatusRejected},
		{from: StatusOpen, action: ActionResolve, want: StatusResolved},
		{from: StatusApproved, action: ActionReopen, want: StatusOpen},
		{from: StatusRejected, action: ActionReopen, want: StatusOpen},
		{from: StatusResolved, action: ActionReopen, want: StatusOpen},
		{from: StatusApproved, action: ActionResolve, wantErr: ErrInvalidTransition},
		{from: StatusRejected, action: ActionApprove, wantErr: ErrInvalidTransition},
		{from: StatusOpen, action: ActionReopen, wantErr: ErrInvalidTransition},
		{from: StatusResolved, action: ActionReject, wantErr: ErrInvalidTransition},
		{from: StatusOpen, action: Action("delete"), wantErr: ErrUnknownAction},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"_"+string(tc.action), func(t *testing.T) {
			got, err := Next(tc.from, tc.action)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEveryNonOpenStatusReturnsOnlyToOpen(t *testing.T) {
	actions := []Action{ActionApprove, ActionReject, ActionResolve, ActionReopen}
	for _, from := range []Status{StatusApproved, StatusRejected, StatusResolved} {
		for _, action := range actions {
			next, err := Next(from, action)
			if err == nil && next != StatusOpen {
				t.Fatalf("%s --%s--> %s must not be reachable", from, action, next)
			}
			if action == ActionReopen && err != nil {
				t.Fatalf("%s must be reopenable: %v", from, err)
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction("resolve"); err != nil || a != ActionResolve {
		t.Fatalf("expected resolve, got %s, %v", a, err)
	}
	if _, err := ParseAction("archive"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
