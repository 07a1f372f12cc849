package permission

import "errors"

// ErrPermissionDenied matches every DeniedError via errors.Is
var ErrPermissionDenied = errors.New("permission denied")

// Reason explains why an action was denied
type Reason string

const (
	ReasonSelfTarget       Reason = "self_target"
	ReasonProtectedRole    Reason = "protected_role"
	ReasonInsufficientRank Reason = "insufficient_rank"
	ReasonBanned           Reason = "actor_banned"
	ReasonUnknownRole      Reason = "unknown_role"
)

// DeniedError carries the denial reason through error returns
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return ErrPermissionDenied.Error() + ": " + string(e.Reason)
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrPermissionDenied
}

// Denied creates a DeniedError for reason
func Denied(reason Reason) error {
	return &DeniedError{Reason: reason}
}

// ReasonOf extracts the denial reason from err
func ReasonOf(err error) (Reason, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}
