package audit

import "errors"

var (
	ErrUnknownKind = errors.New("unknown audit kind")
)
