package user

import "errors"

var (
	ErrActorNotFound = errors.New("actor not found")
)
