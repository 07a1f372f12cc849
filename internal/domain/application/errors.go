package application

import "errors"

var (
	ErrApplicationNotFound = errors.New("application not found")
	ErrInvalidTransition   = errors.New("application is not pending")
	ErrDuplicatePending    = errors.New("applicant already has a pending application")
)
