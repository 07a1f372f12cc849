package post

import "errors"

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrInvalidTransition = errors.New("invalid post status transition")
	ErrUnknownAction     = errors.New("unknown post action")
	ErrInvalidCategory   = errors.New("invalid post category")
)
