package ws

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrInvalidPayload  = errors.New("invalid event payload")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotInRoom       = errors.New("connection is not in room")
)
