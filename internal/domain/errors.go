package domain

import "errors"

// Sentinel ошибки доменного слоя
var (
	ErrCommentNotFound = errors.New("comment not found")
	ErrEmptyContent    = errors.New("comment content cannot be empty")
	ErrNoIdentity      = errors.New("current user is unknown")
	ErrUnknownComment  = errors.New("comment is not part of the thread")
	ErrInvalidPayload  = errors.New("invalid comment payload")
	ErrInvalidSort     = errors.New("invalid sort order")
	ErrNotMounted      = errors.New("thread is not mounted")
	ErrNoMorePages     = errors.New("no more comments to fetch")
	ErrFetchInFlight   = errors.New("comment page fetch already in flight")
)
