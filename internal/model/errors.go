package model

import "errors"

// Common errors used across the application
var (
	// Connection errors
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInvalidUsername    = errors.New("invalid username")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrNotParticipant  = errors.New("connection is not a participant in this session")
	ErrInvalidMove     = errors.New("invalid move")

	// Score errors
	ErrScoreNotFound     = errors.New("score not found")
	ErrInvalidScoreField = errors.New("invalid score field")

	// Event errors
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrMalformedEvent = errors.New("malformed event payload")
)
