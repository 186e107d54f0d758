package core

import "errors"

// Sentinel errors shared across the service. The HTTP layer maps these to
// status codes with errors.Is; components wrap them with context via %w.
var (
	// ErrNotFound indicates a referenced artist id has no record.
	ErrNotFound = errors.New("artist not found")
	// ErrNoVideo indicates a play request for an artist without a video.
	ErrNoVideo = errors.New("no video available")
	// ErrInvalidInput indicates a malformed URL, query or request body.
	ErrInvalidInput = errors.New("invalid input")
	// ErrResolutionFailed indicates a well-formed metadata lookup that matched nothing.
	ErrResolutionFailed = errors.New("video resolution failed")
	// ErrUpstreamUnavailable indicates a missing credential or a failing upstream service.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
