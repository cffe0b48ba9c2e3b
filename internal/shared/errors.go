package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("session token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrSuperseded       = fmt.Errorf("superseded by a newer request")
	ErrUserNotFound     = fmt.Errorf("user not found")

	// Provider errors
	ErrInvalidLink    = fmt.Errorf("unrecognized link")
	ErrNetworkFailure = fmt.Errorf("provider request failed")
	ErrEmptyResult    = fmt.Errorf("no results")

	// Playback errors
	ErrMechanism         = fmt.Errorf("playback mechanism failed")
	ErrInvalidTransition = fmt.Errorf("invalid playback transition")

	// Library errors
	ErrTrackNotFound = fmt.Errorf("track not found")
	ErrDuplicate     = fmt.Errorf("track already in library")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
