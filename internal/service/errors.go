package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("resource not found")
)

// Team service specific errors
var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTeamAlreadyExists  = errors.New("team already exists")
)

// Submission specific errors
var (
	ErrFlagNotFound     = errors.New("flag not found")
	ErrAlreadySubmitted = errors.New("flag already submitted by this team")
)

// Passive points scheduler errors
var (
	ErrSchedulerAlreadyRunning = errors.New("passive points mechanism is already running")
	ErrSchedulerNotRunning     = errors.New("passive points mechanism is not running")
)
