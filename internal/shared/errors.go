package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")

	// API and playback errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNoActivePlayback   = fmt.Errorf("playback not available or active")
	ErrUnsupportedContent = fmt.Errorf("playback item is not a track or album")

	// Logging session errors
	ErrSelfReference = fmt.Errorf("cannot reference self")
	ErrSessionClosed = fmt.Errorf("logging session already finished")
	ErrNoteNotFound  = fmt.Errorf("note not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
