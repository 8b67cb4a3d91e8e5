package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")

	// Backend and storage errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrStorageUpload      = fmt.Errorf("storage upload failed")
	ErrObjectExists       = fmt.Errorf("object already exists")

	// Catalog errors
	ErrSongNotFound      = fmt.Errorf("song not found")
	ErrUserNotFound      = fmt.Errorf("user not found")
	ErrRecordingNotFound = fmt.Errorf("recording not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
