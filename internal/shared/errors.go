package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrRateLimited        = fmt.Errorf("rate limited by Tidal; retry with a smaller --batch-size")

	// Input validation errors
	ErrInvalidPlaylistURL  = fmt.Errorf("invalid playlist URL")
	ErrInvalidSegmentCount = fmt.Errorf("invalid segment count")
	ErrMissingArgument     = fmt.Errorf("missing required argument")
	ErrInvalidArgument     = fmt.Errorf("invalid argument")
)
