package constants

import "time"

// RFC3339DateTimeFormat is the wire format for every timestamp the API emits.
const RFC3339DateTimeFormat = time.RFC3339

// Rate limits apply per client IP.
const (
	DefaultRateLimitRequests = 100
	DefaultRateLimitWindow   = time.Minute

	// DefaultWaitlistRateLimitRequests caps POST /waitlist per client per minute,
	// on top of the global limit.
	DefaultWaitlistRateLimitRequests = 30
)

const DefaultRequestTimeout = 30 * time.Second
