package router

import "time"

// Channel identifies which delivery path produced a result.
type Channel string

const (
	ChannelPrimary  Channel = "PRIMARY"
	ChannelFallback Channel = "FALLBACK"
)

// Reason is a machine-readable outcome code carried on DeliveryResult so
// callers can distinguish outcomes without parsing error strings.
type Reason string

const (
	// ReasonUnknownEndpoint: the recipient is not in the registry. Terminal;
	// no channel was touched.
	ReasonUnknownEndpoint Reason = "UNKNOWN_ENDPOINT"
	// ReasonDuplicateSuppressed: the same fingerprint was already delivered
	// within the dedup window. Reported as success: the original delivery
	// already happened.
	ReasonDuplicateSuppressed Reason = "DUPLICATE_SUPPRESSED"
	// ReasonEndpointInactive: the target was inactive, so primary was
	// skipped and the message went straight to the fallback inbox. Also a
	// success variant; it tells operators to fix the registry, not the
	// infrastructure.
	ReasonEndpointInactive Reason = "ENDPOINT_INACTIVE"
	// ReasonStorageUnavailable: the fallback inbox write failed. The only
	// outright delivery failure once a target validates.
	ReasonStorageUnavailable Reason = "STORAGE_UNAVAILABLE"
	// ReasonDeadlineExceeded: the caller's deadline expired and the
	// fallback write could not complete either.
	ReasonDeadlineExceeded Reason = "DEADLINE_EXCEEDED"
)

// DeliveryResult is the per-target outcome of one logical send.
type DeliveryResult struct {
	EndpointID string        `json:"endpoint_id"`
	Channel    Channel       `json:"channel"`
	Success    bool          `json:"success"`
	Attempts   int           `json:"attempts"` // primary attempts made; 0 if primary was never tried
	Reason     Reason        `json:"reason,omitempty"`
	Err        error         `json:"-"` // underlying cause when Success is false
	Duration   time.Duration `json:"duration"`
}
