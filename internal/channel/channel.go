// Package channel implements the two delivery paths: the primary
// coordinate-automation channel and the durable fallback inbox.
package channel

import "errors"

// Channel failure modes. The router distinguishes these to decide between
// retrying, escalating to fallback, and surfacing failure to the caller.
var (
	// ErrEndpointInactive means no delivery attempt was made: the target
	// is deactivated and the automation surface would silently drop input.
	ErrEndpointInactive = errors.New("channel: endpoint inactive")
	// ErrPositionOutOfBounds means the endpoint's coordinates fell outside
	// the automation surface at attempt time.
	ErrPositionOutOfBounds = errors.New("channel: position out of bounds")
	// ErrTransferTimeout means the automation did not confirm submission
	// within the bounded wait.
	ErrTransferTimeout = errors.New("channel: transfer timeout")
	// ErrChannelFailure is the catch-all for unexplained automation errors.
	ErrChannelFailure = errors.New("channel: delivery failed")
	// ErrStorageUnavailable is the fallback channel's only failure mode.
	ErrStorageUnavailable = errors.New("channel: inbox storage unavailable")
)
