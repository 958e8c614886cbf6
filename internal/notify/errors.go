package notify

import "codeberg.org/verne/gamepulse/internal/errors"

const (
	ErrBusClosed          = errors.ErrorCode("notify_bus_closed")
	ErrSubscriberExists   = errors.ErrorCode("notify_subscriber_exists")
	ErrSubscriberNotFound = errors.ErrorCode("notify_subscriber_not_found")
)
