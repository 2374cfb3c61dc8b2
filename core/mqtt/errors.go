package mqtt

import "errors"

// ErrPublishFailed is returned when a mission could not be delivered after
// every retry.
var ErrPublishFailed = errors.New("mission publish failed")
