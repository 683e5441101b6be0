package protocol

import "errors"

var (
	// ErrNoRecipient is returned by executors that need a lead email address.
	ErrNoRecipient = errors.New("lead has no email address")
	// ErrTransportFailure wraps every error returned by the mail transport.
	ErrTransportFailure = errors.New("transport failure")
)
