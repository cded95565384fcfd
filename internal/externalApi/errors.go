package externalApi

import "errors"

var (
	ErrNotFound       = errors.New("instrument not found")
	ErrBadStatus      = errors.New("unexpected response status")
	ErrInvalidPayload = errors.New("invalid response payload")
)
