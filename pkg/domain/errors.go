package domain

import "errors"

// ErrSessionNotFound is returned when a conversant has no session in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidChoice is returned when a bounded-choice reply is out of range or not a number.
var ErrInvalidChoice = errors.New("invalid choice")

// ErrRenderFailure is returned when the complaint document cannot be produced.
var ErrRenderFailure = errors.New("report render failed")

// ErrSendFailure is returned when the transport cannot deliver an outbound message.
var ErrSendFailure = errors.New("send failed")

// ErrInputRejected is returned when inbound text fails sanitization.
var ErrInputRejected = errors.New("input rejected")
