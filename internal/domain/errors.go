package domain

import "errors"

// Error message string constants - single source of truth for error messages
// Use these in assert.Contains() checks when testing error messages
const (
	ErrMsgUnknownItem    = "unknown shop item"
	ErrMsgInsufficientXP = "insufficient xp"
	ErrMsgTargetRequired = "item requires a target"
	ErrMsgChannelFull    = "channel duck population is full"
)

// Common domain errors
// Wrap these with fmt.Errorf("%w: %s", domain.ErrXxx, details) for context.
var (
	ErrUnknownItem    = errors.New(ErrMsgUnknownItem)
	ErrInsufficientXP = errors.New(ErrMsgInsufficientXP)
	ErrTargetRequired = errors.New(ErrMsgTargetRequired)
	ErrChannelFull    = errors.New(ErrMsgChannelFull)
)
