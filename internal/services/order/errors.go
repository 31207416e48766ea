package order

import "errors"

var (
	ErrInvalidAmount       = errors.New("order total must be positive")
	ErrInvalidTimeSlot     = errors.New("invalid time slot")
	ErrMissingAddress      = errors.New("delivery address is required")
	ErrInvalidPayment      = errors.New("unsupported payment method")
	ErrNotOrderOwner       = errors.New("order does not belong to this user")
	ErrInvalidTransition   = errors.New("invalid delivery status transition")
	ErrNotAuthorized       = errors.New("actor is not allowed to perform this transition")
	ErrAlreadyTerminal     = errors.New("delivery already reached a final status")
	ErrWindowClosed        = errors.New("cancellation window has closed")
	ErrBadConfirmationCode = errors.New("confirmation code does not match")
)
