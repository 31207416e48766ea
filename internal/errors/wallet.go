package errors

var ErrInvalidAmount = &DomainError{
	Code:    "INVALID_AMOUNT",
	Message: "invalid amount",
}
