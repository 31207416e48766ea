package errors

// DomainError is a coded error crossing module boundaries. The route layer
// maps codes onto HTTP statuses.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}
