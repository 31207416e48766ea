package withdrawal

import "errors"

var (
	ErrNotFound          = errors.New("withdrawal request not found")
	ErrInvalidAmount     = errors.New("invalid withdrawal amount")
	ErrInsufficientFunds = errors.New("requested amount exceeds available balance")
	ErrIncompleteBank    = errors.New("incomplete bank details")
	ErrNotPending        = errors.New("request already resolved")
	ErrNotApproved       = errors.New("request is not approved")
	ErrReasonRequired    = errors.New("rejection reason required")
	ErrNotRequester      = errors.New("only the requester may cancel")
)
