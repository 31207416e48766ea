package settlement

import "errors"

var (
	ErrNotFound     = errors.New("settlement not found")
	ErrNotDelivered = errors.New("delivery order is not in delivered status")
	ErrNotSettled   = errors.New("settlement is not in settled status")
	ErrNotDisputed  = errors.New("settlement is not disputed")
)
