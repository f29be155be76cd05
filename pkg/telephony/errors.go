package telephony

import "errors"

var (
	ErrInvalidSignature = errors.New("telephony: invalid webhook signature")

	ErrCallIDRequired = errors.New("telephony: call id is required")
)
