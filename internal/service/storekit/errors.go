package storekit

import "errors"

var (
	ErrInvalidTransaction  = errors.New("invalid transaction data")
	ErrVerificationExpired = errors.New("transaction verification expired")
)
