package service

import "errors"

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrInvalidTransactionType = errors.New("credit accepts only purchase and bonus transaction types")
	ErrProductMismatch        = errors.New("product id does not match transaction payload")
)
