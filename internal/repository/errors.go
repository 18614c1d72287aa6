package repository

import "errors"

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when trying to create an account with an existing email
	ErrDuplicateEmail = errors.New("account with this email already exists")

	// ErrDuplicateUsername is returned when trying to create an account with an existing username
	ErrDuplicateUsername = errors.New("account with this username already exists")

	// ErrAlreadyUsed is returned by conditional one-time consume operations
	// when another request consumed the record first
	ErrAlreadyUsed = errors.New("record already consumed")

	// ErrStaleStatus is returned when a conditional status update found the
	// account in a different state than expected
	ErrStaleStatus = errors.New("account status changed concurrently")
)
