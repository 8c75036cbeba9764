package buyers

import "errors"

var (
	// ErrBuyerNotFound is returned when a buyer is not found
	ErrBuyerNotFound = errors.New("buyer not found")

	// ErrForbidden is returned when the actor does not own the record
	ErrForbidden = errors.New("not the record owner")

	// ErrStaleWrite is returned when the record changed after the client
	// last observed it
	ErrStaleWrite = errors.New("record was modified by someone else")

	// ErrDuplicateContact is returned on a phone/email uniqueness conflict
	ErrDuplicateContact = errors.New("phone number or email already exists")

	// ErrTooManyRows is returned when an import exceeds the batch cap
	ErrTooManyRows = errors.New("csv file cannot contain more than 200 rows")
)
