package domain

import "errors"

var (
	// ErrTransport signals a failed engine request (connection refused,
	// non-2xx status, or a body that is not JSON).
	ErrTransport = errors.New("transport failure")
	// ErrSchemaFormat signals a mapping response missing expected structure.
	ErrSchemaFormat = errors.New("malformed schema")
	// ErrUnknownColumn signals a sort on a column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")
)
