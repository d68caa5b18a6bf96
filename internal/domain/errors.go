package domain

import "errors"

// Error kinds shared by every layer. Wrap with fmt.Errorf("...: %w", Err...) and
// test with errors.Is; the HTTP boundary maps each kind to a status code.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrProvision          = errors.New("tenant provisioning failed")
	ErrIdentifierRejected = errors.New("identifier rejected by allow-list")
	ErrNoFieldsProvided   = errors.New("no fields provided")
)
