package model

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these with fmt.Errorf("%w: %w", kind, cause).
var (
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not found")
	ErrUpstreamAuth   = errors.New("identity provider error")
	ErrUpstreamLedger = errors.New("ledger error")
	ErrStore          = errors.New("record store error")
	ErrConfirmTimeout = errors.New("confirmation timed out")
)

// StageError reports the provisioning stage that failed. The wallet record is kept.
type StageError struct {
	Email string
	Stage ProvisionState // the state the wallet was trying to reach
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("provisioning %s failed at stage %s: %v", e.Email, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// IsStageError checks if err carries a StageError
func IsStageError(err error) bool {
	var se *StageError
	return errors.As(err, &se)
}

// ErrorResponse is the consistent JSON structure for all API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
